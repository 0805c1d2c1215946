// Package remote talks to the remote account source. The server owns the
// account CRUD; this client only consumes the read surface the offline
// layer needs.
package remote

import (
	"context"

	"github.com/dmitrijs2005/otpvault/internal/client/models"
)

// Client is the read-only surface of the remote account source.
type Client interface {
	// FetchAll returns every account record. When includeCodes is set the
	// server also embeds freshly generated codes in the response.
	FetchAll(ctx context.Context, includeCodes bool) ([]models.Account, error)

	// Ping checks server reachability.
	Ping(ctx context.Context) error
}
