// Package migrations embeds the vault's versioned schema. Upgrades are
// additive only: each migration creates missing containers and never
// touches existing data, so re-running against a current store is a no-op.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
