package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if a.vault != nil {
		if p := a.vault.Profile(); p != nil && p.Name != "" {
			s = p.Name + " "
		}
	}
	if a.Mode != ModeUnknown {
		s = s + string(a.Mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s) ", s)
	}
	return s
}

// Root starts the background connectivity watcher and hands control to
// the REPL. Blocks until the user exits.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the otpvault CLI (type 'help' for commands)")

	go func() {
		a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
