package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isAuthenticated() bool
	Sync(ctx context.Context) error
	List(ctx context.Context) error
	Save(ctx context.Context) error
	Enroll(ctx context.Context) error
	Login(ctx context.Context) error
	AttachCredential(ctx context.Context) error
	PossessionLogin(ctx context.Context) error
	Status(ctx context.Context) error
	Clear(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the vault CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Always:
//	  - help             — show available commands
//	  - sync             — refresh the account list from the server
//	  - save             — store the current account list for offline use
//	  - enroll           — set up the offline profile and password
//	  - login            — offline login with the password
//	  - possess          — offline login with a possession credential
//	  - status           — connectivity, offline data and staleness summary
//	  - exit | quit      — leave the program
//
//	Authenticated (or online):
//	  - (l)ist           — list accounts with their current codes
//	  - attachcred       — attach possession-credential metadata
//	  - clear            — wipe all offline data
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("otpvault %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isAuthenticated() {
				printlnFn("Available commands: (l)ist, sync, save, attachcred, status, clear, exit")
			} else {
				printlnFn("Available commands: sync, save, enroll, login, possess, status, exit")
			}

		case "sync":
			_ = a.Sync(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "save":
			_ = a.Save(ctx)

		case "enroll":
			_ = a.Enroll(ctx)

		case "login":
			_ = a.Login(ctx)

		case "attachcred":
			_ = a.AttachCredential(ctx)

		case "possess":
			_ = a.PossessionLogin(ctx)

		case "status":
			_ = a.Status(ctx)

		case "clear":
			_ = a.Clear(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
