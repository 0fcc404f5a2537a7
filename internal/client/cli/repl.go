package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App satisfies it; tests
// provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Events(ctx context.Context) error
	Event(ctx context.Context, args []string) error
	Join(ctx context.Context, args []string) error
	Registrations(ctx context.Context) error

	Scan(ctx context.Context, args []string) error
	CheckIn(ctx context.Context, args []string) error
	Pay(ctx context.Context, args []string) error

	Profile(ctx context.Context) error
	Deposit(ctx context.Context, args []string) error

	Ticket(ctx context.Context) error
	History(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, events, event <id>, ticket, history, exit"
	helpLoggedIn  = "Available commands: events, event <id>, join <id>, registrations, scan <payload>, " +
		"checkin <registration id>, pay <store id>, profile, deposit <amount>, ticket, history [export], " +
		"upload <registration id> <file>, logout, exit"
)

// runREPL reads commands from reader until EOF, "exit"/"quit" or ctx is
// cancelled. The first word selects the command and the rest are its
// arguments.
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors to the user.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("ep> %s > ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			_ = a.Register(ctx)
		case "login":
			_ = a.Login(ctx)
		case "logout":
			_ = a.Logout(ctx)

		case "events":
			_ = a.Events(ctx)
		case "event":
			_ = a.Event(ctx, args)
		case "join":
			_ = a.Join(ctx, args)
		case "registrations", "regs":
			_ = a.Registrations(ctx)

		case "scan":
			_ = a.Scan(ctx, args)
		case "checkin":
			_ = a.CheckIn(ctx, args)
		case "pay":
			_ = a.Pay(ctx, args)

		case "profile", "wallet":
			_ = a.Profile(ctx)
		case "deposit":
			_ = a.Deposit(ctx, args)

		case "ticket":
			_ = a.Ticket(ctx)
		case "history":
			_ = a.History(ctx, args)
		case "upload":
			_ = a.Upload(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
