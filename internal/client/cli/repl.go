package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Configure(ctx context.Context) error
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Status(ctx context.Context) error
	Check(ctx context.Context, permission string) error
	Headers(ctx context.Context) error
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	Clear(ctx context.Context) error
	Audit(ctx context.Context, limit int) error
}

const defaultAuditLimit = 20

// runREPL starts a simple read–eval–print loop for the satkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Errors returned by handlers are printed to
// out and the loop continues. The loop exits on EOF, when the user types
// "exit" or "quit", or when ctx is done.
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help             show available commands
//	  - configure        store the local credential record
//	  - register         create an account on the identity provider
//	  - login            authenticate
//	  - clear            delete the local credential record
//	  - audit [n]        show recent audit entries
//	  - exit | quit      leave the program
//
//	Logged in, additionally:
//	  - status           describe the current session
//	  - check <perm>     check a capability, e.g. objects:get
//	  - headers          print the upstream API headers
//	  - refresh          renew the access token
//	  - logout           end the session
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, out io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "sk %s> ", statusFn())

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			fmt.Fprintln(out)
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				fmt.Fprintln(out, "Available commands: status, check <perm>, headers, refresh, logout, configure, clear, audit [n], exit")
			} else {
				fmt.Fprintln(out, "Available commands: configure, register, login, clear, audit [n], exit")
			}

		case "configure":
			cmdErr = a.Configure(ctx)

		case "register":
			cmdErr = a.Register(ctx)

		case "login":
			cmdErr = a.Login(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "check":
			if len(args) == 0 {
				fmt.Fprintln(out, "Usage: check <resource:action>")
				continue
			}
			cmdErr = a.Check(ctx, args[0])

		case "headers":
			cmdErr = a.Headers(ctx)

		case "refresh":
			cmdErr = a.Refresh(ctx)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "clear":
			cmdErr = a.Clear(ctx)

		case "audit":
			limit := defaultAuditLimit
			if len(args) > 0 {
				if _, err := fmt.Sscanf(args[0], "%d", &limit); err != nil || limit <= 0 {
					fmt.Fprintln(out, "Usage: audit [n]")
					continue
				}
			}
			cmdErr = a.Audit(ctx, limit)

		case "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return

		default:
			fmt.Fprintln(out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(out, "Error:", describeError(cmdErr))
		}
	}
}
