package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Refresh(ctx context.Context) error
	Open(ctx context.Context, route string) error
	Images(ctx context.Context) error
	Upload(ctx context.Context, path string) error
	Delete(ctx context.Context, id string) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It shares reader with the interactive prompts so no input is lost to
// buffering. The loop exits on EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	help               show available commands
//	signup | login     start a session
//	whoami             show the current identity
//	refresh            rotate the session cookies
//	open <route>       show the gate decision for a web route
//	images             list own images
//	upload <file>      upload an image
//	delete <id>        delete an image
//	logout             end the session
//	exit | quit        leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own failures.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("ps %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, refresh, open <route>, images, upload <file>, delete <id>, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, whoami, open <route>, exit")
			}

		case "signup", "register":
			_ = a.Signup(ctx)

		case "login", "signin":
			_ = a.Login(ctx)

		case "logout", "signout":
			_ = a.Logout(ctx)

		case "whoami", "me":
			_ = a.Whoami(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "open":
			if len(args) != 1 {
				printlnFn("Usage: open <route>")
				continue
			}
			_ = a.Open(ctx, args[0])

		case "images", "ls":
			_ = a.Images(ctx)

		case "upload":
			if len(args) != 1 {
				printlnFn("Usage: upload <file>")
				continue
			}
			_ = a.Upload(ctx, args[0])

		case "delete", "rm":
			if len(args) != 1 {
				printlnFn("Usage: delete <id>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
