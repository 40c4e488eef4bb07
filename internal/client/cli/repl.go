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
	isLoggedIn() bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Captcha(ctx context.Context) error
	CheckPassword(ctx context.Context) error
	Whoami(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the authkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Unknown commands are reported back to the
// user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current view (from statusFn): "guest" before login,
// the account name after it.
//
//	Not logged in:
//	  - help              — show available commands
//	  - login             — authenticate (shows a CAPTCHA first)
//	  - signup | register — create an account
//	  - captcha           — fetch a new CAPTCHA
//	  - checkpw           — check a password against the policy
//	  - exit | quit       — leave the program
//
//	Logged in:
//	  - help              — show available commands
//	  - whoami            — show the signed-in account
//	  - logout            — forget the session
//	  - login             — sign in as someone else
//	  - exit | quit       — leave the program
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("authkeeper (%s) > ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, logout, login, exit")
			} else {
				printlnFn("Available commands: login, signup, captcha, checkpw, exit")
			}

		case "login":
			err = a.Login(ctx)

		case "signup", "register":
			err = a.Signup(ctx)

		case "captcha":
			err = a.Captcha(ctx)

		case "checkpw":
			err = a.CheckPassword(ctx)

		case "whoami":
			err = a.Whoami(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
