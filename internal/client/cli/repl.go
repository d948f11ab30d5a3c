package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	AddThesis(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Mine(ctx context.Context) error
	Open(ctx context.Context, args []string) error
	Avatar(ctx context.Context, args []string) error
	Favorite(ctx context.Context, args []string) error
	Unfavorite(ctx context.Context, args []string) error
	Favorites(ctx context.Context) error
	EditProfile(ctx context.Context) error
	SendMessage(ctx context.Context, args []string) error
	Inbox(ctx context.Context) error
	DeleteThesis(ctx context.Context, args []string) error
	Members(ctx context.Context) error
	EditMember(ctx context.Context, args []string) error
	DeleteMember(ctx context.Context, args []string) error
	Stats(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, help, exit"
	helpLoggedIn  = "Available commands: add <file>, list [limit [offset]], mine, open <id>, avatar [file], fav <id>, unfav <id>, favs, msg <id>, inbox, profile, whoami, logout, help, exit"
	helpAdmin     = "Admin commands: delete <id>, members, member-edit <id>, member-delete <id>, stats"
)

// runREPL reads commands from reader until EOF, "exit" or "quit". Errors
// returned by handlers are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("tv %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
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
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
				if a.isAdmin() {
					printlnFn(helpAdmin)
				}
			} else {
				printlnFn(helpLoggedOut)
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "add":
			cmdErr = a.AddThesis(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "mine":
			cmdErr = a.Mine(ctx)
		case "open":
			cmdErr = a.Open(ctx, args)
		case "avatar":
			cmdErr = a.Avatar(ctx, args)
		case "fav":
			cmdErr = a.Favorite(ctx, args)
		case "unfav":
			cmdErr = a.Unfavorite(ctx, args)
		case "favs":
			cmdErr = a.Favorites(ctx)
		case "msg":
			cmdErr = a.SendMessage(ctx, args)
		case "inbox":
			cmdErr = a.Inbox(ctx)
		case "profile":
			cmdErr = a.EditProfile(ctx)
		case "delete":
			cmdErr = a.DeleteThesis(ctx, args)
		case "members":
			cmdErr = a.Members(ctx)
		case "member-edit":
			cmdErr = a.EditMember(ctx, args)
		case "member-delete":
			cmdErr = a.DeleteMember(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(describe(cmdErr))
		}
		if err == io.EOF {
			return
		}
	}
}
