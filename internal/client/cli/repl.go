package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for prompt and REPL-level output.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Products(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Query(ctx context.Context, args []string) error

	Cart(ctx context.Context) error
	AddToCart(ctx context.Context, args []string) error
	RemoveFromCart(ctx context.Context, args []string) error
	ClearCart(ctx context.Context) error
	ToggleFavorite(ctx context.Context, args []string) error
	Favorites(ctx context.Context) error
	Unfavorite(ctx context.Context, args []string) error

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Avatar(ctx context.Context, args []string) error
	DeleteAccount(ctx context.Context) error

	AddReview(ctx context.Context, args []string) error
	EditReview(ctx context.Context, args []string) error
	DeleteReview(ctx context.Context, args []string) error
}

const (
	helpGuest = "Available commands: products [term], show <id>, query <expr>, cart, add <id>, remove <id>, clear, " +
		"fav <id>, favs, unfav <id>, register, login, exit"

	helpMember = "Available commands: products [term], show <id>, query <expr>, cart, add <id>, remove <id>, clear, " +
		"fav <id>, favs, unfav <id>, review <id>, editreview <id> <review-id>, delreview <id> <review-id>, " +
		"profile, passwd, avatar <file>, deleteaccount, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
//
// The first token is the command, the rest are its arguments. Handler errors
// are printed and the loop continues. The loop exits on EOF or when the user
// types "exit" or "quit".
//
// Commands that require a session (review, editreview, delreview, profile,
// passwd, avatar, deleteaccount, logout) are refused while signed out.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("shop (%s)> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if memberOnly[cmd] && !a.isLoggedIn() {
			printlnFn("Please log in first")
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpMember)
			} else {
				printlnFn(helpGuest)
			}

		case "products", "p", "search":
			cmdErr = a.Products(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "query", "q":
			cmdErr = a.Query(ctx, args)

		case "cart":
			cmdErr = a.Cart(ctx)
		case "add":
			cmdErr = a.AddToCart(ctx, args)
		case "remove", "rm":
			cmdErr = a.RemoveFromCart(ctx, args)
		case "clear":
			cmdErr = a.ClearCart(ctx)
		case "fav":
			cmdErr = a.ToggleFavorite(ctx, args)
		case "favs":
			cmdErr = a.Favorites(ctx)
		case "unfav":
			cmdErr = a.Unfavorite(ctx, args)

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "profile":
			cmdErr = a.Profile(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "avatar":
			cmdErr = a.Avatar(ctx, args)
		case "deleteaccount":
			cmdErr = a.DeleteAccount(ctx)

		case "review":
			cmdErr = a.AddReview(ctx, args)
		case "editreview":
			cmdErr = a.EditReview(ctx, args)
		case "delreview":
			cmdErr = a.DeleteReview(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
	}
}

var memberOnly = map[string]bool{
	"logout":        true,
	"profile":       true,
	"passwd":        true,
	"avatar":        true,
	"deleteaccount": true,
	"review":        true,
	"editreview":    true,
	"delreview":     true,
}
