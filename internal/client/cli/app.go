package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strconv"

	"github.com/dmitrijs2005/gophshop/internal/client/config"
	"github.com/dmitrijs2005/gophshop/internal/client/services"
	"github.com/dmitrijs2005/gophshop/internal/client/store"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

type App struct {
	config  *config.Config
	store   *store.Store
	catalog services.CatalogService
	avatars services.AvatarStore
	log     logging.Logger
	reader  *bufio.Reader
	out     io.Writer
}

type Option func(*App)

// WithIO replaces stdin/stdout, mostly for tests.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *App) {
		a.reader = bufio.NewReader(in)
		a.out = out
	}
}

func NewApp(c *config.Config, st *store.Store, catalog services.CatalogService,
	avatars services.AvatarStore, log logging.Logger, opts ...Option) *App {

	if avatars == nil {
		avatars = services.DataURLAvatarStore{}
	}
	if log == nil {
		log = logging.Nop()
	}

	a := &App{
		config:  c,
		store:   st,
		catalog: catalog,
		avatars: avatars,
		log:     log.With("component", "cli"),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run starts the cache janitor and blocks in the REPL until the user exits
// or input ends.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.catalog.StartJanitor(ctx, a.config.JanitorInterval)

	unsubscribe := a.store.Subscribe(func(st store.State) {
		a.log.Debug(ctx, "state changed",
			"cart", len(st.Cart),
			"favorites", len(st.Favorites),
			"authenticated", st.IsAuthenticated)
	})
	defer unsubscribe()

	printlnFn("Welcome to the shop (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.store.IsAuthenticated()
}

// status is shown in the prompt: the signed-in name and the cart size.
func (a *App) status() string {
	s := ""
	if u := a.store.CurrentUser(); u != nil {
		s = u.DisplayName() + " "
	}
	return s + "cart:" + strconv.Itoa(len(a.store.Cart()))
}
