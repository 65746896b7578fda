// Package store owns the client session: cart, favorites, the signed-in
// account and the local review overlay.
//
// All mutations are serialized by one mutex. After each change the persisted
// subset of the state is written to the kv repository under SnapshotKey and
// every subscriber receives a copy of the new State, in mutation order and
// outside the state lock. Subscribers may call read accessors but must not
// mutate the store synchronously.
//
// Storage is best effort: read and write failures are logged and the
// in-memory state stays authoritative.
package store

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophshop/internal/client/filter"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/kv"
	"github.com/dmitrijs2005/gophshop/internal/client/reviews"
	"github.com/dmitrijs2005/gophshop/internal/cryptox"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

// Directory is the account registry the store authenticates against.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, bool)
	FindByID(ctx context.Context, id int64) (*models.Account, bool)
	Insert(ctx context.Context, a models.Account) error
	Replace(ctx context.Context, a models.Account) error
	RemoveWith(ctx context.Context, id int64, extra map[string][]byte) error
	NextID(ctx context.Context, now time.Time) int64
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) bool
	NeedsRehash(encoded string) bool
}

// State is a point-in-time copy of the session.
type State struct {
	Cart            []models.Product
	Favorites       []models.Product
	IsAuthenticated bool
	CurrentUser     *models.Account
	LocalReviews    map[int][]models.LocalReview
	SearchTerm      string
}

func (s State) clone() State {
	c := s
	c.Cart = slices.Clone(s.Cart)
	c.Favorites = slices.Clone(s.Favorites)
	c.CurrentUser = s.CurrentUser.Clone()
	c.LocalReviews = make(map[int][]models.LocalReview, len(s.LocalReviews))
	for k, v := range s.LocalReviews {
		c.LocalReviews[k] = slices.Clone(v)
	}
	return c
}

type Store struct {
	mu    sync.Mutex
	state State

	kv     kv.Repository
	dir    Directory
	hasher PasswordHasher
	log    logging.Logger
	now    func() time.Time
	newID  func() string

	dispatch sync.Mutex
	subMu    sync.Mutex
	subs     map[int]func(State)
	nextSub  int
}

type Option func(*Store)

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithHasher(h PasswordHasher) Option {
	return func(s *Store) { s.hasher = h }
}

// WithIDGenerator sets the suffix generator of local review ids.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New builds a store and hydrates it from the snapshot in repo. A missing or
// unreadable snapshot yields the default logged-out state.
func New(ctx context.Context, repo kv.Repository, dir Directory, opts ...Option) *Store {
	s := &Store{
		kv:     repo,
		dir:    dir,
		hasher: cryptox.NewHasher(cryptox.DefaultParams),
		log:    logging.Nop(),
		now:    time.Now,
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
		subs:   make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "store")

	s.state = s.hydrate(ctx)
	return s
}

// Subscribe registers fn to receive the state after every change. The
// returned func cancels the subscription and is safe to call twice.
func (s *Store) Subscribe(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

type outcome int

const (
	unchanged outcome = iota
	// changed state is persisted and broadcast
	changed
	// changed state is broadcast only
	changedVolatile
)

// apply runs fn under the state lock and, depending on its outcome, persists
// the snapshot and notifies subscribers. The dispatch lock is taken first and
// held through notification, so the state lock is free while subscribers run.
func (s *Store) apply(ctx context.Context, fn func(st *State) (outcome, error)) error {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	out, err := fn(&s.state)
	if err != nil || out == unchanged {
		s.mu.Unlock()
		return err
	}
	if out == changed {
		s.persistLocked(ctx)
	}
	snapshot := s.state.clone()
	s.mu.Unlock()

	s.subMu.Lock()
	ids := slices.Sorted(maps.Keys(s.subs))
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snapshot.clone())
	}
	return nil
}

func (s *Store) read() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

func (s *Store) State() State { return s.read() }

func (s *Store) Cart() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Cart)
}

func (s *Store) Favorites() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.Favorites)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

func (s *Store) CurrentUser() *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentUser.Clone()
}

func (s *Store) SearchTerm() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.SearchTerm
}

func (s *Store) LocalReviews() map[int][]models.LocalReview {
	return s.read().LocalReviews
}

// LocalReviewsFor returns the local reviews of one product in submission order.
func (s *Store) LocalReviewsFor(productID int) []models.LocalReview {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.state.LocalReviews[productID])
}

// CartTotal is the sum of cart prices, one unit per product.
func (s *Store) CartTotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0.0
	for _, p := range s.state.Cart {
		total += p.Price
	}
	return total
}

func (s *Store) InCart(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.state.Cart, id) >= 0
}

func (s *Store) IsFavorite(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return indexOf(s.state.Favorites, id) >= 0
}

// VisibleProducts filters catalog by the current search term.
func (s *Store) VisibleProducts(catalog []models.Product) []models.Product {
	return filter.Products(catalog, s.SearchTerm())
}

// MergedReviews returns the remote reviews of p followed by its local ones.
func (s *Store) MergedReviews(p models.Product) []models.DisplayReview {
	return reviews.Merge(p.Reviews, s.LocalReviewsFor(p.ID))
}

func indexOf(products []models.Product, id int) int {
	return slices.IndexFunc(products, func(p models.Product) bool { return p.ID == id })
}
