package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

// ProductsKey identifies the catalog list query.
const ProductsKey = "products"

// ProductKey identifies the detail query of one product.
func ProductKey(id int) string {
	return "product/" + strconv.Itoa(id)
}

// FetchError is the final failure of a catalog query after retries.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether trying again later may succeed.
func (e *FetchError) Retryable() bool {
	return errors.Is(e.Err, client.ErrUnavailable)
}

// Update is delivered to subscribers of a query key after each fetch.
// Exactly one of Products, Product and Err is meaningful, depending on Key.
type Update struct {
	Key      string
	Products []models.Product
	Product  *models.Product
	Err      error
}

type CatalogService interface {
	// Products returns the catalog list, from cache while it is fresh.
	Products(ctx context.Context) ([]models.Product, error)
	// Product returns one product. A non-positive id fails without a request.
	Product(ctx context.Context, id int) (*models.Product, error)
	// Subscribe registers fn for updates of key and returns its cancel func.
	Subscribe(key string, fn func(Update)) func()
	// Invalidate marks key stale; an empty key invalidates everything.
	Invalidate(key string)
	// Prune drops entries older than the retention window that nobody
	// subscribes to and returns how many were dropped.
	Prune(now time.Time) int
	// StartJanitor calls Prune every interval until ctx is done.
	StartJanitor(ctx context.Context, interval time.Duration)
}

type CatalogOptions struct {
	Limit        int
	StaleTime    time.Duration
	GCTime       time.Duration
	RetryBackoff time.Duration
	Now          func() time.Time
}

// DefaultCatalogOptions are the cache windows the web client used.
var DefaultCatalogOptions = CatalogOptions{
	Limit:        100,
	StaleTime:    5 * time.Minute,
	GCTime:       30 * time.Minute,
	RetryBackoff: 500 * time.Millisecond,
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
	stale     bool
}

type catalogService struct {
	client client.Client
	log    logging.Logger
	opts   CatalogOptions
	group  singleflight.Group

	mu      sync.Mutex
	cache   map[string]*cacheEntry
	subs    map[string]map[int]func(Update)
	nextSub int
}

func NewCatalogService(c client.Client, log logging.Logger, opts CatalogOptions) CatalogService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Millisecond
	}
	return &catalogService{
		client: c,
		log:    log.With("component", "catalog"),
		opts:   opts,
		cache:  make(map[string]*cacheEntry),
		subs:   make(map[string]map[int]func(Update)),
	}
}

func (s *catalogService) Products(ctx context.Context) ([]models.Product, error) {
	v, err := s.query(ctx, ProductsKey, func(ctx context.Context) (any, error) {
		return s.client.Products(ctx, s.opts.Limit)
	})
	if err != nil {
		return nil, err
	}
	return cloneProducts(v.([]models.Product)), nil
}

func (s *catalogService) Product(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, &FetchError{Key: ProductKey(id), Err: client.ErrInvalidID}
	}

	v, err := s.query(ctx, ProductKey(id), func(ctx context.Context) (any, error) {
		return s.client.Product(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return cloneProduct(v.(*models.Product)), nil
}

func (s *catalogService) query(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := s.fresh(key); ok {
		return v, nil
	}

	// The shared fetch outlives any single caller; each caller only stops waiting.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return s.fetchWithRetry(shared, key, fetch)
	})

	select {
	case <-ctx.Done():
		return nil, &FetchError{Key: key, Err: ctx.Err()}
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (s *catalogService) fetchWithRetry(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	var out any
	attempt := 0

	err := retry.Do(ctx, retry.WithMaxRetries(1, retry.NewConstant(s.opts.RetryBackoff)), func(ctx context.Context) error {
		attempt++
		v, err := fetch(ctx)
		if err != nil {
			s.log.Debug(ctx, "catalog fetch failed", "key", key, "attempt", attempt, "error", err)
			if errors.Is(err, client.ErrUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = v
		return nil
	})

	if err != nil {
		if retained, ok := s.retained(key); ok {
			s.log.Warn(ctx, "refetch failed, serving cached data", "key", key, "error", err)
			s.notify(updateFor(key, retained))
			return retained, nil
		}
		ferr := &FetchError{Key: key, Err: err}
		s.notify(Update{Key: key, Err: ferr})
		return nil, ferr
	}

	s.mu.Lock()
	s.cache[key] = &cacheEntry{value: out, fetchedAt: s.opts.Now()}
	s.mu.Unlock()

	s.notify(updateFor(key, out))
	return out, nil
}

func updateFor(key string, v any) Update {
	u := Update{Key: key}
	switch val := v.(type) {
	case []models.Product:
		u.Products = cloneProducts(val)
	case *models.Product:
		u.Product = cloneProduct(val)
	}
	return u
}

func cloneProduct(p *models.Product) *models.Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Images = slices.Clone(p.Images)
	c.Reviews = slices.Clone(p.Reviews)
	return &c
}

func cloneProducts(ps []models.Product) []models.Product {
	if ps == nil {
		return nil
	}
	out := make([]models.Product, len(ps))
	for i := range ps {
		out[i] = *cloneProduct(&ps[i])
	}
	return out
}

func (s *catalogService) fresh(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache[key]
	if !ok || e.stale || s.opts.Now().Sub(e.fetchedAt) >= s.opts.StaleTime {
		return nil, false
	}
	return e.value, true
}

func (s *catalogService) retained(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.cache[key]
	if !ok || s.opts.Now().Sub(e.fetchedAt) >= s.opts.GCTime {
		return nil, false
	}
	return e.value, true
}

func (s *catalogService) Subscribe(key string, fn func(Update)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]func(Update))
	}
	s.subs[key][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[key], id)
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}

func (s *catalogService) notify(u Update) {
	s.mu.Lock()
	fns := make([]func(Update), 0, len(s.subs[u.Key]))
	for _, fn := range s.subs[u.Key] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
}

func (s *catalogService) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, e := range s.cache {
		if key == "" || k == key {
			e.stale = true
		}
	}
}

func (s *catalogService) Prune(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k, e := range s.cache {
		if _, watched := s.subs[k]; watched {
			continue
		}
		if now.Sub(e.fetchedAt) >= s.opts.GCTime {
			delete(s.cache, k)
			n++
		}
	}
	return n
}

func (s *catalogService) StartJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Prune(s.opts.Now()); n > 0 {
				s.log.Debug(ctx, "evicted catalog entries", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
