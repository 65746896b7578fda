package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophshop/internal/client/client"
	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

type fakeCatalog struct {
	mu        sync.Mutex
	listCalls int
	itemCalls int
	listErrs  []error
	itemErrs  []error
	products  []models.Product
	gate      chan struct{}
	entered   atomic.Int32
	lastLimit int
}

func (f *fakeCatalog) Products(ctx context.Context, limit int) ([]models.Product, error) {
	f.entered.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastLimit = limit
	if len(f.listErrs) > 0 {
		err := f.listErrs[0]
		f.listErrs = f.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.products, nil
}

func (f *fakeCatalog) Product(ctx context.Context, id int) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemCalls++
	if len(f.itemErrs) > 0 {
		err := f.itemErrs[0]
		f.itemErrs = f.itemErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, client.ErrNotFound
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCatalog(f *fakeCatalog) (CatalogService, *clock) {
	clk := &clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	opts := DefaultCatalogOptions
	opts.RetryBackoff = time.Millisecond
	opts.Now = clk.Now
	return NewCatalogService(f, logging.Nop(), opts), clk
}

var sample = []models.Product{{ID: 1, Title: "Mascara"}, {ID: 2, Title: "Apple"}}

func TestCatalog_ProductsCachedWhileFresh(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, clk := newCatalog(f)
	ctx := context.Background()

	got, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
	assert.Equal(t, 100, f.lastLimit)

	clk.Advance(4 * time.Minute)
	_, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f.listCalls)

	clk.Advance(time.Minute)
	_, err = svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.listCalls)
}

func TestCatalog_RetriesOnceOnUnavailable(t *testing.T) {
	f := &fakeCatalog{products: sample, listErrs: []error{client.ErrUnavailable}}
	svc, _ := newCatalog(f)

	got, err := svc.Products(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, f.listCalls)
}

func TestCatalog_GivesUpAfterOneRetry(t *testing.T) {
	f := &fakeCatalog{listErrs: []error{client.ErrUnavailable, client.ErrUnavailable, nil}}
	svc, _ := newCatalog(f)

	_, err := svc.Products(context.Background())
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, ProductsKey, ferr.Key)
	assert.True(t, ferr.Retryable())
	assert.ErrorIs(t, err, client.ErrUnavailable)
	assert.Equal(t, 2, f.listCalls)
}

func TestCatalog_NotFoundIsNotRetried(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, _ := newCatalog(f)

	_, err := svc.Product(context.Background(), 42)
	require.ErrorIs(t, err, client.ErrNotFound)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.False(t, ferr.Retryable())
	assert.Equal(t, "product/42", ferr.Key)
	assert.Equal(t, 1, f.itemCalls)
}

func TestCatalog_InvalidIDMakesNoRequest(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, _ := newCatalog(f)

	_, err := svc.Product(context.Background(), 0)
	require.ErrorIs(t, err, client.ErrInvalidID)
	assert.Zero(t, f.itemCalls)
}

func TestCatalog_ProductCachedPerID(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, _ := newCatalog(f)
	ctx := context.Background()

	p, err := svc.Product(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mascara", p.Title)

	_, err = svc.Product(ctx, 1)
	require.NoError(t, err)
	_, err = svc.Product(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.itemCalls)
}

func TestCatalog_ServesRetainedDataWhenRefetchFails(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, clk := newCatalog(f)
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)

	f.listErrs = []error{client.ErrUnavailable, client.ErrUnavailable}
	clk.Advance(10 * time.Minute)

	got, err := svc.Products(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)

	f.listErrs = []error{client.ErrUnavailable, client.ErrUnavailable}
	clk.Advance(30 * time.Minute)
	_, err = svc.Products(ctx)
	require.ErrorIs(t, err, client.ErrUnavailable)
}

func TestCatalog_StaleServeNotifiesWithData(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, clk := newCatalog(f)
	ctx := context.Background()

	_, err := svc.Products(ctx)
	require.NoError(t, err)

	var got []Update
	svc.Subscribe(ProductsKey, func(u Update) { got = append(got, u) })

	f.listErrs = []error{client.ErrUnavailable, client.ErrUnavailable}
	clk.Advance(10 * time.Minute)
	_, err = svc.Products(ctx)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.NoError(t, got[0].Err)
	assert.Equal(t, sample, got[0].Products)
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	f := &fakeCatalog{products: []models.Product{
		{ID: 1, Title: "Mascara", Images: []string{"a.png"}},
		{ID: 2, Title: "Apple"},
	}}
	svc, _ := newCatalog(f)
	ctx := context.Background()

	list, err := svc.Products(ctx)
	require.NoError(t, err)
	list[0].Title = "changed"
	list[0].Images[0] = "changed.png"
	list[1] = models.Product{}

	again, err := svc.Products(ctx)
	require.NoError(t, err)
	require.Len(t, again, 2)
	assert.Equal(t, "Mascara", again[0].Title)
	assert.Equal(t, []string{"a.png"}, again[0].Images)

	p, err := svc.Product(ctx, 1)
	require.NoError(t, err)
	p.Title = "changed"
	p.Images[0] = "changed.png"

	p2, err := svc.Product(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Mascara", p2.Title)
	assert.Equal(t, []string{"a.png"}, p2.Images)
	assert.Equal(t, 1, f.listCalls)
	assert.Equal(t, 1, f.itemCalls)
}

func TestCatalog_SharedFetchSurvivesCallerCancel(t *testing.T) {
	f := &fakeCatalog{products: sample, gate: make(chan struct{})}
	svc, _ := newCatalog(f)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.Products(ctx)
		first <- err
	}()
	require.Eventually(t, func() bool { return f.entered.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-first:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	second := make(chan error, 1)
	go func() {
		_, err := svc.Products(context.Background())
		second <- err
	}()
	time.Sleep(10 * time.Millisecond)
	close(f.gate)

	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("second caller did not finish")
	}
	assert.EqualValues(t, 1, f.entered.Load())
}

func TestCatalog_Invalidate(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, _ := newCatalog(f)
	ctx := context.Background()

	_, _ = svc.Products(ctx)
	_, _ = svc.Product(ctx, 1)

	svc.Invalidate(ProductsKey)
	_, _ = svc.Products(ctx)
	_, _ = svc.Product(ctx, 1)
	assert.Equal(t, 2, f.listCalls)
	assert.Equal(t, 1, f.itemCalls)

	svc.Invalidate("")
	_, _ = svc.Products(ctx)
	_, _ = svc.Product(ctx, 1)
	assert.Equal(t, 3, f.listCalls)
	assert.Equal(t, 2, f.itemCalls)
}

func TestCatalog_SubscribersReceiveUpdates(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, clk := newCatalog(f)
	ctx := context.Background()

	var got []Update
	cancel := svc.Subscribe(ProductsKey, func(u Update) { got = append(got, u) })
	otherCalls := 0
	svc.Subscribe(ProductKey(1), func(Update) { otherCalls++ })

	_, err := svc.Products(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sample, got[0].Products)
	assert.NoError(t, got[0].Err)

	f.listErrs = []error{client.ErrBadResponse}
	svc.Invalidate(ProductsKey)
	clk.Advance(31 * time.Minute)
	_, err = svc.Products(ctx)
	require.Error(t, err)
	require.Len(t, got, 2)
	assert.ErrorIs(t, got[1].Err, client.ErrBadResponse)

	cancel()
	cancel()
	_, _ = svc.Products(ctx)
	assert.Len(t, got, 2)
	assert.Zero(t, otherCalls)
}

func TestCatalog_ConcurrentRequestsCollapse(t *testing.T) {
	f := &fakeCatalog{products: sample, gate: make(chan struct{})}
	svc, _ := newCatalog(f)

	const n = 8
	var wg sync.WaitGroup
	var started atomic.Int32
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Add(1)
			_, err := svc.Products(context.Background())
			errs <- err
		}()
	}

	require.Eventually(t, func() bool { return started.Load() == n }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, f.listCalls, 2)
}

func TestCatalog_PruneRespectsRetentionAndSubscribers(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, clk := newCatalog(f)
	ctx := context.Background()

	_, _ = svc.Products(ctx)
	_, _ = svc.Product(ctx, 1)
	cancel := svc.Subscribe(ProductKey(1), func(Update) {})

	assert.Zero(t, svc.Prune(clk.Now().Add(29*time.Minute)))
	assert.Equal(t, 1, svc.Prune(clk.Now().Add(30*time.Minute)))

	cancel()
	assert.Equal(t, 1, svc.Prune(clk.Now().Add(30*time.Minute)))

	_, _ = svc.Products(ctx)
	assert.Equal(t, 2, f.listCalls)
}

func cached(svc CatalogService) int {
	s := svc.(*catalogService)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

func TestCatalog_StartJanitorEvictsAndStops(t *testing.T) {
	f := &fakeCatalog{products: sample}
	svc, clk := newCatalog(f)

	_, _ = svc.Products(context.Background())
	require.Equal(t, 1, cached(svc))
	clk.Advance(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartJanitor(ctx, time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return cached(svc) == 0 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestFetchError(t *testing.T) {
	err := &FetchError{Key: "products", Err: errors.New("boom")}
	assert.Equal(t, "fetch products: boom", err.Error())
	assert.False(t, err.Retryable())
}
