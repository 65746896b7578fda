// Package directory is the registry of locally registered accounts.
//
// The whole collection is stored as one JSON array under Key in a kv
// repository and rewritten on every change. The decoded collection is kept in
// memory; storage failures are logged and do not roll back the in-memory
// copy, so the running process stays consistent even when the disk does not.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/kv"
	"github.com/dmitrijs2005/gophshop/internal/common"
	"github.com/dmitrijs2005/gophshop/internal/logging"
)

// Key is the kv key holding the account collection.
const Key = "registeredUsers"

type Directory struct {
	mu       sync.Mutex
	repo     kv.Repository
	log      logging.Logger
	loaded   bool
	accounts []models.Account
}

func New(repo kv.Repository, log logging.Logger) *Directory {
	return &Directory{repo: repo, log: log.With("component", "directory")}
}

// List returns a copy of every account in registration order.
func (d *Directory) List(ctx context.Context) []models.Account {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	out := make([]models.Account, len(d.accounts))
	for i := range d.accounts {
		out[i] = *d.accounts[i].Clone()
	}
	return out
}

// FindByEmail matches the email exactly.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*models.Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	i := d.indexBy(func(a models.Account) bool { return a.Email == email })
	if i < 0 {
		return nil, false
	}
	return d.accounts[i].Clone(), true
}

func (d *Directory) FindByID(ctx context.Context, id int64) (*models.Account, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	i := d.indexBy(func(a models.Account) bool { return a.ID == id })
	if i < 0 {
		return nil, false
	}
	return d.accounts[i].Clone(), true
}

// Insert appends a new account. An email already present is rejected with
// common.ErrAlreadyExists and nothing is written.
func (d *Directory) Insert(ctx context.Context, a models.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	if d.indexBy(func(x models.Account) bool { return x.Email == a.Email }) >= 0 {
		return fmt.Errorf("email %q: %w", a.Email, common.ErrAlreadyExists)
	}

	d.accounts = append(d.accounts, *a.Clone())
	d.persist(ctx, nil)
	return nil
}

// Replace overwrites the account with the same id. Changing the email to one
// owned by a different account is rejected with common.ErrAlreadyExists.
func (d *Directory) Replace(ctx context.Context, a models.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	i := d.indexBy(func(x models.Account) bool { return x.ID == a.ID })
	if i < 0 {
		return fmt.Errorf("account %d: %w", a.ID, common.ErrNotFound)
	}
	if j := d.indexBy(func(x models.Account) bool { return x.Email == a.Email }); j >= 0 && j != i {
		return fmt.Errorf("email %q: %w", a.Email, common.ErrAlreadyExists)
	}

	d.accounts[i] = *a.Clone()
	d.persist(ctx, nil)
	return nil
}

// Remove deletes the account with id. Removing an unknown id is a no-op.
func (d *Directory) Remove(ctx context.Context, id int64) error {
	return d.RemoveWith(ctx, id, nil)
}

// RemoveWith deletes the account and writes the extra blobs in the same
// storage transaction as the directory rewrite.
func (d *Directory) RemoveWith(ctx context.Context, id int64, extra map[string][]byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	d.accounts = slices.DeleteFunc(d.accounts, func(a models.Account) bool { return a.ID == id })
	d.persist(ctx, extra)
	return nil
}

// NextID returns a time-based id that is strictly greater than every id
// already assigned.
func (d *Directory) NextID(ctx context.Context, now time.Time) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.load(ctx)
	id := now.UnixMilli()
	for _, a := range d.accounts {
		if a.ID >= id {
			id = a.ID + 1
		}
	}
	return id
}

// Reload drops the in-memory copy so the next call re-reads storage.
func (d *Directory) Reload() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.loaded = false
	d.accounts = nil
}

func (d *Directory) indexBy(match func(models.Account) bool) int {
	return slices.IndexFunc(d.accounts, match)
}

func (d *Directory) load(ctx context.Context) {
	if d.loaded {
		return
	}
	d.loaded = true
	d.accounts = nil

	raw, err := d.repo.Get(ctx, Key)
	if err != nil {
		d.log.Warn(ctx, "read accounts failed", "error", err)
		return
	}
	accounts, err := Decode(raw)
	if err != nil {
		d.log.Warn(ctx, "accounts blob is corrupt, starting empty", "error", err)
		return
	}
	d.accounts = accounts
}

func (d *Directory) persist(ctx context.Context, extra map[string][]byte) {
	raw, err := json.Marshal(d.accounts)
	if err != nil {
		d.log.Error(ctx, "encode accounts failed", "error", err)
		return
	}

	if len(extra) == 0 {
		err = d.repo.Set(ctx, Key, raw)
	} else {
		values := make(map[string][]byte, len(extra)+1)
		for k, v := range extra {
			values[k] = v
		}
		values[Key] = raw
		err = d.repo.SetMany(ctx, values)
	}
	if err != nil {
		d.log.Error(ctx, "write accounts failed", "error", err)
	}
}

// Decode parses a stored accounts blob. An empty blob is an empty directory.
func Decode(raw []byte) ([]models.Account, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var accounts []models.Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCorruptData, err)
	}
	return accounts, nil
}
