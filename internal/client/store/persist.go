package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/common"
)

// SnapshotKey is the kv key of the persisted session.
const SnapshotKey = "shopping-storage"

func defaultState() State {
	return State{
		Cart:         []models.Product{},
		Favorites:    []models.Product{},
		LocalReviews: map[int][]models.LocalReview{},
	}
}

func snapshotOf(st State) models.Snapshot {
	return models.Snapshot{
		Cart:            st.Cart,
		Favorites:       st.Favorites,
		IsAuthenticated: st.IsAuthenticated,
		CurrentUser:     st.CurrentUser,
		LocalReviews:    st.LocalReviews,
	}
}

func encodeSnapshot(st State) ([]byte, error) {
	return json.Marshal(snapshotOf(st))
}

// DecodeSnapshot parses a persisted session blob.
func DecodeSnapshot(raw []byte) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: %v", common.ErrCorruptData, err)
	}
	return snap, nil
}

func (s *Store) persistLocked(ctx context.Context) {
	raw, err := encodeSnapshot(s.state)
	if err != nil {
		s.log.Error(ctx, "encode snapshot failed", "error", err)
		return
	}
	if err := s.kv.Set(ctx, SnapshotKey, raw); err != nil {
		s.log.Error(ctx, "write snapshot failed", "error", err)
	}
}

func (s *Store) hydrate(ctx context.Context) State {
	st := defaultState()

	raw, err := s.kv.Get(ctx, SnapshotKey)
	if err != nil {
		s.log.Warn(ctx, "read snapshot failed, starting fresh", "error", err)
		return st
	}
	if len(raw) == 0 {
		return st
	}

	snap, err := DecodeSnapshot(raw)
	if err != nil {
		s.log.Warn(ctx, "snapshot is corrupt, starting fresh", "error", err)
		return st
	}

	st.Cart = dedupe(snap.Cart)
	st.Favorites = dedupe(snap.Favorites)
	for id, list := range snap.LocalReviews {
		list = slices.DeleteFunc(slices.Clone(list), func(r models.LocalReview) bool { return r.ID == "" })
		if len(list) == 0 {
			continue
		}
		for i := range list {
			list[i].IsLocal = true
		}
		st.LocalReviews[id] = list
	}

	if snap.IsAuthenticated && snap.CurrentUser != nil {
		if acc, ok := s.dir.FindByID(ctx, snap.CurrentUser.ID); ok {
			st.IsAuthenticated = true
			st.CurrentUser = acc
		} else {
			s.log.Warn(ctx, "signed-in account no longer exists, signing out", "user_id", snap.CurrentUser.ID)
		}
	}

	return st
}

// dedupe keeps the first product of each id, in order.
func dedupe(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	seen := make(map[int]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
