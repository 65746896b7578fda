package store

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// AddToCart appends p unless a product with the same id is already there.
func (s *Store) AddToCart(ctx context.Context, p models.Product) {
	_ = s.apply(ctx, func(st *State) (outcome, error) {
		if indexOf(st.Cart, p.ID) >= 0 {
			return unchanged, nil
		}
		st.Cart = append(st.Cart, p)
		return changed, nil
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, id int) {
	_ = s.apply(ctx, func(st *State) (outcome, error) {
		i := indexOf(st.Cart, id)
		if i < 0 {
			return unchanged, nil
		}
		st.Cart = slices.Delete(st.Cart, i, i+1)
		return changed, nil
	})
}

func (s *Store) ClearCart(ctx context.Context) {
	_ = s.apply(ctx, func(st *State) (outcome, error) {
		if len(st.Cart) == 0 {
			return unchanged, nil
		}
		st.Cart = []models.Product{}
		return changed, nil
	})
}

// ToggleFavorite adds p to favorites or removes it when present, and
// reports whether p is a favorite afterwards.
func (s *Store) ToggleFavorite(ctx context.Context, p models.Product) bool {
	var now bool
	_ = s.apply(ctx, func(st *State) (outcome, error) {
		if i := indexOf(st.Favorites, p.ID); i >= 0 {
			st.Favorites = slices.Delete(st.Favorites, i, i+1)
			now = false
		} else {
			st.Favorites = append(st.Favorites, p)
			now = true
		}
		return changed, nil
	})
	return now
}

func (s *Store) RemoveFromFavorites(ctx context.Context, id int) {
	_ = s.apply(ctx, func(st *State) (outcome, error) {
		i := indexOf(st.Favorites, id)
		if i < 0 {
			return unchanged, nil
		}
		st.Favorites = slices.Delete(st.Favorites, i, i+1)
		return changed, nil
	})
}

// SetSearchTerm is kept in memory only.
func (s *Store) SetSearchTerm(term string) {
	_ = s.apply(context.Background(), func(st *State) (outcome, error) {
		if st.SearchTerm == term {
			return unchanged, nil
		}
		st.SearchTerm = term
		return changedVolatile, nil
	})
}
