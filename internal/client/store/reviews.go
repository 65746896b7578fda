package store

import (
	"context"
	"slices"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// AddReview appends a local review authored by the signed-in account.
func (s *Store) AddReview(ctx context.Context, productID int, in ReviewInput) Result {
	var res Result
	err := s.apply(ctx, func(st *State) (outcome, error) {
		if !st.IsAuthenticated || st.CurrentUser == nil {
			return unchanged, ErrNotAuthenticated
		}
		if productID <= 0 {
			return unchanged, &ValidationError{Field: "product", Message: "product id is required"}
		}
		if err := check(in); err != nil {
			return unchanged, err
		}

		r := models.LocalReview{
			ID:           models.LocalReviewPrefix + s.newID(),
			Rating:       in.Rating,
			Comment:      in.Comment,
			ReviewerName: st.CurrentUser.DisplayName(),
			UserID:       st.CurrentUser.ID,
			Date:         s.now().UTC(),
			IsLocal:      true,
		}
		st.LocalReviews[productID] = append(st.LocalReviews[productID], r)
		res.Review = &r
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return res
}

// ownedIndex finds the review the signed-in account may edit.
func ownedIndex(list []models.LocalReview, reviewID string, userID int64) int {
	return slices.IndexFunc(list, func(r models.LocalReview) bool {
		return r.ID == reviewID && r.UserID == userID && r.IsLocal
	})
}

// UpdateReview overwrites rating and comment of an owned review. A review
// that does not exist or belongs to someone else is left alone and the call
// still succeeds.
func (s *Store) UpdateReview(ctx context.Context, productID int, reviewID string, in ReviewInput) Result {
	var res Result
	err := s.apply(ctx, func(st *State) (outcome, error) {
		if !st.IsAuthenticated || st.CurrentUser == nil {
			return unchanged, ErrNotAuthenticated
		}
		if err := check(in); err != nil {
			return unchanged, err
		}

		list := st.LocalReviews[productID]
		i := ownedIndex(list, reviewID, st.CurrentUser.ID)
		if i < 0 {
			return unchanged, nil
		}

		list[i].Rating = in.Rating
		list[i].Comment = in.Comment
		list[i].Date = s.now().UTC()
		r := list[i]
		res.Review = &r
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return res
}

// DeleteReview removes an owned review; the product entry disappears with
// its last review. Unknown or foreign reviews are a silent success.
func (s *Store) DeleteReview(ctx context.Context, productID int, reviewID string) Result {
	err := s.apply(ctx, func(st *State) (outcome, error) {
		if !st.IsAuthenticated || st.CurrentUser == nil {
			return unchanged, ErrNotAuthenticated
		}

		list := st.LocalReviews[productID]
		i := ownedIndex(list, reviewID, st.CurrentUser.ID)
		if i < 0 {
			return unchanged, nil
		}

		list = slices.Delete(list, i, i+1)
		if len(list) == 0 {
			delete(st.LocalReviews, productID)
		} else {
			st.LocalReviews[productID] = list
		}
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return Result{}
}
