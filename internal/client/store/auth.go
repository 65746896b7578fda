package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/common"
)

// Login signs in when email and password match a directory account exactly.
// Any mismatch is reported as ErrInvalidCredentials.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	var res Result
	err := s.apply(ctx, func(st *State) (outcome, error) {
		acc, ok := s.dir.FindByEmail(ctx, email)
		if !ok || !s.hasher.Verify(acc.Password, password) {
			return unchanged, ErrInvalidCredentials
		}

		if s.hasher.NeedsRehash(acc.Password) {
			s.rehash(ctx, acc, password)
		}

		st.IsAuthenticated = true
		st.CurrentUser = acc
		res.User = acc.Clone()
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return res
}

// rehash upgrades a stored credential in place. Failures keep the old one.
func (s *Store) rehash(ctx context.Context, acc *models.Account, password string) {
	encoded, err := s.hasher.Hash(password)
	if err != nil {
		s.log.Warn(ctx, "rehash password failed", "user_id", acc.ID, "error", err)
		return
	}
	upgraded := *acc.Clone()
	upgraded.Password = encoded
	if err := s.dir.Replace(ctx, upgraded); err != nil {
		s.log.Warn(ctx, "store rehashed password failed", "user_id", acc.ID, "error", err)
		return
	}
	acc.Password = encoded
}

// Register creates an account and signs it in. A duplicate email leaves the
// directory untouched.
func (s *Store) Register(ctx context.Context, p Profile) Result {
	if err := check(p); err != nil {
		return fail(err)
	}

	var res Result
	err := s.apply(ctx, func(st *State) (outcome, error) {
		if _, taken := s.dir.FindByEmail(ctx, p.Email); taken {
			return unchanged, ErrEmailTaken
		}

		encoded, err := s.hasher.Hash(p.Password)
		if err != nil {
			return unchanged, fmt.Errorf("hash password: %w", err)
		}

		acc := models.Account{
			ID:        s.dir.NextID(ctx, s.now()),
			Email:     p.Email,
			Password:  encoded,
			FirstName: p.FirstName,
			LastName:  p.LastName,
		}
		if err := s.dir.Insert(ctx, acc); err != nil {
			if errors.Is(err, common.ErrAlreadyExists) {
				return unchanged, ErrEmailTaken
			}
			return unchanged, err
		}

		st.IsAuthenticated = true
		st.CurrentUser = acc.Clone()
		res.User = acc.Clone()
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return res
}

// Logout ends the session. Cart, favorites and local reviews are kept.
func (s *Store) Logout(ctx context.Context) {
	_ = s.apply(ctx, func(st *State) (outcome, error) {
		if !st.IsAuthenticated && st.CurrentUser == nil && st.SearchTerm == "" {
			return unchanged, nil
		}
		st.IsAuthenticated = false
		st.CurrentUser = nil
		st.SearchTerm = ""
		return changed, nil
	})
}

// sessionAccount returns the directory record of the signed-in account.
func (s *Store) sessionAccount(ctx context.Context, st *State) (*models.Account, error) {
	if !st.IsAuthenticated || st.CurrentUser == nil {
		return nil, ErrNotAuthenticated
	}
	acc, ok := s.dir.FindByID(ctx, st.CurrentUser.ID)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return acc, nil
}

// UpdateProfile merges the set fields of patch into the signed-in account.
func (s *Store) UpdateProfile(ctx context.Context, patch ProfilePatch) Result {
	var res Result
	err := s.apply(ctx, func(st *State) (outcome, error) {
		acc, err := s.sessionAccount(ctx, st)
		if err != nil {
			return unchanged, err
		}

		if patch.FirstName != nil {
			acc.FirstName = *patch.FirstName
		}
		if patch.LastName != nil {
			acc.LastName = *patch.LastName
		}
		if patch.Email != nil {
			acc.Email = *patch.Email
		}
		if patch.AvatarURL.IsSet() {
			acc.AvatarURL = patch.AvatarURL.Ptr()
		}

		if err := check(editableProfile{Email: acc.Email, FirstName: acc.FirstName, LastName: acc.LastName}); err != nil {
			return unchanged, err
		}

		if err := s.dir.Replace(ctx, *acc); err != nil {
			switch {
			case errors.Is(err, common.ErrAlreadyExists):
				return unchanged, ErrEmailTaken
			case errors.Is(err, common.ErrNotFound):
				return unchanged, ErrAccountNotFound
			}
			return unchanged, err
		}

		st.CurrentUser = acc.Clone()
		res.User = acc.Clone()
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return res
}

// UpdatePassword replaces the credential after verifying the current one.
func (s *Store) UpdatePassword(ctx context.Context, pc PasswordChange) Result {
	err := s.apply(ctx, func(st *State) (outcome, error) {
		acc, err := s.sessionAccount(ctx, st)
		if err != nil {
			return unchanged, err
		}
		if !s.hasher.Verify(acc.Password, pc.Current) {
			return unchanged, ErrWrongPassword
		}
		if err := check(pc); err != nil {
			return unchanged, err
		}

		encoded, err := s.hasher.Hash(pc.Next)
		if err != nil {
			return unchanged, fmt.Errorf("hash password: %w", err)
		}
		acc.Password = encoded

		if err := s.dir.Replace(ctx, *acc); err != nil {
			return unchanged, err
		}
		st.CurrentUser = acc.Clone()
		return changed, nil
	})
	if err != nil {
		return fail(err)
	}
	return Result{}
}

// DeleteAccount removes the signed-in account and resets the session with an
// empty cart and favorites. Reviews it wrote stay in the local overlay.
func (s *Store) DeleteAccount(ctx context.Context) Result {
	err := s.apply(ctx, func(st *State) (outcome, error) {
		if !st.IsAuthenticated || st.CurrentUser == nil {
			return unchanged, ErrNotAuthenticated
		}
		id := st.CurrentUser.ID

		st.IsAuthenticated = false
		st.CurrentUser = nil
		st.SearchTerm = ""
		st.Cart = []models.Product{}
		st.Favorites = []models.Product{}

		raw, err := encodeSnapshot(*st)
		if err != nil {
			s.log.Error(ctx, "encode snapshot failed", "error", err)
			raw = nil
		}
		extra := map[string][]byte{}
		if raw != nil {
			extra[SnapshotKey] = raw
		}
		if err := s.dir.RemoveWith(ctx, id, extra); err != nil {
			s.log.Error(ctx, "remove account failed", "user_id", id, "error", err)
		}
		return changedVolatile, nil
	})
	if err != nil {
		return fail(err)
	}
	return Result{}
}
