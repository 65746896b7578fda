package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/repositories/directory"
	"github.com/dmitrijs2005/gophshop/internal/cryptox"
)

func ptr(s string) *string { return &s }

func TestRegister_SignsInAndStoresHashedCredential(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.store.Register(ctx, Profile{Email: "a@x.com", Password: "p1", FirstName: "A", LastName: "B"})
	require.True(t, res.OK(), res.Message())

	assert.True(t, h.store.IsAuthenticated())
	cur := h.store.CurrentUser()
	require.NotNil(t, cur)
	assert.Equal(t, "a@x.com", cur.Email)
	assert.Equal(t, h.now.UnixMilli(), cur.ID)
	assert.Nil(t, cur.AvatarURL)

	accounts := h.dir.List(ctx)
	require.Len(t, accounts, 1)
	assert.NotEqual(t, "p1", accounts[0].Password)
	assert.False(t, cryptox.IsLegacy(accounts[0].Password))
	assert.True(t, fastHasher.Verify(accounts[0].Password, "p1"))
}

func TestRegister_DuplicateEmailLeavesDirectoryUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	p := Profile{Email: "a@x.com", Password: "p1", FirstName: "A", LastName: "B"}

	require.True(t, h.store.Register(ctx, p).OK())
	require.Len(t, h.dir.List(ctx), 1)
	before, _ := h.repo.MemoryRepository.Get(ctx, directory.Key)

	h.store.Logout(ctx)
	res := h.store.Register(ctx, p)
	assert.False(t, res.OK())
	assert.ErrorIs(t, res.Err, ErrEmailTaken)
	assert.False(t, h.store.IsAuthenticated())

	after, _ := h.repo.MemoryRepository.Get(ctx, directory.Key)
	assert.Equal(t, before, after)
	assert.Len(t, h.dir.List(ctx), 1)
}

func TestRegister_IDsAreMonotonicWithinOneMillisecond(t *testing.T) {
	h := newHarness(t)
	a := h.register("a@x.com")
	b := h.register("b@x.com")

	assert.Equal(t, a.ID+1, b.ID)
	assert.Equal(t, b.ID, h.store.CurrentUser().ID, "latest registration is signed in")
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		p     Profile
		field string
	}{
		{"missing email", Profile{Password: "p", FirstName: "A", LastName: "B"}, "email"},
		{"malformed email", Profile{Email: "nope", Password: "p", FirstName: "A", LastName: "B"}, "email"},
		{"missing password", Profile{Email: "a@x.com", FirstName: "A", LastName: "B"}, "password"},
		{"blank first name", Profile{Email: "a@x.com", Password: "p", FirstName: "  ", LastName: "B"}, "first name"},
		{"missing last name", Profile{Email: "a@x.com", Password: "p", FirstName: "A"}, "last name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			res := h.store.Register(context.Background(), tt.p)

			require.ErrorIs(t, res.Err, ErrValidation)
			var verr *ValidationError
			require.ErrorAs(t, res.Err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Contains(t, res.Message(), tt.field)
			assert.Empty(t, h.dir.List(context.Background()))
		})
	}
}

func TestLogin_ExactMatchOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register("a@x.com")
	h.store.Logout(ctx)

	for _, tc := range []struct{ email, password string }{
		{"A@x.com", "p1"},
		{"a@x.com ", "p1"},
		{"a@x.com", "P1"},
		{"a@x.com", ""},
		{"b@x.com", "p1"},
	} {
		res := h.store.Login(ctx, tc.email, tc.password)
		assert.ErrorIs(t, res.Err, ErrInvalidCredentials, "%q/%q", tc.email, tc.password)
		assert.Equal(t, "invalid email or password", res.Message())
		assert.False(t, h.store.IsAuthenticated())
	}

	res := h.store.Login(ctx, "a@x.com", "p1")
	require.True(t, res.OK())
	assert.Equal(t, "a@x.com", res.User.Email)
	assert.True(t, h.store.IsAuthenticated())
	assert.Equal(t, "a@x.com", h.store.CurrentUser().Email)
}

func TestLogin_PlaintextWithHashPrefix(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	blob := `[{"id":1,"email":"p@x.com","password":"$argon2id$mysecret","firstName":"P","lastName":"X","avatarUrl":null}]`
	require.NoError(t, h.repo.MemoryRepository.Set(ctx, directory.Key, []byte(blob)))
	h.reopen()

	require.True(t, h.store.Login(ctx, "p@x.com", "$argon2id$mysecret").OK())

	acc, ok := h.dir.FindByEmail(ctx, "p@x.com")
	require.True(t, ok)
	assert.False(t, cryptox.IsLegacy(acc.Password))
}

func TestLogin_UpgradesLegacyPlaintext(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	blob := `[{"id":1,"email":"old@x.com","password":"secret","firstName":"O","lastName":"L","avatarUrl":null}]`
	require.NoError(t, h.repo.MemoryRepository.Set(ctx, directory.Key, []byte(blob)))
	h.reopen()

	require.True(t, h.store.Login(ctx, "old@x.com", "secret").OK())

	acc, ok := h.dir.FindByEmail(ctx, "old@x.com")
	require.True(t, ok)
	assert.False(t, cryptox.IsLegacy(acc.Password))
	assert.Equal(t, acc.Password, h.store.CurrentUser().Password)

	h.store.Logout(ctx)
	assert.True(t, h.store.Login(ctx, "old@x.com", "secret").OK())
	assert.False(t, h.store.Login(ctx, "old@x.com", acc.Password).OK())
}

func TestLogout_KeepsCartFavoritesAndReviews(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register("a@x.com")
	h.store.AddToCart(ctx, product(1, 10))
	h.store.ToggleFavorite(ctx, product(2, 5))
	require.True(t, h.store.AddReview(ctx, 3, ReviewInput{Rating: 5, Comment: "great"}).OK())
	h.store.SetSearchTerm("query")

	h.store.Logout(ctx)

	st := h.store.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.CurrentUser)
	assert.Empty(t, st.SearchTerm)
	assert.Equal(t, []models.Product{product(1, 10)}, st.Cart)
	assert.Equal(t, []models.Product{product(2, 5)}, st.Favorites)
	assert.Len(t, st.LocalReviews[3], 1)

	snap := h.snapshot()
	assert.JSONEq(t, `false`, string(snap["isAuthenticated"]))
	assert.JSONEq(t, `null`, string(snap["currentUser"]))
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register("a@x.com")

	res := h.store.UpdateProfile(ctx, ProfilePatch{FirstName: ptr("Zoe"), AvatarURL: models.Some("data:image/png;base64,AA==")})
	require.True(t, res.OK(), res.Message())

	cur := h.store.CurrentUser()
	assert.Equal(t, "Zoe", cur.FirstName)
	assert.Equal(t, "Lee", cur.LastName, "unset fields are kept")
	require.NotNil(t, cur.AvatarURL)

	stored, _ := h.dir.FindByID(ctx, cur.ID)
	assert.Equal(t, cur, stored)

	require.True(t, h.store.UpdateProfile(ctx, ProfilePatch{LastName: ptr("Ray")}).OK())
	assert.NotNil(t, h.store.CurrentUser().AvatarURL, "unset avatar is kept")

	require.True(t, h.store.UpdateProfile(ctx, ProfilePatch{AvatarURL: models.Null[string]()}).OK())
	assert.Nil(t, h.store.CurrentUser().AvatarURL)
}

func TestUpdateProfile_EmailChange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register("a@x.com")
	h.register("b@x.com")

	res := h.store.UpdateProfile(ctx, ProfilePatch{Email: ptr("a@x.com")})
	assert.ErrorIs(t, res.Err, ErrEmailTaken)
	assert.Equal(t, "b@x.com", h.store.CurrentUser().Email)

	res = h.store.UpdateProfile(ctx, ProfilePatch{Email: ptr("not-an-email")})
	assert.ErrorIs(t, res.Err, ErrValidation)

	require.True(t, h.store.UpdateProfile(ctx, ProfilePatch{Email: ptr("c@x.com")}).OK())
	h.store.Logout(ctx)
	assert.True(t, h.store.Login(ctx, "c@x.com", "p1").OK())
	assert.False(t, h.store.Login(ctx, "b@x.com", "p1").OK())
}

func TestUpdateProfile_Failures(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.store.UpdateProfile(ctx, ProfilePatch{FirstName: ptr("X")})
	assert.ErrorIs(t, res.Err, ErrNotAuthenticated)

	acc := h.register("a@x.com")
	require.NoError(t, h.dir.Remove(ctx, acc.ID))

	res = h.store.UpdateProfile(ctx, ProfilePatch{FirstName: ptr("X")})
	assert.ErrorIs(t, res.Err, ErrAccountNotFound)
	assert.Equal(t, "Ann", h.store.CurrentUser().FirstName)
}

func TestUpdatePassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register("a@x.com")

	res := h.store.UpdatePassword(ctx, PasswordChange{Current: "wrong", Next: "p2"})
	assert.ErrorIs(t, res.Err, ErrWrongPassword)

	res = h.store.UpdatePassword(ctx, PasswordChange{Current: "p1", Next: ""})
	assert.ErrorIs(t, res.Err, ErrValidation)

	require.True(t, h.store.UpdatePassword(ctx, PasswordChange{Current: "p1", Next: "p2"}).OK())

	h.store.Logout(ctx)
	assert.False(t, h.store.Login(ctx, "a@x.com", "p1").OK())
	assert.True(t, h.store.Login(ctx, "a@x.com", "p2").OK())

	h.store.Logout(ctx)
	assert.ErrorIs(t, h.store.UpdatePassword(ctx, PasswordChange{Current: "p2", Next: "p3"}).Err, ErrNotAuthenticated)
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acc := h.register("a@x.com")
	h.store.AddToCart(ctx, product(1, 10))
	h.store.ToggleFavorite(ctx, product(2, 5))
	require.True(t, h.store.AddReview(ctx, 42, ReviewInput{Rating: 4, Comment: "ok"}).OK())

	require.True(t, h.store.DeleteAccount(ctx).OK())

	st := h.store.State()
	assert.False(t, st.IsAuthenticated)
	assert.Nil(t, st.CurrentUser)
	assert.Empty(t, st.Cart)
	assert.Empty(t, st.Favorites)
	require.Len(t, st.LocalReviews[42], 1, "reviews stay orphaned")
	assert.Equal(t, acc.ID, st.LocalReviews[42][0].UserID)

	_, ok := h.dir.FindByID(ctx, acc.ID)
	assert.False(t, ok)

	s := h.reopen()
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, s.Cart())
	assert.Empty(t, h.dir.List(ctx))

	assert.ErrorIs(t, s.DeleteAccount(ctx).Err, ErrNotAuthenticated)
}

func TestDeleteAccount_EmailCanBeReused(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.register("a@x.com")
	require.True(t, h.store.DeleteAccount(ctx).OK())

	h.now = h.now.Add(time.Second)
	again := h.register("a@x.com")
	assert.Equal(t, h.now.UnixMilli(), again.ID)
}
