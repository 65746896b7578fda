package models

// Account is a locally registered identity.
//
// Password holds the stored credential: an argon2id PHC string for accounts
// created by this client, or plaintext for accounts imported from an older
// directory blob.
type Account struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
}

// DisplayName is "First Last".
func (a Account) DisplayName() string {
	return a.FirstName + " " + a.LastName
}

// Clone returns a deep copy so callers cannot alias AvatarURL.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.AvatarURL != nil {
		v := *a.AvatarURL
		c.AvatarURL = &v
	}
	return &c
}

// Nullable distinguishes "not provided" from "explicitly null" in partial
// updates. The zero value is unset.
type Nullable[T any] struct {
	set   bool
	valid bool
	value T
}

// Some returns a set, non-null value.
func Some[T any](v T) Nullable[T] {
	return Nullable[T]{set: true, valid: true, value: v}
}

// Null returns a set value that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{set: true}
}

func (n Nullable[T]) IsSet() bool { return n.set }

// Ptr returns nil for null (or unset) and a pointer to a copy otherwise.
func (n Nullable[T]) Ptr() *T {
	if !n.valid {
		return nil
	}
	v := n.value
	return &v
}
