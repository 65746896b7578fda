package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
	"github.com/dmitrijs2005/gophshop/internal/client/services"
	"github.com/dmitrijs2005/gophshop/internal/client/store"
	"github.com/dmitrijs2005/gophshop/internal/cryptox"
	"github.com/dmitrijs2005/gophshop/internal/filex"
)

// getSimpleText, getPassword and getMultiline are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var errPasswordMismatch = errors.New("passwords do not match")

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// askPassword reads a hidden password and wipes the terminal buffer. The
// returned string is a copy that cannot be wiped, since the store takes
// passwords as strings.
func (a *App) askPassword(prompt string) (string, error) {
	pw, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer cryptox.Wipe(pw)
	return string(pw), nil
}

// Register prompts for a profile and creates a signed-in account.
func (a *App) Register(ctx context.Context) error {
	var p store.Profile
	var err error

	if p.Email, err = a.ask("Enter email"); err != nil {
		return err
	}
	if p.Password, err = a.askPassword("Enter password"); err != nil {
		return err
	}
	if p.FirstName, err = a.ask("Enter first name"); err != nil {
		return err
	}
	if p.LastName, err = a.ask("Enter last name"); err != nil {
		return err
	}

	res := a.store.Register(ctx, p)
	if !res.OK() {
		return res.Err
	}

	a.log.Info(ctx, "account registered", "user_id", res.User.ID)
	fmt.Fprintf(a.out, "Welcome, %s!\n", greeting(res.User))
	return nil
}

// Login prompts for credentials and signs in.
func (a *App) Login(ctx context.Context) error {
	email, err := a.ask("Enter email")
	if err != nil {
		return err
	}
	password, err := a.askPassword("Enter password")
	if err != nil {
		return err
	}

	res := a.store.Login(ctx, email, password)
	if !res.OK() {
		a.log.Info(ctx, "login failed")
		return res.Err
	}

	fmt.Fprintf(a.out, "Welcome back, %s!\n", greeting(res.User))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.store.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

// Profile shows the signed-in account and lets the user edit its names and
// email. Empty answers keep the current value.
func (a *App) Profile(ctx context.Context) error {
	u := a.store.CurrentUser()
	if u == nil {
		return store.ErrNotAuthenticated
	}

	fmt.Fprintf(a.out, "Name:   %s\n", u.DisplayName())
	fmt.Fprintf(a.out, "Email:  %s\n", u.Email)
	if u.AvatarURL != nil {
		fmt.Fprintf(a.out, "Avatar: %s\n", shorten(*u.AvatarURL, 60))
	}

	var patch store.ProfilePatch
	for _, f := range []struct {
		prompt string
		dst    **string
	}{
		{"First name [" + u.FirstName + "]", &patch.FirstName},
		{"Last name [" + u.LastName + "]", &patch.LastName},
		{"Email [" + u.Email + "]", &patch.Email},
	} {
		v, err := a.ask(f.prompt)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = &v
		}
	}

	if patch.FirstName == nil && patch.LastName == nil && patch.Email == nil {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}

	res := a.store.UpdateProfile(ctx, patch)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Profile updated")
	return nil
}

// ChangePassword asks for the current password and a confirmed new one.
func (a *App) ChangePassword(ctx context.Context) error {
	current, err := a.askPassword("Current password")
	if err != nil {
		return err
	}
	next, err := a.askPassword("New password")
	if err != nil {
		return err
	}
	confirm, err := a.askPassword("Repeat new password")
	if err != nil {
		return err
	}
	if next != confirm {
		return errPasswordMismatch
	}

	res := a.store.UpdatePassword(ctx, store.PasswordChange{Current: current, Next: next})
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}

// Avatar uploads the image file named in args, or removes the avatar when
// the argument is "remove".
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: avatar <file>|remove")
	}

	if args[0] == "remove" {
		res := a.store.UpdateProfile(ctx, store.ProfilePatch{AvatarURL: models.Null[string]()})
		if !res.OK() {
			return res.Err
		}
		fmt.Fprintln(a.out, "Avatar removed")
		return nil
	}

	data, err := filex.ReadLimited(args[0], services.MaxAvatarSize)
	if err != nil {
		return err
	}
	contentType := services.DetectContentType(data)
	if err := services.ValidateAvatar(contentType, data); err != nil {
		return err
	}

	url, err := a.avatars.Put(ctx, contentType, data)
	if err != nil {
		a.log.Error(ctx, "avatar upload failed", "error", err)
		return fmt.Errorf("upload avatar: %w", err)
	}

	res := a.store.UpdateProfile(ctx, store.ProfilePatch{AvatarURL: models.Some(url)})
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Avatar updated")
	return nil
}

// DeleteAccount removes the signed-in account after confirmation.
func (a *App) DeleteAccount(ctx context.Context) error {
	answer, err := a.ask("Delete your account? Cart and favorites are cleared too (y/N)")
	if err != nil {
		return err
	}
	if !yes(answer) {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}

	res := a.store.DeleteAccount(ctx)
	if !res.OK() {
		return res.Err
	}
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

func greeting(u *models.Account) string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
