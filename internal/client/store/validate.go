package store

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// Profile is the registration form.
type Profile struct {
	Email     string `validate:"required,email" label:"email"`
	Password  string `validate:"required" label:"password"`
	FirstName string `validate:"notblank" label:"first name"`
	LastName  string `validate:"notblank" label:"last name"`
}

// ProfilePatch is a partial profile update. Nil fields are left untouched;
// AvatarURL distinguishes unset from an explicit null.
type ProfilePatch struct {
	FirstName *string
	LastName  *string
	Email     *string
	AvatarURL models.Nullable[string]
}

type PasswordChange struct {
	Current string
	Next    string `validate:"required" label:"new password"`
}

type ReviewInput struct {
	Rating  int    `validate:"gte=1,lte=5" label:"rating"`
	Comment string `validate:"notblank" label:"comment"`
}

type editableProfile struct {
	Email     string `validate:"required,email" label:"email"`
	FirstName string `validate:"notblank" label:"first name"`
	LastName  string `validate:"notblank" label:"last name"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("label")
	})
	return v
}

// check validates s and converts the first failure into a ValidationError.
func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	f := verrs[0]
	name := f.Field()
	var msg string
	switch f.Tag() {
	case "required", "notblank":
		msg = name + " is required"
	case "email":
		msg = name + " must be a valid email address"
	case "gte", "lte":
		msg = name + " must be between 1 and 5"
	default:
		msg = name + " is invalid"
	}
	return &ValidationError{Field: name, Message: msg}
}
