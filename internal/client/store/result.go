package store

import (
	"encoding/json"

	"github.com/dmitrijs2005/gophshop/internal/client/models"
)

// Result is the outcome of a business operation. A nil Err means success;
// User or Review carry the affected record when the operation has one.
type Result struct {
	User   *models.Account
	Review *models.LocalReview
	Err    error
}

func (r Result) OK() bool { return r.Err == nil }

// Message is the user-facing failure text, empty on success.
func (r Result) Message() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
	}{r.OK(), r.Message()})
}

func fail(err error) Result { return Result{Err: err} }
