package session

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoginForm is the submitted login form.
type LoginForm struct {
	Username string `validate:"required,max=64"`
	Password string `validate:"required,max=128"`
	Next     string `validate:"omitempty,max=512"`
}

// Validate returns a message per offending field, or nil.
func (f LoginForm) Validate() map[string]string {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"form": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = field + " is required"
		case "max":
			out[field] = field + " is too long"
		default:
			out[field] = field + " is invalid"
		}
	}
	return out
}

// SafeNext returns f.Next when it is a local absolute path, otherwise
// fallback. It keeps the login redirect on this host.
func (f LoginForm) SafeNext(fallback string) string {
	n := f.Next
	if n == "" || !strings.HasPrefix(n, "/") || strings.HasPrefix(n, "//") || strings.HasPrefix(n, "/\\") {
		return fallback
	}
	if strings.HasPrefix(n, "/login") {
		return fallback
	}
	return n
}
