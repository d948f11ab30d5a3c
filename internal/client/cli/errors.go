package cli

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/client/access"
	"github.com/dmitrijs2005/thesisvault/internal/client/identity"
	"github.com/dmitrijs2005/thesisvault/internal/client/services"
	"github.com/dmitrijs2005/thesisvault/internal/common"
)

// describe turns an error from a command into the line shown to the user.
func describe(err error) string {
	var f *access.Failure
	if errors.As(err, &f) {
		return capitalize(string(f.Category)) + ": " + f.Message
	}
	var ie *identity.Error
	if errors.As(err, &ie) {
		return "Authentication error: " + ie.Message
	}

	switch {
	case errors.Is(err, common.ErrNotLoggedIn):
		return "You must be logged in. Use 'login' or 'register'."
	case errors.Is(err, services.ErrProfileMissing):
		return "Login successful, but user profile not found in application database. Please contact support."
	case errors.Is(err, common.ErrForbidden):
		return "Access denied: " + err.Error()
	case errors.Is(err, common.ErrConflict):
		return "Email already registered in our system."
	case errors.Is(err, common.ErrBadRequest):
		return "Invalid input: " + err.Error()
	case errors.Is(err, common.ErrNotFound):
		return "Not found: " + err.Error()
	}
	return "Error: " + err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
