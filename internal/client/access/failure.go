package access

import "errors"

// Category groups failures the way they are reported to the user.
type Category string

const (
	CategoryAuthentication Category = "authentication error"
	CategoryNotFound       Category = "not found"
	CategoryTransfer       Category = "transfer failure"
	CategoryFile           Category = "file error"
	CategoryAccess         Category = "access error"
	CategoryInvalidInput   Category = "invalid input"
)

// Failure is the only error type returned by Client methods. Message is
// meant for the user; Err, when set, is the underlying cause.
type Failure struct {
	Category Category
	Message  string
	Err      error
}

func (f *Failure) Error() string {
	return string(f.Category) + ": " + f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// CategoryOf returns the category of a Failure anywhere in err's chain.
func CategoryOf(err error) (Category, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Category, true
	}
	return "", false
}
