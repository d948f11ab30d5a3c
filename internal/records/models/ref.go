package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
)

// CheckObjectRef rejects anything that is not a logical object name.
// Signed URLs expire and must never be persisted.
func CheckObjectRef(ref string) error {
	l := strings.ToLower(strings.TrimSpace(ref))
	if strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://") || strings.Contains(l, "://") {
		return fmt.Errorf("%w: object reference must be an object name, not a URL", common.ErrBadRequest)
	}
	return nil
}
