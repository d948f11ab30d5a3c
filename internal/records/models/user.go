package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/common"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSimpleUser Role = "simple_user"
	RoleStudent    Role = "student"
)

// ParseRole accepts a role name in any case. Empty means RoleSimpleUser.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case "", RoleSimpleUser:
		return RoleSimpleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleStudent:
		return RoleStudent, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", common.ErrBadRequest, s)
}

// IsAdmin reports whether r may manage members and delete theses.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

type User struct {
	ID            int64
	Name          string
	Email         string
	Role          Role
	SubjectID     string
	ProfilePicRef string
	CreatedAt     time.Time
}
