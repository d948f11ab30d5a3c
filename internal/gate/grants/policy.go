package grants

import (
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
)

// ProfilePicturePrefix is the folder holding one picture per subject.
const ProfilePicturePrefix = "profile_pics/"

// Policy decides whether subject may perform action on objectName.
// A denial is an error wrapping common.ErrForbidden.
type Policy interface {
	Allow(subject *auth.Subject, action storage.Action, objectName string) error
}

// AllowAuthenticated lets any verified subject reach any object.
type AllowAuthenticated struct{}

func (AllowAuthenticated) Allow(*auth.Subject, storage.Action, string) error { return nil }

// ProfileOwnerPolicy restricts writes under profile_pics/ to the subject the
// picture is named after. Reads and all other objects are unrestricted.
type ProfileOwnerPolicy struct{}

func (ProfileOwnerPolicy) Allow(subject *auth.Subject, action storage.Action, objectName string) error {
	if action != storage.ActionWrite || !strings.HasPrefix(objectName, ProfilePicturePrefix) {
		return nil
	}

	file := strings.TrimPrefix(objectName, ProfilePicturePrefix)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if strings.Contains(file, "/") || stem != subject.ID {
		return fmt.Errorf("%w: profile picture belongs to another user", common.ErrForbidden)
	}
	return nil
}
