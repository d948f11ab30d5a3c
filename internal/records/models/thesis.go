package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/common"
)

type ThesisKind string

const (
	KindDoctorate ThesisKind = "doctorate"
	KindMaster    ThesisKind = "master"
)

// ParseThesisKind accepts a kind in any case. Empty means KindMaster.
func ParseThesisKind(s string) (ThesisKind, error) {
	switch ThesisKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindMaster:
		return KindMaster, nil
	case KindDoctorate:
		return KindDoctorate, nil
	}
	return "", fmt.Errorf("%w: unknown thesis kind %q", common.ErrBadRequest, s)
}

// Thesis is a thesis record. FileRef is the logical object name of the
// document in storage.
type Thesis struct {
	ID         int64
	Title      string
	Author     string
	Speciality string
	Kind       ThesisKind
	Keywords   string
	Year       int
	Abstract   string
	FileRef    string
	UserID     int64
	CreatedAt  time.Time
}
