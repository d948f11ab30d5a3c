// Package storage talks to the object store that holds thesis files and
// profile pictures. The gate only probes for objects and mints signed URLs;
// file bytes never pass through it.
package storage

import (
	"context"
	"time"
)

// Action is the kind of access a signed URL grants.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Backend is the storage collaborator of the grant service.
type Backend interface {
	// ObjectExists reports whether bucket/name is present. A missing object
	// is (false, nil); any other failure is an error.
	ObjectExists(ctx context.Context, bucket, name string) (bool, error)

	// MintSignedURL returns a URL that performs action on bucket/name until
	// ttl elapses. Write URLs are bound to contentType.
	MintSignedURL(ctx context.Context, bucket, name string, action Action, ttl time.Duration, contentType string) (string, error)
}
