package grants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
)

type mintCall struct {
	bucket, name, contentType string
	action                    storage.Action
	ttl                       time.Duration
}

// fakeBackend keeps a set of present objects and records mint calls.
type fakeBackend struct {
	mu        sync.Mutex
	objects   map[string]bool
	existsErr error
	mintErr   error
	mints     []mintCall
	seq       int
}

func newFakeBackend(objects ...string) *fakeBackend {
	f := &fakeBackend{objects: map[string]bool{}}
	for _, o := range objects {
		f.objects[o] = true
	}
	return f
}

func (f *fakeBackend) ObjectExists(_ context.Context, bucket, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.objects[bucket+"/"+name], nil
}

func (f *fakeBackend) MintSignedURL(_ context.Context, bucket, name string, action storage.Action, ttl time.Duration, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mintErr != nil {
		return "", f.mintErr
	}
	f.seq++
	f.mints = append(f.mints, mintCall{bucket: bucket, name: name, action: action, ttl: ttl, contentType: contentType})
	return fmt.Sprintf("https://storage.test/%s/%s?action=%s&sig=%d", bucket, name, action, f.seq), nil
}
