package access

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/client/session"
	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/grants"
	"github.com/dmitrijs2005/thesisvault/internal/gate/httpapi"
	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/stretchr/testify/require"
)

var secret = []byte("client-test-secret")

type issued struct {
	action      storage.Action
	key         string
	contentType string
}

// memStore is an object store that honours the URLs it signs.
type memStore struct {
	mu      sync.Mutex
	base    string
	objects map[string][]byte
	sigs    map[string]issued
	seq     atomic.Int64
	putFail int
}

func newMemStore(t *testing.T) *memStore {
	t.Helper()
	s := &memStore{objects: map[string][]byte{}, sigs: map[string]issued{}}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	s.base = srv.URL
	return s
}

func (s *memStore) ObjectExists(_ context.Context, bucket, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+name]
	return ok, nil
}

func (s *memStore) MintSignedURL(_ context.Context, bucket, name string, action storage.Action, _ time.Duration, ct string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sig := fmt.Sprintf("sig%d", s.seq.Add(1))
	s.sigs[sig] = issued{action: action, key: bucket + "/" + name, contentType: ct}
	return s.base + "/" + bucket + "/" + name + "?X-Sig=" + url.QueryEscape(sig), nil
}

func (s *memStore) put(key string, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = b
}

func (s *memStore) get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}

func (s *memStore) failPuts(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putFail = status
}

func (s *memStore) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/")
	g, ok := s.sigs[r.URL.Query().Get("X-Sig")]
	if !ok || g.key != key {
		http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
		return
	}

	switch {
	case r.Method == http.MethodPut && g.action == storage.ActionWrite:
		if s.putFail != 0 {
			http.Error(w, "SlowDown", s.putFail)
			return
		}
		if r.Header.Get("Content-Type") != g.contentType {
			http.Error(w, "SignatureDoesNotMatch", http.StatusForbidden)
			return
		}
		b, _ := io.ReadAll(r.Body)
		s.objects[key] = b
	case r.Method == http.MethodGet && g.action == storage.ActionRead:
		b, ok := s.objects[key]
		if !ok {
			http.Error(w, "NoSuchKey", http.StatusNotFound)
			return
		}
		_, _ = w.Write(b)
	default:
		http.Error(w, "AccessDenied", http.StatusForbidden)
	}
}

type harness struct {
	store    *memStore
	gate     *httptest.Server
	gateHits atomic.Int32
	sess     *session.Session
	client   *Client
	seen     []Transition
	seenMu   sync.Mutex
}

func newHarness(t *testing.T, opts ...grants.Option) *harness {
	t.Helper()
	h := &harness{store: newMemStore(t), sess: session.New()}

	svc := grants.NewService(h.store, time.Hour, 15*time.Minute, logging.NopLogger{}, opts...)
	router := httpapi.NewRouter(httpapi.Deps{
		Verifier: auth.NewHMACVerifier(secret),
		Grants:   svc,
		Logger:   logging.NopLogger{},
	})
	h.gate = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.gateHits.Add(1)
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(h.gate.Close)

	h.client = New(Config{
		ReadURL:  h.gate.URL + httpapi.ReadPath,
		WriteURL: h.gate.URL + httpapi.WritePath,
		Bucket:   "vault",
	}, h.sess, logging.NopLogger{}, WithStateObserver(h.observe))
	return h
}

func (h *harness) observe(tr Transition) {
	h.seenMu.Lock()
	defer h.seenMu.Unlock()
	h.seen = append(h.seen, tr)
}

func (h *harness) states() []State {
	h.seenMu.Lock()
	defer h.seenMu.Unlock()
	out := make([]State, 0, len(h.seen))
	for _, tr := range h.seen {
		out = append(out, tr.To)
	}
	return out
}

func (h *harness) login(t *testing.T, sub string, ttl time.Duration) {
	t.Helper()
	tok, err := auth.GenerateToken(sub, sub+"@example.com", secret, ttl)
	require.NoError(t, err)
	h.sess.Start(session.Principal{SubjectID: sub, Email: sub + "@example.com"}, tok)
}
