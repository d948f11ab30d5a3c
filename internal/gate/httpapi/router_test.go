package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/grants"
	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

type stubBackend struct {
	mu      sync.Mutex
	objects map[string]bool
	mintErr error
	calls   atomic.Int32
	lastCT  string
}

func (b *stubBackend) ObjectExists(_ context.Context, bucket, name string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.objects[bucket+"/"+name], nil
}

func (b *stubBackend) MintSignedURL(_ context.Context, bucket, name string, action storage.Action, ttl time.Duration, ct string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mintErr != nil {
		return "", b.mintErr
	}
	n := b.calls.Add(1)
	b.lastCT = ct
	return fmt.Sprintf("https://storage.test/%s/%s?a=%s&ttl=%d&n=%d", bucket, name, action, int(ttl.Minutes()), n), nil
}

func (b *stubBackend) contentType() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastCT
}

func (b *stubBackend) failMint(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mintErr = err
}

// countingVerifier records whether verification was attempted.
type countingVerifier struct {
	inner auth.Verifier
	calls atomic.Int32
}

func (v *countingVerifier) Verify(ctx context.Context, token string) (*auth.Subject, error) {
	v.calls.Add(1)
	return v.inner.Verify(ctx, token)
}

type fixture struct {
	srv      *httptest.Server
	backend  *stubBackend
	verifier *countingVerifier
	registry *prometheus.Registry
}

func newFixture(t *testing.T, opts ...grants.Option) *fixture {
	t.Helper()
	backend := &stubBackend{objects: map[string]bool{"vault/theses/abc/thesis.pdf": true}}
	verifier := &countingVerifier{inner: auth.NewHMACVerifier(secret)}
	reg := prometheus.NewRegistry()

	svc := grants.NewService(backend, 60*time.Minute, 15*time.Minute, logging.NopLogger{},
		append(opts, grants.WithMetrics(grants.NewMetrics(reg)))...)

	srv := httptest.NewServer(NewRouter(Deps{
		Verifier: verifier,
		Grants:   svc,
		Logger:   logging.NopLogger{},
		Metrics:  NewMetrics(reg),
		Gatherer: reg,
	}))
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, backend: backend, verifier: verifier, registry: reg}
}

func token(t *testing.T, sub string, ttl time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(sub, sub+"@example.com", secret, ttl)
	require.NoError(t, err)
	return tok
}

func (f *fixture) do(t *testing.T, method, path, bearer, body string) (int, map[string]string) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]string{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestGenerateReadURL(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice", time.Hour)

	status, body := f.do(t, http.MethodPost, ReadPath, tok, `{"objectName":"theses/abc/thesis.pdf","bucketName":"vault"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body["signedUrl"], "a=read")
	assert.Contains(t, body["signedUrl"], "ttl=60")
}

func TestGenerateUploadURL(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice", time.Hour)

	status, body := f.do(t, http.MethodPost, WritePath, tok, `{"objectName":"theses/new/t.pdf","bucketName":"vault","contentType":"application/pdf"}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Contains(t, body["signedUrl"], "a=write")
	assert.Contains(t, body["signedUrl"], "ttl=15")
	assert.Equal(t, "application/pdf", f.backend.contentType())

	status, _ = f.do(t, http.MethodPost, WritePath, tok, `{"objectName":"theses/new/t.bin","bucketName":"vault"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/octet-stream", f.backend.contentType())
}

func TestMethodCheckedBeforeToken(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{ReadPath, WritePath} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			status, body := f.do(t, method, path, "garbage", "")
			assert.Equal(t, http.StatusMethodNotAllowed, status, "%s %s", method, path)
			assert.Equal(t, msgMethodNotAllowed, body["error"])
		}
	}
	assert.Zero(t, f.verifier.calls.Load(), "token must not be verified for a wrong method")
}

func TestAuthFailures(t *testing.T) {
	f := newFixture(t)
	req := `{"objectName":"theses/abc/thesis.pdf","bucketName":"vault"}`

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "missing header", header: "", want: msgMissingAuth},
		{name: "wrong scheme", header: "Basic abc", want: msgMissingAuth},
		{name: "garbage token", header: "Bearer not.a.jwt", want: msgInvalidToken},
		{name: "expired token", header: "Bearer " + token(t, "alice", -time.Minute), want: msgExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, path := range []string{ReadPath, WritePath} {
				r, err := http.NewRequest(http.MethodPost, f.srv.URL+path, strings.NewReader(req))
				require.NoError(t, err)
				if tt.header != "" {
					r.Header.Set("Authorization", tt.header)
				}
				resp, err := f.srv.Client().Do(r)
				require.NoError(t, err)

				var body errorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				resp.Body.Close()

				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				assert.Equal(t, tt.want, body.Error)
			}
		})
	}
	assert.Zero(t, f.backend.calls.Load(), "no URL may be minted without a valid token")
}

func TestBadBodies(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice", time.Hour)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"objectName":`, want: msgInvalidBody},
		{name: "empty body", body: ``, want: msgInvalidBody},
		{name: "missing bucket", body: `{"objectName":"theses/abc/thesis.pdf"}`, want: msgMissingParams},
		{name: "missing object", body: `{"bucketName":"vault"}`, want: msgMissingParams},
		{name: "too large", body: `{"objectName":"` + strings.Repeat("a", maxBodyBytes) + `","bucketName":"vault"}`, want: msgInvalidBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodPost, ReadPath, tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestReadAbsentObject(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice", time.Hour)

	status, body := f.do(t, http.MethodPost, ReadPath, tok, `{"objectName":"theses/abc/missing.pdf","bucketName":"vault"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, msgNotFound, body["error"])

	// writes never check for existence
	status, _ = f.do(t, http.MethodPost, WritePath, tok, `{"objectName":"theses/abc/missing.pdf","bucketName":"vault"}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestMintFailure(t *testing.T) {
	f := newFixture(t)
	f.backend.failMint(errors.New("credentials expired"))
	tok := token(t, "alice", time.Hour)

	status, body := f.do(t, http.MethodPost, WritePath, tok, `{"objectName":"o","bucketName":"vault"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error: credentials expired", body["error"])
}

func TestOwnershipPolicy(t *testing.T) {
	f := newFixture(t, grants.WithPolicy(grants.ProfileOwnerPolicy{}))
	tok := token(t, "alice", time.Hour)

	status, body := f.do(t, http.MethodPost, WritePath, tok, `{"objectName":"profile_pics/bob.png","bucketName":"vault","contentType":"image/png"}`)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, msgForbidden, body["error"])

	status, _ = f.do(t, http.MethodPost, WritePath, tok, `{"objectName":"profile_pics/alice.png","bucketName":"vault","contentType":"image/png"}`)
	assert.Equal(t, http.StatusOK, status)
}

func TestIndependentGrants(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice", time.Hour)
	req := `{"objectName":"theses/abc/thesis.pdf","bucketName":"vault"}`

	_, first := f.do(t, http.MethodPost, ReadPath, tok, req)
	_, second := f.do(t, http.MethodPost, ReadPath, tok, req)
	assert.NotEqual(t, first["signedUrl"], second["signedUrl"])
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+WritePath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")

	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Less(t, resp.StatusCode, 300)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Zero(t, f.verifier.calls.Load())
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "alice", time.Hour)
	f.do(t, http.MethodPost, ReadPath, tok, `{"objectName":"theses/abc/thesis.pdf","bucketName":"vault"}`)

	status, body := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := f.srv.Client().Get(f.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Contains(t, string(raw), `thesisvault_grants_total{action="read",result="issued"} 1`)
	assert.Contains(t, string(raw), `thesisvault_http_requests_total{method="POST",route="/generateReadUrl",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	status, msg := statusFor(&grants.BackendError{Err: errors.New("boom")})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error: boom", msg)
}
