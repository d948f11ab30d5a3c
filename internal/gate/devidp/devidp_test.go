package devidp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("idp-secret")

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	p := New("k1", secret, logging.NopLogger{}, WithBcryptCost(bcrypt.MinCost), WithTokenTTL(30*time.Minute))
	r := chi.NewRouter()
	r.Mount("/v1", p.Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, op, key, email, password string) (int, tokenResponse, errorResponse) {
	t.Helper()
	body, _ := json.Marshal(credentialsRequest{Email: email, Password: password, ReturnSecureToken: true})
	resp, err := srv.Client().Post(srv.URL+"/v1/accounts:"+op+"?key="+key, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var ok tokenResponse
	var bad errorResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&ok))
	} else {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&bad))
	}
	return resp.StatusCode, ok, bad
}

func TestSignUpThenSignIn(t *testing.T) {
	srv := newServer(t)

	status, up, _ := call(t, srv, "signUp", "k1", "ada@example.com", "secret1")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, up.LocalID, 28)
	assert.Equal(t, "1800", up.ExpiresIn)

	status, in, _ := call(t, srv, "signInWithPassword", "k1", "ADA@example.com", "secret1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, up.LocalID, in.LocalID)
	assert.True(t, in.Registered)

	s, err := auth.NewHMACVerifier(secret).Verify(context.Background(), in.IDToken)
	require.NoError(t, err)
	assert.Equal(t, up.LocalID, s.ID)
	assert.Equal(t, "ada@example.com", s.Email)
}

func TestErrors(t *testing.T) {
	srv := newServer(t)
	status, _, _ := call(t, srv, "signUp", "k1", "taken@example.com", "secret1")
	require.Equal(t, http.StatusOK, status)

	tests := []struct {
		name     string
		op       string
		key      string
		email    string
		password string
		want     string
	}{
		{name: "duplicate email", op: "signUp", key: "k1", email: "taken@example.com", password: "secret1", want: ErrEmailExists},
		{name: "weak password", op: "signUp", key: "k1", email: "new@example.com", password: "123", want: ErrWeakPassword},
		{name: "bad email", op: "signUp", key: "k1", email: "not-an-email", password: "secret1", want: ErrInvalidEmail},
		{name: "missing password", op: "signInWithPassword", key: "k1", email: "taken@example.com", password: "", want: ErrMissingPassword},
		{name: "unknown user", op: "signInWithPassword", key: "k1", email: "ghost@example.com", password: "secret1", want: ErrEmailNotFound},
		{name: "wrong password", op: "signInWithPassword", key: "k1", email: "taken@example.com", password: "secret2", want: ErrInvalidPassword},
		{name: "wrong api key", op: "signInWithPassword", key: "nope", email: "taken@example.com", password: "secret1", want: ErrInvalidAPIKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _, bad := call(t, srv, tt.op, tt.key, tt.email, tt.password)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, http.StatusBadRequest, bad.Error.Code)
			assert.Equal(t, tt.want, bad.Error.Message)
		})
	}
}
