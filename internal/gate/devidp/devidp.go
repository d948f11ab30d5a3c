// Package devidp is a local identity provider speaking the subset of the
// Firebase Identity Toolkit REST API the client uses: email/password sign-up
// and sign-in. Users live in memory; tokens are HS256 and verify with the
// gate's HMAC verifier. It is meant for development and tests only.
package devidp

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Provider error messages, as returned in error.message.
const (
	ErrEmailExists     = "EMAIL_EXISTS"
	ErrEmailNotFound   = "EMAIL_NOT_FOUND"
	ErrInvalidPassword = "INVALID_PASSWORD"
	ErrMissingPassword = "MISSING_PASSWORD"
	ErrInvalidEmail    = "INVALID_EMAIL"
	ErrWeakPassword    = "WEAK_PASSWORD : Password should be at least 6 characters"
	ErrInvalidAPIKey   = "INVALID_API_KEY"
)

const minPasswordLen = 6

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type tokenResponse struct {
	Kind       string `json:"kind"`
	LocalID    string `json:"localId"`
	Email      string `json:"email"`
	IDToken    string `json:"idToken"`
	ExpiresIn  string `json:"expiresIn"`
	Registered bool   `json:"registered,omitempty"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type user struct {
	localID string
	email   string
	hash    []byte
}

// Provider holds the in-memory user table.
type Provider struct {
	mu    sync.Mutex
	users map[string]*user

	apiKey     string
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	logger     logging.Logger
}

type Option func(*Provider)

// WithTokenTTL sets the lifetime of minted ID tokens (default one hour).
func WithTokenTTL(d time.Duration) Option {
	return func(p *Provider) { p.tokenTTL = d }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(p *Provider) { p.bcryptCost = cost }
}

func New(apiKey string, secret []byte, logger logging.Logger, opts ...Option) *Provider {
	p := &Provider{
		users:      make(map[string]*user),
		apiKey:     apiKey,
		secret:     secret,
		tokenTTL:   time.Hour,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger.With("module", "devidp"),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Routes returns the provider's handler, to be mounted under /v1.
func (p *Provider) Routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/accounts:signUp", p.signUp)
	r.Post("/accounts:signInWithPassword", p.signIn)
	return r
}

func (p *Provider) signUp(w http.ResponseWriter, r *http.Request) {
	req, ok := p.decode(w, r)
	if !ok {
		return
	}
	if len(req.Password) < minPasswordLen {
		writeError(w, ErrWeakPassword)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), p.bcryptCost)
	if err != nil {
		p.logger.Error(r.Context(), "hash password", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	key := strings.ToLower(req.Email)

	p.mu.Lock()
	if _, exists := p.users[key]; exists {
		p.mu.Unlock()
		writeError(w, ErrEmailExists)
		return
	}
	u := &user{localID: newLocalID(), email: req.Email, hash: hash}
	p.users[key] = u
	p.mu.Unlock()

	p.logger.Info(r.Context(), "user signed up", "local_id", u.localID)
	p.respondWithToken(w, r, u, "identitytoolkit#SignupNewUserResponse", false)
}

func (p *Provider) signIn(w http.ResponseWriter, r *http.Request) {
	req, ok := p.decode(w, r)
	if !ok {
		return
	}

	p.mu.Lock()
	u, exists := p.users[strings.ToLower(req.Email)]
	p.mu.Unlock()
	if !exists {
		writeError(w, ErrEmailNotFound)
		return
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)); err != nil {
		writeError(w, ErrInvalidPassword)
		return
	}

	p.respondWithToken(w, r, u, "identitytoolkit#VerifyPasswordResponse", true)
}

// decode checks the API key and the common request fields.
func (p *Provider) decode(w http.ResponseWriter, r *http.Request) (*credentialsRequest, bool) {
	if r.URL.Query().Get("key") != p.apiKey {
		writeError(w, ErrInvalidAPIKey)
		return nil, false
	}

	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, "INVALID_JSON")
		return nil, false
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, ErrInvalidEmail)
		return nil, false
	}
	if req.Password == "" {
		writeError(w, ErrMissingPassword)
		return nil, false
	}
	return &req, true
}

func (p *Provider) respondWithToken(w http.ResponseWriter, r *http.Request, u *user, kind string, registered bool) {
	tok, err := auth.GenerateToken(u.localID, u.email, p.secret, p.tokenTTL)
	if err != nil {
		p.logger.Error(r.Context(), "mint token", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tokenResponse{
		Kind:       kind,
		LocalID:    u.localID,
		Email:      u.email,
		IDToken:    tok,
		ExpiresIn:  strconv.Itoa(int(p.tokenTTL.Seconds())),
		Registered: registered,
	})
}

func writeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: errorDetail{Code: http.StatusBadRequest, Message: msg}})
}

// newLocalID returns a 28-character id, the length Firebase uses.
func newLocalID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:28]
}
