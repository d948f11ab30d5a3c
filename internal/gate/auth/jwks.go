package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

// JWKSConfig configures a JWKSVerifier.
type JWKSConfig struct {
	JWKSURL         string
	Issuer          string
	Audience        string
	ClientTimeout   time.Duration
	RefreshInterval time.Duration
	Leeway          time.Duration
}

// JWKSVerifier verifies RS256 tokens against a remote, periodically
// refreshed key set.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	opts   []jwt.ParserOption
	logger logging.Logger
}

// NewJWKSVerifier starts fetching the key set at cfg.JWKSURL. The gate
// starts even when the endpoint is not reachable yet; tokens fail to verify
// until the first successful refresh.
func NewJWKSVerifier(ctx context.Context, cfg JWKSConfig, logger logging.Logger) (*JWKSVerifier, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("jwks url is required")
	}
	if cfg.ClientTimeout == 0 {
		cfg.ClientTimeout = 10 * time.Second
	}
	if cfg.RefreshInterval == 0 {
		cfg.RefreshInterval = time.Hour
	}

	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: cfg.ClientTimeout},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           cfg.RefreshInterval,
		RefreshErrorHandler: func(ctx context.Context, err error) {
			logger.Error(ctx, "jwks refresh failed", "error", err, "url", cfg.JWKSURL)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create jwks storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("create keyfunc: %w", err)
	}

	return NewJWKSVerifierWithKeyfunc(k, cfg, logger), nil
}

// NewJWKSVerifierWithKeyfunc builds a verifier around an existing keyfunc.
// Only the Issuer, Audience and Leeway fields of cfg are used.
func NewJWKSVerifierWithKeyfunc(k keyfunc.Keyfunc, cfg JWKSConfig, logger logging.Logger) *JWKSVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &JWKSVerifier{
		jwks:   k,
		opts:   opts,
		logger: logger.With("module", "jwks"),
	}
}

func (v *JWKSVerifier) Verify(ctx context.Context, tokenString string) (*Subject, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.KeyfuncCtx(ctx), v.opts...)
	if err != nil {
		v.logger.Debug(ctx, "token rejected", "error", err)
	}
	return subjectFromClaims(token, claims, err)
}
