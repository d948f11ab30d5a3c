// Package grants decides whether a verified subject gets a signed URL and
// mints it. Nothing is persisted: every call stands alone and two calls for
// the same object yield two independent grants.
package grants

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/storage"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
)

// Request is what a client asks a grant for.
type Request struct {
	ObjectName  string `json:"objectName"`
	BucketName  string `json:"bucketName"`
	ContentType string `json:"contentType,omitempty"`
}

// Grant is a minted signed URL and what it is good for.
type Grant struct {
	URL         string
	Action      storage.Action
	ObjectName  string
	BucketName  string
	ContentType string
	ExpiresAt   time.Time
}

// BackendError is a storage failure surfaced to the caller. It matches
// common.ErrInternal and prints only the storage message.
type BackendError struct {
	Err error
}

func (e *BackendError) Error() string   { return e.Err.Error() }
func (e *BackendError) Unwrap() []error { return []error{common.ErrInternal, e.Err} }

// Service issues read and write grants.
type Service struct {
	backend  storage.Backend
	policy   Policy
	readTTL  time.Duration
	writeTTL time.Duration
	now      func() time.Time
	metrics  *Metrics
	logger   logging.Logger
}

// Option configures a Service built by NewService.
type Option func(*Service)

// WithPolicy replaces the default AllowAuthenticated policy.
func WithPolicy(p Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithClock overrides time.Now for ExpiresAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records every outcome in m.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService returns a Service that signs URLs through backend. Read URLs
// live for readTTL and write URLs for writeTTL. Without options every
// authenticated caller is allowed and no metrics are recorded.
func NewService(backend storage.Backend, readTTL, writeTTL time.Duration, logger logging.Logger, opts ...Option) *Service {
	s := &Service{
		backend:  backend,
		policy:   AllowAuthenticated{},
		readTTL:  readTTL,
		writeTTL: writeTTL,
		now:      time.Now,
		logger:   logger.With("module", "grants"),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IssueRead mints a read URL for an existing object.
func (s *Service) IssueRead(ctx context.Context, subject *auth.Subject, req Request) (*Grant, error) {
	g, err := s.issueRead(ctx, subject, req)
	s.observe(storage.ActionRead, err)
	return g, err
}

// IssueWrite mints a write URL bound to req.ContentType. The object need
// not exist.
func (s *Service) IssueWrite(ctx context.Context, subject *auth.Subject, req Request) (*Grant, error) {
	g, err := s.issueWrite(ctx, subject, req)
	s.observe(storage.ActionWrite, err)
	return g, err
}

func (s *Service) issueRead(ctx context.Context, subject *auth.Subject, req Request) (*Grant, error) {
	if err := s.authorize(subject, storage.ActionRead, req); err != nil {
		return nil, err
	}

	exists, err := s.backend.ObjectExists(ctx, req.BucketName, req.ObjectName)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	if !exists {
		s.logger.Info(ctx, "read grant for absent object", "subject", subject.ID, "object", req.ObjectName)
		return nil, fmt.Errorf("%s: %w", req.ObjectName, common.ErrNotFound)
	}

	return s.mint(ctx, subject, storage.ActionRead, req, s.readTTL)
}

func (s *Service) issueWrite(ctx context.Context, subject *auth.Subject, req Request) (*Grant, error) {
	if err := s.authorize(subject, storage.ActionWrite, req); err != nil {
		return nil, err
	}
	if req.ContentType == "" {
		req.ContentType = common.DefaultContentType
	}
	return s.mint(ctx, subject, storage.ActionWrite, req, s.writeTTL)
}

func (s *Service) authorize(subject *auth.Subject, action storage.Action, req Request) error {
	if subject == nil || subject.ID == "" {
		return common.ErrUnauthorized
	}
	if req.ObjectName == "" || req.BucketName == "" {
		return fmt.Errorf("%w: objectName and bucketName are required", common.ErrBadRequest)
	}
	return s.policy.Allow(subject, action, req.ObjectName)
}

func (s *Service) mint(ctx context.Context, subject *auth.Subject, action storage.Action, req Request, ttl time.Duration) (*Grant, error) {
	issuedAt := s.now()

	url, err := s.backend.MintSignedURL(ctx, req.BucketName, req.ObjectName, action, ttl, req.ContentType)
	if err != nil {
		s.logger.Error(ctx, "mint signed url failed", "action", action, "object", req.ObjectName, "error", err)
		return nil, &BackendError{Err: err}
	}

	s.logger.Info(ctx, "grant issued",
		"action", action,
		"subject", subject.ID,
		"bucket", req.BucketName,
		"object", req.ObjectName,
		"ttl", ttl,
	)

	return &Grant{
		URL:         url,
		Action:      action,
		ObjectName:  req.ObjectName,
		BucketName:  req.BucketName,
		ContentType: req.ContentType,
		ExpiresAt:   issuedAt.Add(ttl),
	}, nil
}

func (s *Service) observe(action storage.Action, err error) {
	if s.metrics != nil {
		s.metrics.observe(action, err)
	}
}
