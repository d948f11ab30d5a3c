package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
	"github.com/go-chi/chi/v5/middleware"
)

// Authenticate verifies the bearer token and stores the subject in the
// request context. Failures end the request with 401.
func Authenticate(v auth.Verifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ParseBearer(r.Header.Get(common.AuthorizationHeader))
			if err != nil {
				writeError(w, http.StatusUnauthorized, msgMissingAuth)
				return
			}

			subject, err := v.Verify(r.Context(), token)
			if err != nil {
				logger.Debug(r.Context(), "token verification failed",
					"token", common.TokenHint(token),
					"error", err,
					"remote_addr", r.RemoteAddr,
				)
				status, msg := statusFor(err)
				if status != http.StatusUnauthorized {
					status, msg = http.StatusUnauthorized, msgInvalidToken
				}
				writeError(w, status, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), subject)))
		})
	}
}

// RequestLogger logs method, path, status, duration, size and remote
// address. 4xx log at warn, 5xx at error.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"remote_addr", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			}

			switch {
			case status >= 500:
				logger.Error(r.Context(), "http request", args...)
			case status >= 400:
				logger.Warn(r.Context(), "http request", args...)
			default:
				logger.Info(r.Context(), "http request", args...)
			}
		})
	}
}
