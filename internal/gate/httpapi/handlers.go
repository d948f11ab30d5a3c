package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/gate/auth"
	"github.com/dmitrijs2005/thesisvault/internal/gate/grants"
	"github.com/dmitrijs2005/thesisvault/internal/logging"
)

const (
	msgMethodNotAllowed = "Method not allowed. Please use POST."
	msgMissingAuth      = "Unauthorized. Missing or invalid authorization header."
	msgInvalidToken     = "Unauthorized. Invalid token."
	msgExpiredToken     = "Unauthorized. Token expired."
	msgInvalidBody      = "Invalid request body."
	msgMissingParams    = "Missing required parameters: objectName and bucketName are required."
	msgForbidden        = "Forbidden. You are not allowed to access this object."
	msgNotFound         = "File not found in storage."
	msgInternalPrefix   = "Internal server error: "
)

type signedURLResponse struct {
	SignedURL string `json:"signedUrl"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	grants GrantIssuer
	logger logging.Logger
}

type issueFunc func(ctx context.Context, subject *auth.Subject, req grants.Request) (*grants.Grant, error)

func (h *handler) generateReadURL(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.grants.IssueRead)
}

func (h *handler) generateUploadURL(w http.ResponseWriter, r *http.Request) {
	h.issue(w, r, h.grants.IssueWrite)
}

func (h *handler) issue(w http.ResponseWriter, r *http.Request, fn issueFunc) {
	var req grants.Request

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug(r.Context(), "bad grant request body", "error", err)
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	g, err := fn(r.Context(), auth.SubjectFromContext(r.Context()), req)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, signedURLResponse{SignedURL: g.URL})
}

// statusFor maps service and auth errors to a status and client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, msgMissingParams
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgExpiredToken
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, msgInvalidToken
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, msgMissingAuth
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, msgNotFound
	default:
		return http.StatusInternalServerError, msgInternalPrefix + err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
