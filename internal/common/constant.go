package common

// AuthorizationHeader carries the bearer token on gate requests.
const AuthorizationHeader = "Authorization"

// BearerPrefix is the scheme prefix expected in AuthorizationHeader.
const BearerPrefix = "Bearer "

// DefaultContentType is used when a write grant names no content type or the
// local file extension is unknown.
const DefaultContentType = "application/octet-stream"

// TokenHint returns a short, log-safe prefix of a bearer token.
func TokenHint(token string) string {
	if len(token) <= 10 {
		return token[:len(token)/2] + "..."
	}
	return token[:10] + "..."
}
