// Package auth admits real-time sessions and REST callers by establishing
// the caller's user id, either from a verified bearer token or, in
// development, from an identity the caller supplies directly.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrUnauthorized indicates the token failed verification.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrMissingCredential means neither a token nor a bypass identity was supplied.
	ErrMissingCredential = errors.New("auth: missing credential")
	// ErrMalformedSubject means the verified subject does not carry a user id.
	ErrMalformedSubject = errors.New("auth: malformed subject")
)

// UserIDHeader carries the caller identity when the bypass handshake is active.
const UserIDHeader = "X-User-Id"

// Credentials is what a caller presented: a bearer token, an explicit
// identity, or both.
type Credentials struct {
	Token  string
	UserID string
}

// FromHeaders reads credentials from request headers only.
func FromHeaders(h http.Header) Credentials {
	return Credentials{
		Token:  bearerToken(h.Get("Authorization")),
		UserID: strings.TrimSpace(h.Get(UserIDHeader)),
	}
}

// FromWebSocket reads credentials for an upgrade request. Browsers cannot
// set headers on the upgrade, so the query string takes precedence.
func FromWebSocket(r *http.Request) Credentials {
	cred := FromHeaders(r.Header)
	q := r.URL.Query()
	if tok := q.Get("token"); tok != "" {
		cred.Token = tok
	}
	if id := q.Get("user_id"); id != "" {
		cred.UserID = id
	}
	return cred
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// ParseSubject extracts the user id from a token subject. Both a bare UUID and
// a federated subject such as "auth0|<uuid>" are accepted.
func ParseSubject(sub string) (string, error) {
	if id, err := uuid.Parse(sub); err == nil {
		return id.String(), nil
	}
	if i := strings.LastIndex(sub, "|"); i >= 0 {
		if id, err := uuid.Parse(sub[i+1:]); err == nil {
			return id.String(), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrMalformedSubject, sub)
}
