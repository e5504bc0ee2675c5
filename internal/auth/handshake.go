package auth

import (
	"context"
	"fmt"
	"log/slog"

	"babelbye/backend/internal/config"

	"github.com/google/uuid"
)

// Handshake turns presented credentials into a user id or rejects them.
// One strategy is chosen at startup.
type Handshake interface {
	Authenticate(ctx context.Context, cred Credentials) (string, error)
}

// TokenHandshake requires a bearer token.
type TokenHandshake struct {
	Verifier Verifier
}

func (h TokenHandshake) Authenticate(ctx context.Context, cred Credentials) (string, error) {
	if cred.Token == "" {
		return "", ErrMissingCredential
	}
	sub, err := h.Verifier.Verify(ctx, cred.Token)
	if err != nil {
		return "", err
	}
	return ParseSubject(sub)
}

// BypassHandshake trusts an identity supplied by the caller. Without one it
// defers to Fallback when set.
type BypassHandshake struct {
	Fallback Handshake
}

func (h BypassHandshake) Authenticate(ctx context.Context, cred Credentials) (string, error) {
	if cred.UserID != "" {
		id, err := uuid.Parse(cred.UserID)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrMalformedSubject, cred.UserID)
		}
		return id.String(), nil
	}
	if h.Fallback != nil {
		return h.Fallback.Authenticate(ctx, cred)
	}
	return "", ErrMissingCredential
}

// NewHandshake builds the handshake strategy for cfg. Dev tokens are only
// honoured in bypass mode. Key sets fetched here stay refreshed until ctx is
// cancelled.
func NewHandshake(ctx context.Context, cfg config.Config, log *slog.Logger) (Handshake, error) {
	if cfg.AuthBypass {
		log.Warn("AUTH_BYPASS enabled; caller-supplied identities are trusted")
		if cfg.DevTokenSecret == "" {
			return BypassHandshake{}, nil
		}
		return BypassHandshake{Fallback: TokenHandshake{Verifier: NewHMACVerifier(cfg.DevTokenSecret)}}, nil
	}
	if cfg.DevTokenSecret != "" {
		return nil, config.ErrDevTokenWithoutBypass
	}

	var (
		jwks *JWKSVerifier
		err  error
	)
	if cfg.AuthDiscovery {
		jwks, err = NewDiscoveryVerifier(ctx, cfg.Auth0Issuer, cfg.Auth0Audience)
	} else {
		jwks, err = NewJWKSVerifier(ctx, cfg.JWKSURL(), cfg.Auth0Issuer, cfg.Auth0Audience)
	}
	if err != nil {
		return nil, err
	}
	log.Info("token auth configured", "issuer", cfg.Auth0Issuer, "discovery", cfg.AuthDiscovery)
	return TokenHandshake{Verifier: jwks}, nil
}
