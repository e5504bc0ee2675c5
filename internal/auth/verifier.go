package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

const (
	leeway    = 60 * time.Second
	devIssuer = "babelbye-dev"
)

// Verifier checks a bearer token and returns its subject claim.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWKSVerifier validates RS256 tokens against an auto-refreshing key set.
type JWKSVerifier struct {
	keys   keyfunc.Keyfunc
	parser *jwt.Parser
}

// NewJWKSVerifier fetches the key set at jwksURL and keeps it refreshed for
// the lifetime of ctx.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer, audience string) (*JWKSVerifier, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return &JWKSVerifier{
		keys: kf,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithLeeway(leeway),
		),
	}, nil
}

// NewDiscoveryVerifier learns the key set location and canonical issuer from
// the issuer's OpenID configuration.
func NewDiscoveryVerifier(ctx context.Context, issuer, audience string) (*JWKSVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}
	var meta struct {
		Issuer  string `json:"issuer"`
		JwksURI string `json:"jwks_uri"`
	}
	if err := provider.Claims(&meta); err != nil {
		return nil, fmt.Errorf("invalid discovery metadata: %w", err)
	}
	if meta.JwksURI == "" {
		return nil, errors.New("discovery incomplete: missing jwks_uri")
	}
	return NewJWKSVerifier(ctx, meta.JwksURI, meta.Issuer, audience)
}

func (v *JWKSVerifier) Verify(_ context.Context, token string) (string, error) {
	return verifyWith(v.parser, token, v.keys.Keyfunc)
}

// HMACVerifier accepts development tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuer(devIssuer),
		),
	}
}

func (v *HMACVerifier) Verify(_ context.Context, token string) (string, error) {
	return verifyWith(v.parser, token, func(*jwt.Token) (any, error) { return v.secret, nil })
}

// IssueDevToken signs a development token for userID.
func IssueDevToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    devIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func verifyWith(p *jwt.Parser, token string, kf jwt.Keyfunc) (string, error) {
	if token == "" {
		return "", ErrMissingCredential
	}
	var claims jwt.RegisteredClaims
	if _, err := p.ParseWithClaims(token, &claims, kf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub", ErrUnauthorized)
	}
	return claims.Subject, nil
}
