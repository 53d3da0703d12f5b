// Package resettoken issues and verifies signed, expiring password-reset
// tokens. There is no revocation list: a token stays usable until it expires.
package resettoken

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/artemoderno/storefront/internal/shared"
)

// Audiences separate customer and back-office tokens.
const (
	AudienceCustomer = "customer-reset"
	AudienceAdmin    = "admin-reset"
)

// DefaultTTL is how long a reset link stays valid.
const DefaultTTL = time.Hour

// ErrInvalidToken covers bad signatures, wrong audience or algorithm, expiry
// and unknown subjects alike.
var ErrInvalidToken = errors.New("resettoken: invalid or expired token")

// Issuer signs tokens for one audience.
type Issuer struct {
	secret   []byte
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) { i.ttl = ttl }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// NewIssuer constructs an Issuer. secret must not be empty.
func NewIssuer(secret, audience string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("resettoken: secret required")
	}
	if audience == "" {
		return nil, errors.New("resettoken: audience required")
	}
	i := &Issuer{secret: []byte(secret), audience: audience, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue returns a signed token for subjectID.
func (i *Issuer) Issue(subjectID int64) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(subjectID, 10),
		Audience:  jwt.ClaimStrings{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("resettoken: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, audience and expiry and returns the
// subject id.
func (i *Issuer) Verify(token string) (int64, error) {
	if token == "" {
		return 0, ErrInvalidToken
	}
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithoutClaimsValidation())
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, ErrInvalidToken
	}
	now := i.now()
	if !claims.VerifyExpiresAt(now, true) || !claims.VerifyAudience(i.audience, true) {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Resolve verifies token and loads its subject with lookup. A deleted subject
// (shared.ErrNotFound) is reported as ErrInvalidToken; other lookup failures
// are returned wrapped.
func Resolve[T any](ctx context.Context, i *Issuer, token string, lookup func(context.Context, int64) (T, error)) (T, error) {
	var zero T
	id, err := i.Verify(token)
	if err != nil {
		return zero, err
	}
	subject, err := lookup(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return zero, ErrInvalidToken
		}
		return zero, fmt.Errorf("resettoken: load subject %d: %w", id, err)
	}
	return subject, nil
}
