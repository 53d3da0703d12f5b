package resettoken

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/shared"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestIssuer(t *testing.T, audience string, c *clock) *Issuer {
	t.Helper()
	issuer, err := NewIssuer("top-secret", audience, WithClock(c.now))
	require.NoError(t, err)
	return issuer
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(t, AudienceCustomer, c)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	c.t = c.t.Add(59 * time.Minute)
	id, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestVerifyExpired(t *testing.T) {
	c := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	issuer := newTestIssuer(t, AudienceCustomer, c)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	c.t = c.t.Add(time.Hour + time.Second)
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTampered(t *testing.T) {
	c := &clock{t: time.Now()}
	issuer := newTestIssuer(t, AudienceCustomer, c)

	token, err := issuer.Issue(42)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload := []byte(parts[1])
	if payload[5] == 'A' {
		payload[5] = 'B'
	} else {
		payload[5] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = issuer.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongAudience(t *testing.T) {
	c := &clock{t: time.Now()}
	customer := newTestIssuer(t, AudienceCustomer, c)
	admin := newTestIssuer(t, AudienceAdmin, c)

	token, err := admin.Issue(1)
	require.NoError(t, err)

	_, err = customer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	c := &clock{t: time.Now()}
	issuer := newTestIssuer(t, AudienceCustomer, c)

	claims := jwt.RegisteredClaims{
		Subject:   "1",
		Audience:  jwt.ClaimStrings{AudienceCustomer},
		ExpiresAt: jwt.NewNumericDate(c.t.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("top-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveMissingSubject(t *testing.T) {
	c := &clock{t: time.Now()}
	issuer := newTestIssuer(t, AudienceCustomer, c)
	token, err := issuer.Issue(7)
	require.NoError(t, err)

	_, err = Resolve(context.Background(), issuer, token, func(ctx context.Context, id int64) (string, error) {
		return "", shared.ErrNotFound
	})
	assert.ErrorIs(t, err, ErrInvalidToken)

	name, err := Resolve(context.Background(), issuer, token, func(ctx context.Context, id int64) (string, error) {
		return "customer-7", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "customer-7", name)
}

func TestResolvePassesLookupFailuresThrough(t *testing.T) {
	c := &clock{t: time.Now()}
	issuer := newTestIssuer(t, AudienceAdmin, c)
	token, err := issuer.Issue(3)
	require.NoError(t, err)

	dbDown := errors.New("connection refused")
	_, err = Resolve(context.Background(), issuer, token, func(ctx context.Context, id int64) (string, error) {
		return "", dbDown
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbDown)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer("", AudienceCustomer)
	assert.Error(t, err)
}
