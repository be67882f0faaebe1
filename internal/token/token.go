// Package token issues and verifies access tokens and mints opaque refresh tokens.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/devfolio/internal/crypto"
	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

// refreshTokenBytes is the entropy of a refresh token (384 bits).
const refreshTokenBytes = 48

// Verification failures. Both wrap errs.ErrUnauthenticated.
var (
	ErrTokenExpired = fmt.Errorf("%w: token expired", errs.ErrUnauthenticated)
	ErrBadSignature = fmt.Errorf("%w: invalid token", errs.ErrUnauthenticated)
)

// Claims is the signed payload of an access token. Role is a snapshot
// taken at issue time; request handling re-resolves the current role.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// SubjectID parses the subject claim.
func (c *Claims) SubjectID() (uuid.UUID, error) {
	id, err := uuid.FromString(c.Subject)
	if err != nil {
		return uuid.Nil, ErrBadSignature
	}
	return id, nil
}

// Issuer signs and verifies HS256 access tokens with a process-wide key.
type Issuer struct {
	signKey   []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewIssuer constructs an Issuer. The key and TTL are fixed for the process lifetime.
func NewIssuer(signKey []byte, accessTTL time.Duration) *Issuer {
	return &Issuer{signKey: signKey, accessTTL: accessTTL, now: time.Now}
}

// IssueAccessToken creates a signed HS256 JWT for the identity. The returned
// expiry equals the exp claim, which has whole-second precision.
func (i *Issuer) IssueAccessToken(id model.Identity) (string, time.Time, error) {
	now := i.now()
	exp := now.Add(i.accessTTL).Truncate(jwt.TimePrecision)
	claims := Claims{
		Username: id.Username,
		Role:     string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.signKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, exp, nil
}

// VerifyAccessToken checks signature and expiry without any I/O. There is
// no leeway: the issuing process is the only verifier, so a token is
// rejected from the expiry it was issued with.
func (i *Issuer) VerifyAccessToken(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrBadSignature
	}
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return i.signKey, nil
	},
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrTokenExpired
	default:
		return nil, ErrBadSignature
	}
	if _, err := claims.SubjectID(); err != nil {
		return nil, err
	}
	return &claims, nil
}

// NewRefreshToken returns an opaque, unguessable refresh token. It carries
// no structure; the binding to a user lives only in the ledger.
func NewRefreshToken() (string, error) {
	b, err := crypto.RandBytes(refreshTokenBytes)
	if err != nil {
		return "", fmt.Errorf("refresh token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
