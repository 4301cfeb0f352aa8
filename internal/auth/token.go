// Package auth verifies caller identity from a bearer credential. It stands
// in for the external Session/Identity service: tokens are HMAC-signed JWTs
// whose subject is the user id. The core never issues tokens; it only
// verifies them.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, expiry, malformed claims, or an empty subject.
var ErrInvalidToken = errors.New("invalid credential")

// Verifier resolves a bearer credential to a user id. Implementations must
// be safe for concurrent use.
type Verifier interface {
	Verify(token string) (userID string, err error)
}

// Claims is the token payload accepted by JWTVerifier.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HMAC-signed JWTs against a shared secret.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier for the given shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token and returns the user id carried in
// the userId claim (falling back to the registered subject).
func (v *JWTVerifier) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	uid := claims.UserID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return "", ErrInvalidToken
	}
	return uid, nil
}

// Sign issues a token for userID. Exported for tests and local tooling; the
// production issuer lives in the identity service.
func (v *JWTVerifier) Sign(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// FromAuthorizationHeader extracts the raw token from "Bearer <token>".
func FromAuthorizationHeader(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
