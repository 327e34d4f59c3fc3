package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

// ErrInvalidToken covers every rejection reason. Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller.
type Identity struct {
	UserID int
	Email  string
}

// Claims is the token payload.
type Claims struct {
	UserID int    `json:"userId"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier builds a Verifier for the given secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Verify checks signature, algorithm and expiry and returns the caller identity.
func (v *Verifier) Verify(raw string) (Identity, error) {
	if raw == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}
	if !claims.VerifyExpiresAt(v.now().Unix(), true) || claims.UserID <= 0 {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// Issue signs a token for id that expires after ttl.
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  v.now().Unix(),
			ExpiresAt: v.now().Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
