// Package auth implements the token codec and password hashing used by the
// session services.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/lingoplay/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Payload is the content of an access or refresh token.
type Payload struct {
	UserID    int64
	Email     string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the wire form of Payload. Only id, email, username, iat and exp
// are ever set, the remaining registered claims stay empty and are omitted.
type Claims struct {
	UserID   int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

var signingMethod = jwt.SigningMethodHS256

// Encode signs p with secret as an HS256 JWT.
func Encode(p Payload, secret []byte) (string, error) {
	token := jwt.NewWithClaims(signingMethod, Claims{
		UserID:   p.UserID,
		Email:    p.Email,
		Username: p.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(p.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Decode verifies tokenString with secret and returns its payload. The only
// errors are common.ErrTokenExpired (valid signature, exp in the past) and
// common.ErrInvalidToken.
func Decode(tokenString string, secret []byte) (*Payload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID <= 0 {
		return nil, common.ErrInvalidToken
	}

	p := &Payload{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}

	return p, nil
}
