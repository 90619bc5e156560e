// Package auth implements the single session mechanism used by every
// protected route: an HS256 JWT carrying the user's id, email, and role.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/summittax/apiserver/types"
)

// DefaultTokenTTL is the session lifetime.
const DefaultTokenTTL = 24 * time.Hour

// Identity is the authenticated caller resolved from a session token.
type Identity struct {
	UserID int
	Email  string
	Role   types.Role
}

// IsAdmin reports whether the session is elevated.
func (id Identity) IsAdmin() bool {
	return id.Role == types.RoleAdmin
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IssueToken signs a session token for the user.
func IssueToken(user types.User, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: user.Email,
		Role:  string(user.Role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken validates a session token and returns the caller identity.
func ParseToken(tokenString string, secret []byte) (Identity, error) {
	claims := sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid token")
	}

	userID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || userID < 1 {
		return Identity{}, errors.New("invalid subject")
	}

	role := types.Role(claims.Role)
	if !role.Valid() {
		return Identity{}, errors.New("invalid role")
	}

	return Identity{
		UserID: userID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}
