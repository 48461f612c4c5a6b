package main

import (
	"time"

	"github.com/dgrijalva/jwt-go"

	"skillforge/internal/model"
)

// JWTClaims carries the authenticated user's id and role inside the
// bearer token.
type JWTClaims struct {
	UserID   int    `json:"user_id"`
	UserType string `json:"user_type"`
	jwt.StandardClaims
}

func (c JWTClaims) IsInstructor() bool {
	return c.UserType == model.RoleInstructor
}

func (c JWTClaims) IsAdmin() bool {
	return c.UserType == model.RoleAdmin
}

// issueToken signs a 24 hour HS256 token for the user.
func (s *Server) issueToken(user model.User) (string, error) {
	claims := JWTClaims{
		UserID:   user.ID,
		UserType: user.UserType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtKey))
}
