package main

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gorilla/mux"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// claimsFrom returns the claims the authenticate middleware stored on
// the request context.
func claimsFrom(r *http.Request) *JWTClaims {
	claims, _ := r.Context().Value(claimsKey).(*JWTClaims)
	return claims
}

func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenHeader := r.Header.Get("Authorization")
		if tokenHeader == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		splitToken := strings.Split(tokenHeader, "Bearer ")
		if len(splitToken) != 2 {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
		requestToken := splitToken[1]

		token, err := jwt.ParseWithClaims(requestToken, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(s.jwtKey), nil
		})

		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// optionalClaims parses the bearer token when one was sent on a public
// route. It returns nil for anonymous or invalid tokens instead of
// rejecting the request.
func (s *Server) optionalClaims(r *http.Request) *JWTClaims {
	tokenHeader := r.Header.Get("Authorization")
	splitToken := strings.Split(tokenHeader, "Bearer ")
	if len(splitToken) != 2 {
		return nil
	}

	token, err := jwt.ParseWithClaims(splitToken[1], &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtKey), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, _ := token.Claims.(*JWTClaims)
	return claims
}

// requireRole chains authenticate with a role check. Admins pass every
// check.
func (s *Server) requireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return s.authenticate(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r)
		if claims.UserType != role && claims.UserType != model.RoleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// instrument counts every request by route template and status code.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.RecordHTTPRequest(route, strconv.Itoa(rec.status))
	})
}
