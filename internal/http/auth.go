package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pennywise/internal/log"
)

type identityKey struct{}

// Identity is the authenticated caller extracted from the bearer token.
type Identity struct {
	UserID string
	Email  string
}

// IdentityFromContext returns the caller identity attached by withAuth.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// withAuth validates the Authorization bearer token and attaches the caller
// identity to the request context. Tokens are HS256 with the user id in the
// "sub" claim and the account email in the "email" claim.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}
		raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		token, err := jwt.Parse(raw, func(*jwt.Token) (any, error) {
			return s.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected bearer token",
				log.FieldError, err,
				log.FieldPath, r.URL.Path,
			)
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: msg})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}
		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "token has no subject"})
			return
		}

		id := Identity{UserID: sub}
		if email, ok := claims["email"].(string); ok {
			id.Email = strings.ToLower(strings.TrimSpace(email))
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next(w, r.WithContext(ctx))
	}
}

// identity is a handler-side convenience. The auth middleware guarantees the
// value is present on protected routes.
func identity(r *http.Request) Identity {
	id, _ := IdentityFromContext(r.Context())
	return id
}
