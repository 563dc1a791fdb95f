package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const (
	claimsContextKey contextKey = "claims"
	tokenContextKey  contextKey = "token"
)

// Authenticator reads bearer tokens off incoming requests. The game
// backend stays authoritative: the raw token is carried along for
// pass-through calls, and the local secret only unlocks the viewer's
// identity for selection seeding.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Optional attaches the bearer token and, when it verifies against the
// local secret, the viewer's claims. Requests without a token stay
// anonymous; the board is public either way.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(a.attach(r.Context(), raw)))
	})
}

// Require rejects requests that carry no bearer token at all. The
// token itself is still verified by the backend it is forwarded to.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(a.attach(r.Context(), raw)))
	})
}

func (a *Authenticator) attach(ctx context.Context, raw string) context.Context {
	ctx = context.WithValue(ctx, tokenContextKey, raw)
	if len(a.secret) == 0 {
		return ctx
	}
	claims, err := a.parse(raw)
	if err != nil {
		return ctx
	}
	return context.WithValue(ctx, claimsContextKey, claims)
}

func (a *Authenticator) parse(raw string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("token claims missing or invalid")
	}
	return claims, nil
}

// BearerToken extracts the raw token from the Authorization header,
// or "" when there is none.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
