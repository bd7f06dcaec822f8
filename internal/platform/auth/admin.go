package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Role constants accepted on admin tokens.
const (
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

const defaultRoleClaim = "role"

// Identity captures the principal extracted from an admin bearer token.
type Identity struct {
	Subject string
	Email   string
	Roles   []string
}

// HasRole reports whether the identity includes the requested role (case-insensitive).
func (i *Identity) HasRole(role string) bool {
	if i == nil {
		return false
	}
	role = normaliseRole(role)
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type contextKey string

const identityContextKey contextKey = "github.com/hanko-field/namedmenus/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream handlers.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// AdminAuthenticator verifies HS256 bearer tokens signed with a shared secret.
type AdminAuthenticator struct {
	secret    []byte
	roleClaim string
}

// Option customises AdminAuthenticator behaviour.
type Option func(*AdminAuthenticator)

// WithRoleClaim overrides the claim used for role extraction.
func WithRoleClaim(claim string) Option {
	return func(a *AdminAuthenticator) {
		claim = strings.TrimSpace(claim)
		if claim != "" {
			a.roleClaim = claim
		}
	}
}

// NewAdminAuthenticator constructs the authenticator. An empty secret rejects every request.
func NewAdminAuthenticator(secret string, opts ...Option) *AdminAuthenticator {
	a := &AdminAuthenticator{
		secret:    []byte(strings.TrimSpace(secret)),
		roleClaim: defaultRoleClaim,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireRoles verifies the Authorization bearer token and ensures one of the allowed roles.
func (a *AdminAuthenticator) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		if role = normaliseRole(role); role != "" {
			allowed[role] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := extractBearerToken(r.Header.Get("Authorization"))
			if !ok {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization header missing or invalid")
				return
			}
			if a == nil || len(a.secret) == 0 {
				respondAuthError(w, http.StatusUnauthorized, "unauthenticated", "authorization service unavailable")
				return
			}

			identity, err := a.Verify(tokenStr)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					respondAuthError(w, http.StatusUnauthorized, "token_expired", "admin token expired")
					return
				}
				respondAuthError(w, http.StatusUnauthorized, "invalid_token", "admin token invalid")
				return
			}

			if len(allowed) > 0 && !hasAllowedRole(identity.Roles, allowed) {
				respondAuthError(w, http.StatusForbidden, "insufficient_role", "identity does not have required role")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// Verify parses and validates a signed token.
func (a *AdminAuthenticator) Verify(tokenStr string) (*Identity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}); err != nil {
		return nil, err
	}
	identity := &Identity{
		Subject: claimAsString(claims, "sub"),
		Email:   claimAsString(claims, "email"),
		Roles:   rolesFromClaims(claims, a.roleClaim),
	}
	if identity.Subject == "" {
		return nil, errors.New("auth: token subject is required")
	}
	return identity, nil
}

// IssueToken signs an HS256 admin token. Used by operator tooling and tests.
func IssueToken(secret, subject string, roles []string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("auth: secret is required")
	}
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": roles,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(secret)))
}

func hasAllowedRole(identityRoles []string, allowed map[string]struct{}) bool {
	for _, role := range identityRoles {
		if _, ok := allowed[normaliseRole(role)]; ok {
			return true
		}
	}
	return false
}

func rolesFromClaims(claims jwt.MapClaims, key string) []string {
	raw, ok := claims[key]
	if !ok {
		return nil
	}
	var values []string
	switch v := raw.(type) {
	case string:
		values = []string{v}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
	case []string:
		values = v
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		role := normaliseRole(value)
		if role == "" {
			continue
		}
		if _, exists := seen[role]; exists {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

func claimAsString(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func normaliseRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

func extractBearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func respondAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":   code,
		"message": message,
		"status":  status,
	})
}
