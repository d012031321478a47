package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/scholaroute/internal/rbac"
)

// Roles issued by LoginHandler.
const (
	RoleAdmin   = rbac.RoleAdmin
	RoleOfficer = rbac.RoleOfficer
	RoleViewer  = rbac.RoleViewer
)

// DefaultOwner is the subject attached to every request when auth is disabled.
const DefaultOwner = "default"

const tokenTTL = 8 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"` // admin|officer|viewer
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "scholaroute",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Sub == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// LoginConfig controls which credentials LoginHandler accepts.
type LoginConfig struct {
	AdminUser     string
	AdminPassHash string // bcrypt
	// DevLogin accepts username==password for the officer and viewer roles.
	DevLogin bool
}

// POST /auth/login  { "username": "...", "password": "...", "role": "officer|viewer" }
func LoginHandler(a *AuthService, lc LoginConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		role, ok := lc.check(req.Username, req.Password, req.Role)
		if !ok {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := a.IssueJWT(req.Username, role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": tok, "role": role})
	}
}

func (lc LoginConfig) check(user, pass, role string) (string, bool) {
	if user == "" || pass == "" {
		return "", false
	}
	if lc.AdminUser != "" && user == lc.AdminUser {
		if bcrypt.CompareHashAndPassword([]byte(lc.AdminPassHash), []byte(pass)) != nil {
			return "", false
		}
		return RoleAdmin, true
	}
	if !lc.DevLogin || user != pass {
		return "", false
	}
	switch role {
	case RoleOfficer, RoleViewer:
		return role, true
	case "":
		return RoleOfficer, true
	}
	return "", false
}

// JWTMiddleware validates the bearer token and puts its subject and role in the context.
func JWTMiddleware(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			c, err := a.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}
			ctx := WithSubject(r.Context(), c.Sub)
			ctx = rbac.WithRole(ctx, c.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Anonymous runs every request as DefaultOwner with the admin role.
func Anonymous(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := WithSubject(r.Context(), DefaultOwner)
		ctx = rbac.WithRole(ctx, RoleAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional attaches subject and role when a valid bearer is present and
// otherwise leaves the request anonymous.
func Optional(a *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
				if c, err := a.Parse(strings.TrimPrefix(h, "Bearer ")); err == nil {
					ctx := WithSubject(r.Context(), c.Sub)
					r = r.WithContext(rbac.WithRole(ctx, c.Role))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
