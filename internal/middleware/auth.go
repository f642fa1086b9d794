package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/headoffice-api/internal/domain"
)

// Claims - содержимое bearer-токена, выпущенного службой каталога
type Claims struct {
	UserID   int64  `json:"user_id"`
	TenantID int64  `json:"tenant_id"`
	Role     string `json:"role"`
	Tier     *int   `json:"tier,omitempty"`
	jwt.RegisteredClaims
}

// Actor преобразует утверждения токена в участника операции
func (c *Claims) Actor() (domain.Actor, error) {
	role := domain.Role(c.Role)
	if c.UserID <= 0 || c.TenantID <= 0 || !role.IsValid() {
		return domain.Actor{}, errors.New("incomplete token claims")
	}
	return domain.Actor{UserID: c.UserID, TenantID: c.TenantID, Role: role, Tier: c.Tier}, nil
}

// Authenticate проверяет bearer-токен (HS256) и кладёт участника в контекст запроса.
// Пути из public пропускаются без проверки.
func Authenticate(secret []byte, public ...string) func(http.Handler) http.Handler {
	open := make(map[string]bool, len(public))
	for _, path := range public {
		open[path] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if open[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "authorization header is required")
				return
			}
			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				unauthorized(w, "invalid authorization header format")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				unauthorized(w, "invalid or expired token")
				return
			}

			actor, err := claims.Actor()
			if err != nil {
				unauthorized(w, "invalid token claims")
				return
			}

			next.ServeHTTP(w, r.WithContext(domain.WithActor(r.Context(), actor)))
		})
	}
}

// IssueToken подписывает токен для участника; используется службой каталога и тестами
func IssueToken(secret []byte, actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   actor.UserID,
		TenantID: actor.TenantID,
		Role:     string(actor.Role),
		Tier:     actor.Tier,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
