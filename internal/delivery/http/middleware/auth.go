package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/detour-app/detour-backend/internal/config"
	"github.com/detour-app/detour-backend/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	userIDKey  = "user_id"
	clerkIDKey = "clerk_id"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrInvalidToken = errors.New("invalid token")
)

// TokenVerifier checks bearer tokens issued by the identity provider and
// returns their subject.
type TokenVerifier struct {
	secret []byte
	issuer string
}

func NewTokenVerifier(cfg *config.JWTConfig) *TokenVerifier {
	return &TokenVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

func (v *TokenVerifier) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// PrincipalResolver maps an identity subject to a registered user.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, clerkID string) (*domain.User, error)
}

type AuthMiddleware struct {
	verifier   *TokenVerifier
	principals PrincipalResolver
}

func NewAuthMiddleware(verifier *TokenVerifier, principals PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, principals: principals}
}

// RequireIdentity accepts any valid token, registered or not.
func (m *AuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}
		c.Next()
	}
}

// RequireAuth accepts valid tokens whose subject belongs to a registered user.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.authenticate(c) {
			return
		}

		user, err := m.principals.ResolvePrincipal(c.Request.Context(), GetClerkID(c))
		if err != nil {
			if domain.KindOf(err) != domain.KindUnauthorized {
				log.Error().Err(err).Msg("Failed to resolve principal")
				abort(c, http.StatusInternalServerError, "internal server error")
				return
			}
			abort(c, http.StatusUnauthorized, "user is not registered")
			return
		}

		c.Set(userIDKey, user.ID)
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context) bool {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abort(c, http.StatusUnauthorized, "missing authorization header")
		return false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		abort(c, http.StatusUnauthorized, "invalid authorization header format")
		return false
	}

	clerkID, err := m.verifier.Verify(parts[1])
	if err != nil {
		log.Debug().Err(err).Msg("Rejected bearer token")
		abort(c, http.StatusUnauthorized, "invalid token")
		return false
	}

	c.Set(clerkIDKey, clerkID)
	return true
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": message})
}

// GetUserID returns the authenticated user's id, empty outside RequireAuth.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetClerkID returns the verified identity subject.
func GetClerkID(c *gin.Context) string {
	return c.GetString(clerkIDKey)
}
