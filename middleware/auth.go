package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blogapi/services"
	"github.com/cppla/blogapi/utils"
)

// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
const ContextUserIDKey = "user_id"

const bearerPrefix = "Bearer "

var (
	ErrNoToken      = &services.Error{Kind: services.KindUnauthenticated, Message: "No token provided"}
	ErrInvalidToken = &services.Error{Kind: services.KindUnauthenticated, Message: "Token invalid or expired"}
	ErrRevokedToken = &services.Error{Kind: services.KindUnauthenticated, Message: "Token revoked"}
)

// TokenParser verifies a token and returns its claims.
type TokenParser interface {
	Parse(token string) (*utils.Claims, error)
}

// RevocationChecker reports tokens revoked before their expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) bool
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(bearerPrefix):]), true
}

// Authenticate resolves an Authorization header to the caller's user id.
// revoked may be nil.
func Authenticate(ctx context.Context, header string, tokens TokenParser, revoked RevocationChecker) (string, error) {
	token, ok := BearerToken(header)
	if !ok {
		return "", ErrNoToken
	}
	claims, err := tokens.Parse(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	if revoked != nil && revoked.IsRevoked(ctx, token) {
		return "", ErrRevokedToken
	}
	return claims.UserID, nil
}

// AuthRequired rejects requests without a valid bearer token and exposes
// only the caller's id to downstream handlers.
func AuthRequired(tokens TokenParser, revoked RevocationChecker) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := Authenticate(ctx.Request.Context(), ctx.GetHeader("Authorization"), tokens, revoked)
		if err != nil {
			utils.Error(ctx, http.StatusUnauthorized, err.Error())
			return
		}
		ctx.Set(ContextUserIDKey, userID)
		ctx.Next()
	}
}

// UserID returns the authenticated caller id set by AuthRequired.
func UserID(ctx *gin.Context) (string, bool) {
	id := ctx.GetString(ContextUserIDKey)
	return id, id != ""
}
