package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/dailydraw/config"
	"github.com/cppla/dailydraw/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
)

// bearerClaims validates the Authorization header. code is 0 when the header is absent.
func bearerClaims(ctx *gin.Context) (*utils.Claims, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, 0, "authorization header missing"
	}
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return nil, 40102, "invalid authorization header format"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, 40103, "empty bearer token"
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return nil, 40105, "invalid token"
	}
	if utils.IsTokenBlacklisted(claims.ID) {
		return nil, 40104, "token revoked"
	}
	return claims, 0, ""
}

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, code, msg := bearerClaims(ctx)
		if claims == nil {
			if code == 0 {
				code = 40101
			}
			utils.Error(ctx, http.StatusUnauthorized, code, msg)
			ctx.Abort()
			return
		}
		ctx.Set(ContextUserIDKey, claims.UserID)
		ctx.Set(ContextUsernameKey, claims.Username)
		ctx.Next()
	}
}

// OptionalAuth identifies the viewer when a valid token is present and lets anonymous requests through.
func OptionalAuth() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if claims, _, _ := bearerClaims(ctx); claims != nil {
			ctx.Set(ContextUserIDKey, claims.UserID)
			ctx.Set(ContextUsernameKey, claims.Username)
		}
		ctx.Next()
	}
}

// ModeratorRequired must follow AuthRequired; it admits the configured admin usernames only.
func ModeratorRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !config.Get().IsModerator(ctx.GetString(ContextUsernameKey)) {
			utils.Error(ctx, http.StatusForbidden, 40301, "moderator access required")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// SchedulerTokenRequired guards the rollover trigger. With no token configured the trigger is disabled.
func SchedulerTokenRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		want := config.Get().SchedulerToken
		got := ctx.GetHeader("X-Scheduler-Token")
		if want == "" || subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
			ctx.JSON(http.StatusForbidden, gin.H{"status": "error"})
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}
