package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	appauth "github.com/yigit/classhub/internal/app/auth"
	"github.com/yigit/classhub/internal/app/models"
	"github.com/yigit/classhub/internal/app/models/dto"
	"github.com/yigit/classhub/internal/pkg/apperrors"
	"github.com/yigit/classhub/internal/pkg/auth"
	"github.com/yigit/classhub/internal/pkg/logger"
)

// Context keys set by SessionAuth
const (
	ContextKeyActor  = "actor"
	ContextKeyUserID = "userID"
	ContextKeyRole   = "roleType"
)

// UserLoader is the part of the user repository the session check needs
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
	users      UserLoader
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, users UserLoader) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		users:      users,
	}
}

func abortUnauthorized(c *gin.Context, code dto.ErrorCode, details string) {
	errorDetail := dto.NewErrorDetail(code, "Authentication required").WithDetails(details)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
}

// SessionAuth validates the access token and then loads the user from the
// database, so deleted, unapproved or demoted users lose access immediately.
// Role and identity are never taken from the token alone.
func (m *AuthMiddleware) SessionAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrorCodeExpiredToken, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Invalid token")
			return
		}

		user, err := m.users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrResourceNotFound) {
				abortUnauthorized(c, dto.ErrorCodeInvalidToken, "Account no longer exists")
				return
			}
			logger.Error().Err(err).Str("userID", claims.UserID).Msg("Failed to load session user")
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").WithDetails(err.Error())
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(errorDetail))
			return
		}

		if !user.IsApproved {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeNotApproved, apperrors.ErrAccountNotApproved.Error())
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(ContextKeyActor, appauth.Actor{UserID: user.ID, Name: user.Name, Role: user.RoleType})
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyRole, string(user.RoleType))

		c.Next()
	}
}

// RoleRequired aborts unless the session user holds requiredRole in the database
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			abortUnauthorized(c, dto.ErrorCodeUnauthorized, "User role not found")
			return
		}

		if actor.Role != requiredRole {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Access denied").
				WithDetails("You don't have sufficient permissions for this operation")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Next()
	}
}

// GetActor returns the session user stored by SessionAuth
func GetActor(c *gin.Context) (appauth.Actor, bool) {
	v, exists := c.Get(ContextKeyActor)
	if !exists {
		return appauth.Actor{}, false
	}
	actor, ok := v.(appauth.Actor)
	return actor, ok
}
