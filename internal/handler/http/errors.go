package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"drawroom/internal/middleware"
	"drawroom/internal/service"
)

// HandleServiceError maps a service error to an HTTP response.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidInviteCode),
		errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrRoomNotShared):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidContent):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// HandleDecision writes the HTTP response for a non-allowed permission
// decision: 404 for NotFound, 403 with the machine-readable reason otherwise.
func HandleDecision(c *gin.Context, d service.Decision) {
	switch d.Effect {
	case service.EffectNotFound:
		ErrorResponse(c, http.StatusNotFound, "room or member not found")
	case service.EffectForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied", "reason": string(d.Reason)})
	}
}

// currentUserID pulls the authenticated user ID attached by the Auth
// middleware, writing the error response itself when it is missing.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		logrus.Warn("Handler: user ID not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: user ID in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return userID, true
}
