package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"drawroom/internal/hub"
	"drawroom/internal/middleware"
	"drawroom/internal/service"
)

// Handler upgrades authenticated HTTP requests to websocket sessions and
// hands them to the hub. Room placement happens later, over the socket.
type Handler struct {
	upgrader    websocket.Upgrader
	hub         *hub.Hub
	authService *service.AuthService
}

func NewHandler(h *hub.Hub, authService *service.AuthService) *Handler {
	if h == nil {
		panic("Hub cannot be nil for websocket Handler")
	}
	if authService == nil {
		panic("AuthService cannot be nil for websocket Handler")
	}
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// TODO: restrict origins once the frontend host is fixed.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		hub:         h,
		authService: authService,
	}
}

// HandleConnection serves GET /ws. The Auth middleware has already verified
// the token, so a session is born Authenticated; it joins rooms by frame.
func (h *Handler) HandleConnection(c *gin.Context) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		logrus.Warn("WS handler: user ID not found in context, middleware missing?")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("WS handler: user ID in context is not uint")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	logCtx := logrus.WithField("user_id", userID)

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		logCtx.WithError(err).Warn("WS handler: failed to resolve user")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade writes its own HTTP error response.
		logCtx.WithError(err).Error("WS handler: failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, user.ID, user.DisplayName)
	h.hub.Register(client)
	client.Run()
	logCtx.WithField("session_id", client.SessionID()).Info("WS handler: session started")
}
