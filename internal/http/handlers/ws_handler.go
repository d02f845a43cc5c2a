package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/scambase-backend/internal/goroutine"
	"github.com/ignatzorin/scambase-backend/internal/service"
	"github.com/ignatzorin/scambase-backend/internal/ws"
)

// WSHandler отвечает за установку WebSocket соединений живой ленты модераторов.
type WSHandler struct {
	hub        *ws.Hub
	moderation *service.ModerationService
	recovery   *goroutine.RecoveryHandler
	upgrader   websocket.Upgrader
}

// NewWSHandler создаёт новый хэндлер.
func NewWSHandler(hub *ws.Hub, moderation *service.ModerationService, recovery *goroutine.RecoveryHandler) *WSHandler {
	return &WSHandler{
		hub:        hub,
		moderation: moderation,
		recovery:   recovery,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle обслуживает GET /api/ws/moderation?user_id=...
// Право на подписку проверяется в момент подключения.
func (h *WSHandler) Handle(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "параметр user_id обязателен"})
		return
	}

	if !h.moderation.IsModerator(c.Request.Context(), userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "доступ только для модераторов"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	client := ws.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	h.recovery.SafeGo(client.WritePump)
	client.ReadPump()
}
