package ws

import (
	"github.com/ignatzorin/scambase-backend/internal/logger"
	"github.com/ignatzorin/scambase-backend/internal/models"
)

// RequestNotifier транслирует новые заявки на модерацию в живую ленту.
type RequestNotifier struct {
	hub *Hub
}

// NewRequestNotifier создаёт нотификатор поверх хаба.
func NewRequestNotifier(hub *Hub) *RequestNotifier {
	return &RequestNotifier{hub: hub}
}

// RequestCreated отправляет модераторам событие о новой заявке.
func (n *RequestNotifier) RequestCreated(req *models.ModerationRequest) {
	if err := n.hub.Broadcast("moderation_request_created", req); err != nil {
		logger.Log.WithError(err).Error("Не удалось разослать уведомление о заявке")
	}
}
