package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/scambase-backend/internal/dispatch"
	"github.com/ignatzorin/scambase-backend/internal/dto"
	"github.com/ignatzorin/scambase-backend/internal/http/handlers/common"
	"github.com/ignatzorin/scambase-backend/internal/logger"
	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
)

// EventHandler принимает события чата от шлюза и передаёт их диспетчеру.
type EventHandler struct {
	dispatcher *dispatch.Dispatcher
}

// NewEventHandler создаёт новый хэндлер событий.
func NewEventHandler(dispatcher *dispatch.Dispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// HandleEvent обрабатывает POST /api/events.
func (h *EventHandler) HandleEvent(c *gin.Context) {
	var req dto.EventRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ev := dispatch.Event{
		UserID:    req.UserID,
		Kind:      dispatch.EventKind(req.Kind),
		Command:   req.Command,
		Selection: req.Selection,
		Text:      req.Text,
	}
	if req.Media != nil {
		ev.Media = &models.Evidence{
			FileID: req.Media.FileID,
			Data:   req.Media.Data,
		}
		if ev.Text == "" {
			ev.Text = req.Media.Caption
		}
	}

	resp, err := h.dispatcher.Handle(c.Request.Context(), ev)
	if err != nil {
		logger.Log.WithFields(map[string]interface{}{
			"user_id": req.UserID,
			"kind":    req.Kind,
		}).WithError(err).Error("Ошибка обработки события")

		if apperror.IsPersistence(err) {
			common.RespondError(c, http.StatusServiceUnavailable, "хранилище временно недоступно")
			return
		}
		common.RespondInternalError(c, "")
		return
	}

	common.RespondJSON(c, http.StatusOK, dto.NewEventResponse(resp))
}
