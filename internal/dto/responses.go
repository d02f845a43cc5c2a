package dto

import "github.com/ignatzorin/scambase-backend/internal/dispatch"

// ButtonResponse — кнопка меню в ответе.
type ButtonResponse struct {
	Label  string `json:"label"`
	Select string `json:"select"`
}

// EventResponse — ответ бота на событие: текст и, опционально, меню.
type EventResponse struct {
	Text string             `json:"text"`
	Menu [][]ButtonResponse `json:"menu,omitempty"`
}

// ErrorResponse — стандартный ответ с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse — стандартный ответ об успехе.
type SuccessResponse struct {
	Message string `json:"message"`
}

// NewEventResponse переводит ответ диспетчера в транспортный вид.
func NewEventResponse(resp *dispatch.Response) EventResponse {
	out := EventResponse{Text: resp.Text}
	if len(resp.Menu) == 0 {
		return out
	}
	out.Menu = make([][]ButtonResponse, 0, len(resp.Menu))
	for _, row := range resp.Menu {
		buttons := make([]ButtonResponse, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, ButtonResponse{Label: b.Label, Select: b.Select})
		}
		out.Menu = append(out.Menu, buttons)
	}
	return out
}
