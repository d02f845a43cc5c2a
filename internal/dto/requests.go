package dto

// EventRequest — входящее событие чата от шлюза.
type EventRequest struct {
	UserID    string      `json:"user_id" binding:"required"`
	Kind      string      `json:"kind" binding:"required,oneof=command selection text media"`
	Command   string      `json:"command,omitempty"`
	Selection string      `json:"selection,omitempty"`
	Text      string      `json:"text,omitempty"`
	Media     *MediaInput `json:"media,omitempty"`
}

// MediaInput — вложение события. FileID — ссылка на файл у провайдера,
// Data — сырые байты, закодированные base64 (стандартная обработка encoding/json).
type MediaInput struct {
	FileID  string `json:"file_id,omitempty"`
	Caption string `json:"caption,omitempty"`
	Data    []byte `json:"data,omitempty"`
}
