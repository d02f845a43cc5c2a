package service

import (
	"fmt"
	"strings"

	"github.com/h2non/filetype"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
)

// BuildProof собирает текст доказательства из шага отправки улик.
// Принимается видео по ссылке (file_id), распознанное видео или
// изображение в сыром виде, либо непустой текст. Всё остальное —
// ErrInvalidProof: диалог остаётся на том же шаге и переспрашивает.
func BuildProof(text string, ev *models.Evidence) (string, error) {
	if ev != nil {
		if ev.FileID != "" {
			return fmt.Sprintf("Видео доказательство (file_id: %s)", ev.FileID), nil
		}
		if len(ev.Data) > 0 {
			switch {
			case filetype.IsVideo(ev.Data):
				return "Видео доказательство (вложение)", nil
			case filetype.IsImage(ev.Data):
				return "Изображение-доказательство (вложение)", nil
			default:
				return "", apperror.ErrInvalidProof
			}
		}
	}

	if t := strings.TrimSpace(text); t != "" {
		return t, nil
	}
	return "", apperror.ErrInvalidProof
}
