package dispatch

import (
	"fmt"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/service"
)

// mainMenu — стартовое меню. Кнопка модерации показывается только
// модераторам; это лишь видимость, авторизацию операции проверяют сами.
func mainMenu(isModerator bool) [][]Button {
	menu := [][]Button{
		{{Label: "🔍 Проверить игрока", Select: "check_user"}},
		{{Label: "⚠️ Добавить скамера", Select: "add_scammer"}},
	}
	if isModerator {
		menu = append(menu, []Button{{Label: "🛠 Модерация", Select: "moderation"}})
	}
	return menu
}

func moderationMenu() [][]Button {
	return [][]Button{
		{{Label: "📝 Заявки", Select: "moderation_requests"}},
		{{Label: "✏️ Изменить статус", Select: "moderation_edit"}},
		{{Label: "🔙 Меню", Select: "menu"}},
	}
}

func menuRow() [][]Button {
	return [][]Button{{{Label: "🔙 Меню", Select: "menu"}}}
}

func backToModerationRow() [][]Button {
	return [][]Button{{{Label: "🔙 Назад", Select: "moderation"}}}
}

// recordCard рендерит карточку игрока с кнопками голосования.
// Для ника с разделителем payload закодировать нельзя — ряд голосования
// опускается, остаётся только возврат в меню.
func recordCard(info *service.RecordInfo) *Response {
	text := fmt.Sprintf(
		"Информация об игроке:\n\nНик: %s\nСтатус: %s\nДата добавления: %s\n👍 %d 👎 %d",
		info.Nick, info.Status.Display(), info.DateAdded, info.Likes, info.Dislikes,
	)

	var menu [][]Button
	if nickEncodable(info.Nick) {
		menu = append(menu, []Button{
			{Label: "👍", Select: "vote_like_" + info.Nick},
			{Label: "👎", Select: "vote_dislike_" + info.Nick},
		})
	}
	menu = append(menu, menuRow()...)
	return &Response{Text: text, Menu: menu}
}

// requestCard рендерит заявку на модерацию с кнопками решения.
// Ник с разделителем внутри в payload не кодируется: кнопки такой заявки
// адресуют её по идентификатору, чтобы очередь не застревала на ней.
func requestCard(req *models.ModerationRequest) *Response {
	text := fmt.Sprintf(
		"Заявка на скамера:\n\nНик: %s\nДата подачи: %s\nОтправитель: %s\nДоказательства: %s\n\nВыберите решение:",
		req.Nick, req.Date, req.ReportedBy, req.Proof,
	)

	prefix := "decision_" + req.Nick + "_"
	if !nickEncodable(req.Nick) {
		prefix = "resolve_" + req.ID.String() + "_"
	}

	menu := decisionRows(prefix)
	menu = append(menu, backToModerationRow()...)
	return &Response{Text: text, Menu: menu}
}

func decisionRows(prefix string) [][]Button {
	return [][]Button{
		{
			{Label: "Скамер", Select: prefix + "scammer"},
			{Label: "Проверенный", Select: prefix + "verified"},
		},
		{
			{Label: "Неизвестно", Select: prefix + "unknown"},
			{Label: "Отклонить", Select: prefix + "reject"},
		},
	}
}

func statusChoiceMenu() [][]Button {
	return [][]Button{
		{
			{Label: "Скамер", Select: "status_scammer"},
			{Label: "Проверенный", Select: "status_verified"},
		},
		{
			{Label: "Неизвестно", Select: "status_unknown"},
			{Label: "🔙 Назад", Select: "moderation"},
		},
	}
}
