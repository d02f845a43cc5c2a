package dispatch

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/scambase-backend/internal/models"
	"github.com/ignatzorin/scambase-backend/internal/pkg/apperror"
	"github.com/ignatzorin/scambase-backend/internal/service"
	"github.com/ignatzorin/scambase-backend/internal/session"
)

// Тексты ответов бота.
const (
	textWelcome       = "Добро пожаловать в анти-скам базу Roblox! Выберите действие:"
	textCancelled     = "Действие отменено."
	textCheckPrompt   = "Введите ник игрока для проверки:"
	textReportPrompt  = "Введите ник игрока, которого хотите добавить как скамера:"
	textProofPrompt   = "Теперь отправьте видео доказательства (можно как файл или ссылкой):"
	textProofInvalid  = "Пожалуйста, отправьте видео или текст с доказательствами."
	textSubmitted     = "Ваша заявка отправлена на модерацию. Спасибо за вклад в сообщество!"
	textModeration    = "Раздел модерации. Выберите действие:"
	textNoRequests    = "Нет заявок на модерацию."
	textEditPrompt    = "Введите ник игрока, статус которого хотите изменить:"
	textUnauthorized  = "Операция доступна только модераторам."
	textMalformed     = "Некорректный ввод. Вернитесь в меню и попробуйте ещё раз."
	textNoPending     = "Нет подходящей заявки: возможно, её уже разобрал другой модератор."
	textSaveFailed    = "Не удалось сохранить изменения. Попробуйте позже."
	textNickEmpty     = "Ник не может быть пустым. Введите ник игрока:"
	textNickDelimiter = "Ник не должен содержать символ «_». Введите другой ник:"
	textNeedText      = "Пожалуйста, отправьте ник игрока текстом."
	textPickFromMenu  = "Выберите действие в меню:"
)

// Dispatcher маршрутизирует входящие события: по текущему состоянию
// диалога пользователя событие либо продвигает многошаговый сценарий,
// либо передаёт готовый ввод сервисам репутации и модерации.
type Dispatcher struct {
	sessions   *session.Manager
	records    *service.RecordService
	moderation *service.ModerationService
	log        *logrus.Logger
}

func NewDispatcher(sessions *session.Manager, records *service.RecordService, moderation *service.ModerationService, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		sessions:   sessions,
		records:    records,
		moderation: moderation,
		log:        log,
	}
}

// Handle обрабатывает одно событие и возвращает ответ транспорту.
// Ошибки из таксономии (неавторизован, нет заявки, кривой payload,
// отказ персистентности) превращаются в понятные пользователю ответы
// с путём назад в меню; ошибка возвращается только для неожиданных сбоев.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) (*Response, error) {
	sess := d.sessions.Ensure(ev.UserID)

	switch ev.Kind {
	case EventCommand:
		return d.handleCommand(ctx, ev, sess)
	case EventSelection:
		return d.handleSelection(ctx, ev, sess)
	case EventText, EventMedia:
		return d.handleInput(ctx, ev, sess)
	default:
		return nil, fmt.Errorf("dispatch: неизвестный вид события %q", ev.Kind)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev Event, sess *session.Session) (*Response, error) {
	switch ev.Command {
	case CommandStart:
		sess.Reset()
		return d.mainMenuResponse(ctx, ev.UserID, textWelcome), nil
	case CommandCancel:
		// Отмена работает из любого состояния и всегда возвращает в меню.
		sess.Reset()
		return d.mainMenuResponse(ctx, ev.UserID, textCancelled), nil
	default:
		return d.mainMenuResponse(ctx, ev.UserID, textPickFromMenu), nil
	}
}

func (d *Dispatcher) handleSelection(ctx context.Context, ev Event, sess *session.Session) (*Response, error) {
	sel, err := ParseSelection(ev.Selection)
	if err != nil {
		d.log.WithFields(logrus.Fields{
			"user_id": ev.UserID,
			"payload": ev.Selection,
		}).Warn("некорректный payload кнопки")
		return &Response{Text: textMalformed, Menu: menuRow()}, nil
	}

	switch sel.Kind {
	case SelMenu:
		sess.Reset()
		return d.mainMenuResponse(ctx, ev.UserID, textWelcome), nil

	case SelCheckUser:
		sess.Reset()
		sess.SetState(session.StateAwaitingCheckNick)
		return &Response{Text: textCheckPrompt}, nil

	case SelAddScammer:
		sess.Reset()
		sess.SetState(session.StateAwaitingReportNick)
		return &Response{Text: textReportPrompt}, nil

	case SelModeration:
		if !d.moderation.IsModerator(ctx, ev.UserID) {
			return d.unauthorizedResponse(), nil
		}
		return &Response{Text: textModeration, Menu: moderationMenu()}, nil

	case SelModerationRequests:
		return d.showNextRequest(ctx, ev.UserID)

	case SelModerationEdit:
		// Вход в привилегированное состояние: без прав состояние не создаётся.
		if !d.moderation.IsModerator(ctx, ev.UserID) {
			return d.unauthorizedResponse(), nil
		}
		sess.Reset()
		sess.SetState(session.StateAwaitingEditNick)
		return &Response{Text: textEditPrompt}, nil

	case SelVote:
		rec, err := d.records.Vote(ctx, sel.Nick, sel.Vote)
		if err != nil {
			return d.errorResponse(ctx, ev.UserID, err)
		}
		return recordCard(&service.RecordInfo{
			Nick:      rec.Nickname,
			Status:    rec.Status,
			DateAdded: rec.DateAdded,
			Likes:     rec.Likes,
			Dislikes:  rec.Dislikes,
		}), nil

	case SelDecision:
		return d.applyDecision(ctx, ev.UserID, sel)

	case SelResolve:
		return d.applyDecisionByID(ctx, ev.UserID, sel)

	case SelStatus:
		return d.applyStatusChoice(ctx, ev.UserID, sess, sel)
	}

	return &Response{Text: textMalformed, Menu: menuRow()}, nil
}

// showNextRequest показывает первую из оставшихся pending-заявок.
// Очередь выдаётся по одной; после решения следующий запрос списка
// естественно продвигается к очередной заявке.
func (d *Dispatcher) showNextRequest(ctx context.Context, userID string) (*Response, error) {
	req, err := d.moderation.NextPending(ctx, userID)
	if err != nil {
		return d.errorResponse(ctx, userID, err)
	}
	if req == nil {
		return &Response{Text: textNoRequests, Menu: backToModerationRow()}, nil
	}
	return requestCard(req), nil
}

func (d *Dispatcher) applyDecision(ctx context.Context, userID string, sel Selection) (*Response, error) {
	if err := d.moderation.Decide(ctx, userID, sel.Nick, sel.Decision); err != nil {
		return d.errorResponse(ctx, userID, err)
	}
	return &Response{
		Text: fmt.Sprintf("Решение по игроку %s сохранено: %s", models.NormalizeNick(sel.Nick), sel.Decision.Display()),
		Menu: [][]Button{{{Label: "🔙 Назад", Select: "moderation_requests"}}},
	}, nil
}

// applyDecisionByID — решение по заявке, адресованной идентификатором
// (ник не кодируется в payload).
func (d *Dispatcher) applyDecisionByID(ctx context.Context, userID string, sel Selection) (*Response, error) {
	if err := d.moderation.DecideByID(ctx, userID, sel.RequestID, sel.Decision); err != nil {
		return d.errorResponse(ctx, userID, err)
	}
	return &Response{
		Text: fmt.Sprintf("Решение по заявке сохранено: %s", sel.Decision.Display()),
		Menu: [][]Button{{{Label: "🔙 Назад", Select: "moderation_requests"}}},
	}, nil
}

func (d *Dispatcher) applyStatusChoice(ctx context.Context, userID string, sess *session.Session, sel Selection) (*Response, error) {
	nick, ok := sess.Get(session.ScratchEditNick)
	if sess.State() != session.StateAwaitingEditStatusChoice || !ok {
		// Кнопка из устаревшего сообщения: сценарий уже завершён или отменён.
		return d.mainMenuResponse(ctx, userID, textPickFromMenu), nil
	}

	if err := d.moderation.EditStatus(ctx, userID, nick, sel.Status); err != nil {
		return d.errorResponse(ctx, userID, err)
	}
	sess.Reset()
	return &Response{
		Text: fmt.Sprintf("Статус игрока %s изменен на: %s", nick, sel.Status.Display()),
		Menu: backToModerationRow(),
	}, nil
}

func (d *Dispatcher) handleInput(ctx context.Context, ev Event, sess *session.Session) (*Response, error) {
	switch sess.State() {
	case session.StateAwaitingCheckNick:
		if ev.Kind != EventText {
			return &Response{Text: textNeedText}, nil
		}
		nick := models.NormalizeNick(ev.Text)
		if nick == "" {
			return &Response{Text: textNickEmpty}, nil
		}
		info, err := d.records.Describe(ctx, nick)
		if err != nil {
			return d.errorResponse(ctx, ev.UserID, err)
		}
		sess.Reset()
		return recordCard(info), nil

	case session.StateAwaitingReportNick:
		if ev.Kind != EventText {
			return &Response{Text: textNeedText}, nil
		}
		nick := models.NormalizeNick(ev.Text)
		if nick == "" {
			return &Response{Text: textNickEmpty}, nil
		}
		if !nickEncodable(nick) {
			// Такой ник нельзя зашить в кнопки решения; отклоняем на входе,
			// чтобы заявка не зависла неразрешимой.
			return &Response{Text: textNickDelimiter}, nil
		}
		sess.Put(session.ScratchReportNick, nick)
		sess.SetState(session.StateAwaitingReportProof)
		return &Response{Text: textProofPrompt}, nil

	case session.StateAwaitingReportProof:
		return d.acceptProof(ctx, ev, sess)

	case session.StateAwaitingEditNick:
		return d.acceptEditNick(ctx, ev, sess)

	default:
		return d.mainMenuResponse(ctx, ev.UserID, textPickFromMenu), nil
	}
}

// acceptProof завершает подачу заявки. Непригодные улики оставляют диалог
// на том же шаге: это повторный запрос ввода, а не провал сценария.
func (d *Dispatcher) acceptProof(ctx context.Context, ev Event, sess *session.Session) (*Response, error) {
	proof, err := service.BuildProof(ev.Text, ev.Media)
	if err != nil {
		return &Response{Text: textProofInvalid}, nil
	}

	nick, ok := sess.Get(session.ScratchReportNick)
	if !ok {
		// Черновик потерян (например, сессию вычистил TTL): начинаем заново.
		sess.Reset()
		return d.mainMenuResponse(ctx, ev.UserID, textPickFromMenu), nil
	}

	if _, err := d.moderation.Submit(ctx, nick, proof, ev.UserID); err != nil {
		return d.errorResponse(ctx, ev.UserID, err)
	}
	sess.Reset()
	return &Response{Text: textSubmitted, Menu: menuRow()}, nil
}

func (d *Dispatcher) acceptEditNick(ctx context.Context, ev Event, sess *session.Session) (*Response, error) {
	// Права проверяются в точке операции, а не только на входе в меню.
	if !d.moderation.IsModerator(ctx, ev.UserID) {
		sess.Reset()
		return d.unauthorizedResponse(), nil
	}
	if ev.Kind != EventText {
		return &Response{Text: textNeedText}, nil
	}
	nick := models.NormalizeNick(ev.Text)
	if nick == "" {
		return &Response{Text: textNickEmpty}, nil
	}

	info, err := d.records.Ensure(ctx, nick)
	if err != nil {
		return d.errorResponse(ctx, ev.UserID, err)
	}

	sess.Put(session.ScratchEditNick, nick)
	sess.SetState(session.StateAwaitingEditStatusChoice)
	return &Response{
		Text: fmt.Sprintf("Текущий статус игрока %s: %s\nВыберите новый статус:", nick, info.Status.Display()),
		Menu: statusChoiceMenu(),
	}, nil
}

// mainMenuResponse строит главное меню; кнопка модерации видна только
// модераторам.
func (d *Dispatcher) mainMenuResponse(ctx context.Context, userID, text string) *Response {
	return &Response{Text: text, Menu: mainMenu(d.moderation.IsModerator(ctx, userID))}
}

func (d *Dispatcher) unauthorizedResponse() *Response {
	return &Response{Text: textUnauthorized, Menu: mainMenu(false)}
}

// errorResponse переводит известные ошибки в понятные пользователю ответы;
// неизвестные отдаёт наверх.
func (d *Dispatcher) errorResponse(ctx context.Context, userID string, err error) (*Response, error) {
	switch {
	case apperror.IsUnauthorized(err):
		return d.unauthorizedResponse(), nil
	case apperror.IsNoPendingRequest(err):
		return &Response{Text: textNoPending, Menu: backToModerationRow()}, nil
	case apperror.IsMalformedSelection(err):
		return &Response{Text: textMalformed, Menu: menuRow()}, nil
	case apperror.IsPersistence(err):
		d.log.WithError(err).Error("отказ персистентности")
		return &Response{Text: textSaveFailed, Menu: menuRow()}, nil
	default:
		return nil, err
	}
}
