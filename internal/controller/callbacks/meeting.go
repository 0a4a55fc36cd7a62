package callbacks

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common"
	"github.com/Freeeeeet/lesson_scheduler/internal/controller/callbacks/common/keyboard"
	"github.com/Freeeeeet/lesson_scheduler/internal/model"
)

// meetingRequest - разобранное нажатие кнопки встречи
type meetingRequest struct {
	lessonID int64
	actor    model.Actor
}

// resolve разбирает callback data и определяет роль пользователя в курсе урока
func (h *Handler) resolve(ctx context.Context, callback *models.CallbackQuery) (meetingRequest, error) {
	lessonID, err := common.ParseIDFromCallback(callback.Data)
	if err != nil {
		return meetingRequest{}, err
	}

	user, err := h.Users.GetByTelegramID(ctx, callback.From.ID)
	if err != nil {
		return meetingRequest{}, err
	}

	session, err := h.Meetings.Session(ctx, lessonID)
	if err != nil {
		return meetingRequest{}, err
	}

	actor, err := h.Users.ActorFor(ctx, user, session.CourseID)
	if err != nil {
		return meetingRequest{}, err
	}

	return meetingRequest{lessonID: lessonID, actor: actor}, nil
}

func (h *Handler) fail(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, op string, err error) {
	h.Logger.Warn("Meeting action failed",
		zap.String("op", op),
		zap.String("data", callback.Data),
		zap.Int64("telegram_id", callback.From.ID),
		zap.Error(err),
	)
	common.AnswerCallbackAlert(ctx, b, callback.ID, common.ErrorMessage(err))
}

// refreshKeyboard перерисовывает кнопки под карточкой урока
func (h *Handler) refreshKeyboard(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, lessonID int64, state model.MeetingState, role model.Role) {
	msg := common.GetMessageFromCallback(callback)
	if msg == nil {
		return
	}

	params := &bot.EditMessageReplyMarkupParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
	}
	if kb := keyboard.MeetingKeyboard(lessonID, state, role); kb != nil {
		params.ReplyMarkup = kb
	} else {
		params.ReplyMarkup = keyboard.NewBuilder().Build()
	}

	if _, err := b.EditMessageReplyMarkup(ctx, params); err != nil {
		h.Logger.Debug("Failed to refresh lesson keyboard", zap.Int64("lesson_id", lessonID), zap.Error(err))
	}
}

// HandleMeetingStart запускает встречу урока
func (h *Handler) HandleMeetingStart(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	req, err := h.resolve(ctx, callback)
	if err != nil {
		h.fail(ctx, b, callback, "start", err)
		return
	}

	session, err := h.Meetings.Start(ctx, req.lessonID, req.actor)
	if err != nil {
		h.fail(ctx, b, callback, "start", err)
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "🎥 Встреча запущена")
	h.refreshKeyboard(ctx, b, callback, req.lessonID, session.State, req.actor.Role)
}

// HandleMeetingJoin выдаёт ссылку на комнату встречи
func (h *Handler) HandleMeetingJoin(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	req, err := h.resolve(ctx, callback)
	if err != nil {
		h.fail(ctx, b, callback, "join", err)
		return
	}

	params, err := h.Meetings.Join(ctx, req.lessonID, req.actor)
	if err != nil {
		h.fail(ctx, b, callback, "join", err)
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "")

	text := fmt.Sprintf("🎥 Встреча идёт, участников: %d\n\nНажмите кнопку, чтобы войти в комнату как %s.",
		params.Participants, params.DisplayName)
	if params.IsModerator {
		text += "\nВы входите как модератор."
	}

	_, err = b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: callback.From.ID,
		Text:   text,
		ReplyMarkup: keyboard.NewBuilder().
			Row(keyboard.URLButton("🔗 Открыть комнату", params.RoomURL)).
			Row(keyboard.Button("🚪 Я вышел", keyboard.PrefixMeetingLeave+fmt.Sprint(req.lessonID))).
			Build(),
	})
	if err != nil {
		h.Logger.Error("Failed to send join link", zap.Int64("lesson_id", req.lessonID), zap.Error(err))
	}
}

// HandleMeetingLeave отмечает выход участника
func (h *Handler) HandleMeetingLeave(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	req, err := h.resolve(ctx, callback)
	if err != nil {
		h.fail(ctx, b, callback, "leave", err)
		return
	}

	count, err := h.Meetings.Leave(ctx, req.lessonID, req.actor)
	if err != nil {
		h.fail(ctx, b, callback, "leave", err)
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, fmt.Sprintf("👋 Вы вышли. В комнате: %d", count))
}

// HandleMeetingEnd завершает встречу
func (h *Handler) HandleMeetingEnd(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	req, err := h.resolve(ctx, callback)
	if err != nil {
		h.fail(ctx, b, callback, "end", err)
		return
	}

	session, err := h.Meetings.End(ctx, req.lessonID, req.actor)
	if err != nil {
		h.fail(ctx, b, callback, "end", err)
		return
	}

	common.AnswerCallback(ctx, b, callback.ID, "🏁 Встреча завершена")
	h.refreshKeyboard(ctx, b, callback, req.lessonID, session.State, req.actor.Role)
}
