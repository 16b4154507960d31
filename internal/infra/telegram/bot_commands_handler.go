// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const historyLimit = 5

// StatusReporter is the read side of the poller used by chat commands.
type StatusReporter interface {
	Snapshot() app.Snapshot
	RecentDeliveries(ctx context.Context, limit int) ([]*notification.Delivery, error)
}

// CommandHandlers answers commands from the configured chats only.
type CommandHandlers struct {
	ctx     context.Context
	status  StatusReporter
	allowed map[int64]bool
	logger  *logrus.Entry
}

func NewCommandHandlers(ctx context.Context, status StatusReporter, logger *logrus.Entry, allowedChatIDs ...int64) *CommandHandlers {
	allowed := make(map[int64]bool, len(allowedChatIDs))
	for _, id := range allowedChatIDs {
		allowed[id] = true
	}
	return &CommandHandlers{ctx: ctx, status: status, allowed: allowed, logger: logger}
}

// RegisterBotCommands wires the handlers into the bot.
func RegisterBotCommands(b *telebot.Bot, h *CommandHandlers) {
	b.Handle("/start", h.handleHelp)
	b.Handle("/help", h.handleHelp)
	b.Handle("/status", h.handleStatus)
	b.Handle("/history", h.handleHistory)
}

func (h *CommandHandlers) authorize(c telebot.Context, command string) (*logrus.Entry, bool) {
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	logCtx := h.logger.WithFields(logrus.Fields{"command": command, "chat_id": chatID})
	if !h.allowed[chatID] {
		logCtx.Warn("Command from unknown chat ignored")
		return logCtx, false
	}
	logCtx.Info("Processing command")
	return logCtx, true
}

func (h *CommandHandlers) handleHelp(c telebot.Context) error {
	if _, ok := h.authorize(c, "/help"); !ok {
		return nil
	}
	var helpText strings.Builder
	helpText.WriteString("Я слежу за статусом ваших домашних работ и пишу сюда, когда он меняется.\n\n")
	helpText.WriteString("/status - состояние опроса\n")
	helpText.WriteString("/history - последние уведомления\n")
	helpText.WriteString("/help - это сообщение")
	return c.Send(helpText.String())
}

func (h *CommandHandlers) handleStatus(c telebot.Context) error {
	if _, ok := h.authorize(c, "/status"); !ok {
		return nil
	}
	return c.Send(formatSnapshot(h.status.Snapshot()))
}

func (h *CommandHandlers) handleHistory(c telebot.Context) error {
	logCtx, ok := h.authorize(c, "/history")
	if !ok {
		return nil
	}

	deliveries, err := h.status.RecentDeliveries(h.ctx, historyLimit)
	if errors.Is(err, app.ErrJournalDisabled) {
		return c.Send("Журнал уведомлений не подключен.")
	}
	if err != nil {
		logCtx.WithError(err).Error("Failed to list deliveries")
		return c.Send("Не удалось получить историю уведомлений. Попробуйте позже.")
	}
	if len(deliveries) == 0 {
		return c.Send("Уведомлений пока не было.")
	}

	var text strings.Builder
	text.WriteString("Последние уведомления:\n")
	for _, d := range deliveries {
		name := d.HomeworkName
		if name == "" {
			name = "без названия"
		}
		status := d.Status
		if status == "" {
			status = "?"
		}
		fmt.Fprintf(&text, "\n%s - %s (%s)", d.SentAt.Format(timeLayout), name, status)
	}
	return c.Send(text.String())
}

const timeLayout = "2006-01-02 15:04:05"

func formatSnapshot(s app.Snapshot) string {
	var text strings.Builder
	fmt.Fprintf(&text, "Работаю с %s.\n", s.StartedAt.Format(timeLayout))
	fmt.Fprintf(&text, "Проверяю обновления начиная с %s.\n", time.Unix(s.Cursor, 0).Format(timeLayout))
	if s.LastPollAt.IsZero() {
		text.WriteString("Успешных опросов ещё не было.\n")
	} else {
		fmt.Fprintf(&text, "Последний успешный опрос: %s.\n", s.LastPollAt.Format(timeLayout))
	}
	fmt.Fprintf(&text, "Отправлено уведомлений: %d.", s.Delivered)
	if s.LastError != "" {
		fmt.Fprintf(&text, "\nПоследняя ошибка (%s): %s", s.LastErrorAt.Format(timeLayout), s.LastError)
	}
	return text.String()
}
