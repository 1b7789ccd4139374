package handlers

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/schedule"
	"github.com/alfredang/iamgood/internal/service"
)

// StatusHandler handles the /status command
type StatusHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStatusHandler creates a new status command handler
func NewStatusHandler(svc *service.Service, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{svc: svc, logger: logger}
}

// Handle processes the /status command
func (h *StatusHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	user, err := requireLinkedUser(h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	info, err := h.svc.UserStatus(context.Background(), user.ID, time.Now())
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	var text string
	switch info.Status {
	case schedule.StatusOverdue:
		text = "🔴 *You are overdue!* Check in now with /imok, your contacts may be alerted."
	case schedule.StatusDueSoon:
		text = fmt.Sprintf("🟡 *Due soon.* %s left until your deadline. Check in with /imok.", info.Remaining)
	default:
		text = fmt.Sprintf("🟢 *All good.* %s until your next deadline.", info.Remaining)
	}

	if info.LastCheckIn != nil {
		text += fmt.Sprintf("\nLast check-in: %s", info.LastCheckIn.Timestamp.Format("Mon, 02 Jan 15:04"))
	} else {
		text += "\nYou haven't checked in yet."
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send status: %w", err)
	}
	return nil
}
