package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/service"
)

// CheckInHandler records a check-in with a fixed health tag. The same
// handler type backs /imok, /unwell and /needtalk.
type CheckInHandler struct {
	svc    *service.Service
	logger *logrus.Logger
	tag    models.HealthTag
}

// NewCheckInHandler creates a check-in handler for the given health tag
func NewCheckInHandler(svc *service.Service, logger *logrus.Logger, tag models.HealthTag) *CheckInHandler {
	return &CheckInHandler{svc: svc, logger: logger, tag: tag}
}

// Handle processes a check-in command. Any arguments become the note.
func (h *CheckInHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	user, err := requireLinkedUser(h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	note := strings.Join(args, " ")
	checkIn, err := h.svc.RecordCheckIn(context.Background(), user.ID, h.tag, note)
	if err != nil {
		return fmt.Errorf("record check-in: %w", err)
	}

	status, err := h.svc.UserStatus(context.Background(), user.ID, checkIn.Timestamp)
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	text := "✅ Check-in recorded. Stay safe!"
	if h.tag == models.HealthTagNeedTalk {
		text = "💙 Check-in recorded. Reach out to someone you trust. You don't have to handle things alone."
	}
	if status.NextRequired != nil {
		text += fmt.Sprintf("\nNext check-in due by %s.", status.NextRequired.Format("Mon, 02 Jan 15:04"))
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}
