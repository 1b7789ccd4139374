package handlers

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/models"
	"github.com/alfredang/iamgood/internal/service"
)

// StartHandler handles the /start command: it links the Telegram account
// to an existing registered user by email.
type StartHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewStartHandler creates a new start command handler
func NewStartHandler(svc *service.Service, logger *logrus.Logger) *StartHandler {
	return &StartHandler{svc: svc, logger: logger}
}

// Handle processes the /start command
func (h *StartHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		welcomeText := `👋 *Welcome!*

I track your safety check-ins and alert your emergency contacts if you miss one.

Link your account first:
/start <your-registered-email>

Then check in with /imok whenever you're due. Use /help for all commands.`
		msg := tgbotapi.NewMessage(message.Chat.ID, welcomeText)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send start message: %w", err)
		}
		return nil
	}

	email := args[0]
	user, err := h.svc.LinkTelegram(context.Background(), email, message.From.ID)
	if err != nil {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			fmt.Sprintf("❌ Could not link %s. Make sure you registered with that email first.", email))
		bot.Send(msg)
		return nil
	}

	h.logger.WithFields(logrus.Fields{
		"user_id":     user.ID,
		"telegram_id": message.From.ID,
	}).Info("Linked Telegram account")

	text := fmt.Sprintf("✅ Linked! Hi %s, check in with /imok and see your deadline with /status.", user.Name)
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

// requireLinkedUser resolves the message sender to a registered user, or
// prompts them to link and returns nil.
func requireLinkedUser(svc *service.Service, bot *tgbotapi.BotAPI, message *tgbotapi.Message) (*models.User, error) {
	user, err := svc.Users.GetByTelegramID(context.Background(), message.From.ID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}
	if user == nil {
		msg := tgbotapi.NewMessage(message.Chat.ID, "Your account isn't linked yet. Use /start <your-registered-email> first.")
		bot.Send(msg)
		return nil, nil
	}
	return user, nil
}
