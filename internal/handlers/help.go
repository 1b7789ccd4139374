package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// HelpHandler handles the /help command
type HelpHandler struct {
	logger *logrus.Logger
}

func NewHelpHandler(logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{logger: logger}
}

func (h *HelpHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	helpText := `📚 *Safety Check-in Help*

*Checking in:*
• /imok [note] - I'm okay
• /unwell [note] - Check in, but feeling unwell
• /needtalk [note] - Check in, need to talk to someone

*Info:*
• /status - Your current deadline and status
• /contacts - List your emergency contacts

*Account:*
• /start <email> - Link your registered account

If you miss a check-in past your grace period, your emergency contacts are notified by email (and SMS where configured).`

	msg := tgbotapi.NewMessage(message.Chat.ID, helpText)
	msg.ParseMode = tgbotapi.ModeMarkdown

	_, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	return nil
}
