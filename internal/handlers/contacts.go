package handlers

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/alfredang/iamgood/internal/service"
)

// ContactsHandler handles the /contacts command
type ContactsHandler struct {
	svc    *service.Service
	logger *logrus.Logger
}

// NewContactsHandler creates a new contacts command handler
func NewContactsHandler(svc *service.Service, logger *logrus.Logger) *ContactsHandler {
	return &ContactsHandler{svc: svc, logger: logger}
}

// Handle processes the /contacts command
func (h *ContactsHandler) Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error {
	user, err := requireLinkedUser(h.svc, bot, message)
	if err != nil || user == nil {
		return err
	}

	contacts, err := h.svc.Contacts.GetByUserID(context.Background(), user.ID)
	if err != nil {
		return fmt.Errorf("get contacts: %w", err)
	}

	if len(contacts) == 0 {
		msg := tgbotapi.NewMessage(message.Chat.ID,
			"You have no emergency contacts yet. Add some in the web app; without contacts nobody gets alerted if you miss a check-in.")
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("failed to send contacts: %w", err)
		}
		return nil
	}

	var b strings.Builder
	b.WriteString("👥 *Your emergency contacts:*\n")
	for _, c := range contacts {
		b.WriteString(fmt.Sprintf("• %s <%s>", c.Name, c.Email))
		if c.Phone != "" {
			b.WriteString(fmt.Sprintf(" 📱 %s", c.Phone))
		}
		if c.Relationship != "" {
			b.WriteString(fmt.Sprintf(" (%s)", c.Relationship))
		}
		b.WriteString("\n")
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send contacts: %w", err)
	}
	return nil
}
