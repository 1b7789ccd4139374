package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Router handles message routing and command parsing
type Router struct {
	logger   *logrus.Logger
	handlers map[string]CommandHandler
}

// CommandHandler defines the interface for command handlers
type CommandHandler interface {
	Handle(bot *tgbotapi.BotAPI, message *tgbotapi.Message, args []string) error
}

// NewRouter creates a new message router
func NewRouter(logger *logrus.Logger) *Router {
	return &Router{
		logger:   logger,
		handlers: make(map[string]CommandHandler),
	}
}

// RegisterCommand registers a command handler
func (r *Router) RegisterCommand(command string, handler CommandHandler) {
	r.handlers[command] = handler
	r.logger.Debugf("Registered command: %s", command)
}

// HandleMessage handles incoming messages
func (r *Router) HandleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message) {
	r.logger.WithFields(logrus.Fields{
		"chat_id": message.Chat.ID,
		"user_id": message.From.ID,
		"command": message.Command(),
	}).Debug("Received message")

	if message.Text == "" || !message.IsCommand() {
		return
	}

	command := message.Command()
	args := strings.Fields(message.CommandArguments())

	handler, exists := r.handlers[command]
	if !exists {
		unknownMsg := tgbotapi.NewMessage(message.Chat.ID, "❓ Unknown command. Use /help to see available commands.")
		bot.Send(unknownMsg)
		return
	}

	if err := handler.Handle(bot, message, args); err != nil {
		r.logger.WithFields(logrus.Fields{
			"command": command,
			"chat_id": message.Chat.ID,
			"user_id": message.From.ID,
			"error":   err,
		}).Error("Command handler failed")

		errorMsg := tgbotapi.NewMessage(message.Chat.ID, "❌ An error occurred while processing your command. Please try again.")
		bot.Send(errorMsg)
	}
}
