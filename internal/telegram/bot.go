package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Bot wraps the Telegram bot API
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logrus.Logger
	router *Router
}

// NewBot creates a new Telegram bot instance
func NewBot(token string, logger *logrus.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	logger.Infof("Authorized on account %s", api.Self.UserName)

	return &Bot{
		api:    api,
		logger: logger,
		router: NewRouter(logger),
	}, nil
}

// API exposes the underlying client for collaborators such as the ops
// notifier that send outside the command flow.
func (b *Bot) API() *tgbotapi.BotAPI {
	return b.api
}

// Start starts the bot with long polling. It blocks until the context is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Bot started with long polling")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Stopping bot...")
			b.api.StopReceivingUpdates()
			return nil
		case update := <-updates:
			go b.handleUpdate(update)
		}
	}
}

// handleUpdate processes incoming updates
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Errorf("Panic in update handler: %v", r)
		}
	}()

	if update.Message != nil {
		b.router.HandleMessage(b.api, update.Message)
	}
}

// RegisterCommand registers a command handler on the router
func (b *Bot) RegisterCommand(command string, handler CommandHandler) {
	b.router.RegisterCommand(command, handler)
}
