package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// OpsNotifier posts monitor run summaries to an operations Telegram chat so
// that someone sees when alerts fire, independently of the email path.
type OpsNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewOpsNotifier creates an OpsNotifier for the given chat.
func NewOpsNotifier(bot *tgbotapi.BotAPI, chatID int64) *OpsNotifier {
	return &OpsNotifier{bot: bot, chatID: chatID}
}

// Notify sends a plain-text message to the ops chat.
func (n *OpsNotifier) Notify(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to notify ops chat: %w", err)
	}
	return nil
}
