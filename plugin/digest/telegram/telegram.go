// Package telegram delivers digests through the Telegram Bot API. It is
// send-only: the bot never polls or handles updates.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends digest texts to one configured chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New creates a notifier for the given bot token and target chat.
func New(botToken string, chatID int64) (*Notifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram: chat id required")
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	slog.Info("telegram digest notifier ready", "account", bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Notify sends one digest as plain text. Digest text is generated, so no
// parse mode is set and nothing needs escaping.
func (n *Notifier) Notify(ctx context.Context, userID string, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send digest for %s: %w", userID, err)
	}
	return nil
}
