package reminders

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ssavin/vetsystem/internal/model"
)

// ChatResolver maps a clinic client to a Telegram chat.
type ChatResolver interface {
	ChatIDForClient(ctx context.Context, clientID int64) (int64, error)
}

// TelegramNotifier delivers reminders through a Telegram bot.
type TelegramNotifier struct {
	bot   *tgbotapi.BotAPI
	chats ChatResolver
}

// NewTelegramNotifier creates a notifier over an authorized bot.
func NewTelegramNotifier(token string, chats ChatResolver) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramNotifier{bot: bot, chats: chats}, nil
}

// SendReminder implements Notifier.
func (n *TelegramNotifier) SendReminder(ctx context.Context, b *model.Booking) error {
	chatID, err := n.chats.ChatIDForClient(ctx, b.ClientID)
	if err != nil {
		return fmt.Errorf("resolve chat for client %d: %w", b.ClientID, err)
	}

	msg := tgbotapi.NewMessage(chatID, formatReminder(b))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

func formatReminder(b *model.Booking) string {
	return fmt.Sprintf("Reminder: your pet's appointment is on %s at %s.",
		b.Date.Format("02.01.2006"), b.Start.Clock())
}
