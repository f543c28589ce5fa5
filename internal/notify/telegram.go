package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmarket/internal/repository"
)

// TelegramBridge mirrors notifications to a user's linked Telegram chat.
// Users without a linked chat are skipped silently.
type TelegramBridge struct {
	api   *tgbotapi.BotAPI
	users *repository.UserRepository
}

func NewTelegramBridge(token string, users *repository.UserRepository) (*TelegramBridge, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] telegram bridge authorized on account %s", api.Self.UserName)

	return &TelegramBridge{api: api, users: users}, nil
}

func (b *TelegramBridge) Notify(ctx context.Context, userID uint, text string) error {
	user, err := b.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TelegramChatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(user.TelegramChatID, text)
	_, err = b.api.Send(msg)
	return err
}
