package bot

import (
	"context"

	"clipcast/pkg/telegram"
)

// TelegramSink delivers finished clips as Telegram video messages.
type TelegramSink struct {
	Client *telegram.Client
}

func (s TelegramSink) Deliver(ctx context.Context, chatID int64, filePath string) error {
	return s.Client.SendVideo(ctx, chatID, filePath)
}

// TelegramMessenger sends plain text notices to a chat.
type TelegramMessenger struct {
	Client *telegram.Client
}

func (m TelegramMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	return m.Client.SendMessage(ctx, chatID, text)
}
