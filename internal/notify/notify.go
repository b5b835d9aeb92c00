// Package notify tells platform admins about events that need their attention,
// such as new deposit and withdrawal requests.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"asser-platform/internal/config"
)

// Notifier delivers a message to every admin.
type Notifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}

// New returns a Telegram notifier when a bot token and admin chats are
// configured, and a log-only notifier otherwise.
func New(cfg config.TelegramConfig) (Notifier, error) {
	if cfg.Token == "" || len(cfg.AdminChatIDs) == 0 {
		log.Info().Msg("Telegram notifications disabled, admin notices go to the log")
		return LogNotifier{}, nil
	}
	return NewTelegramNotifier(tele.Settings{Token: cfg.Token}, cfg.AdminChatIDs)
}

// LogNotifier writes admin notices to the application log.
type LogNotifier struct{}

// NotifyAdmins logs text.
func (LogNotifier) NotifyAdmins(_ context.Context, text string) error {
	log.Info().Str("notice", text).Msg("Admin notification")
	return nil
}

// TelegramNotifier sends admin notices through a Telegram bot.
type TelegramNotifier struct {
	bot   *tele.Bot
	chats []int64
}

// NewTelegramNotifier creates a send-only bot. The bot never polls for updates.
func NewTelegramNotifier(settings tele.Settings, chats []int64) (*TelegramNotifier, error) {
	settings.Offline = true
	b, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chats: chats}, nil
}

// NotifyAdmins sends text to every admin chat. A failed chat does not stop
// delivery to the rest; all failures are returned joined.
func (n *TelegramNotifier) NotifyAdmins(ctx context.Context, text string) error {
	var errs []error
	for _, id := range n.chats {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := n.bot.Send(tele.ChatID(id), text); err != nil {
			log.Warn().Err(err).Int64("chat_id", id).Msg("Failed to notify admin")
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
