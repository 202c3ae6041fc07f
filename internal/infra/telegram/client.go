package telegram

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// botAPI is the subset of *tgbotapi.BotAPI the alert client uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client sends Markdown alerts to admin chats with rate limiting.
type Client struct {
	api     botAPI
	logger  *slog.Logger
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewClient(token string, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	logger.Info("Telegram alerts enabled", "bot", bot.Self.UserName)
	return newClient(bot, logger), nil
}

func newClient(api botAPI, logger *slog.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	// Telegram allows about 30 messages per second per bot.
	limiter := rate.NewLimiter(30, 1)

	return &Client{
		api:     api,
		logger:  logger,
		limiter: limiter,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SendMessage sends a Markdown message to chatID.
func (c *Client) SendMessage(chatID int64, text string) error {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := c.api.Send(msg); err != nil {
		c.logger.Error("Failed to send telegram message",
			slog.Int64("chat_id", chatID),
			slog.String("error", err.Error()))
		return fmt.Errorf("send message: %w", err)
	}

	return nil
}

// Close aborts pending rate-limited sends.
func (c *Client) Close() error {
	c.cancel()
	return nil
}
