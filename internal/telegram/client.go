// Package telegram delivers operator notifications to the admin chat.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"crmhub_backend/platform/config"
	"crmhub_backend/platform/logger"
)

type Client struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *logger.Logger
}

func NewClient(cfg config.TelegramConfig, log *logger.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.GetTelegramBotToken())
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}

	return &Client{
		bot:    bot,
		chatID: cfg.GetOperatorChatID(),
		log:    log,
	}, nil
}

// Notify sends an HTML-formatted message to the operator chat.
func (c *Client) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}

	c.log.Info("operator notified", "chat_id", c.chatID)
	return nil
}
