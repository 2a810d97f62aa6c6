package bot

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	"github.com/sirupsen/logrus"
)

// TelegramBot implements Adapter for Telegram using long polling
type TelegramBot struct {
	receiver

	mu     sync.RWMutex
	token  string
	bot    *tgbotapi.BotAPI
	cancel context.CancelFunc
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(token string) *TelegramBot {
	return &TelegramBot{token: token}
}

// Start establishes long polling connection to Telegram and begins listening for messages
func (t *TelegramBot) Start(onMessage func(Message)) error {
	t.SetMessageHandler(onMessage)

	logger.WithField("token", maskSecret(t.token)).Info("starting-telegram-bot-with-long-polling")

	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	t.bot = bot
	t.cancel = cancel
	t.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_username": bot.Self.UserName,
		"bot_id":       bot.Self.ID,
	}).Info("telegram-bot-initialized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = int(constants.DefaultPollTimeout.Seconds())
	updates := bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					logger.Info("telegram-updates-channel-closed")
					return
				}
				t.handleMessage(update.Message)
			}
		}
	}()

	return nil
}

// handleMessage converts a Telegram message. Non-text messages are dropped.
func (t *TelegramBot) handleMessage(message *tgbotapi.Message) {
	if message == nil || message.Chat == nil {
		return
	}

	var userID string
	if message.From != nil {
		userID = strconv.FormatInt(message.From.ID, 10)
	}
	chatID := strconv.FormatInt(message.Chat.ID, 10)

	logger.WithFields(logrus.Fields{
		"platform":   constants.PlatformTelegram,
		"user_id":    userID,
		"chat_id":    chatID,
		"chat_type":  message.Chat.Type,
		"message_id": message.MessageID,
	}).Debug("received-telegram-message")

	t.deliver(Message{
		Platform:  constants.PlatformTelegram,
		UserID:    userID,
		Channel:   chatID,
		Text:      message.Text,
		Timestamp: time.Now(),
	})
}

// SendMessage sends a message to a Telegram chat
func (t *TelegramBot) SendMessage(chatID, text string) error {
	t.mu.RLock()
	bot := t.bot
	t.mu.RUnlock()

	if bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}
	if chatID == "" {
		return fmt.Errorf("chat ID is required for Telegram")
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID format: %w", err)
	}

	msg := tgbotapi.NewMessage(id, truncate(constants.PlatformTelegram, text, constants.MaxTelegramMessageLength))
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := bot.Send(msg); err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("failed-to-send-message-to-telegram")
		return fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}

	logger.WithField("chat_id", chatID).Debug("message-sent-to-telegram")
	return nil
}

// Stop ends long polling
func (t *TelegramBot) Stop() error {
	t.mu.Lock()
	bot, cancel := t.bot, t.cancel
	t.bot, t.cancel = nil, nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if bot != nil {
		bot.StopReceivingUpdates()
	}
	logger.Info("telegram-bot-stopped")
	return nil
}
