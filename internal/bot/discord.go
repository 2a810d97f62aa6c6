package bot

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	"github.com/sirupsen/logrus"
)

// DiscordSession is the part of *discordgo.Session the adapter uses.
type DiscordSession interface {
	AddHandler(handler interface{}) func()
	Open() error
	Close() error
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordBot implements Adapter for Discord
type DiscordBot struct {
	receiver

	mu         sync.RWMutex
	token      string
	channelID  string
	session    DiscordSession
	newSession func(token string) (DiscordSession, error)
}

// NewDiscordBot creates a Discord adapter. channelID, if set, restricts
// inbound messages to that channel and is the default reply target.
func NewDiscordBot(token, channelID string) *DiscordBot {
	return &DiscordBot{
		token:     token,
		channelID: channelID,
		newSession: func(token string) (DiscordSession, error) {
			return discordgo.New("Bot " + token)
		},
	}
}

// Start establishes connection to Discord and begins listening for messages
func (d *DiscordBot) Start(onMessage func(Message)) error {
	d.SetMessageHandler(onMessage)

	logger.WithFields(logrus.Fields{
		"token":   maskSecret(d.token),
		"channel": d.channelID,
	}).Info("starting-discord-bot")

	session, err := d.newSession(d.token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	session.AddHandler(d.onMessageCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord connection: %w", err)
	}

	d.mu.Lock()
	d.session = session
	d.mu.Unlock()
	return nil
}

func (d *DiscordBot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if d.channelID != "" && m.ChannelID != d.channelID {
		return
	}

	logger.WithFields(logrus.Fields{
		"platform": constants.PlatformDiscord,
		"user_id":  m.Author.ID,
		"username": m.Author.Username,
		"channel":  m.ChannelID,
	}).Debug("received-discord-message")

	d.deliver(Message{
		Platform:  constants.PlatformDiscord,
		UserID:    m.Author.ID,
		Channel:   m.ChannelID,
		Text:      m.Content,
		Timestamp: time.Now(),
	})
}

// SendMessage sends a message to a Discord channel
func (d *DiscordBot) SendMessage(channel, text string) error {
	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()

	if session == nil {
		return fmt.Errorf("discord session not initialized")
	}

	target := channel
	if target == "" {
		target = d.channelID
	}
	if target == "" {
		return fmt.Errorf("channel ID is required for Discord")
	}

	text = truncate(constants.PlatformDiscord, text, constants.MaxDiscordMessageLength)
	if _, err := session.ChannelMessageSend(target, text); err != nil {
		logger.WithFields(logrus.Fields{
			"channel": target,
			"error":   err,
		}).Error("failed-to-send-message-to-discord")
		return fmt.Errorf("failed to send message to channel %s: %w", target, err)
	}

	logger.WithField("channel", target).Debug("message-sent-to-discord")
	return nil
}

// Stop closes the Discord connection and cleans up resources
func (d *DiscordBot) Stop() error {
	d.mu.Lock()
	session := d.session
	d.session = nil
	d.mu.Unlock()

	if session == nil {
		return nil
	}
	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}
