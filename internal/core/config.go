// Package core runs chat messages through message handlers.
//
// A Bot owns one handler per conversation, created on demand and cached when
// stateful, and delivers the normalized responses back through the adapter
// the message came from. Messages of one conversation are processed one at a
// time in arrival order; different conversations run concurrently.
//
// # Configuration
//
// Configuration is loaded from a YAML file with the following sections:
//
//   - bots: chat platform credentials
//   - security: user whitelist
//   - conversation: conversation keying, error text and queue sizing
//   - logging: log configuration
//
// # Example Configuration
//
//	bots:
//	  discord:
//	    enabled: true
//	    token: "${DISCORD_TOKEN}"
//	security:
//	  whitelist_enabled: true
//	  allowed_users:
//	    discord: ["123456789012345678"]
//	conversation:
//	  key_by: user
package core

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/keepmind9/chatter/internal/bot"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	"github.com/keepmind9/chatter/pkg/handler"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel = "info"
	DefaultBotName  = "chatter"
)

// SupportedPlatforms lists the platforms accepted in the bots section.
var SupportedPlatforms = []string{
	constants.PlatformDiscord,
	constants.PlatformTelegram,
	constants.PlatformFeishu,
	constants.PlatformDingTalk,
}

// LoadConfig loads configuration from file and expands environment variables
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration, expanding ${VAR} references and
// applying defaults.
func ParseConfig(data []byte) (*Config, error) {
	expanded, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}
	return result, nil
}

// validateConfig applies defaults and validates the configuration
func validateConfig(config *Config) error {
	if config.Logging.Level == "" {
		config.Logging.Level = DefaultLogLevel
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}

	conv := &config.Conversation
	switch strings.ToLower(conv.KeyBy) {
	case "", constants.KeyByChannel:
		conv.KeyBy = constants.KeyByChannel
	case constants.KeyByUser:
		conv.KeyBy = constants.KeyByUser
	default:
		return fmt.Errorf("conversation.key_by must be %q or %q (got %q)",
			constants.KeyByChannel, constants.KeyByUser, conv.KeyBy)
	}
	if conv.ErrorTemplate == "" {
		conv.ErrorTemplate = DefaultErrorTemplate
	}
	if strings.Count(conv.ErrorTemplate, "%s") != 1 {
		return fmt.Errorf("conversation.error_template must contain exactly one %%s")
	}
	if conv.QueueBuffer == 0 {
		conv.QueueBuffer = constants.DefaultQueueBuffer
	}
	if conv.QueueBuffer < 0 || conv.QueueBuffer > constants.MaxQueueBuffer {
		return fmt.Errorf("conversation.queue_buffer must be between 1 and %d (got %d)",
			constants.MaxQueueBuffer, conv.QueueBuffer)
	}
	if conv.BotName == "" {
		conv.BotName = DefaultBotName
	}

	for name, b := range config.Bots {
		if !slices.Contains(SupportedPlatforms, name) {
			return fmt.Errorf("unsupported bot platform %q (supported: %s)",
				name, strings.Join(SupportedPlatforms, ", "))
		}
		if !b.Enabled {
			continue
		}
		if err := validateBotCredentials(name, b); err != nil {
			return err
		}
	}

	if config.Security.WhitelistEnabled && len(config.Security.AllowedUsers) == 0 {
		return fmt.Errorf("security.allowed_users cannot be empty when whitelist is enabled")
	}
	return nil
}

func validateBotCredentials(name string, b BotConfig) error {
	switch name {
	case constants.PlatformDiscord, constants.PlatformTelegram:
		if b.Token == "" {
			return fmt.Errorf("bots.%s.token is required", name)
		}
	case constants.PlatformFeishu, constants.PlatformDingTalk:
		if b.AppID == "" || b.AppSecret == "" {
			return fmt.Errorf("bots.%s.app_id and bots.%s.app_secret are required", name, name)
		}
	}
	return nil
}

// GetBotConfig retrieves configuration for a specific bot
func (c *Config) GetBotConfig(botType string) (BotConfig, error) {
	b, exists := c.Bots[botType]
	if !exists {
		return BotConfig{}, fmt.Errorf("bot type %s not found in configuration", botType)
	}
	if !b.Enabled {
		return BotConfig{}, fmt.Errorf("bot type %s is disabled", botType)
	}
	return b, nil
}

// EnabledBots returns the names of enabled bots, sorted.
func (c *Config) EnabledBots() []string {
	var names []string
	for name, b := range c.Bots {
		if b.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// IsUserAuthorized checks if a user is in the whitelist
func (c *Config) IsUserAuthorized(platform, userID string) bool {
	if !c.Security.WhitelistEnabled {
		return true
	}
	return slices.Contains(c.Security.AllowedUsers[platform], userID)
}

// ConversationID keys msg according to conversation.key_by.
func (c *Config) ConversationID(msg bot.Message) string {
	if c.Conversation.KeyBy == constants.KeyByUser {
		return msg.UserConversationID()
	}
	return msg.ConversationID()
}

// FormatError renders err with conversation.error_template.
func (c *Config) FormatError(err error) string {
	tmpl := c.Conversation.ErrorTemplate
	if tmpl == "" {
		tmpl = DefaultErrorTemplate
	}
	return fmt.Sprintf(tmpl, err.Error())
}

// ignoreUnauthorized drops messages from users outside the whitelist.
func (c *Config) ignoreUnauthorized(msg bot.Message) bool {
	if c.IsUserAuthorized(msg.Platform, msg.UserID) {
		return false
	}
	logger.WithFields(logrus.Fields{
		"platform": msg.Platform,
		"user":     msg.UserID,
	}).Warn("unauthorized-user-message-ignored")
	return true
}

// BotOptions returns Bot options that apply this configuration around
// create.
func (c *Config) BotOptions(create func(id string) (handler.Handler, error)) BotOptions {
	return BotOptions{
		CreateMessageHandler:     create,
		GetMessageHandlerCacheID: c.ConversationID,
		IgnoreMessage:            c.ignoreUnauthorized,
		FormatError:              c.FormatError,
		QueueBuffer:              c.Conversation.QueueBuffer,
	}
}

// LoggerConfig converts the logging section for logger.Init.
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.File,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
		Compress:   c.Logging.Compress,
		Stdout:     c.Logging.EnableStdout,
	}
}
