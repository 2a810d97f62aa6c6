package core

import (
	"fmt"

	"github.com/keepmind9/chatter/internal/bot"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
)

// NewAdapter creates the adapter for platform from its configuration.
func NewAdapter(platform string, config BotConfig) (bot.Adapter, error) {
	switch platform {
	case constants.PlatformDiscord:
		return bot.NewDiscordBot(config.Token, config.ChannelID), nil
	case constants.PlatformTelegram:
		return bot.NewTelegramBot(config.Token), nil
	case constants.PlatformFeishu:
		return bot.NewFeishuBot(config.AppID, config.AppSecret, config.EncryptKey, config.VerificationToken), nil
	case constants.PlatformDingTalk:
		return bot.NewDingTalkBot(config.AppID, config.AppSecret), nil
	}
	return nil, fmt.Errorf("unsupported bot platform %q", platform)
}

// RegisterConfiguredAdapters registers an adapter for every enabled bot and
// returns how many were registered.
func (b *Bot) RegisterConfiguredAdapters(config *Config) (int, error) {
	names := config.EnabledBots()
	for _, name := range names {
		adapter, err := NewAdapter(name, config.Bots[name])
		if err != nil {
			return 0, err
		}
		b.RegisterAdapter(name, adapter)
		logger.WithField("platform", name).Info("adapter-registered")
	}
	return len(names), nil
}
