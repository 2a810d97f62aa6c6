package constants

import "time"

// Platform names used in bot.Message.Platform and the bots config section.
const (
	PlatformDiscord  = "discord"
	PlatformTelegram = "telegram"
	PlatformFeishu   = "feishu"
	PlatformDingTalk = "dingtalk"
	PlatformConsole  = "console"
)

// Message length limits for different platforms
const (
	// MaxDiscordMessageLength is Discord's message character limit
	MaxDiscordMessageLength = 2000
	// MaxTelegramMessageLength is Telegram's message character limit
	MaxTelegramMessageLength = 4096
	// MaxFeishuMessageLength is Feishu's message character limit
	MaxFeishuMessageLength = 20000
	// MaxDingTalkMessageLength is DingTalk's message character limit
	MaxDingTalkMessageLength = 20000
)

// Conversation keying, see core.Config.Conversation.KeyBy.
const (
	KeyByChannel = "channel"
	KeyByUser    = "user"
)

// Queue sizing
const (
	// DefaultQueueBuffer is the per-conversation queue capacity
	DefaultQueueBuffer = 16
	// MaxQueueBuffer bounds the configured queue capacity
	MaxQueueBuffer = 1024
)

// Timeouts
const (
	// DefaultPollTimeout is the Telegram long polling timeout
	DefaultPollTimeout = 60 * time.Second
)

// Secret masking
const (
	// MinSecretLengthForMasking is the length at or below which a secret is fully hidden
	MinSecretLengthForMasking = 8
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 4
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)

// Logging defaults
const (
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated files to keep
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
