package core

// Config represents the complete chatter configuration structure
type Config struct {
	Bots         map[string]BotConfig `yaml:"bots"`
	Security     SecurityConfig       `yaml:"security"`
	Conversation ConversationConfig   `yaml:"conversation"`
	Logging      LoggingConfig        `yaml:"logging"`
}

// SecurityConfig represents security and access control configuration
type SecurityConfig struct {
	WhitelistEnabled bool                `yaml:"whitelist_enabled"`
	AllowedUsers     map[string][]string `yaml:"allowed_users"`
}

// ConversationConfig controls how messages map to conversations.
type ConversationConfig struct {
	KeyBy         string `yaml:"key_by"`         // channel (default) or user
	ErrorTemplate string `yaml:"error_template"` // fmt template with one %s for the error text
	QueueBuffer   int    `yaml:"queue_buffer"`   // Pending messages per conversation (default: 16)
	BotName       string `yaml:"bot_name"`       // Name shown by the console adapter
}

// BotConfig represents bot configuration
type BotConfig struct {
	Enabled           bool   `yaml:"enabled"`
	AppID             string `yaml:"app_id"`
	AppSecret         string `yaml:"app_secret"`
	Token             string `yaml:"token"`
	ChannelID         string `yaml:"channel_id"`         // Discord: restrict to one channel (optional)
	EncryptKey        string `yaml:"encrypt_key"`        // Feishu: event encryption key (optional)
	VerificationToken string `yaml:"verification_token"` // Feishu: verification token (optional)
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // text or json
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB (default: 100)
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep (default: 5)
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain (default: 30)
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs
	EnableStdout bool   `yaml:"enable_stdout"` // Also output to stdout
}
