package core

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/keepmind9/chatter/internal/bot"
	"github.com/keepmind9/chatter/pkg/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_ValidConfig(t *testing.T) {
	t.Setenv("TEST_DISCORD_TOKEN", "discord-token-12345")
	path := writeConfig(t, `
bots:
  discord:
    enabled: true
    token: "${TEST_DISCORD_TOKEN}"
    channel_id: "42"
  telegram:
    enabled: false
security:
  whitelist_enabled: true
  allowed_users:
    discord:
      - "123456789012345678"
conversation:
  key_by: USER
  queue_buffer: 4
logging:
  level: debug
  file: /tmp/chatter.log
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "discord-token-12345", config.Bots["discord"].Token)
	assert.Equal(t, "42", config.Bots["discord"].ChannelID)
	assert.Equal(t, []string{"discord"}, config.EnabledBots())
	assert.Equal(t, "user", config.Conversation.KeyBy)
	assert.Equal(t, 4, config.Conversation.QueueBuffer)
	assert.Equal(t, DefaultErrorTemplate, config.Conversation.ErrorTemplate)
	assert.Equal(t, DefaultBotName, config.Conversation.BotName)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, 100, config.Logging.MaxSize)
}

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, "channel", config.Conversation.KeyBy)
	assert.Equal(t, 16, config.Conversation.QueueBuffer)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, 5, config.Logging.MaxBackups)
	assert.Equal(t, 30, config.Logging.MaxAge)
	assert.Empty(t, config.EnabledBots())
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_MissingEnvVars(t *testing.T) {
	_, err := ParseConfig([]byte(`
bots:
  telegram:
    enabled: true
    token: "${CHATTER_TEST_UNSET_A}"
    app_id: "${CHATTER_TEST_UNSET_B}"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHATTER_TEST_UNSET_A, CHATTER_TEST_UNSET_B")
}

func TestValidateConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown platform", "bots:\n  slack:\n    enabled: true\n", `unsupported bot platform "slack"`},
		{"discord without token", "bots:\n  discord:\n    enabled: true\n", "bots.discord.token is required"},
		{"feishu without secret", "bots:\n  feishu:\n    enabled: true\n    app_id: a\n", "bots.feishu.app_id and bots.feishu.app_secret are required"},
		{"bad key_by", "conversation:\n  key_by: team\n", "conversation.key_by"},
		{"template without placeholder", "conversation:\n  error_template: failed\n", "error_template"},
		{"negative queue", "conversation:\n  queue_buffer: -1\n", "queue_buffer"},
		{"huge queue", "conversation:\n  queue_buffer: 5000\n", "queue_buffer"},
		{"empty whitelist", "security:\n  whitelist_enabled: true\n", "allowed_users cannot be empty"},
		{"bad yaml", "bots: [", "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateConfig_DisabledBotsSkipCredentials(t *testing.T) {
	_, err := ParseConfig([]byte("bots:\n  dingtalk:\n    enabled: false\n"))
	assert.NoError(t, err)
}

func TestConfig_GetBotConfig(t *testing.T) {
	config := &Config{Bots: map[string]BotConfig{
		"discord":  {Enabled: true, Token: "t"},
		"telegram": {Enabled: false},
	}}

	b, err := config.GetBotConfig("discord")
	require.NoError(t, err)
	assert.Equal(t, "t", b.Token)

	_, err = config.GetBotConfig("telegram")
	assert.ErrorContains(t, err, "disabled")
	_, err = config.GetBotConfig("feishu")
	assert.ErrorContains(t, err, "not found")
}

func TestConfig_IsUserAuthorized(t *testing.T) {
	config := &Config{}
	assert.True(t, config.IsUserAuthorized("discord", "anyone"))

	config.Security = SecurityConfig{
		WhitelistEnabled: true,
		AllowedUsers:     map[string][]string{"discord": {"u1", "u2"}},
	}
	assert.True(t, config.IsUserAuthorized("discord", "u2"))
	assert.False(t, config.IsUserAuthorized("discord", "u3"))
	assert.False(t, config.IsUserAuthorized("telegram", "u1"))
}

func TestConfig_ConversationID(t *testing.T) {
	msg := bot.Message{Platform: "discord", UserID: "u1", Channel: "c1"}

	config := &Config{Conversation: ConversationConfig{KeyBy: "channel"}}
	assert.Equal(t, "discord:c1", config.ConversationID(msg))

	config.Conversation.KeyBy = "user"
	assert.Equal(t, "discord:user:u1", config.ConversationID(msg))
}

func TestConfig_FormatError(t *testing.T) {
	config := &Config{}
	assert.Equal(t, "An error occurred: `x`", config.FormatError(errors.New("x")))

	config.Conversation.ErrorTemplate = "Sorry! (%s)"
	assert.Equal(t, "Sorry! (x)", config.FormatError(errors.New("x")))
}

func TestConfig_BotOptionsAppliesWhitelistAndTemplate(t *testing.T) {
	config, err := ParseConfig([]byte(`
security:
  whitelist_enabled: true
  allowed_users:
    test: ["u1"]
conversation:
  error_template: "Sorry: %s"
`))
	require.NoError(t, err)

	rec := &recorder{}
	opts := config.BotOptions(static(handler.TextFunc(func(s string) (string, bool) {
		if s == "fail" {
			return "", false
		}
		return "ok " + s, true
	})))
	opts.SendResponse = rec.send

	b, err := NewBot(opts)
	require.NoError(t, err)

	allowed := chat("hi")
	denied := chat("hi")
	denied.UserID = "intruder"

	b.Dispatch(allowed)
	b.Dispatch(denied)
	b.Wait()
	assert.Equal(t, []string{"ok hi"}, rec.got())
}

func TestConfig_LoggerConfig(t *testing.T) {
	config, err := ParseConfig([]byte("logging:\n  level: warn\n  format: json\n  enable_stdout: true\n"))
	require.NoError(t, err)

	lc := config.LoggerConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "json", lc.Format)
	assert.True(t, lc.Stdout)
	assert.Equal(t, 100, lc.MaxSize)
}

func TestNewAdapter(t *testing.T) {
	for _, platform := range SupportedPlatforms {
		adapter, err := NewAdapter(platform, BotConfig{Token: "t", AppID: "a", AppSecret: "s"})
		require.NoError(t, err, platform)
		assert.NotNil(t, adapter)
	}
	_, err := NewAdapter("slack", BotConfig{})
	assert.Error(t, err)
}

func TestBot_RegisterConfiguredAdapters(t *testing.T) {
	config := &Config{Bots: map[string]BotConfig{
		"discord":  {Enabled: true, Token: "t"},
		"telegram": {Enabled: false, Token: "t"},
	}}
	b, err := NewBot(config.BotOptions(static(handler.Set{})))
	require.NoError(t, err)

	n, err := b.RegisterConfiguredAdapters(config)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
