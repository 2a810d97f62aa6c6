package bot

import (
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDiscordSession records sends and the registered handler.
type mockDiscordSession struct {
	failOpen bool
	failSend bool
	opened   bool
	closed   bool
	sent     []sentMessage
	handler  interface{}
}

type sentMessage struct {
	Channel string
	Text    string
}

func (m *mockDiscordSession) AddHandler(handler interface{}) func() {
	m.handler = handler
	return func() {}
}

func (m *mockDiscordSession) Open() error {
	m.opened = true
	if m.failOpen {
		return errors.New("gateway unavailable")
	}
	return nil
}

func (m *mockDiscordSession) Close() error {
	m.closed = true
	return nil
}

func (m *mockDiscordSession) ChannelMessageSend(channel, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.failSend {
		return nil, errors.New("rate limited")
	}
	m.sent = append(m.sent, sentMessage{Channel: channel, Text: content})
	return &discordgo.Message{ID: "msg-id"}, nil
}

func (m *mockDiscordSession) simulate(channel, userID, content string, isBot bool) {
	fn, ok := m.handler.(func(*discordgo.Session, *discordgo.MessageCreate))
	if !ok {
		return
	}
	fn(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: channel,
		Content:   content,
		Author:    &discordgo.User{ID: userID, Username: "u-" + userID, Bot: isBot},
	}})
}

func startMockDiscord(t *testing.T, channelID string, session *mockDiscordSession) (*DiscordBot, *[]Message) {
	t.Helper()
	d := NewDiscordBot("test-token-1234567890", channelID)
	d.newSession = func(string) (DiscordSession, error) { return session, nil }

	var got []Message
	require.NoError(t, d.Start(func(msg Message) { got = append(got, msg) }))
	return d, &got
}

func TestDiscordBot_StartDeliversMessages(t *testing.T) {
	session := &mockDiscordSession{}
	_, got := startMockDiscord(t, "", session)

	assert.True(t, session.opened)
	session.simulate("c1", "u1", "math add 1 2", false)

	require.Len(t, *got, 1)
	msg := (*got)[0]
	assert.Equal(t, "discord", msg.Platform)
	assert.Equal(t, "u1", msg.UserID)
	assert.Equal(t, "c1", msg.Channel)
	assert.Equal(t, "math add 1 2", msg.Text)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestDiscordBot_IgnoresBotsAndOtherChannels(t *testing.T) {
	session := &mockDiscordSession{}
	_, got := startMockDiscord(t, "c1", session)

	session.simulate("c1", "u1", "from a bot", true)
	session.simulate("c2", "u1", "wrong channel", false)
	session.simulate("c1", "u1", "", false)
	session.simulate("c1", "u1", "hello", false)

	require.Len(t, *got, 1)
	assert.Equal(t, "hello", (*got)[0].Text)
}

func TestDiscordBot_StartOpenFailure(t *testing.T) {
	d := NewDiscordBot("token", "")
	d.newSession = func(string) (DiscordSession, error) { return &mockDiscordSession{failOpen: true}, nil }

	err := d.Start(func(Message) {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open discord connection")
	assert.Error(t, d.SendMessage("c1", "hi"), "session must not be kept after a failed open")
}

func TestDiscordBot_SendMessage(t *testing.T) {
	session := &mockDiscordSession{}
	d, _ := startMockDiscord(t, "default", session)

	require.NoError(t, d.SendMessage("c1", "hi"))
	require.NoError(t, d.SendMessage("", "fallback"))
	assert.Equal(t, []sentMessage{{"c1", "hi"}, {"default", "fallback"}}, session.sent)

	session.failSend = true
	err := d.SendMessage("c1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c1")
}

func TestDiscordBot_SendMessageTruncates(t *testing.T) {
	session := &mockDiscordSession{}
	d, _ := startMockDiscord(t, "", session)

	require.NoError(t, d.SendMessage("c1", strings.Repeat("x", 2500)))
	require.Len(t, session.sent, 1)
	assert.Len(t, session.sent[0].Text, 2000)
	assert.True(t, strings.HasSuffix(session.sent[0].Text, "..."))
}

func TestDiscordBot_SendMessageErrors(t *testing.T) {
	d := NewDiscordBot("token", "")
	err := d.SendMessage("c1", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")

	d, _ = startMockDiscord(t, "", &mockDiscordSession{})
	err = d.SendMessage("", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel ID is required")
}

func TestDiscordBot_Stop(t *testing.T) {
	session := &mockDiscordSession{}
	d, _ := startMockDiscord(t, "", session)

	require.NoError(t, d.Stop())
	assert.True(t, session.closed)
	require.NoError(t, d.Stop(), "second stop is a no-op")
}
