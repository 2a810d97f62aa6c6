// Package bot connects chat services to the message router.
//
// Each adapter turns platform events into Message values, hands them to the
// callback given to Start, and delivers outgoing text with SendMessage. The
// router in internal/core decides what to reply; adapters only move text.
//
// # Supported Platforms
//
//   - Discord: WebSocket gateway
//   - Telegram: long polling
//   - Feishu/Lark: WebSocket long connection
//   - DingTalk: stream mode, replies through per-conversation session webhooks
//   - Console: line-oriented reader/writer for local use
//
// Adapters are safe for concurrent use. The callback may be invoked from
// platform goroutines and must not block for long.
package bot

import "time"

// Adapter is a connection to one chat service.
type Adapter interface {
	// Start connects and begins delivering inbound messages to onMessage.
	Start(onMessage func(Message)) error

	// SendMessage posts text to channel, truncating to platform limits.
	SendMessage(channel, text string) error

	// Stop disconnects and releases resources.
	Stop() error
}

// Message is one inbound chat message.
type Message struct {
	Platform  string // discord/telegram/feishu/dingtalk/console
	UserID    string // Unique user identifier (for permission control)
	Channel   string // Channel/session ID replies are sent to
	Text      string
	Timestamp time.Time
}

// ConversationID keys conversation state by platform and channel.
func (m Message) ConversationID() string {
	return m.Platform + ":" + m.Channel
}

// UserConversationID keys conversation state by platform and user, so one
// user keeps a single conversation across channels.
func (m Message) UserConversationID() string {
	return m.Platform + ":user:" + m.UserID
}
