package bot

import (
	"sync"
	"unicode/utf8"

	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	"github.com/sirupsen/logrus"
)

// maskSecret masks sensitive information for logging
func maskSecret(s string) string {
	if len(s) <= constants.MinSecretLengthForMasking {
		return "***"
	}
	return s[:constants.SecretMaskPrefixLength] + "***" + s[len(s)-constants.SecretMaskSuffixLength:]
}

// truncate cuts text to max bytes on a rune boundary, marking the cut with
// a trailing ellipsis.
func truncate(platform, text string, max int) string {
	if len(text) <= max {
		return text
	}
	logger.WithFields(logrus.Fields{
		"platform":        platform,
		"original_length": len(text),
		"max_length":      max,
	}).Info("truncating-message-for-platform-limit")

	cut := max - len("...")
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// receiver holds the inbound callback shared by all adapters.
type receiver struct {
	mu        sync.RWMutex
	onMessage func(Message)
}

// SetMessageHandler sets the inbound callback.
func (r *receiver) SetMessageHandler(fn func(Message)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onMessage = fn
}

// GetMessageHandler returns the inbound callback.
func (r *receiver) GetMessageHandler() func(Message) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.onMessage
}

func (r *receiver) deliver(msg Message) bool {
	fn := r.GetMessageHandler()
	if fn == nil || msg.Text == "" {
		return false
	}
	fn(msg)
	return true
}
