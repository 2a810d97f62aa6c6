package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	"github.com/open-dingtalk/dingtalk-stream-sdk-go/chatbot"
	"github.com/open-dingtalk/dingtalk-stream-sdk-go/client"
	"github.com/sirupsen/logrus"
)

// DingTalkReplier posts text to a conversation's session webhook.
type DingTalkReplier interface {
	SimpleReplyText(ctx context.Context, sessionWebhook string, content []byte) error
}

type sessionWebhook struct {
	url     string
	expires time.Time
}

// DingTalkBot implements Adapter for DingTalk stream mode. Outgoing messages
// are sent through the session webhook of the conversation's latest inbound
// message, so a conversation can only be answered after it has spoken.
type DingTalkBot struct {
	receiver

	clientID     string
	clientSecret string
	replier      DingTalkReplier

	mu           sync.RWMutex
	streamClient *client.StreamClient
	cancel       context.CancelFunc
	webhooks     map[string]sessionWebhook
}

// NewDingTalkBot creates a new DingTalk bot instance
func NewDingTalkBot(clientID, clientSecret string) *DingTalkBot {
	return &DingTalkBot{
		clientID:     clientID,
		clientSecret: clientSecret,
		replier:      chatbot.NewChatbotReplier(),
		webhooks:     make(map[string]sessionWebhook),
	}
}

// Start establishes the stream connection to DingTalk and begins listening for messages
func (d *DingTalkBot) Start(onMessage func(Message)) error {
	d.SetMessageHandler(onMessage)

	logger.WithField("client_id", maskSecret(d.clientID)).Info("starting-dingtalk-bot-with-stream-connection")

	credential := client.NewAppCredentialConfig(d.clientID, d.clientSecret)
	streamClient := client.NewStreamClient(client.WithAppCredential(credential))
	streamClient.RegisterChatBotCallbackRouter(d.handleMessageReceive)

	ctx, cancel := context.WithCancel(context.Background())
	d.mu.Lock()
	d.streamClient = streamClient
	d.cancel = cancel
	d.mu.Unlock()

	go func() {
		if err := streamClient.Start(ctx); err != nil {
			logger.WithFields(logrus.Fields{
				"client_id": maskSecret(d.clientID),
				"error":     err,
			}).Error("dingtalk-stream-connection-failed")
		}
	}()

	logger.Info("dingtalk-stream-connection-started")
	return nil
}

// handleMessageReceive handles incoming message events from DingTalk
func (d *DingTalkBot) handleMessageReceive(_ context.Context, data *chatbot.BotCallbackDataModel) ([]byte, error) {
	if data == nil {
		return []byte(""), nil
	}

	logger.WithFields(logrus.Fields{
		"platform":          constants.PlatformDingTalk,
		"conversation_id":   data.ConversationId,
		"conversation_type": data.ConversationType,
		"sender_staff_id":   data.SenderStaffId,
		"msg_id":            data.MsgId,
		"msg_type":          data.Msgtype,
	}).Debug("received-dingtalk-message")

	if data.SessionWebhook != "" {
		d.mu.Lock()
		d.webhooks[data.ConversationId] = sessionWebhook{
			url:     data.SessionWebhook,
			expires: time.UnixMilli(data.SessionWebhookExpiredTime),
		}
		d.mu.Unlock()
	}

	if data.Msgtype != "text" {
		return []byte(""), nil
	}

	d.deliver(Message{
		Platform:  constants.PlatformDingTalk,
		UserID:    data.SenderStaffId,
		Channel:   data.ConversationId,
		Text:      strings.TrimSpace(data.Text.Content),
		Timestamp: time.Now(),
	})
	return []byte(""), nil
}

// SendMessage replies to a DingTalk conversation through its session webhook
func (d *DingTalkBot) SendMessage(conversationID, text string) error {
	if conversationID == "" {
		return fmt.Errorf("conversation ID is required for DingTalk")
	}

	d.mu.RLock()
	hook, ok := d.webhooks[conversationID]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no session webhook for conversation %s", conversationID)
	}
	if !hook.expires.IsZero() && time.Now().After(hook.expires) {
		return fmt.Errorf("session webhook for conversation %s expired at %s", conversationID, hook.expires.Format(time.RFC3339))
	}

	text = truncate(constants.PlatformDingTalk, text, constants.MaxDingTalkMessageLength)
	if err := d.replier.SimpleReplyText(context.Background(), hook.url, []byte(text)); err != nil {
		logger.WithFields(logrus.Fields{
			"conversation_id": conversationID,
			"error":           err,
		}).Error("failed-to-send-message-to-dingtalk")
		return fmt.Errorf("failed to send message to conversation %s: %w", conversationID, err)
	}

	logger.WithField("conversation_id", conversationID).Debug("message-sent-to-dingtalk")
	return nil
}

// Stop closes the DingTalk stream connection and cleans up resources
func (d *DingTalkBot) Stop() error {
	d.mu.Lock()
	streamClient, cancel := d.streamClient, d.cancel
	d.streamClient, d.cancel = nil, nil
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if streamClient != nil {
		streamClient.Close()
	}
	logger.Info("dingtalk-bot-stopped")
	return nil
}
