package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/constants"
	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"github.com/larksuite/oapi-sdk-go/v3/ws"
	"github.com/sirupsen/logrus"
)

// FeishuBot implements Adapter for Feishu (Lark) using WebSocket long connection
type FeishuBot struct {
	receiver

	appID             string
	appSecret         string
	encryptKey        string
	verificationToken string

	mu         sync.RWMutex
	larkClient *lark.Client
	cancel     context.CancelFunc
}

// NewFeishuBot creates a new Feishu bot instance. encryptKey and
// verificationToken are optional.
func NewFeishuBot(appID, appSecret, encryptKey, verificationToken string) *FeishuBot {
	return &FeishuBot{
		appID:             appID,
		appSecret:         appSecret,
		encryptKey:        encryptKey,
		verificationToken: verificationToken,
		larkClient:        lark.NewClient(appID, appSecret),
	}
}

// Start establishes WebSocket long connection to Feishu and begins listening for messages
func (f *FeishuBot) Start(onMessage func(Message)) error {
	f.SetMessageHandler(onMessage)

	logger.WithField("app_id", maskSecret(f.appID)).Info("starting-feishu-bot-with-websocket-long-connection")

	events := dispatcher.NewEventDispatcher(f.verificationToken, f.encryptKey)
	events.OnP2MessageReceiveV1(f.handleMessageReceive)

	wsClient := ws.NewClient(f.appID, f.appSecret,
		ws.WithEventHandler(events),
		ws.WithLogLevel(larkcore.LogLevelInfo),
		ws.WithAutoReconnect(true),
	)

	ctx, cancel := context.WithCancel(context.Background())
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	go func() {
		if err := wsClient.Start(ctx); err != nil {
			logger.WithFields(logrus.Fields{
				"app_id": maskSecret(f.appID),
				"error":  err,
			}).Error("feishu-websocket-connection-failed")
		}
	}()

	logger.Info("feishu-websocket-long-connection-started")
	return nil
}

// handleMessageReceive handles incoming message events from Feishu
func (f *FeishuBot) handleMessageReceive(_ context.Context, event *larkim.P2MessageReceiveV1) error {
	if event == nil || event.Event == nil || event.Event.Message == nil {
		return nil
	}
	ev := event.Event

	msgType := larkcore.StringValue(ev.Message.MessageType)
	if msgType != larkim.MsgTypeText {
		logger.WithField("message_type", msgType).Debug("ignoring-non-text-feishu-message")
		return nil
	}

	var senderID string
	if ev.Sender != nil && ev.Sender.SenderId != nil {
		senderID = larkcore.StringValue(ev.Sender.SenderId.UserId)
		if senderID == "" {
			senderID = larkcore.StringValue(ev.Sender.SenderId.OpenId)
		}
	}
	chatID := larkcore.StringValue(ev.Message.ChatId)

	logger.WithFields(logrus.Fields{
		"platform":   constants.PlatformFeishu,
		"user_id":    senderID,
		"chat_id":    chatID,
		"chat_type":  larkcore.StringValue(ev.Message.ChatType),
		"message_id": larkcore.StringValue(ev.Message.MessageId),
	}).Debug("received-feishu-message")

	f.deliver(Message{
		Platform:  constants.PlatformFeishu,
		UserID:    senderID,
		Channel:   chatID,
		Text:      extractTextContent(larkcore.StringValue(ev.Message.Content)),
		Timestamp: time.Now(),
	})
	return nil
}

type feishuText struct {
	Text string `json:"text"`
}

// extractTextContent reads the text field of a Feishu text message body,
// e.g. {"text":"hello"}. Unparseable content is returned as is.
func extractTextContent(content string) string {
	var body feishuText
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		return content
	}
	return body.Text
}

// SendMessage sends a message to a Feishu chat
func (f *FeishuBot) SendMessage(chatID, text string) error {
	f.mu.RLock()
	client := f.larkClient
	f.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("feishu client not initialized")
	}
	if chatID == "" {
		return fmt.Errorf("chat ID is required for Feishu")
	}

	content, err := json.Marshal(feishuText{
		Text: truncate(constants.PlatformFeishu, text, constants.MaxFeishuMessageLength),
	})
	if err != nil {
		return fmt.Errorf("failed to encode feishu message: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(content)).
			Build()).
		Build()

	resp, err := client.Im.Message.Create(context.Background(), req)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chatID,
			"error":   err,
		}).Error("failed-to-send-message-to-feishu")
		return fmt.Errorf("failed to send message to chat %s: %w", chatID, err)
	}
	if !resp.Success() {
		logger.WithFields(logrus.Fields{
			"chat_id":    chatID,
			"code":       resp.Code,
			"msg":        resp.Msg,
			"request_id": resp.RequestId(),
		}).Error("feishu-api-error")
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	logger.WithField("chat_id", chatID).Debug("message-sent-to-feishu")
	return nil
}

// Stop closes the Feishu WebSocket connection. The ws client has no Stop;
// cancelling its context ends it.
func (f *FeishuBot) Stop() error {
	f.mu.Lock()
	cancel := f.cancel
	f.cancel = nil
	f.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	logger.Info("feishu-bot-stopped")
	return nil
}
