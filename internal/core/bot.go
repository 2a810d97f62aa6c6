package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/keepmind9/chatter/internal/bot"
	"github.com/keepmind9/chatter/internal/logger"
	"github.com/keepmind9/chatter/pkg/handler"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultErrorTemplate formats errors delivered back to the chat.
const DefaultErrorTemplate = "An error occurred: `%s`"

// BotOptions configures a Bot. Only CreateMessageHandler is required; every
// other field replaces a default behavior.
type BotOptions struct {
	// CreateMessageHandler returns the top-level handler for a conversation
	// id. Handlers reporting handler.IsStateful are cached per id.
	CreateMessageHandler func(id string) (handler.Handler, error)

	// GetMessageHandlerArgs extracts the message and extra context passed to
	// the handler. Default: msg.Text and [msg].
	GetMessageHandlerArgs func(msg bot.Message) (handler.Message, []any)

	// GetMessageHandlerCacheID derives the conversation id. Default:
	// msg.ConversationID().
	GetMessageHandlerCacheID func(msg bot.Message) string

	// IgnoreMessage drops messages before any handler runs.
	IgnoreMessage func(msg bot.Message) bool

	// SendResponse delivers one text. Default: the adapter registered for
	// msg.Platform.
	SendResponse func(ctx context.Context, msg bot.Message, text string) error

	// FormatError turns a failed turn into user-visible text.
	FormatError func(err error) string

	// QueueBuffer bounds messages waiting per conversation in Dispatch.
	// Zero means unbounded.
	QueueBuffer int
}

// Bot runs messages from chat adapters through per-conversation handlers and
// delivers the responses.
type Bot struct {
	opts BotOptions

	mu       sync.Mutex
	handlers map[string]handler.Handler

	adaptersMu sync.RWMutex
	adapters   map[string]bot.Adapter

	queue *Queue[bot.Message]
}

// NewBot creates a Bot.
func NewBot(opts BotOptions) (*Bot, error) {
	if opts.CreateMessageHandler == nil {
		return nil, fmt.Errorf("bot: %w %q", handler.ErrMissingOption, "createMessageHandler")
	}
	b := &Bot{
		opts:     opts,
		handlers: make(map[string]handler.Handler),
		adapters: make(map[string]bot.Adapter),
	}
	if b.opts.GetMessageHandlerArgs == nil {
		b.opts.GetMessageHandlerArgs = defaultHandlerArgs
	}
	if b.opts.GetMessageHandlerCacheID == nil {
		b.opts.GetMessageHandlerCacheID = bot.Message.ConversationID
	}
	if b.opts.SendResponse == nil {
		b.opts.SendResponse = b.sendToAdapter
	}
	if b.opts.FormatError == nil {
		b.opts.FormatError = func(err error) string {
			return fmt.Sprintf(DefaultErrorTemplate, err.Error())
		}
	}
	b.queue = NewQueue(b.opts.QueueBuffer, func(id string, msg bot.Message) {
		b.OnMessage(context.Background(), msg)
	})
	return b, nil
}

func defaultHandlerArgs(msg bot.Message) (handler.Message, []any) {
	return msg.Text, []any{msg}
}

// RegisterAdapter registers the adapter that serves platform.
func (b *Bot) RegisterAdapter(platform string, adapter bot.Adapter) {
	b.adaptersMu.Lock()
	defer b.adaptersMu.Unlock()
	b.adapters[platform] = adapter
}

// GetMessageHandler returns the cached handler for id, or creates one.
// Only stateful handlers are cached.
//
// Handlers are created outside the cache lock. When two callers race to
// create a stateful handler for the same id, the first one stored wins.
func (b *Bot) GetMessageHandler(id string) (handler.Handler, error) {
	b.mu.Lock()
	h, ok := b.handlers[id]
	b.mu.Unlock()
	if ok {
		return h, nil
	}

	h, err := b.opts.CreateMessageHandler(id)
	if err != nil {
		return nil, fmt.Errorf("create message handler for %q: %w", id, err)
	}
	if err := handler.Validate(h); err != nil {
		return nil, fmt.Errorf("create message handler for %q: %w", id, err)
	}
	if !handler.IsStateful(h) {
		return h, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if cached, ok := b.handlers[id]; ok {
		return cached, nil
	}
	b.handlers[id] = h
	logger.WithField("conversation_id", id).Debug("cached-stateful-message-handler")
	return h, nil
}

// Dispatch queues msg behind earlier messages of the same conversation. It
// is the callback handed to adapters.
func (b *Bot) Dispatch(msg bot.Message) {
	if b.ignore(msg) {
		return
	}
	id := b.opts.GetMessageHandlerCacheID(msg)
	if err := b.queue.Enqueue(id, msg); err != nil {
		logger.WithFields(logrus.Fields{
			"conversation_id": id,
			"platform":        msg.Platform,
			"error":           err,
		}).Warn("message-dropped")
	}
}

// OnMessage runs one turn for msg and delivers its responses. Failures are
// reported to the chat through SendResponse and never returned.
func (b *Bot) OnMessage(ctx context.Context, msg bot.Message) {
	if b.ignore(msg) {
		return
	}

	id := b.opts.GetMessageHandlerCacheID(msg)
	log := logger.WithFields(logrus.Fields{
		"turn_id":         uuid.NewString(),
		"platform":        msg.Platform,
		"conversation_id": id,
		"user":            msg.UserID,
	})
	log.Info("processing-message")

	texts, err := b.runTurn(ctx, id, msg)
	if err != nil {
		log.WithField("error", err).Error("message-handler-failed")
		texts = []string{b.opts.FormatError(err)}
	}
	if len(texts) == 0 {
		log.Debug("no-response")
		return
	}

	for _, text := range texts {
		if err := b.opts.SendResponse(ctx, msg, text); err != nil {
			log.WithField("error", err).Error("failed-to-send-response")
			return
		}
	}
	log.WithField("responses", len(texts)).Info("responses-sent")
}

func (b *Bot) runTurn(ctx context.Context, id string, msg bot.Message) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logrus.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("message-handler-panic-recovered")
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	h, err := b.GetMessageHandler(id)
	if err != nil {
		return nil, err
	}
	message, extra := b.opts.GetMessageHandlerArgs(msg)
	res, err := handler.Evaluate(ctx, h, message, extra...)
	if err != nil {
		return nil, err
	}
	if !res.IsValue() {
		return nil, nil
	}
	return handler.NormalizeResponse(res.Value())
}

func (b *Bot) ignore(msg bot.Message) bool {
	return b.opts.IgnoreMessage != nil && b.opts.IgnoreMessage(msg)
}

// ErrNoAdapter is returned when no adapter serves a message's platform.
var ErrNoAdapter = errors.New("no adapter registered for platform")

func (b *Bot) sendToAdapter(_ context.Context, msg bot.Message, text string) error {
	b.adaptersMu.RLock()
	adapter, ok := b.adapters[msg.Platform]
	b.adaptersMu.RUnlock()
	if !ok {
		return fmt.Errorf("%w %q", ErrNoAdapter, msg.Platform)
	}
	return adapter.SendMessage(msg.Channel, text)
}

// Run starts every registered adapter and blocks until ctx is done, then
// stops them. An adapter that fails to start cancels the others.
func (b *Bot) Run(ctx context.Context) error {
	b.adaptersMu.RLock()
	adapters := make(map[string]bot.Adapter, len(b.adapters))
	for platform, adapter := range b.adapters {
		adapters[platform] = adapter
	}
	b.adaptersMu.RUnlock()

	if len(adapters) == 0 {
		return errors.New("no adapters registered")
	}

	g, gctx := errgroup.WithContext(ctx)
	for platform, adapter := range adapters {
		g.Go(func() error {
			logger.WithField("platform", platform).Info("starting-adapter")
			if err := adapter.Start(b.Dispatch); err != nil {
				return fmt.Errorf("start %s adapter: %w", platform, err)
			}
			<-gctx.Done()
			if err := adapter.Stop(); err != nil {
				logger.WithFields(logrus.Fields{
					"platform": platform,
					"error":    err,
				}).Warn("failed-to-stop-adapter")
			}
			logger.WithField("platform", platform).Info("adapter-stopped")
			return nil
		})
	}

	err := g.Wait()
	b.queue.Wait()
	return err
}

// Wait blocks until every dispatched message has been processed.
func (b *Bot) Wait() {
	b.queue.Wait()
}
