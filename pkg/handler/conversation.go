package handler

import (
	"context"
	"sync"
)

// Conversation gives a dialog returned by one turn priority over its base
// children on the next turn.
//
// A child that returns a Response with a non-nil Dialog stores that dialog.
// The next message goes to the dialog alone. The dialog is removed before it
// runs, so it is consumed once whatever the outcome. A dialog may return
// another dialog.
type Conversation struct {
	children Handler

	turnMu sync.Mutex // serializes turns
	mu     sync.Mutex // guards dialog
	dialog Handler
}

// NewConversation creates a Conversation over children.
func NewConversation(children ...Handler) (*Conversation, error) {
	h, err := childrenOf("conversation", nil, children)
	if err != nil {
		return nil, err
	}
	return &Conversation{children: h}, nil
}

// IsStateful implements Stateful.
func (c *Conversation) IsStateful() bool {
	return true
}

// HandleMessage implements Handler.
func (c *Conversation) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	c.turnMu.Lock()
	defer c.turnMu.Unlock()

	target := c.children
	if dialog := c.takeDialog(); dialog != nil {
		target = dialog
	}

	res, err := Evaluate(ctx, target, msg, extra...)
	if err != nil {
		return NoMatch(), err
	}

	resp, ok := asResponse(res.Value())
	if !res.IsValue() || !ok || resp.Dialog == nil {
		return res, nil
	}
	c.mu.Lock()
	c.dialog = resp.Dialog
	c.mu.Unlock()
	resp.Dialog = nil
	return Value(resp), nil
}

// takeDialog returns the stored dialog and empties the slot, so a dialog
// runs at most once even if it panics.
func (c *Conversation) takeDialog() Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	dialog := c.dialog
	c.dialog = nil
	return dialog
}

// Dialog returns the currently stored dialog, or nil.
func (c *Conversation) Dialog() Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog
}

// ClearDialog drops any stored dialog.
func (c *Conversation) ClearDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog = nil
}
