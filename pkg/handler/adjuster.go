package handler

import (
	"context"
	"fmt"
)

// AdjustFunc rewrites the message and extra context before delegation.
type AdjustFunc func(msg Message, extra []any) (Message, []any, error)

// ArgsAdjusterOptions configures an ArgsAdjuster.
type ArgsAdjusterOptions struct {
	AdjustArgs AdjustFunc
	Handler    Handler
}

// ArgsAdjuster passes adjusted arguments to its children.
type ArgsAdjuster struct {
	adjust   AdjustFunc
	children Handler
}

// NewArgsAdjuster creates an ArgsAdjuster.
func NewArgsAdjuster(opts ArgsAdjusterOptions, children ...Handler) (*ArgsAdjuster, error) {
	if opts.AdjustArgs == nil {
		return nil, missing("args adjuster", "adjustArgs")
	}
	h, err := childrenOf("args adjuster", opts.Handler, children)
	if err != nil {
		return nil, err
	}
	return &ArgsAdjuster{adjust: opts.AdjustArgs, children: h}, nil
}

// HandleMessage implements Handler.
func (a *ArgsAdjuster) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	newMsg, newExtra, err := a.adjust(msg, extra)
	if err != nil {
		return NoMatch(), fmt.Errorf("adjust args: %w", err)
	}
	return Evaluate(ctx, a.children, newMsg, newExtra...)
}
