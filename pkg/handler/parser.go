package handler

import (
	"context"

	"github.com/keepmind9/chatter/pkg/args"
)

// ParserOptions configures a Parser.
type ParserOptions struct {
	Handler      Handler
	ParseOptions args.Spec
}

// Parser hands its children a parsed *args.Parsed message instead of raw
// text. The original text is kept in the Input field.
type Parser struct {
	spec     args.Spec
	children Handler
}

// NewParser creates a Parser.
func NewParser(opts ParserOptions, children ...Handler) (*Parser, error) {
	h, err := childrenOf("parser", opts.Handler, children)
	if err != nil {
		return nil, err
	}
	spec := opts.ParseOptions
	if spec == nil {
		spec = args.Spec{}
	}
	return &Parser{spec: spec, children: h}, nil
}

// HandleMessage implements Handler.
func (p *Parser) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	text, err := Text(msg)
	if err != nil {
		return NoMatch(), err
	}
	parsed := args.Parse(text, p.spec)
	return Evaluate(ctx, p.children, parsed, extra...)
}

// ParsedFunc adapts a function taking parsed arguments to a Handler. Messages
// that are not yet parsed are parsed with no option spec.
func ParsedFunc(fn func(ctx context.Context, parsed *args.Parsed, extra ...any) (Result, error)) Func {
	return func(ctx context.Context, msg Message, extra ...any) (Result, error) {
		parsed, ok := msg.(*args.Parsed)
		if !ok {
			text, err := Text(msg)
			if err != nil {
				return NoMatch(), err
			}
			parsed = args.Parse(text, nil)
		}
		return fn(ctx, parsed, extra...)
	}
}
