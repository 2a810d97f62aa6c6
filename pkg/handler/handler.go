// Package handler implements composable message handlers for chat bots.
//
// A Handler receives a message plus arbitrary extra context and returns a
// Result. Handlers compose: a Set is an ordered list of handlers that is
// itself a Handler, and wrappers such as Matcher, Parser, Command and
// Conversation hold child handlers of their own. Every composition point
// accepts any of these interchangeably.
//
// # Results
//
// A handler returns exactly one of:
//
//   - NoMatch(): the handler declined; evaluation moves to the next sibling
//   - Redelegate(h): evaluate h against the same message and context
//   - Value(v): a terminal response; evaluation stops here
//
// Terminal values are usually strings, nested []any messages, or a Response
// carrying a Dialog for the next turn (see Conversation).
//
// # Example
//
//	math := handler.Must(handler.NewCommand(handler.CommandOptions{
//		Name:        "math",
//		Description: "Math-related commands.",
//		IsParent:    true,
//	}, addCommand, multiplyCommand))
//
//	res, err := handler.Evaluate(ctx, math, "math help add")
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keepmind9/chatter/pkg/args"
)

var (
	// ErrInvalidHandler is returned for nil handlers or sets containing them.
	ErrInvalidHandler = errors.New("message handler must be a function, an object with a HandleMessage method, or a set of those")
	// ErrMissingOption is returned by constructors when a required option is absent.
	ErrMissingOption = errors.New("missing required option")
	// ErrMissingHandler is returned by constructors given no child handlers.
	ErrMissingHandler = errors.New("missing required message handler(s)")
	// ErrInvalidMatch is returned at handling time for an unsupported Match option.
	ErrInvalidMatch = errors.New("invalid match option format")
	// ErrInvalidMessage is returned when a message cannot be read as text.
	ErrInvalidMessage = errors.New("message is not text")
)

// Message is the unit of conversational input. It is a string unless a
// Parser has replaced it with *args.Parsed.
type Message any

// Handler processes a message and its extra context.
type Handler interface {
	HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error)
}

// Func adapts a plain function to the Handler interface.
type Func func(ctx context.Context, msg Message, extra ...any) (Result, error)

// HandleMessage calls f.
func (f Func) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	return f(ctx, msg, extra...)
}

// TextFunc adapts a function that only needs the message text. Returning ""
// with ok false means no match.
func TextFunc(fn func(text string) (string, bool)) Func {
	return func(_ context.Context, msg Message, _ ...any) (Result, error) {
		text, err := Text(msg)
		if err != nil {
			return NoMatch(), err
		}
		out, ok := fn(text)
		if !ok {
			return NoMatch(), nil
		}
		return Value(out), nil
	}
}

// Set is an ordered, possibly nested, sequence of handlers.
type Set []Handler

// HandleMessage evaluates the members of s in order.
func (s Set) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	return Evaluate(ctx, s, msg, extra...)
}

// Stateful is implemented by handlers that hold per-conversation state and
// must be cached by their owner rather than recreated on every message.
type Stateful interface {
	IsStateful() bool
}

// IsStateful reports whether h declares itself stateful.
func IsStateful(h Handler) bool {
	s, ok := h.(Stateful)
	return ok && s.IsStateful()
}

type resultKind int

const (
	kindNoMatch resultKind = iota
	kindRedelegate
	kindValue
)

// Result is the outcome of a single handler invocation.
type Result struct {
	kind    resultKind
	handler Handler
	value   any
}

// NoMatch declines the message.
func NoMatch() Result {
	return Result{kind: kindNoMatch}
}

// Redelegate continues evaluation of the same message with h.
func Redelegate(h Handler) Result {
	return Result{kind: kindRedelegate, handler: h}
}

// Value ends evaluation with a terminal response.
func Value(v any) Result {
	return Result{kind: kindValue, value: v}
}

// Reply ends evaluation with a multi-line message built from parts.
func Reply(parts ...any) Result {
	if len(parts) == 1 {
		return Value(parts[0])
	}
	return Value(parts)
}

// IsMatch reports whether r is anything other than NoMatch.
func (r Result) IsMatch() bool {
	return r.kind != kindNoMatch
}

// IsValue reports whether r is a terminal value.
func (r Result) IsValue() bool {
	return r.kind == kindValue
}

// Handler returns the redelegation target, or nil.
func (r Result) Handler() Handler {
	return r.handler
}

// Value returns the terminal value, or nil.
func (r Result) Value() any {
	return r.value
}

func (r Result) String() string {
	switch r.kind {
	case kindRedelegate:
		return fmt.Sprintf("Redelegate(%T)", r.handler)
	case kindValue:
		return fmt.Sprintf("Value(%v)", r.value)
	default:
		return "NoMatch"
	}
}

// Validate checks that h is a usable handler: non-nil, and for sets, made up
// only of valid members.
func Validate(h Handler) error {
	switch v := h.(type) {
	case nil:
		return ErrInvalidHandler
	case Func:
		if v == nil {
			return ErrInvalidHandler
		}
	case Set:
		for i, member := range v {
			if err := Validate(member); err != nil {
				return fmt.Errorf("set member %d: %w", i, err)
			}
		}
	}
	return nil
}

// Evaluate runs msg through h.
//
// Sets are evaluated member by member in declared order. A member returning
// Redelegate has the returned handler evaluated in its place, a member
// returning NoMatch yields to the next one, and the first terminal Value wins.
// Errors from any handler are returned unchanged.
func Evaluate(ctx context.Context, h Handler, msg Message, extra ...any) (Result, error) {
	if err := Validate(h); err != nil {
		return NoMatch(), err
	}
	return evaluate(ctx, h, msg, extra)
}

func evaluate(ctx context.Context, h Handler, msg Message, extra []any) (Result, error) {
	set, ok := h.(Set)
	if !ok {
		return settle(ctx, h, msg, extra)
	}

	for _, member := range set {
		if err := ctx.Err(); err != nil {
			return NoMatch(), err
		}
		res, err := evaluate(ctx, member, msg, extra)
		if err != nil {
			return NoMatch(), err
		}
		if res.IsMatch() {
			return res, nil
		}
	}
	return NoMatch(), nil
}

// settle invokes h and follows redelegations until a NoMatch or a Value.
func settle(ctx context.Context, h Handler, msg Message, extra []any) (Result, error) {
	res, err := h.HandleMessage(ctx, msg, extra...)
	if err != nil {
		return NoMatch(), err
	}
	if res.kind != kindRedelegate {
		return res, nil
	}
	if err := Validate(res.handler); err != nil {
		return NoMatch(), fmt.Errorf("redelegation from %T: %w", h, err)
	}
	return evaluate(ctx, res.handler, msg, extra)
}

// Text returns the textual form of msg: the string itself, or the original
// input of a parsed message. A nil message is empty text.
func Text(msg Message) (string, error) {
	switch v := msg.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case *args.Parsed:
		if v == nil {
			return "", nil
		}
		return v.Input, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return "", fmt.Errorf("%w: %T", ErrInvalidMessage, msg)
}

// childrenOf resolves the handler given in an options struct and the trailing
// children argument into a single validated handler.
func childrenOf(component string, opt Handler, rest []Handler) (Handler, error) {
	var h Handler
	switch {
	case opt != nil && len(rest) > 0:
		return nil, fmt.Errorf("%s: handler given both as option and as children", component)
	case opt != nil:
		h = opt
	case len(rest) == 1:
		h = rest[0]
	case len(rest) > 1:
		h = Set(rest)
	default:
		return nil, fmt.Errorf("%s: %w", component, ErrMissingHandler)
	}
	if err := Validate(h); err != nil {
		return nil, fmt.Errorf("%s: %w", component, err)
	}
	return h, nil
}

// Must panics if err is non-nil. It simplifies building static handler trees.
func Must[T Handler](h T, err error) T {
	if err != nil {
		panic(err)
	}
	return h
}

func missing(component, option string) error {
	return fmt.Errorf("%s: %w %q", component, ErrMissingOption, option)
}

func lowerFields(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
