package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/keepmind9/chatter/pkg/args"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParser_RequiresHandler(t *testing.T) {
	_, err := NewParser(ParserOptions{})
	assert.ErrorIs(t, err, ErrMissingHandler)
}

func TestParser_HandsParsedArgsToChildren(t *testing.T) {
	var got *args.Parsed
	var gotExtra []any
	p := Must(NewParser(ParserOptions{
		ParseOptions: args.Spec{"count": args.Number},
		Handler: Func(func(_ context.Context, msg Message, extra ...any) (Result, error) {
			got = msg.(*args.Parsed)
			gotExtra = extra
			return Value("ok"), nil
		}),
	}))

	res, err := p.HandleMessage(context.Background(), `a "b c" count=3`, "user")
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value())
	require.NotNil(t, got)
	assert.Equal(t, []string{"a", "b c"}, got.Remain)
	assert.Equal(t, map[string]any{"count": float64(3)}, got.Options)
	assert.Equal(t, `a "b c" count=3`, got.Input)
	assert.Empty(t, got.Errors)
	assert.Equal(t, []any{"user"}, gotExtra)
}

func TestParser_ChildrenAsSet(t *testing.T) {
	p := Must(NewParser(ParserOptions{},
		ParsedFunc(func(_ context.Context, parsed *args.Parsed, _ ...any) (Result, error) {
			if len(parsed.Remain) == 0 {
				return NoMatch(), nil
			}
			return Value(parsed.Remain[0]), nil
		}),
		value("fallback"),
	))

	res, err := p.HandleMessage(context.Background(), "first second")
	require.NoError(t, err)
	assert.Equal(t, "first", res.Value())

	res, err = p.HandleMessage(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "fallback", res.Value())
}

func TestParser_NestedMatcherSeesOriginalText(t *testing.T) {
	// A Matcher below a Parser matches against the parsed message's input.
	m := Must(NewMatcher(MatcherOptions{Match: "go"}, Func(echo)))
	p := Must(NewParser(ParserOptions{}, m))

	res, err := p.HandleMessage(context.Background(), "go now")
	require.NoError(t, err)
	assert.Equal(t, "now", res.Value())
}

func TestParser_PropagatesErrors(t *testing.T) {
	boom := errors.New("bad parse handler")
	p := Must(NewParser(ParserOptions{Handler: Func(func(context.Context, Message, ...any) (Result, error) {
		return NoMatch(), boom
	})}))

	_, err := p.HandleMessage(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestArgsAdjuster(t *testing.T) {
	_, err := NewArgsAdjuster(ArgsAdjusterOptions{}, Func(echo))
	assert.ErrorIs(t, err, ErrMissingOption)

	a := Must(NewArgsAdjuster(ArgsAdjusterOptions{
		AdjustArgs: func(msg Message, extra []any) (Message, []any, error) {
			text, _ := Text(msg)
			return text + "!", append([]any{"added"}, extra...), nil
		},
	}, Func(echo)))

	res, err := a.HandleMessage(context.Background(), "hey", "orig")
	require.NoError(t, err)
	assert.Equal(t, []any{"hey!", "added", "orig"}, res.Value())

	failing := Must(NewArgsAdjuster(ArgsAdjusterOptions{
		AdjustArgs: func(Message, []any) (Message, []any, error) {
			return nil, nil, errors.New("cannot adjust")
		},
	}, Func(echo)))
	_, err = failing.HandleMessage(context.Background(), "hey")
	assert.ErrorContains(t, err, "cannot adjust")
}
