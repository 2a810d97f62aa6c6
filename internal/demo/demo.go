// Package demo builds the handler tree served by the chatter CLI.
package demo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/keepmind9/chatter/internal/bot"
	"github.com/keepmind9/chatter/pkg/args"
	"github.com/keepmind9/chatter/pkg/handler"
)

// ErrWhoops is returned by the "whoops" command. Its text is shown to chat
// users verbatim through the error template.
var ErrWhoops = errors.New("Whoops error.")

// NewHandler returns a fresh conversation for one conversation id.
func NewHandler(string) (handler.Handler, error) {
	parent, err := newParent()
	if err != nil {
		return nil, err
	}
	whoops, err := handler.NewMatcher(handler.MatcherOptions{
		Match: "whoops",
		Handler: handler.Func(func(context.Context, handler.Message, ...any) (handler.Result, error) {
			return handler.NoMatch(), ErrWhoops
		}),
	})
	if err != nil {
		return nil, err
	}
	shout, err := newShout()
	if err != nil {
		return nil, err
	}
	mathCmd, err := NewMathCommand()
	if err != nil {
		return nil, err
	}
	return handler.NewConversation(parent, mathCmd, shout, whoops)
}

// userOf returns the sender of the chat message passed as extra context.
func userOf(extra []any) string {
	for _, e := range extra {
		if msg, ok := e.(bot.Message); ok {
			return msg.UserID
		}
	}
	return "someone"
}

func newParent() (*handler.Matcher, error) {
	parse, err := handler.NewMatcher(handler.MatcherOptions{Match: "parse"},
		handler.Must(handler.NewParser(handler.ParserOptions{
			ParseOptions: args.Spec{"verbose": args.Boolean},
		}, handler.ParsedFunc(func(_ context.Context, p *args.Parsed, extra ...any) (handler.Result, error) {
			reply := fmt.Sprintf("parseHandler received <%s> from %s.", strings.Join(p.Remain, "> <"), userOf(extra))
			if p.Bool("verbose") {
				return handler.Reply(reply, p.Errors), nil
			}
			return handler.Value(reply), nil
		}))),
	)
	if err != nil {
		return nil, err
	}

	message, err := handler.NewMatcher(handler.MatcherOptions{
		Match: "message",
		Handler: handler.Func(func(_ context.Context, msg handler.Message, extra ...any) (handler.Result, error) {
			text, err := handler.Text(msg)
			if err != nil {
				return handler.NoMatch(), err
			}
			return handler.Value(fmt.Sprintf("messageHandler received %q from %s.", text, userOf(extra))), nil
		}),
	})
	if err != nil {
		return nil, err
	}

	ask, err := handler.NewMatcher(handler.MatcherOptions{
		Match: "ask",
		Handler: handler.Func(func(_ context.Context, _ handler.Message, extra ...any) (handler.Result, error) {
			return handler.Value(handler.Response{
				Message: fmt.Sprintf("Why do you want me to ask you a question, %s?", userOf(extra)),
				Dialog:  handler.Func(reasonDialog),
			}), nil
		}),
	})
	if err != nil {
		return nil, err
	}

	choose, err := handler.NewMatcher(handler.MatcherOptions{
		Match: "choose",
		Handler: handler.Func(func(_ context.Context, _ handler.Message, extra ...any) (handler.Result, error) {
			return handler.Value(handler.Response{
				Message: fmt.Sprintf("Choose one of the following, %s: a, b, c or exit.", userOf(extra)),
				Dialog:  Choices([]string{"a", "b", "c"}, thankChoice),
			}), nil
		}),
	})
	if err != nil {
		return nil, err
	}

	fallback := handler.Func(func(_ context.Context, msg handler.Message, extra ...any) (handler.Result, error) {
		text, err := handler.Text(msg)
		if err != nil {
			return handler.NoMatch(), err
		}
		return handler.Value(fmt.Sprintf("Parent fallback received %q from %s.", text, userOf(extra))), nil
	})

	return handler.NewMatcher(handler.MatcherOptions{Match: "parent"}, parse, message, ask, choose, fallback)
}

func reasonDialog(_ context.Context, msg handler.Message, extra ...any) (handler.Result, error) {
	text, err := handler.Text(msg)
	if err != nil {
		return handler.NoMatch(), err
	}
	return handler.Value(fmt.Sprintf("I'm not sure %q is a good reason, %s.", text, userOf(extra))), nil
}

func thankChoice(choice string) any {
	return fmt.Sprintf("Thank you for choosing %q.", choice)
}

// Choices returns a dialog accepting one of choices or "exit". Any other
// reply repeats the dialog.
func Choices(choices []string, onChoice func(choice string) any) handler.Handler {
	exit := handler.Must(handler.NewMatcher(handler.MatcherOptions{
		Match:   "exit",
		Handler: handler.TextFunc(func(string) (string, bool) { return "Choose aborted.", true }),
	}))
	pick := handler.Func(func(_ context.Context, msg handler.Message, _ ...any) (handler.Result, error) {
		text, err := handler.Text(msg)
		if err != nil {
			return handler.NoMatch(), err
		}
		choice := strings.ToLower(strings.TrimSpace(text))
		if !slices.Contains(choices, choice) {
			return handler.NoMatch(), nil
		}
		return handler.Value(onChoice(choice)), nil
	})
	retry := handler.Func(func(_ context.Context, msg handler.Message, _ ...any) (handler.Result, error) {
		text, err := handler.Text(msg)
		if err != nil {
			return handler.NoMatch(), err
		}
		return handler.Value(handler.Response{
			Message: fmt.Sprintf("I'm sorry, but %q is an invalid choice, please try again.", text),
			Dialog:  Choices(choices, onChoice),
		}), nil
	})
	return handler.Set{exit, pick, retry}
}

// newShout echoes its text upper-cased.
func newShout() (*handler.Matcher, error) {
	upper, err := handler.NewArgsAdjuster(handler.ArgsAdjusterOptions{
		AdjustArgs: func(msg handler.Message, extra []any) (handler.Message, []any, error) {
			text, err := handler.Text(msg)
			if err != nil {
				return nil, nil, err
			}
			return strings.ToUpper(text), extra, nil
		},
	}, handler.TextFunc(func(text string) (string, bool) {
		return text + "!", text != ""
	}))
	if err != nil {
		return nil, err
	}
	return handler.NewMatcher(handler.MatcherOptions{Match: "shout"}, upper)
}

// NewMathCommand returns the "math" parent command with "add" and
// "multiply" sub-commands.
func NewMathCommand() (*handler.Command, error) {
	add, err := numbersCommand("add", "Adds some numbers.", " + ", 0, func(acc, n float64) float64 { return acc + n })
	if err != nil {
		return nil, err
	}
	multiply, err := numbersCommand("multiply", "Multiplies some numbers.", " x ", 1, func(acc, n float64) float64 { return acc * n })
	if err != nil {
		return nil, err
	}
	return handler.NewCommand(handler.CommandOptions{
		Name:        "math",
		Description: "Math-related commands.",
		IsParent:    true,
	}, add, multiply)
}

func numbersCommand(name, description, sep string, start float64, fold func(acc, n float64) float64) (*handler.Command, error) {
	parser, err := handler.NewParser(handler.ParserOptions{}, handler.ParsedFunc(
		func(_ context.Context, p *args.Parsed, _ ...any) (handler.Result, error) {
			if len(p.Remain) == 0 {
				return handler.NoMatch(), nil
			}
			result := start
			for _, s := range p.Remain {
				result = fold(result, args.Number(s).(float64))
			}
			if math.IsNaN(result) {
				return handler.Value("Whoops! Are you sure those were all numbers?"), nil
			}
			return handler.Value(fmt.Sprintf("%s = %s", strings.Join(p.Remain, sep), strconv.FormatFloat(result, 'f', -1, 64))), nil
		}))
	if err != nil {
		return nil, err
	}
	return handler.NewCommand(handler.CommandOptions{
		Name:        name,
		Description: description,
		Usage:       "number [ number [ number ... ] ]",
	}, parser)
}
