package handler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedResponse is returned when a terminal value cannot be turned
// into text.
var ErrUnsupportedResponse = errors.New("unsupported response value")

// Response is a structured terminal value.
//
// Message is delivered as one text. Each entry of Messages is delivered as a
// separate text after it. Dialog, when set on a value returned through a
// Conversation, receives the next message of that conversation.
type Response struct {
	Message  any
	Messages []any
	Dialog   Handler
}

func asResponse(v any) (Response, bool) {
	switch r := v.(type) {
	case Response:
		return r, true
	case *Response:
		if r == nil {
			return Response{}, false
		}
		return *r, true
	}
	return Response{}, false
}

// IsMessage reports whether v is a message: a string, a number, nil, false,
// or a slice nesting only those.
func IsMessage(v any) bool {
	_, err := flatten(v, nil)
	return err == nil
}

// NormalizeMessage flattens a message, drops nil, false and empty entries and
// joins the rest on newlines.
func NormalizeMessage(v any) (string, error) {
	parts, err := flatten(v, nil)
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}

// NormalizeResponse turns a terminal value into zero or more texts ready for
// delivery. Empty texts are omitted.
func NormalizeResponse(v any) ([]string, error) {
	resp, ok := asResponse(v)
	if !ok {
		resp = Response{Message: v}
	}

	var out []string
	add := func(m any) error {
		text, err := NormalizeMessage(m)
		if err != nil {
			return err
		}
		if text != "" {
			out = append(out, text)
		}
		return nil
	}

	if err := add(resp.Message); err != nil {
		return nil, err
	}
	for _, m := range resp.Messages {
		if err := add(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func flatten(v any, acc []string) ([]string, error) {
	switch m := v.(type) {
	case nil:
		return acc, nil
	case bool:
		if m {
			return nil, fmt.Errorf("%w: true", ErrUnsupportedResponse)
		}
		return acc, nil
	case string:
		if m == "" {
			return acc, nil
		}
		return append(acc, m), nil
	case []string:
		for _, s := range m {
			if s != "" {
				acc = append(acc, s)
			}
		}
		return acc, nil
	case []any:
		var err error
		for _, item := range m {
			if acc, err = flatten(item, acc); err != nil {
				return nil, err
			}
		}
		return acc, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return append(acc, fmt.Sprint(m)), nil
	case fmt.Stringer:
		return append(acc, m.String()), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedResponse, v)
}
