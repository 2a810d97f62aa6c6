package handler

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// MatchFunc tests a message and returns the remainder to pass on.
type MatchFunc func(message string, extra ...any) (remainder string, ok bool)

// MatcherOptions configures a Matcher.
//
// Match is a string, a *regexp.Regexp or a MatchFunc. Handler may be given
// here instead of as trailing children.
type MatcherOptions struct {
	Match   any
	Handler Handler
}

// Matcher runs its children only for messages that match, passing the
// matched remainder on in place of the message.
type Matcher struct {
	match    any
	children Handler
}

// NewMatcher creates a Matcher.
func NewMatcher(opts MatcherOptions, children ...Handler) (*Matcher, error) {
	if opts.Match == nil {
		return nil, missing("matcher", "match")
	}
	h, err := childrenOf("matcher", opts.Handler, children)
	if err != nil {
		return nil, err
	}
	return &Matcher{match: opts.Match, children: h}, nil
}

// HandleMessage implements Handler.
func (m *Matcher) HandleMessage(ctx context.Context, msg Message, extra ...any) (Result, error) {
	text, err := Text(msg)
	if err != nil {
		return NoMatch(), err
	}
	remainder, ok, err := m.doMatch(text, extra)
	if err != nil || !ok {
		return NoMatch(), err
	}
	return Evaluate(ctx, m.children, remainder, extra...)
}

func (m *Matcher) doMatch(text string, extra []any) (string, bool, error) {
	switch match := m.match.(type) {
	case MatchFunc:
		rem, ok := match(text, extra...)
		return rem, ok, nil
	case func(string, ...any) (string, bool):
		rem, ok := match(text, extra...)
		return rem, ok, nil
	case string:
		rem, ok := MatchString(match, text)
		return rem, ok, nil
	case *regexp.Regexp:
		rem, ok := MatchRegexp(match, text)
		return rem, ok, nil
	}
	return "", false, fmt.Errorf("%w: %T", ErrInvalidMatch, m.match)
}

// MatchString matches a case-insensitive literal against the whole message or
// its leading whitespace-delimited words. The remainder has its leading
// whitespace removed. "foo" matches "foo" and "foo bar" but not "foobar".
func MatchString(literal, message string) (string, bool) {
	if len(message) < len(literal) || !strings.EqualFold(message[:len(literal)], literal) {
		return "", false
	}
	rest := message[len(literal):]
	if rest == "" {
		return "", true
	}
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(trimmed) == len(rest) {
		return "", false
	}
	return trimmed, true
}

// MatchRegexp tests message against re. The remainder is the first capture
// group that participated in the match, or "" when none did.
func MatchRegexp(re *regexp.Regexp, message string) (string, bool) {
	loc := re.FindStringSubmatchIndex(message)
	if loc == nil {
		return "", false
	}
	for i := 2; i+1 < len(loc); i += 2 {
		if loc[i] >= 0 {
			return message[loc[i]:loc[i+1]], true
		}
	}
	return "", true
}

// MatchStringOrRegexp dispatches to MatchString or MatchRegexp.
func MatchStringOrRegexp(match any, message string) (string, bool, error) {
	switch m := match.(type) {
	case string:
		rem, ok := MatchString(m, message)
		return rem, ok, nil
	case *regexp.Regexp:
		rem, ok := MatchRegexp(m, message)
		return rem, ok, nil
	}
	return "", false, fmt.Errorf("%w: %T", ErrInvalidMatch, match)
}
