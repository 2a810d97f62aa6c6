// Package args parses lines of chat into positional arguments and typed
// key=value options.
//
// Example:
//
//	args.Parse(`foo 'bar baz' a=123 b="x y z = 456" "can't wait"`,
//		args.Spec{"aaa": args.Number, "bbb": args.String})
//
// yields options {aaa: 123, bbb: "x y z = 456"} and remain
// ["foo", "bar baz", "can't wait"].
package args

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Coerce converts the raw text of an option value into its typed form.
type Coerce func(value string) any

// Spec maps canonical option names to their coercion functions.
type Spec map[string]Coerce

// Parsed is the tokenized form of a message.
type Parsed struct {
	Options map[string]any
	Remain  []string
	Errors  []string
	Input   string
}

// String passes the value through unchanged.
func String(value string) any {
	return value
}

// Number parses the value as a float64. Surrounding whitespace is ignored, an
// empty value is 0 and anything unparsable is NaN.
func Number(value string) any {
	s := strings.TrimSpace(value)
	if s == "" {
		return float64(0)
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// Boolean is true for any non-empty value.
func Boolean(value string) any {
	return value != ""
}

// Parse splits input on runs of whitespace and parses the resulting tokens.
// Input is preserved verbatim on the result.
func Parse(input string, spec Spec) *Parsed {
	p := ParseTokens(strings.Fields(input), spec)
	p.Input = input
	return p
}

// ParseTokens parses already split tokens. The tokens slice is never modified.
func ParseTokens(tokens []string, spec Spec) *Parsed {
	queue := make([]string, len(tokens))
	copy(queue, tokens)

	p := &Parsed{
		Options: make(map[string]any),
		Remain:  []string{},
		Errors:  []string{},
	}

	for len(queue) > 0 {
		arg, consumed := takeQuoted(queue)
		if consumed == 0 {
			arg, consumed = queue[0], 1
		}
		queue = queue[consumed:]

		if p.setOption(arg, spec) {
			continue
		}
		if arg != "" {
			p.Remain = append(p.Remain, arg)
		}
	}

	return p
}

// takeQuoted joins a quoted span starting at queue[0]. It returns the joined
// token with its enclosing quotes removed, the number of raw tokens consumed
// (0 when queue[0] does not open a terminated quote).
func takeQuoted(queue []string) (string, int) {
	first := queue[0]
	open := quoteStart(first)
	if open < 0 {
		return "", 0
	}
	quote := first[open]

	for i, tok := range queue {
		body := tok
		if i == 0 {
			body = tok[open+1:]
		}
		if !endsWithQuote(body, quote) {
			continue
		}
		joined := strings.Join(queue[:i+1], " ")
		// Drop the closing quote, then the opening one.
		joined = joined[:len(joined)-1]
		joined = joined[:open] + joined[open+1:]
		return joined, i + 1
	}
	return "", 0
}

// quoteStart returns the index of an opening quote at the start of tok or
// directly after its first "=", or -1.
func quoteStart(tok string) int {
	if tok == "" {
		return -1
	}
	if isQuote(tok[0]) {
		return 0
	}
	if eq := strings.IndexByte(tok, '='); eq > 0 && eq+1 < len(tok) && isQuote(tok[eq+1]) {
		return eq + 1
	}
	return -1
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"'
}

func endsWithQuote(s string, quote byte) bool {
	n := len(s)
	if n == 0 || s[n-1] != quote {
		return false
	}
	return n < 2 || s[n-2] != '\\'
}

// setOption records arg as an option if it has the key=value shape. It
// reports whether arg was consumed as an option, even when it was rejected as
// unknown or ambiguous.
func (p *Parsed) setOption(arg string, spec Spec) bool {
	key, value, ok := strings.Cut(arg, "=")
	if !ok || key == "" {
		return false
	}

	matches := matchKeys(key, spec)
	switch len(matches) {
	case 1:
		name := matches[0]
		p.Options[name] = spec[name](value)
	case 0:
		p.Errors = append(p.Errors, fmt.Sprintf("Unknown option %q specified.", key))
	default:
		p.Errors = append(p.Errors, fmt.Sprintf("Ambiguous option %q specified (matches: %s).",
			key, strings.Join(matches, ", ")))
	}
	return true
}

// matchKeys returns the spec keys that key abbreviates, case-insensitively.
func matchKeys(key string, spec Spec) []string {
	lower := strings.ToLower(key)
	var matches []string
	for name := range spec {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	return matches
}

// Has reports whether option name was set.
func (p *Parsed) Has(name string) bool {
	_, ok := p.Options[name]
	return ok
}

// String returns option name as a string, or "" if unset.
func (p *Parsed) String(name string) string {
	return cast.ToString(p.Options[name])
}

// Float returns option name as a float64, or 0 if unset or not numeric.
func (p *Parsed) Float(name string) float64 {
	return cast.ToFloat64(p.Options[name])
}

// Int returns option name truncated to an int.
func (p *Parsed) Int(name string) int {
	f := p.Float(name)
	if math.IsNaN(f) {
		return 0
	}
	return int(f)
}

// Bool returns option name as a bool, or false if unset.
func (p *Parsed) Bool(name string) bool {
	return cast.ToBool(p.Options[name])
}
