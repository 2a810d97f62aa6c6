package args

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTokens_UsesInputSliceAsIs(t *testing.T) {
	p := ParseTokens([]string{"a", "b", "c"}, nil)
	assert.Equal(t, map[string]any{}, p.Options)
	assert.Equal(t, []string{"a", "b", "c"}, p.Remain)
	assert.Empty(t, p.Errors)
}

func TestParseTokens_DoesNotMutateInput(t *testing.T) {
	tokens := []string{`"a`, `b"`, "c=1"}
	before := &tokens[0]
	ParseTokens(tokens, Spec{"c": Number})
	assert.Equal(t, []string{`"a`, `b"`, "c=1"}, tokens)
	assert.Same(t, before, &tokens[0])
}

func TestParse_RoundTripsPlainTokens(t *testing.T) {
	for _, tokens := range [][]string{
		{"a", "b", "c"},
		{"hello"},
		{"one", "two", "three", "four"},
	} {
		assert.Equal(t, tokens, ParseTokens(tokens, nil).Remain)
	}
}

func TestParse_SplitsOnWhitespace(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c", "d"}, Parse(" a b  c   d    ", nil).Remain)
	assert.Equal(t, []string{"a", "b", "c", "d"}, Parse("a\tb\n c d", nil).Remain)
	assert.Equal(t, []string{}, Parse("   ", nil).Remain)
}

func TestParse_QuotedArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`'a b c'`, []string{"a b c"}},
		{`'a' b c`, []string{"a", "b", "c"}},
		{`a 'b' c`, []string{"a", "b", "c"}},
		{`a b 'c'`, []string{"a", "b", "c"}},
		{`'a b' c`, []string{"a b", "c"}},
		{`a 'b c'`, []string{"a", "b c"}},
		{`"a b c"`, []string{"a b c"}},
		{`"a" b c`, []string{"a", "b", "c"}},
		{`"a b" c`, []string{"a b", "c"}},
		{`a "b c"`, []string{"a", "b c"}},
		{`"'a b c'"`, []string{"'a b c'"}},
		{`"a 'b' c"`, []string{"a 'b' c"}},
		{`"a 'b c"`, []string{"a 'b c"}},
		{`"'a b" "'c'"`, []string{"'a b", "'c'"}},
		{`'"a b c"'`, []string{`"a b c"`}},
		{`'a "b" c'`, []string{`a "b" c`}},
		{`'a "b c'`, []string{`a "b c`}},
		{`'"a b' '"c"'`, []string{`"a b`, `"c"`}},
		{`'unterminated quote`, []string{`'unterminated`, "quote"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.input, nil).Remain)
		})
	}
}

func TestParse_Options(t *testing.T) {
	spec := Spec{"foo": String, "bar": Boolean, "baz": Number}
	want := map[string]any{"foo": "1", "bar": true, "baz": float64(1)}

	for _, input := range []string{
		`a b c d foo=1 bar=1 baz=1`,
		`a foo=1 b bar=1 c baz=1 d`,
		`bar=1 a baz=1 b c foo=1 d`,
		`a b c d Foo=1 bAr=1 baZ=1`,
	} {
		p := Parse(input, spec)
		assert.Equal(t, want, p.Options, input)
		assert.Equal(t, []string{"a", "b", "c", "d"}, p.Remain, input)
	}

	p := Parse(`a b c d foo="" bar="" baz=""`, spec)
	assert.Equal(t, map[string]any{"foo": "", "bar": false, "baz": float64(0)}, p.Options)

	p = Parse(`a b c d foo=" " bar=" " baz=" "`, spec)
	assert.Equal(t, map[string]any{"foo": " ", "bar": true, "baz": float64(0)}, p.Options)

	p = Parse(`a b foo=" a b " baz="  123  "`, spec)
	assert.Equal(t, " a b ", p.Options["foo"])
	assert.Equal(t, float64(123), p.Options["baz"])

	p = Parse(`a foo="1 'b'" bar='1 c' baz="1 d" e`, spec)
	assert.Equal(t, "1 'b'", p.Options["foo"])
	assert.Equal(t, true, p.Options["bar"])
	assert.True(t, math.IsNaN(p.Options["baz"].(float64)))
	assert.Equal(t, []string{"a", "e"}, p.Remain)
}

func TestParse_UnknownOptions(t *testing.T) {
	p := Parse(`a b c foo=1 bar=1 baz=1`, Spec{"foo": String, "bar": Boolean})
	assert.Equal(t, map[string]any{"foo": "1", "bar": true}, p.Options)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, `Unknown option "baz" specified.`, p.Errors[0])
	assert.Equal(t, []string{"a", "b", "c"}, p.Remain)
}

func TestParse_Abbreviations(t *testing.T) {
	spec := Spec{"foo": String, "barf": Boolean, "bazz": Number}

	assert.Equal(t, map[string]any{"foo": "1"}, Parse(`f=1`, spec).Options)

	p := Parse(`f=1 b=1`, spec)
	assert.Equal(t, map[string]any{"foo": "1"}, p.Options)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, `Ambiguous option "b" specified (matches: barf, bazz).`, p.Errors[0])

	p = Parse(`f=1 ba=1`, spec)
	assert.Equal(t, map[string]any{"foo": "1"}, p.Options)
	require.Len(t, p.Errors, 1)
	assert.Contains(t, p.Errors[0], `"ba"`)

	assert.Equal(t, map[string]any{"foo": "1", "barf": true}, Parse(`f=1 bar=1`, spec).Options)
	assert.Equal(t, map[string]any{"foo": "1", "barf": true}, Parse(`F=1 bAR=1`, spec).Options)
}

func TestParse_ExactKeyWithLongerPrefixIsAmbiguous(t *testing.T) {
	p := Parse(`bar=x`, Spec{"bar": String, "barf": String})
	assert.Empty(t, p.Options)
	assert.Equal(t, []string{`Ambiguous option "bar" specified (matches: bar, barf).`}, p.Errors)

	p = Parse(`a=1 rest`, Spec{"a": Number, "ab": Number})
	assert.Empty(t, p.Options)
	assert.Equal(t, []string{`Ambiguous option "a" specified (matches: a, ab).`}, p.Errors)
	assert.Equal(t, []string{"rest"}, p.Remain)
}

func TestParse_FullyQuotedOptions(t *testing.T) {
	spec := Spec{"a": String, "x": String}

	p := Parse(`"a=b" c`, spec)
	assert.Equal(t, map[string]any{"a": "b"}, p.Options)
	assert.Equal(t, []string{"c"}, p.Remain)

	p = Parse(`'x=1 2' y`, spec)
	assert.Equal(t, map[string]any{"x": "1 2"}, p.Options)
	assert.Equal(t, []string{"y"}, p.Remain)

	p = Parse(`"z=1"`, nil)
	assert.Empty(t, p.Remain)
	assert.Equal(t, []string{`Unknown option "z" specified.`}, p.Errors)
}

func TestParse_QuotedOptions(t *testing.T) {
	spec := Spec{"a": String, "d": String}
	assert.Equal(t, map[string]any{"a": "b", "d": "f"}, Parse(`a="b" c d='f'`, spec).Options)
	assert.Equal(t, map[string]any{"a": "b c", "d": "f"}, Parse(`a="b c" d=f`, spec).Options)
	assert.Equal(t, map[string]any{"a": "'b' c d=f"}, Parse(`a="'b' c d=f"`, spec).Options)
	assert.Equal(t, map[string]any{"a": "'b c d=f'"}, Parse(`a="'b c d=f'"`, spec).Options)
	assert.Equal(t, map[string]any{"a": "b=c", "d": "f"}, Parse(`a=b=c d=f`, spec).Options)
}

func TestParse_CrazyExample(t *testing.T) {
	input := `foo 'bar baz' a=123 b="x y z = 456" "can't wait"`
	p := Parse(input, Spec{"aaa": Number, "bbb": String})

	assert.Equal(t, &Parsed{
		Options: map[string]any{"aaa": float64(123), "bbb": "x y z = 456"},
		Remain:  []string{"foo", "bar baz", "can't wait"},
		Errors:  []string{},
		Input:   input,
	}, p)
}

func TestParse_Scenario(t *testing.T) {
	input := `a "b c" d=1`
	p := Parse(input, Spec{"d": Number})

	assert.Equal(t, map[string]any{"d": float64(1)}, p.Options)
	assert.Equal(t, []string{"a", "b c"}, p.Remain)
	assert.Empty(t, p.Errors)
	assert.Equal(t, input, p.Input)
}

func TestParse_LeadingEqualsIsPositional(t *testing.T) {
	p := Parse(`=x = y`, Spec{"x": String})
	assert.Equal(t, []string{"=x", "=", "y"}, p.Remain)
	assert.Empty(t, p.Errors)
}

func TestCoercions(t *testing.T) {
	assert.Equal(t, "  v ", String("  v "))
	assert.Equal(t, float64(-2.5), Number(" -2.5 "))
	assert.Equal(t, float64(0), Number(""))
	assert.True(t, math.IsNaN(Number("abc").(float64)))
	assert.Equal(t, true, Boolean("0"))
	assert.Equal(t, false, Boolean(""))
}

func TestParsed_Accessors(t *testing.T) {
	p := Parse(`n=42.9 s=hi flag=yes`, Spec{"n": Number, "s": String, "flag": Boolean, "unset": String})

	assert.True(t, p.Has("n"))
	assert.False(t, p.Has("unset"))
	assert.Equal(t, 42.9, p.Float("n"))
	assert.Equal(t, 42, p.Int("n"))
	assert.Equal(t, "hi", p.String("s"))
	assert.True(t, p.Bool("flag"))
	assert.False(t, p.Bool("unset"))
	assert.Equal(t, "", p.String("unset"))
}
