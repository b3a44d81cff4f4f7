package yamlsplice

import (
	"errors"
	"testing"

	gyaml "github.com/goccy/go-yaml"
	"github.com/stretchr/testify/require"
)

func TestFormatScalar(t *testing.T) {
	tests := []struct {
		literal string
		style   ScalarStyle
		want    string
	}{
		{"baz", StyleNone, "baz"},
		{"baz", StyleDouble, `"baz"`},
		{"baz", StyleSingle, "'baz'"},
		// Literals are emitted verbatim, no escaping.
		{`a"b`, StyleDouble, `"a"b"`},
		// A pre-quoted literal keeps its own quotes.
		{"'baz'", StyleDouble, "'baz'"},
		{`"baz"`, StyleNone, `"baz"`},
		{"", StyleDouble, `""`},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatScalar(tt.literal, tt.style), "%q in %s", tt.literal, tt.style)
	}
}

func TestRenderStringYAMLBareWhenSafe(t *testing.T) {
	tests := map[string]string{
		"hello":       "hello",
		"hello world": "hello world",
		"true":        `"true"`,
		"null":        `"null"`,
		"123":         `"123"`,
		"":            `""`,
		"a: b":        `"a: b"`,
		"- x":         `"- x"`,
		" padded":     `" padded"`,
		"line\nbreak": `"line\nbreak"`,
		"#comment":    `"#comment"`,
	}
	for in, want := range tests {
		got := renderString(in, StyleNone, FormatYAML)
		require.Equal(t, want, got, in)

		// Whatever we emit must read back as the same string.
		var back map[string]string
		require.NoError(t, gyaml.Unmarshal([]byte("k: "+got), &back), got)
		require.Equal(t, in, back["k"], got)
	}
}

func TestRenderStringQuotedStyles(t *testing.T) {
	require.Equal(t, `"it's"`, renderString("it's", StyleDouble, FormatYAML))
	require.Equal(t, `'it''s'`, renderString("it's", StyleSingle, FormatYAML))
	require.Equal(t, `"a\nb"`, renderString("a\nb", StyleSingle, FormatYAML))
	require.Equal(t, `"<tag> & \"q\""`, renderString(`<tag> & "q"`, StyleNone, FormatJSON))
}

func TestRenderNumber(t *testing.T) {
	for _, n := range []Number{"0", "-1", "3.25", "1e9", "-2.5E-3"} {
		got, err := renderNumber(n, FormatJSON)
		require.NoError(t, err)
		require.Equal(t, string(n), got)
	}

	got, err := renderNumber("0x1F", FormatYAML)
	require.NoError(t, err)
	require.Equal(t, "0x1F", got)

	for _, n := range []Number{"0x1F", "01", "1.", "abc", ""} {
		_, err := renderNumber(n, FormatJSON)
		if !errors.Is(err, ErrSerialization) {
			t.Fatalf("%q: expected ErrSerialization, got %v", n, err)
		}
	}
}

func TestRenderScalarKinds(t *testing.T) {
	for fix, want := range map[Fix]string{
		Bool(true):   "true",
		Bool(false):  "false",
		Null{}:       "null",
		Int(-7):      "-7",
		Float(0.5):   "0.5",
		String("ok"): "ok",
	} {
		got, err := renderScalar(fix, StyleNone, FormatYAML)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := renderScalar(Mapping{}, StyleNone, FormatYAML)
	require.ErrorIs(t, err, ErrSerialization)
}
