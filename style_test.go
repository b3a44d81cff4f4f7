package yamlsplice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInspectScalar(t *testing.T) {
	tests := []struct {
		text string
		want ScalarStyle
	}{
		{"bar", StyleNone},
		{"42", StyleNone},
		{`"bar"`, StyleDouble},
		{`"say \"hi\""`, StyleDouble},
		{"'bar'", StyleSingle},
		{"'it''s'", StyleSingle},
		{"", StyleNone},
	}
	for _, tt := range tests {
		src := []byte(tt.text)
		got, err := InspectScalar(src, Span{0, len(src)})
		require.NoError(t, err, tt.text)
		require.Equal(t, tt.want, got, tt.text)
	}
}

func TestInspectScalarUnsupported(t *testing.T) {
	for _, text := range []string{`"open`, `'mixed"`, "|\n  block", ">-\n  folded", `"`} {
		src := []byte(text)
		_, err := InspectScalar(src, Span{0, len(src)})
		if !errors.Is(err, ErrUnsupportedStyle) {
			t.Fatalf("%q: expected ErrUnsupportedStyle, got %v", text, err)
		}
	}
}

func TestCollectionStyle(t *testing.T) {
	doc := mustParse(t, "block:\n  a: 1\nflow: {a: 1}\nlist: [1]\nitems:\n  - 1\nempty:\n", FormatYAML)
	for ptr, want := range map[string]CollectionStyle{
		"/block": StyleBlock,
		"/flow":  StyleFlow,
		"/list":  StyleFlow,
		"/items": StyleBlock,
		"/empty": StyleBlock,
	} {
		n, err := doc.Lookup(ptr)
		require.NoError(t, err)
		require.Equal(t, want, doc.CollectionStyle(n), ptr)
	}
}

func TestCollectionStyleJSON(t *testing.T) {
	doc := mustParse(t, "{\"a\": {}, \"b\": []}", FormatJSON)
	for _, ptr := range []string{"", "/a", "/b"} {
		n, err := doc.Lookup(ptr)
		require.NoError(t, err)
		require.Equal(t, StyleFlow, doc.CollectionStyle(n), ptr)
	}
}

func TestScalarAndKeyStyle(t *testing.T) {
	doc := mustParse(t, "'k': \"v\"\nplain: x\n", FormatYAML)
	n, err := doc.Lookup("/k")
	require.NoError(t, err)

	ks, err := doc.KeyStyle(n)
	require.NoError(t, err)
	require.Equal(t, StyleSingle, ks)

	vs, err := doc.ScalarStyle(n)
	require.NoError(t, err)
	require.Equal(t, StyleDouble, vs)

	_, err = doc.ScalarStyle(doc.Root())
	require.ErrorIs(t, err, ErrUnsupportedStyle)
	_, err = doc.KeyStyle(doc.Root())
	require.ErrorIs(t, err, ErrInvalidPointer)
}

func TestSiblingPrefs(t *testing.T) {
	doc := mustParse(t, "m:\n  a: plain\n  'b': \"quoted\"\n  c: 3\nl:\n  - 'one'\n  - two\n", FormatYAML)

	m, err := doc.Lookup("/m")
	require.NoError(t, err)
	require.Equal(t, stylePrefs{key: StyleNone, str: StyleDouble}, doc.siblingPrefs(m))

	l, err := doc.Lookup("/l")
	require.NoError(t, err)
	require.Equal(t, stylePrefs{key: StyleNone, str: StyleSingle}, doc.siblingPrefs(l))

	jdoc := mustParse(t, `{"a": 1}`, FormatJSON)
	require.Equal(t, stylePrefs{key: StyleDouble, str: StyleDouble}, jdoc.siblingPrefs(jdoc.Root()))
}
