package yamlsplice

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func TestReplaceScalarValue(t *testing.T) {
	doc := mustParse(t, "foo: bar", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/foo", Value: "baz"})
	require.NoError(t, err)
	require.Equal(t, "foo: baz", out)
}

func TestReplaceKey(t *testing.T) {
	doc := mustParse(t, "foo: bar", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/foo", Value: "boom", ReplaceKey: true})
	require.NoError(t, err)
	require.Equal(t, "boom: bar", out)
}

func TestReplaceValueAndKeyInOneBatch(t *testing.T) {
	doc := mustParse(t, `{"foo": "bar"}`, FormatJSON)
	out, err := Replace(doc,
		ReplaceRequest{Pointer: "/foo", Value: "baz"},
		ReplaceRequest{Pointer: "/foo", Value: "boom", ReplaceKey: true},
	)
	require.NoError(t, err)
	require.Equal(t, `{"boom": "baz"}`, out)
}

func TestReplaceInsideFlowMapping(t *testing.T) {
	doc := mustParse(t, `foo: {"bar": "baz"}`, FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/foo/bar", Value: "boom"})
	require.NoError(t, err)
	require.Equal(t, `foo: {"bar": "boom"}`, out)
}

func TestReplaceArrayElementTouchesOnlyElement(t *testing.T) {
	src := "tags: [ \"a\",  'b' , c ]\n"
	doc := mustParse(t, src, FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/tags/1", Value: "z"})
	require.NoError(t, err)
	require.Equal(t, "tags: [ \"a\",  'z' , c ]\n", out)

	out, err = Replace(doc, ReplaceRequest{Pointer: "/tags/2", Value: "d"})
	require.NoError(t, err)
	require.Equal(t, "tags: [ \"a\",  'b' , d ]\n", out)
}

func TestReplaceIdempotentNoOp(t *testing.T) {
	doc := mustParse(t, spanFixture, FormatYAML)
	var reqs []ReplaceRequest
	for _, ptr := range []string{"/name", "/port", "/tags/0", "/tags/1", "/env/0/name", "/env/0/value", "/nested/deep"} {
		n, err := doc.Lookup(ptr)
		require.NoError(t, err)
		text := doc.Slice(n.Span())
		reqs = append(reqs, ReplaceRequest{Pointer: ptr, Value: strings.Trim(text, `"'`)})
	}
	out, err := Replace(doc, reqs...)
	require.NoError(t, err)
	require.Equal(t, spanFixture, out)
}

func TestReplacePreservesQuoteStyle(t *testing.T) {
	src := "a: \"x\"\nb: 'y'\nc: true\nd: 5\n"
	doc := mustParse(t, src, FormatYAML)
	reqs := []ReplaceRequest{
		{Pointer: "/a", Value: "X"},
		{Pointer: "/b", Value: "Y"},
		{Pointer: "/c", Value: "false"},
		{Pointer: "/d", Value: "6"},
	}
	out, err := Replace(doc, reqs...)
	require.NoError(t, err)
	require.Equal(t, "a: \"X\"\nb: 'Y'\nc: false\nd: 6\n", out)

	// Same requests in reverse order give the same text.
	for i, j := 0, len(reqs)-1; i < j; i, j = i+1, j-1 {
		reqs[i], reqs[j] = reqs[j], reqs[i]
	}
	reversed, err := Replace(doc, reqs...)
	require.NoError(t, err)
	require.Equal(t, out, reversed)
}

func TestReplacePreQuotedLiteralOverridesStyle(t *testing.T) {
	doc := mustParse(t, "a: x\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/a", Value: `"quoted now"`})
	require.NoError(t, err)
	require.Equal(t, "a: \"quoted now\"\n", out)
}

func TestReplaceLastWriteWins(t *testing.T) {
	doc := mustParse(t, "a: 1\n", FormatYAML)
	out, err := Replace(doc,
		ReplaceRequest{Pointer: "/a", Value: "2"},
		ReplaceRequest{Pointer: "/a", Value: "3"},
	)
	require.NoError(t, err)
	require.Equal(t, "a: 3\n", out)
}

func TestReplaceLastWriteWinsAcrossSpanShapes(t *testing.T) {
	doc := mustParse(t, "a:\n  b: 1\nc: 2\n", FormatYAML)

	out, err := Replace(doc,
		ReplaceRequest{Pointer: "/a", Fix: String("x")},
		ReplaceRequest{Pointer: "/a", Value: "y"},
	)
	require.NoError(t, err)
	require.Equal(t, "a:\n  y\nc: 2\n", out)

	out, err = Replace(doc,
		ReplaceRequest{Pointer: "/a", Value: "y"},
		ReplaceRequest{Pointer: "/a", Fix: String("x")},
	)
	require.NoError(t, err)
	require.Equal(t, "a: x\nc: 2\n", out)

	edits, err := PlanReplace(doc,
		ReplaceRequest{Pointer: "/a", Fix: String("x")},
		ReplaceRequest{Pointer: "/a", Value: "y"},
		ReplaceRequest{Pointer: "/c", ReplaceKey: true, Value: "d"},
	)
	require.NoError(t, err)
	require.Len(t, edits, 2)
}

func TestReplaceInvalidPointerFailsWholeBatch(t *testing.T) {
	doc := mustParse(t, "a: 1\nb: 2\n", FormatYAML)
	out, err := Replace(doc,
		ReplaceRequest{Pointer: "/a", Value: "9"},
		ReplaceRequest{Pointer: "/missing", Value: "9"},
	)
	if !errors.Is(err, ErrInvalidPointer) {
		t.Fatalf("expected ErrInvalidPointer, got %v", err)
	}
	require.Empty(t, out)
	require.Equal(t, "a: 1\nb: 2\n", doc.Text(), "document must not change")
}

func TestReplaceBlockScalarUnsupported(t *testing.T) {
	doc := mustParse(t, "a: |\n  text\n", FormatYAML)
	_, err := Replace(doc, ReplaceRequest{Pointer: "/a", Value: "x"})
	require.ErrorIs(t, err, ErrUnsupportedStyle)
}

func TestReplaceKeyOfSequenceItemFails(t *testing.T) {
	doc := mustParse(t, "- a\n", FormatYAML)
	_, err := Replace(doc, ReplaceRequest{Pointer: "/0", Value: "x", ReplaceKey: true})
	require.ErrorIs(t, err, ErrInvalidPointer)
}

func TestReplaceEmptyValue(t *testing.T) {
	doc := mustParse(t, "a:\nb: 1\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/a", Value: "x"})
	require.NoError(t, err)
	require.Equal(t, "a: x\nb: 1\n", out)
}

func TestReplaceKeepsCommentsAndMinimalDiff(t *testing.T) {
	src := `# service config
svc:
  # listen port
  port: 8080 # default
  host: "0.0.0.0"
  tls:
    enabled: false
other: [1, 2]
`
	doc := mustParse(t, src, FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/svc/tls/enabled", Value: "true"})
	require.NoError(t, err)

	diff := unifiedDiff(src, out)
	adds, removes := diffStats(diff)
	if adds != 1 || removes != 1 {
		t.Fatalf("expected single-line change, got %d additions / %d removals:\n%s", adds, removes, diff)
	}
	require.Equal(t, "    enabled: true", getLineContaining(out, "enabled"))
	require.Equal(t, "  port: 8080 # default", getLineContaining(out, "port:"))
}

func TestReplaceFixScalarWithMapping(t *testing.T) {
	doc := mustParse(t, "a: 1\nb: 2\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/a", Fix: Mapping{
		{Key: "x", Value: Int(1)},
		{Key: "y", Value: String("s")},
	}})
	require.NoError(t, err)
	require.Equal(t, "a:\n  x: 1\n  y: s\nb: 2\n", out)
}

func TestReplaceFixKeepsCRLF(t *testing.T) {
	doc := mustParse(t, "a: 1\r\nb: 2\r\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/a", Fix: Mapping{
		{Key: "x", Value: Int(1)},
		{Key: "y", Value: String("s")},
	}})
	require.NoError(t, err)
	require.Equal(t, "a:\r\n  x: 1\r\n  y: s\r\nb: 2\r\n", out)
}

func TestReplaceFixScalarWithSequenceFollowsFlushLayout(t *testing.T) {
	doc := mustParse(t, "items:\n- a\nname: x\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/name", Fix: Sequence{Int(1), Int(2)}})
	require.NoError(t, err)
	require.Equal(t, "items:\n- a\nname:\n- 1\n- 2\n", out)
}

func TestReplaceFixBlockMapping(t *testing.T) {
	src := "svc:\n  port: 80\n  host: a\nother: 1\n"
	doc := mustParse(t, src, FormatYAML)

	out, err := Replace(doc, ReplaceRequest{Pointer: "/svc", Fix: Mapping{{Key: "port", Value: Int(90)}}})
	require.NoError(t, err)
	require.Equal(t, "svc:\n  port: 90\nother: 1\n", out)

	out, err = Replace(doc, ReplaceRequest{Pointer: "/svc", Fix: String("none")})
	require.NoError(t, err)
	require.Equal(t, "svc: none\nother: 1\n", out)
}

func TestReplaceFixSequenceItem(t *testing.T) {
	doc := mustParse(t, "- a\n- b\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/1", Fix: Mapping{
		{Key: "k", Value: String("v")},
		{Key: "k2", Value: String("v2")},
	}})
	require.NoError(t, err)
	require.Equal(t, "- a\n- k: v\n  k2: v2\n", out)
}

func TestReplaceFixInFlowContext(t *testing.T) {
	doc := mustParse(t, "a: {b: 1}\n", FormatYAML)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/a/b", Fix: Sequence{Int(1), Int(2)}})
	require.NoError(t, err)
	require.Equal(t, "a: {b: [1, 2]}\n", out)
}

func TestReplaceFixStringKeepsQuotes(t *testing.T) {
	doc := mustParse(t, "a: \"x\"\n'a b': 1\n", FormatYAML)
	out, err := Replace(doc,
		ReplaceRequest{Pointer: "/a", Fix: String(`say "hi"`)},
		ReplaceRequest{Pointer: "/a b", Fix: String("it's"), ReplaceKey: true},
	)
	require.NoError(t, err)
	require.Equal(t, "a: \"say \\\"hi\\\"\"\n'it''s': 1\n", out)
}

func TestReplaceFixJSONPretty(t *testing.T) {
	src := "{\n  \"a\": 1,\n  \"b\": 2\n}"
	doc := mustParse(t, src, FormatJSON)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/a", Fix: Mapping{{Key: "x", Value: Sequence{Int(1)}}}})
	require.NoError(t, err)
	require.Equal(t, "{\n  \"a\": {\n    \"x\": [\n      1\n    ]\n  },\n  \"b\": 2\n}", out)
	require.True(t, gjson.Valid(out))
}

func TestReplaceFixJSONSingleLine(t *testing.T) {
	doc := mustParse(t, `{"a": 1, "b": 2}`, FormatJSON)
	out, err := Replace(doc, ReplaceRequest{Pointer: "/b", Fix: Mapping{{Key: "c", Value: Bool(true)}}})
	require.NoError(t, err)
	require.Equal(t, `{"a": 1, "b": {"c": true}}`, out)
}

func TestReplaceJSONMatchesSJSON(t *testing.T) {
	src := `{"a": {"b": 1}, "c": [1, 2], "d": "x"}`
	doc := mustParse(t, src, FormatJSON)

	out, err := Replace(doc,
		ReplaceRequest{Pointer: "/c/1", Fix: Int(5)},
		ReplaceRequest{Pointer: "/a/b", Fix: String("two")},
		ReplaceRequest{Pointer: "/d", Fix: Null{}},
	)
	require.NoError(t, err)

	want := src
	for path, v := range map[string]any{"c.1": 5, "a.b": "two", "d": nil} {
		want, err = sjson.Set(want, path, v)
		require.NoError(t, err)
	}

	got, err := ParseFix(out, FormatJSON)
	require.NoError(t, err)
	expected, err := ParseFix(want, FormatJSON)
	require.NoError(t, err)
	require.True(t, Equal(expected, got), "got %s, want %s", out, want)
	require.Equal(t, `{"a": {"b": "two"}, "c": [1, 5], "d": null}`, out)
}

func TestPlanReplaceReturnsEdits(t *testing.T) {
	doc := mustParse(t, "a: 1\nb: 2\n", FormatYAML)
	edits, err := PlanReplace(doc,
		ReplaceRequest{Pointer: "/b", Value: "3"},
		ReplaceRequest{Pointer: "/a", Value: "4"},
	)
	require.NoError(t, err)
	require.Equal(t, []Edit{
		{Span: Span{8, 9}, Text: "3"},
		{Span: Span{3, 4}, Text: "4"},
	}, edits)
}
