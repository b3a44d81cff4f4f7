package yamlsplice

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml/token"
)

// FormatScalar renders a caller-supplied literal in the given quoting class. The
// literal is emitted verbatim: no escaping is applied, so for StyleNone it must
// already be a valid bare token. A literal that is itself wrapped in matching quotes
// is passed through unchanged.
func FormatScalar(literal string, style ScalarStyle) string {
	if isPreQuoted(literal) {
		return literal
	}
	switch style {
	case StyleDouble:
		return `"` + literal + `"`
	case StyleSingle:
		return "'" + literal + "'"
	default:
		return literal
	}
}

func isPreQuoted(s string) bool {
	if len(s) < 2 {
		return false
	}
	q := s[0]
	return (q == '"' || q == '\'') && s[len(s)-1] == q
}

var (
	jsonNumberRE = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)
	yamlNumberRE = regexp.MustCompile(`^([-+]?(\.inf|\.Inf|\.INF)|\.nan|\.NaN|\.NAN|0x[0-9a-fA-F]+|0o[0-7]+|[-+]?[0-9][0-9_]*(\.[0-9_]*)?([eE][-+]?[0-9]+)?)$`)
)

// renderString renders s for a slot of the given style in format.
func renderString(s string, style ScalarStyle, format Format) string {
	if format == FormatJSON {
		return quoteJSON(s)
	}
	switch style {
	case StyleDouble:
		return strconv.Quote(s)
	case StyleSingle:
		if strings.ContainsAny(s, "\n\r") {
			return strconv.Quote(s)
		}
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	default:
		if safeBare(s) {
			return s
		}
		return strconv.Quote(s)
	}
}

// safeBare reports whether s can be written as a plain YAML scalar and read back as
// the same string.
func safeBare(s string) bool {
	if strings.ContainsAny(s, "\n\r\t") || strings.TrimSpace(s) != s {
		return false
	}
	return !token.IsNeedQuoted(s)
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return strings.TrimSuffix(buf.String(), "\n")
}

func renderNumber(n Number, format Format) (string, error) {
	s := strings.TrimSpace(string(n))
	if jsonNumberRE.MatchString(s) {
		return s, nil
	}
	if format == FormatYAML && yamlNumberRE.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q is not a %s number", ErrSerialization, string(n), format)
}

// renderScalar renders a leaf fix for a slot of the given string style.
func renderScalar(f Fix, style ScalarStyle, format Format) (string, error) {
	switch v := f.(type) {
	case String:
		return renderString(string(v), style, format), nil
	case Number:
		return renderNumber(v, format)
	case Bool:
		if v {
			return "true", nil
		}
		return "false", nil
	case Null:
		return "null", nil
	case nil:
		return "", fmt.Errorf("%w: nil value", ErrSerialization)
	}
	return "", fmt.Errorf("%w: %T is not a scalar", ErrSerialization, f)
}
