package yamlsplice

import (
	"fmt"
	"strings"
)

// Serialize renders fix as indented text for format. Nested content is indented by
// indentUnit spaces per level starting at baseLevel. The first line carries no
// indentation: the caller positions it, as when splicing after "key: " or "- ".
func Serialize(fix Fix, format Format, indentUnit, baseLevel int) (string, error) {
	if indentUnit <= 0 {
		indentUnit = 2
	}
	r := &renderer{format: format, unit: indentUnit}
	return r.render(fix, baseLevel*indentUnit)
}

// SerializeFlow renders fix on a single line using flow collections.
func SerializeFlow(fix Fix, format Format) (string, error) {
	r := &renderer{format: format, unit: 2, flow: true}
	return r.render(fix, 0)
}

type renderer struct {
	format Format
	unit   int
	seq    seqIndent
	flow   bool
	prefs  stylePrefs
	tabs   *tabStops
	nl     string
}

// eol is the line break emitted between rendered lines.
func (r *renderer) eol() string {
	if r.nl == "" {
		return "\n"
	}
	return r.nl
}

// tabStops numbers snippet placeholders in render order.
type tabStops struct {
	next int
}

var snippetEscaper = strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`)

func (r *renderer) snippet() *renderer {
	c := *r
	c.tabs = &tabStops{next: 1}
	return &c
}

func (r *renderer) render(fix Fix, col int) (string, error) {
	if err := Validate(fix); err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := r.value(&sb, fix, col); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// text escapes structural text for snippet output.
func (r *renderer) text(s string) string {
	if r.tabs == nil {
		return s
	}
	return snippetEscaper.Replace(s)
}

// leaf wraps a rendered scalar in a placeholder for snippet output.
func (r *renderer) leaf(s string) string {
	if r.tabs == nil {
		return s
	}
	n := r.tabs.next
	r.tabs.next++
	return fmt.Sprintf("${%d:%s}", n, snippetEscaper.Replace(s))
}

func (r *renderer) key(k string) string {
	if r.format == FormatJSON {
		return r.text(quoteJSON(k))
	}
	return r.text(renderString(k, r.prefs.key, r.format))
}

func (r *renderer) value(sb *strings.Builder, f Fix, col int) error {
	switch v := f.(type) {
	case Mapping:
		return r.mapping(sb, v, col)
	case Sequence:
		return r.sequence(sb, v, col)
	}
	style := r.prefs.str
	if s, ok := f.(String); ok && r.flow && style == StyleNone && strings.ContainsAny(string(s), ",[]{}") {
		style = StyleDouble
	}
	s, err := renderScalar(f, style, r.format)
	if err != nil {
		return err
	}
	sb.WriteString(r.leaf(s))
	return nil
}

func (r *renderer) mapping(sb *strings.Builder, m Mapping, col int) error {
	if len(m) == 0 {
		sb.WriteString("{}")
		return nil
	}
	switch {
	case r.flow:
		sb.WriteString("{")
		for i, it := range m {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := r.member(sb, it, col); err != nil {
				return err
			}
		}
		sb.WriteString("}")
	case r.format == FormatJSON:
		sb.WriteString("{" + r.eol())
		for i, it := range m {
			if i > 0 {
				sb.WriteString("," + r.eol())
			}
			sb.WriteString(spaces(col + r.unit))
			if err := r.member(sb, it, col+r.unit); err != nil {
				return err
			}
		}
		sb.WriteString(r.eol() + spaces(col) + "}")
	default:
		for i, it := range m {
			if i > 0 {
				sb.WriteString(r.eol() + spaces(col))
			}
			if err := r.member(sb, it, col); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *renderer) sequence(sb *strings.Builder, seq Sequence, col int) error {
	if len(seq) == 0 {
		sb.WriteString("[]")
		return nil
	}
	switch {
	case r.flow:
		sb.WriteString("[")
		for i, e := range seq {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := r.value(sb, e, col); err != nil {
				return err
			}
		}
		sb.WriteString("]")
	case r.format == FormatJSON:
		sb.WriteString("[" + r.eol())
		for i, e := range seq {
			if i > 0 {
				sb.WriteString("," + r.eol())
			}
			sb.WriteString(spaces(col + r.unit))
			if err := r.value(sb, e, col+r.unit); err != nil {
				return err
			}
		}
		sb.WriteString(r.eol() + spaces(col) + "]")
	default:
		for i, e := range seq {
			if i > 0 {
				sb.WriteString(r.eol() + spaces(col))
			}
			sb.WriteString("- ")
			if err := r.value(sb, e, col+2); err != nil {
				return err
			}
		}
	}
	return nil
}

// member renders "key: value" starting at the current position; col is the column
// the key sits at.
func (r *renderer) member(sb *strings.Builder, it Member, col int) error {
	sb.WriteString(r.key(it.Key))
	if r.flow || r.format == FormatJSON {
		sb.WriteString(": ")
		return r.value(sb, it.Value, col)
	}

	sb.WriteString(":")
	switch v := it.Value.(type) {
	case Mapping:
		if len(v) > 0 {
			sb.WriteString(r.eol() + spaces(col+r.unit))
			return r.mapping(sb, v, col+r.unit)
		}
	case Sequence:
		if len(v) > 0 {
			c := col + r.unit
			if r.seq == seqIndentFlush {
				c = col
			}
			sb.WriteString(r.eol() + spaces(c))
			return r.sequence(sb, v, c)
		}
	}
	sb.WriteString(" ")
	return r.value(sb, it.Value, col)
}
