package yamlsplice

import "fmt"

// ScalarStyle is the quoting class of a scalar token.
type ScalarStyle int

const (
	StyleNone ScalarStyle = iota
	StyleSingle
	StyleDouble
)

func (s ScalarStyle) String() string {
	switch s {
	case StyleSingle:
		return "single"
	case StyleDouble:
		return "double"
	default:
		return "none"
	}
}

// CollectionStyle is the layout of a mapping or sequence.
type CollectionStyle int

const (
	StyleBlock CollectionStyle = iota
	StyleFlow
)

func (s CollectionStyle) String() string {
	if s == StyleFlow {
		return "flow"
	}
	return "block"
}

// InspectScalar infers the quoting class of the token at span from its first and
// last characters. Block scalars and unbalanced quotes are ErrUnsupportedStyle.
func InspectScalar(src []byte, span Span) (ScalarStyle, error) {
	if span.Empty() {
		return StyleNone, nil
	}
	text := src[span.Start:span.End]
	first, last := text[0], text[len(text)-1]
	switch first {
	case '"', '\'':
		if len(text) < 2 || last != first {
			return StyleNone, fmt.Errorf("%w: unterminated quoted scalar at %s", ErrUnsupportedStyle, span)
		}
		if first == '"' {
			return StyleDouble, nil
		}
		return StyleSingle, nil
	case '|', '>':
		return StyleNone, fmt.Errorf("%w: block scalar at %s", ErrUnsupportedStyle, span)
	}
	return StyleNone, nil
}

// ScalarStyle returns the quoting class of a scalar value node.
func (d *Document) ScalarStyle(n Node) (ScalarStyle, error) {
	if n.Kind() != ScalarKind {
		return StyleNone, fmt.Errorf("%w: %s node has no scalar style", ErrUnsupportedStyle, n.Kind())
	}
	return InspectScalar(d.src, n.Span())
}

// KeyStyle returns the quoting class of a mapping member's key token.
func (d *Document) KeyStyle(n Node) (ScalarStyle, error) {
	ks, ok := n.KeySpan()
	if !ok {
		return StyleNone, fmt.Errorf("%w: node is not a mapping member", ErrInvalidPointer)
	}
	return InspectScalar(d.src, ks)
}

// CollectionStyle reports whether a collection is written in flow or block layout.
// JSON collections without a visible bracket follow their siblings.
func (d *Document) CollectionStyle(n Node) CollectionStyle {
	if s, ok := d.bracketStyle(n); ok {
		return s
	}
	if d.format == FormatYAML {
		return StyleBlock
	}
	if p := n.Parent(); p != nil {
		for _, sib := range p.Children() {
			if sib == n || sib.Kind() == ScalarKind {
				continue
			}
			if s, ok := d.bracketStyle(sib); ok {
				return s
			}
		}
	}
	return StyleFlow
}

func (d *Document) bracketStyle(n Node) (CollectionStyle, bool) {
	s := n.Span()
	if s.Empty() || s.Start >= len(d.src) {
		return StyleBlock, false
	}
	switch d.src[s.Start] {
	case '{', '[':
		return StyleFlow, true
	}
	return StyleBlock, false
}

// inFlow reports whether any ancestor of n is a flow collection.
func (d *Document) inFlow(n Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if d.CollectionStyle(p) == StyleFlow {
			return true
		}
	}
	return false
}

// stylePrefs are the quoting conventions new members copy from their siblings.
type stylePrefs struct {
	key ScalarStyle
	str ScalarStyle
}

// siblingPrefs inspects existing members of container: the key style comes from the
// last keyed member, the string style from the last quoted scalar.
func (d *Document) siblingPrefs(container Node) stylePrefs {
	var prefs stylePrefs
	if d.format == FormatJSON {
		return stylePrefs{key: StyleDouble, str: StyleDouble}
	}
	kids := container.Children()
	for i := len(kids) - 1; i >= 0; i-- {
		if ks, ok := kids[i].KeySpan(); ok {
			if s, err := InspectScalar(d.src, ks); err == nil {
				prefs.key = s
			}
			break
		}
	}
	if container.Kind() == SequenceKind && len(kids) > 0 {
		if last := kids[len(kids)-1]; last.Kind() == MappingKind {
			prefs.key = d.siblingPrefs(last).key
		}
	}
	for i := len(kids) - 1; i >= 0; i-- {
		if kids[i].Kind() != ScalarKind {
			continue
		}
		if s, err := InspectScalar(d.src, kids[i].Span()); err == nil && s != StyleNone {
			prefs.str = s
			break
		}
	}
	return prefs
}
