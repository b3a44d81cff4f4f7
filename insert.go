package yamlsplice

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// InsertResult is a fragment and the offset to splice it at. Text is plain; Snippet
// is the same fragment with a tab stop on every scalar and a final $0.
type InsertResult struct {
	Text     string
	Snippet  string
	Offset   int
	Position Position
}

// Apply splices the fragment into src, which must be the planned document's text.
func (r InsertResult) Apply(src string) string {
	return src[:r.Offset] + r.Text + src[r.Offset:]
}

// Edit returns the insertion as a zero-width edit.
func (r InsertResult) Edit() Edit {
	return Edit{Span: Span{Start: r.Offset, End: r.Offset}, Text: r.Text}
}

// InsertOptions tunes the shape of inserted fragments.
type InsertOptions struct {
	inlineFlow bool
}

// The default options.
var DefaultInsertOptions = InsertOptions{}

// WithInlineFlow returns options that keep a flow collection written on one line on
// one line: the new member follows ", " instead of starting a new line.
func (o InsertOptions) WithInlineFlow(inline bool) InsertOptions {
	o.inlineFlow = inline
	return o
}

// Insert appends fix to the container addressed by ptr. For a mapping, fix must be a
// Mapping whose members are appended in order; for a sequence, fix becomes the new
// last element. A trailing "-" segment addresses a sequence explicitly, which lets an
// empty YAML value ("key:") receive its first block element.
//
// This function uses the default options.
func Insert(doc *Document, ptr string, fix Fix) (InsertResult, error) {
	return DefaultInsertOptions.Insert(doc, ptr, fix)
}

// Insert is Insert with these options.
func (o InsertOptions) Insert(doc *Document, ptr string, fix Fix) (InsertResult, error) {
	p, err := ParsePointer(ptr)
	if err != nil {
		return InsertResult{}, err
	}
	return doc.planInsert(p, fix, 0, o)
}

// insertTarget is a resolved container plus the layout decisions for it.
type insertTarget struct {
	node  Node
	kind  Kind
	style CollectionStyle
	empty bool // a YAML member with no value text
}

func (d *Document) resolveInsertTarget(p Pointer) (insertTarget, error) {
	forceSeq := p.Last() == AppendToken && len(p) > 0
	if forceSeq {
		p = p.Parent()
	}
	n, err := Resolve(d.root, p)
	if err != nil {
		return insertTarget{}, err
	}

	switch n.Kind() {
	case MappingKind:
		if forceSeq {
			return insertTarget{}, fmt.Errorf("%w: %q is a mapping, not a sequence", ErrInvalidPointer, p.String())
		}
		return insertTarget{node: n, kind: MappingKind, style: d.CollectionStyle(n)}, nil
	case SequenceKind:
		return insertTarget{node: n, kind: SequenceKind, style: d.CollectionStyle(n)}, nil
	}

	if _, member := n.KeySpan(); member && d.format == FormatYAML && n.Span().Empty() {
		kind := MappingKind
		if forceSeq {
			kind = SequenceKind
		}
		return insertTarget{node: n, kind: kind, style: StyleBlock, empty: true}, nil
	}
	return insertTarget{}, fmt.Errorf("%w: %q is a scalar", ErrNotAContainer, p.String())
}

// planInsert computes the fragment for fix. pending counts fragments already planned
// at the same container in this batch; they make an empty container non-empty.
func (d *Document) planInsert(p Pointer, fix Fix, pending int, opts InsertOptions) (InsertResult, error) {
	t, err := d.resolveInsertTarget(p)
	if err != nil {
		return InsertResult{}, err
	}
	if err := Validate(fix); err != nil {
		return InsertResult{}, err
	}

	var items []Fix
	var members Mapping
	if t.kind == MappingKind {
		m, ok := fix.(Mapping)
		if !ok || len(m) == 0 {
			return InsertResult{}, fmt.Errorf("%w: inserting into a mapping needs a non-empty mapping fix, got %T", ErrSerialization, fix)
		}
		members = m
	} else {
		items = []Fix{fix}
	}

	r := &renderer{format: d.format, unit: d.layout.unit, seq: d.layout.seq, nl: d.layout.nl}
	if !t.empty {
		r.prefs = d.siblingPrefs(t.node)
	}

	var plan func(r *renderer) (string, int, error)
	switch {
	case t.style == StyleFlow:
		plan = func(r *renderer) (string, int, error) {
			return d.planFlowInsert(t, r, members, items, pending, opts.inlineFlow)
		}
	case t.kind == MappingKind:
		plan = func(r *renderer) (string, int, error) {
			return d.planBlockMappingInsert(t, r, members)
		}
	default:
		plan = func(r *renderer) (string, int, error) {
			return d.planBlockSequenceInsert(t, r, items[0])
		}
	}

	text, off, err := plan(r)
	if err != nil {
		return InsertResult{}, err
	}
	snippet, _, err := plan(r.snippet())
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{
		Text:     text,
		Snippet:  snippet + "$0",
		Offset:   off,
		Position: d.Position(off),
	}, nil
}

// emptyAnchor is where the first member of an empty YAML value goes: the end of the
// key's line, after any comment.
func (d *Document) emptyAnchor(t insertTarget) (off int, keyCol int) {
	ks, _ := t.node.KeySpan()
	return d.lineEnd(t.node.Span().Start), d.column(ks.Start)
}

func (d *Document) planBlockMappingInsert(t insertTarget, r *renderer, members Mapping) (string, int, error) {
	var off, col int
	var indent string
	if t.empty {
		var keyCol int
		off, keyCol = d.emptyAnchor(t)
		ks, _ := t.node.KeySpan()
		indent = d.indentAt(ks.Start) + spaces(d.layout.unit)
		col = keyCol + d.layout.unit
	} else {
		kids := t.node.Children()
		first := memberStart(kids[0])
		indent = d.indentAt(first)
		col = d.column(first)
		off = d.lineTail(kids[len(kids)-1].Span().End)
	}

	var sb strings.Builder
	for _, it := range members {
		sb.WriteString(d.layout.nl + indent)
		if err := r.member(&sb, it, col); err != nil {
			return "", 0, err
		}
	}
	return sb.String(), off, nil
}

func (d *Document) planBlockSequenceInsert(t insertTarget, r *renderer, item Fix) (string, int, error) {
	var off, col int
	var indent string
	if t.empty {
		var keyCol int
		off, keyCol = d.emptyAnchor(t)
		ks, _ := t.node.KeySpan()
		indent = d.indentAt(ks.Start)
		col = keyCol
		if d.layout.seq == seqIndentIndented {
			indent += spaces(d.layout.unit)
			col += d.layout.unit
		}
	} else {
		dash := t.node.Span().Start
		indent = d.indentAt(dash)
		col = d.column(dash)
		off = d.lineTail(lastChild(t.node).Span().End)
	}

	var sb strings.Builder
	sb.WriteString(d.layout.nl + indent + "- ")
	if err := r.value(&sb, item, col+2); err != nil {
		return "", 0, err
	}
	return sb.String(), off, nil
}

// planFlowInsert places new members after the last existing one, or just before the
// closing bracket when there is none. Each member starts on its own line unless
// inline is set and the collection sits on one line. A dangling comma is left in
// place and repeated after the new member.
func (d *Document) planFlowInsert(t insertTarget, r *renderer, members Mapping, items []Fix, pending int, inline bool) (string, int, error) {
	span := t.node.Span()
	open, closing := span.Start, span.End-1
	if closing <= open || (d.src[closing] != '}' && d.src[closing] != ']') {
		return "", 0, fmt.Errorf("%w: unterminated flow collection at %s", ErrUnsupportedStyle, span)
	}

	kids := t.node.Children()
	empty := len(kids) == 0 && pending == 0
	dangling := false
	var off int
	if len(kids) == 0 {
		off = closing
		for off > open+1 && isBlank(d.src[off-1]) {
			off--
		}
	} else {
		off = kids[len(kids)-1].Span().End
		if c := skipBlank(d.src, off); c < closing && d.src[c] == ',' {
			dangling = true
			off = d.lineTail(c + 1)
		}
	}
	oneLine := d.lines.line(open) == d.lines.line(closing)
	inline = inline && oneLine

	var indent string
	if !inline {
		indent = d.flowIndent(t.node)
	}
	col := utf8.RuneCountInString(indent)
	if oneLine || d.format == FormatYAML {
		r.flow = true
	}

	var parts []string
	render := func(fn func(sb *strings.Builder) error) error {
		var sb strings.Builder
		if err := fn(&sb); err != nil {
			return err
		}
		parts = append(parts, sb.String())
		return nil
	}
	for _, it := range members {
		if err := render(func(sb *strings.Builder) error { return r.member(sb, it, col) }); err != nil {
			return "", 0, err
		}
	}
	for _, e := range items {
		if err := render(func(sb *strings.Builder) error { return r.value(sb, e, col) }); err != nil {
			return "", 0, err
		}
	}

	sep := "," + d.layout.nl + indent
	lead := sep
	if inline {
		sep, lead = ", ", ", "
	}
	switch {
	case inline && empty:
		lead = ""
	case inline && dangling:
		lead = " "
	case empty || dangling:
		lead = d.layout.nl + indent
	}

	text := lead + strings.Join(parts, sep)
	if dangling {
		text += ","
	}
	return text, off, nil
}

// flowIndent is the indentation of members in a multi-line flow collection: that of
// an existing member sitting alone on its line, else the opening line's indent plus
// one level.
func (d *Document) flowIndent(n Node) string {
	kids := n.Children()
	for i := len(kids) - 1; i >= 0; i-- {
		if s := memberStart(kids[i]); d.aloneOnLine(s) {
			return d.indentAt(s)
		}
	}
	return d.lineIndent(n.Span().Start) + spaces(d.layout.unit)
}
