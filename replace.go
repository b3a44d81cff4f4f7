package yamlsplice

import (
	"fmt"
	"strings"
)

// ReplaceRequest addresses one value (or, with ReplaceKey, the key of the member
// Pointer names) and supplies its new text.
//
// Value is a literal emitted verbatim inside the quote class of the existing token.
// When Fix is set it takes precedence: the fix is rendered in the style of the target,
// which also allows a scalar to be replaced by a collection.
type ReplaceRequest struct {
	Pointer    string
	Value      string
	ReplaceKey bool
	Fix        Fix
}

// Replace plans reqs against doc and returns the patched text. Every pointer is
// resolved against the original document; if any request fails nothing is applied.
func Replace(doc *Document, reqs ...ReplaceRequest) (string, error) {
	edits, err := PlanReplace(doc, reqs...)
	if err != nil {
		return "", err
	}
	return ApplyEdits(doc.Text(), edits)
}

// replaceTarget identifies what a request rewrites: a member's value or its key.
type replaceTarget struct {
	ptr string
	key bool
}

// PlanReplace returns the edits for reqs without applying them. Requests that
// address the same target collapse to the last one, whatever span each would touch.
func PlanReplace(doc *Document, reqs ...ReplaceRequest) ([]Edit, error) {
	var edits []Edit
	byTarget := make(map[replaceTarget]int, len(reqs))
	for i, req := range reqs {
		p, err := ParsePointer(req.Pointer)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		e, err := doc.planReplace(p, req)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		t := replaceTarget{ptr: p.String(), key: req.ReplaceKey}
		if j, dup := byTarget[t]; dup {
			edits[j] = e
			continue
		}
		byTarget[t] = len(edits)
		edits = append(edits, e)
	}
	return edits, nil
}

func (d *Document) planReplace(p Pointer, req ReplaceRequest) (Edit, error) {
	n, err := Resolve(d.root, p)
	if err != nil {
		return Edit{}, err
	}
	if req.ReplaceKey {
		return d.planKeyReplace(n, p, req)
	}
	if req.Fix != nil {
		return d.planFixReplace(n, req.Fix)
	}

	span := n.Span()
	text := req.Value
	if n.Kind() == ScalarKind {
		style, err := InspectScalar(d.src, span)
		if err != nil {
			return Edit{}, err
		}
		text = FormatScalar(req.Value, style)
	}
	return Edit{Span: span, Text: d.padEmpty(span, text)}, nil
}

func (d *Document) planKeyReplace(n Node, p Pointer, req ReplaceRequest) (Edit, error) {
	ks, ok := n.KeySpan()
	if !ok {
		return Edit{}, fmt.Errorf("%w: %q does not address a mapping member", ErrInvalidPointer, p.String())
	}
	style, err := InspectScalar(d.src, ks)
	if err != nil {
		return Edit{}, err
	}
	switch f := req.Fix.(type) {
	case nil:
		return Edit{Span: ks, Text: FormatScalar(req.Value, style)}, nil
	case String:
		return Edit{Span: ks, Text: renderString(string(f), style, d.format)}, nil
	default:
		return Edit{}, fmt.Errorf("%w: key must be a string, got %T", ErrSerialization, req.Fix)
	}
}

// padEmpty separates text from a preceding ':' when the old value had no text.
func (d *Document) padEmpty(span Span, text string) string {
	if span.Empty() && span.Start > 0 && d.src[span.Start-1] == ':' && text != "" {
		return " " + text
	}
	return text
}

func (d *Document) planFixReplace(n Node, fix Fix) (Edit, error) {
	if err := Validate(fix); err != nil {
		return Edit{}, err
	}
	span := n.Span()
	r := &renderer{format: d.format, unit: d.layout.unit, seq: d.layout.seq, nl: d.layout.nl}
	if p := n.Parent(); p != nil {
		r.prefs = d.siblingPrefs(p)
	}
	if n.Kind() != ScalarKind {
		r.prefs.key = d.siblingPrefs(n).key
	}

	_, isMapping := fix.(Mapping)
	_, isSequence := fix.(Sequence)
	if !isMapping && !isSequence {
		style := StyleNone
		if n.Kind() == ScalarKind {
			s, err := InspectScalar(d.src, span)
			if err != nil {
				return Edit{}, err
			}
			style = s
		}
		text, err := renderScalar(fix, style, d.format)
		if err != nil {
			return Edit{}, err
		}
		return d.blockSafeEdit(n, text), nil
	}

	var sb strings.Builder
	switch {
	case d.format == FormatJSON:
		if !d.multiline(n.Parent()) {
			r.flow = true
		}
		col := len(d.lineIndent(span.Start))
		if err := r.value(&sb, fix, col); err != nil {
			return Edit{}, err
		}
		return Edit{Span: span, Text: sb.String()}, nil

	case d.inFlow(n), n.Kind() != ScalarKind && d.CollectionStyle(n) == StyleFlow:
		r.flow = true
		if err := r.value(&sb, fix, 0); err != nil {
			return Edit{}, err
		}
		return d.blockSafeEdit(n, sb.String()), nil

	case isEmptyFix(fix):
		if err := r.value(&sb, fix, 0); err != nil {
			return Edit{}, err
		}
		return d.blockSafeEdit(n, sb.String()), nil

	case n.Kind() == MappingKind && isMapping, n.Kind() == SequenceKind && isSequence:
		if err := r.value(&sb, fix, d.column(span.Start)); err != nil {
			return Edit{}, err
		}
		return Edit{Span: span, Text: sb.String()}, nil
	}

	ks, member := n.KeySpan()
	if !member {
		col := 0
		if n.Parent() != nil {
			col = d.column(span.Start)
		}
		if err := r.value(&sb, fix, col); err != nil {
			return Edit{}, err
		}
		return Edit{Span: span, Text: d.padEmpty(span, sb.String())}, nil
	}

	// The member value becomes a block collection on the following lines.
	colon, ok := d.colonAfter(ks.End)
	if !ok {
		return Edit{}, fmt.Errorf("%w: no ':' after key at %s", ErrUnsupportedStyle, ks)
	}
	keyCol := d.column(ks.Start)
	col := keyCol + d.layout.unit
	if isSequence && d.layout.seq == seqIndentFlush {
		col = keyCol
	}
	sb.WriteString(d.layout.nl + d.indentAt(ks.Start) + spaces(col-keyCol))
	if err := r.value(&sb, fix, col); err != nil {
		return Edit{}, err
	}
	return Edit{Span: Span{Start: colon + 1, End: span.End}, Text: sb.String()}, nil
}

// blockSafeEdit replaces n with single-line text. A YAML block collection owned by
// a key starts on the next line, so the replacement is moved up behind the colon.
func (d *Document) blockSafeEdit(n Node, text string) Edit {
	span := n.Span()
	ks, member := n.KeySpan()
	if d.format == FormatYAML && member && n.Kind() != ScalarKind && d.CollectionStyle(n) == StyleBlock {
		if colon, ok := d.colonAfter(ks.End); ok && colon < span.Start {
			return Edit{Span: Span{Start: colon + 1, End: span.End}, Text: " " + text}
		}
	}
	return Edit{Span: span, Text: d.padEmpty(span, text)}
}

// multiline reports whether n spans more than one line; a nil node (the document
// root's parent) counts as multi-line.
func (d *Document) multiline(n Node) bool {
	if n == nil {
		return true
	}
	s := n.Span()
	return d.lines.line(s.Start) != d.lines.line(max(s.End-1, s.Start))
}

func isEmptyFix(f Fix) bool {
	switch v := f.(type) {
	case Mapping:
		return len(v) == 0
	case Sequence:
		return len(v) == 0
	}
	return false
}
