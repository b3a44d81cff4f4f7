package yamlsplice

import (
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// ApplyJSONPatchBytes decodes an RFC 6902 patch and applies it with ApplyJSONPatch.
func ApplyJSONPatchBytes(doc *Document, patch []byte) (string, error) {
	p, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return ApplyJSONPatch(doc, p)
}

// ApplyJSONPatch applies patch to doc and returns the new text. Every path is
// resolved against the original document, so an op cannot address a member added by
// an earlier op in the same patch.
func ApplyJSONPatch(doc *Document, patch jsonpatch.Patch) (string, error) {
	edits, err := PlanJSONPatch(doc, patch)
	if err != nil {
		return "", err
	}
	return ApplyEdits(doc.Text(), edits)
}

// PlanJSONPatch maps patch operations onto replace and insert edits.
//
//   - replace: the addressed value is replaced by the op value.
//   - add: an existing member is replaced; a new key or an index equal to the
//     sequence length ("-" included) is appended.
//   - test: the addressed value must equal the op value.
//
// remove, move and copy are rejected with ErrUnsupportedOperation.
func PlanJSONPatch(doc *Document, patch jsonpatch.Patch) ([]Edit, error) {
	var replaces []ReplaceRequest
	var edits []Edit
	pending := make(map[string]int)

	for i, op := range patch {
		path, err := op.Path()
		if err != nil {
			return nil, fmt.Errorf("op %d: %w: %w", i, ErrInvalidPointer, err)
		}
		p, err := ParsePointer(path)
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}

		switch kind := op.Kind(); kind {
		case "replace":
			value, err := opValue(op)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			if _, err := Resolve(doc.root, p); err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			replaces = append(replaces, ReplaceRequest{Pointer: path, Fix: value})

		case "add":
			value, err := opValue(op)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			e, isReplace, err := doc.planAdd(p, value, pending)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			if isReplace {
				replaces = append(replaces, ReplaceRequest{Pointer: path, Fix: value})
				continue
			}
			edits = append(edits, e)

		case "test":
			value, err := opValue(op)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			if err := doc.testValue(p, value); err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}

		default:
			return nil, fmt.Errorf("op %d: %w: %q", i, ErrUnsupportedOperation, kind)
		}
	}

	replaceEdits, err := PlanReplace(doc, replaces...)
	if err != nil {
		return nil, err
	}
	return append(replaceEdits, edits...), nil
}

func opValue(op jsonpatch.Operation) (Fix, error) {
	raw, ok := op["value"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("%w: %s op has no value", ErrSerialization, op.Kind())
	}
	return ParseFix(string(*raw), FormatJSON)
}

// planAdd plans an add op. isReplace is set when the path already names a member.
func (d *Document) planAdd(p Pointer, value Fix, pending map[string]int) (Edit, bool, error) {
	if len(p) == 0 {
		return Edit{}, true, nil
	}
	parent, last := p.Parent(), p.Last()
	container, err := Resolve(d.root, parent)
	if err != nil {
		return Edit{}, false, err
	}

	key := parent.String()
	target := parent
	var fix Fix
	switch {
	case last == AppendToken:
		target, fix = p, value
	case container.Kind() == SequenceKind:
		// Elements added earlier in the patch count toward the length.
		size := len(container.Children()) + pending[key]
		idx, ok := parseIndex(last)
		switch {
		case !ok || idx > size:
			return Edit{}, false, fmt.Errorf("%w: index %q out of range", ErrInvalidPointer, last)
		case idx < size:
			return Edit{}, false, fmt.Errorf("%w: add before existing element %d", ErrUnsupportedOperation, idx)
		}
		target, fix = parent.Append(AppendToken), value
	default:
		if _, err := Resolve(d.root, p); err == nil {
			return Edit{}, true, nil
		}
		fix = Mapping{{Key: last, Value: value}}
	}

	res, err := d.planInsert(target, fix, pending[key], DefaultInsertOptions)
	if err != nil {
		return Edit{}, false, err
	}
	pending[key]++
	return res.Edit(), false, nil
}

// testValue compares the value at p with want.
func (d *Document) testValue(p Pointer, want Fix) error {
	n, err := Resolve(d.root, p)
	if err != nil {
		return err
	}
	got, err := d.Value(n)
	if err != nil {
		return err
	}
	if !Equal(got, want) {
		return fmt.Errorf("%w: value at %q differs", ErrTestFailed, p.String())
	}
	return nil
}

// Value decodes the data held by n.
func (d *Document) Value(n Node) (Fix, error) {
	span := n.Span()
	if span.Empty() {
		return Null{}, nil
	}
	text := spaces(d.column(span.Start)) + d.Slice(span)
	return ParseFix(text, FormatYAML)
}
