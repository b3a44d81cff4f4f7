package yamlsplice

import (
	"fmt"
	"sort"
	"strings"
)

// Edit replaces the bytes in Span with Text. A zero-width span is an insertion.
type Edit struct {
	Span Span
	Text string
}

func (e Edit) String() string {
	return fmt.Sprintf("%s -> %q", e.Span, e.Text)
}

// ApplyEdits applies a batch of edits planned against src. Either every edit is
// applied or src is returned untouched with an error: spans must lie inside src and
// must not overlap. Insertions may sit at the boundary of a replaced span; several
// insertions at one offset are applied in batch order.
func ApplyEdits(src string, edits []Edit) (string, error) {
	if len(edits) == 0 {
		return src, nil
	}
	sorted, err := sortEdits(len(src), edits)
	if err != nil {
		return src, err
	}

	var b strings.Builder
	b.Grow(len(src))
	cursor := 0
	for _, e := range sorted {
		b.WriteString(src[cursor:e.Span.Start])
		b.WriteString(e.Text)
		cursor = e.Span.End
	}
	b.WriteString(src[cursor:])
	return b.String(), nil
}

// sortEdits orders edits by start offset, insertions before a replacement that starts
// at the same offset, and rejects out-of-range or overlapping spans.
func sortEdits(size int, edits []Edit) ([]Edit, error) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	doc := Span{Start: 0, End: size}
	for _, e := range sorted {
		if e.Span.Len() < 0 || !doc.Contains(e.Span) {
			return nil, fmt.Errorf("%w: span %s outside document of %d bytes", ErrConflictingEdits, e.Span, size)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Span, sorted[j].Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Empty() && !b.Empty()
	})

	// Non-empty spans are disjoint once sorted, so only the latest one can overlap.
	var prev Span
	for _, e := range sorted {
		if prev.Overlaps(e.Span) {
			return nil, fmt.Errorf("%w: %s overlaps an earlier edit %s", ErrConflictingEdits, e.Span, prev)
		}
		if !e.Span.Empty() {
			prev = e.Span
		}
	}
	return sorted, nil
}
