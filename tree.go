package yamlsplice

import "fmt"

// Kind is the structural kind of a node.
type Kind int

const (
	ScalarKind Kind = iota
	MappingKind
	SequenceKind
)

func (k Kind) String() string {
	switch k {
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	default:
		return "scalar"
	}
}

// Span is a half-open byte range [Start, End) into the document source.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

// Contains reports whether o lies within s.
func (s Span) Contains(o Span) bool { return s.Start <= o.Start && o.End <= s.End }

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

func (s Span) String() string { return fmt.Sprintf("[%d,%d)", s.Start, s.End) }

// Node is a read-only view of one location in a parsed document.
//
// Key and KeySpan are only meaningful for members of a mapping. Span covers the value
// text: for a flow collection it includes the brackets, for a block collection it runs
// from the first member (or first dash) to the end of the last member's value.
type Node interface {
	Kind() Kind
	Key() (string, bool)
	KeySpan() (Span, bool)
	Span() Span
	Children() []Node
	Parent() Node
	Depth() int
}

// Resolve walks ptr from root. Mapping segments match keys, the last duplicate wins;
// sequence segments must be decimal indexes.
func Resolve(root Node, ptr Pointer) (Node, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidPointer)
	}
	cur := root
	for i, seg := range ptr {
		next, ok := child(cur, seg)
		if !ok {
			return nil, fmt.Errorf("%w: %q does not resolve at segment %d", ErrInvalidPointer, ptr.String(), i)
		}
		cur = next
	}
	return cur, nil
}

func child(n Node, seg string) (Node, bool) {
	switch n.Kind() {
	case MappingKind:
		kids := n.Children()
		for i := len(kids) - 1; i >= 0; i-- {
			if k, ok := kids[i].Key(); ok && k == seg {
				return kids[i], true
			}
		}
	case SequenceKind:
		idx, ok := parseIndex(seg)
		kids := n.Children()
		if ok && idx < len(kids) {
			return kids[idx], true
		}
	}
	return nil, false
}

// lastChild returns the final child of n, or nil.
func lastChild(n Node) Node {
	kids := n.Children()
	if len(kids) == 0 {
		return nil
	}
	return kids[len(kids)-1]
}

// memberStart is where a child begins in the source: its key for mapping members,
// its value otherwise.
func memberStart(n Node) int {
	if ks, ok := n.KeySpan(); ok {
		return ks.Start
	}
	return n.Span().Start
}
