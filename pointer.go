package yamlsplice

import (
	"fmt"
	"strconv"
	"strings"
)

// AppendToken is the RFC 6901 "past the end" array segment.
const AppendToken = "-"

var (
	pointerEscaper   = strings.NewReplacer("~", "~0", "/", "~1")
	pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")
)

// Pointer is a parsed JSON Pointer. Each segment is a mapping key or an array index;
// which one is decided by the node the segment is applied to.
type Pointer []string

// ParsePointer parses an RFC 6901 pointer. "" addresses the root and "/" the member
// whose key is empty. A '~' must be followed by '0' or '1'.
func ParsePointer(p string) (Pointer, error) {
	if p == "" {
		return Pointer{}, nil
	}
	if !strings.HasPrefix(p, "/") {
		return nil, fmt.Errorf("%w: must start with '/': %q", ErrInvalidPointer, p)
	}
	parts := strings.Split(p, "/")[1:]
	ptr := make(Pointer, 0, len(parts))
	for i, s := range parts {
		if err := checkEscapes(s); err != nil {
			return nil, fmt.Errorf("%w: segment %d of %q: %w", ErrInvalidPointer, i, p, err)
		}
		ptr = append(ptr, pointerUnescaper.Replace(s))
	}
	return ptr, nil
}

func checkEscapes(seg string) error {
	for i := 0; i < len(seg); i++ {
		if seg[i] != '~' {
			continue
		}
		if i+1 == len(seg) || (seg[i+1] != '0' && seg[i+1] != '1') {
			return fmt.Errorf("bad escape at byte %d", i)
		}
		i++
	}
	return nil
}

// MustParsePointer is like ParsePointer but panics on error.
func MustParsePointer(p string) Pointer {
	ptr, err := ParsePointer(p)
	if err != nil {
		panic(err)
	}
	return ptr
}

func (p Pointer) String() string {
	if len(p) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, seg := range p {
		sb.WriteByte('/')
		sb.WriteString(pointerEscaper.Replace(seg))
	}
	return sb.String()
}

// Parent returns the pointer without its last segment.
func (p Pointer) Parent() Pointer {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1]
}

// Last returns the final segment, or "" for the root pointer.
func (p Pointer) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Append returns a new pointer with seg added.
func (p Pointer) Append(seg string) Pointer {
	out := make(Pointer, len(p), len(p)+1)
	copy(out, p)
	return append(out, seg)
}

// AppendIndex returns a new pointer with an array index added.
func (p Pointer) AppendIndex(i int) Pointer {
	return p.Append(strconv.Itoa(i))
}

func parseIndex(seg string) (int, bool) {
	if seg == "" || (len(seg) > 1 && seg[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}
