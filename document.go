package yamlsplice

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Format selects the surface syntax of a document.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "yaml"
}

// ParseFormat maps a format name ("json", "yaml", "yml") to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatYAML, fmt.Errorf("yamlsplice: unknown format %q", name)
}

// FormatForPath picks the format from a file extension; anything but .json is YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Position is a 0-based line and character (rune) coordinate.
type Position struct {
	Line      int
	Character int
}

// Document is an immutable snapshot of source text and its parse tree. Offsets
// produced by planning calls are only valid against the snapshot they came from.
type Document struct {
	src    []byte
	format Format
	root   Node
	lines  lineIndex
	layout layout
}

// Parse parses JSON or YAML source into a Document. JSON is read as flow YAML, so
// dangling commas before a closing bracket are tolerated.
func Parse(src []byte, format Format) (*Document, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrParse)
	}

	lines := newLineIndex(src)
	b := &treeBuilder{src: src, lines: lines}
	root, err := b.build(doc.Content[0], nil, 0, false, -1, -1)
	if err != nil {
		return nil, err
	}
	return &Document{
		src:    src,
		format: format,
		root:   root,
		lines:  lines,
		layout: detectLayout(src),
	}, nil
}

// NewDocument wraps a tree produced by another parser. root's spans must index src.
func NewDocument(src []byte, format Format, root Node) *Document {
	return &Document{
		src:    src,
		format: format,
		root:   root,
		lines:  newLineIndex(src),
		layout: detectLayout(src),
	}
}

func (d *Document) Text() string { return string(d.src) }
func (d *Document) Bytes() []byte { return d.src }
func (d *Document) Format() Format { return d.format }
func (d *Document) Root() Node { return d.root }

// IndentUnit is the detected indentation step in spaces.
func (d *Document) IndentUnit() int { return d.layout.unit }

// Lookup resolves an RFC 6901 pointer against the document.
func (d *Document) Lookup(ptr string) (Node, error) {
	p, err := ParsePointer(ptr)
	if err != nil {
		return nil, err
	}
	return Resolve(d.root, p)
}

// Slice returns the source text covered by s.
func (d *Document) Slice(s Span) string {
	return string(d.src[s.Start:s.End])
}

// Position converts a byte offset into a line/character coordinate.
func (d *Document) Position(off int) Position {
	return d.lines.position(d.src, off)
}

// Offset converts a line/character coordinate into a byte offset.
func (d *Document) Offset(p Position) int {
	return d.lines.offset(d.src, p.Line+1, p.Character+1)
}

// lineStart returns the offset of the first byte of the line containing off.
func (d *Document) lineStart(off int) int {
	return d.lines.start(off)
}

// lineEnd returns the offset of the newline ending the line containing off, or len(src).
func (d *Document) lineEnd(off int) int {
	if i := bytes.IndexByte(d.src[off:], '\n'); i >= 0 {
		end := off + i
		if end > 0 && d.src[end-1] == '\r' {
			end--
		}
		return end
	}
	return len(d.src)
}

// column is the number of runes between the line start and off.
func (d *Document) column(off int) int {
	return utf8.RuneCount(d.src[d.lineStart(off):off])
}

// indentAt returns the text before off on its line when that text is pure
// whitespace, otherwise a run of spaces as wide as the column.
func (d *Document) indentAt(off int) string {
	prefix := d.src[d.lineStart(off):off]
	if len(bytes.Trim(prefix, " \t")) == 0 {
		return string(prefix)
	}
	return spaces(utf8.RuneCount(prefix))
}

// lineIndent returns the leading whitespace of the line containing off.
func (d *Document) lineIndent(off int) string {
	ls := d.lineStart(off)
	i := ls
	for i < len(d.src) && (d.src[i] == ' ' || d.src[i] == '\t') {
		i++
	}
	return string(d.src[ls:i])
}

// aloneOnLine reports whether only whitespace precedes off on its line.
func (d *Document) aloneOnLine(off int) bool {
	return len(bytes.Trim(d.src[d.lineStart(off):off], " \t")) == 0
}

// lineTail extends off over trailing blanks and a same-line comment so inserted
// lines do not steal comments from the member they follow.
func (d *Document) lineTail(off int) int {
	i := off
	for i < len(d.src) && (d.src[i] == ' ' || d.src[i] == '\t') {
		i++
	}
	if i < len(d.src) && d.src[i] == '#' {
		return d.lineEnd(i)
	}
	return off
}

// colonAfter finds the mapping indicator following a key that ends at off.
func (d *Document) colonAfter(off int) (int, bool) {
	return findColon(d.src, off)
}

type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	li := lineIndex{0}
	for i, c := range src {
		if c == '\n' {
			li = append(li, i+1)
		}
	}
	return li
}

// line returns the 0-based line containing off.
func (li lineIndex) line(off int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > off }) - 1
}

func (li lineIndex) start(off int) int {
	l := li.line(off)
	if l < 0 {
		return 0
	}
	return li[l]
}

// offset converts a 1-based line and 1-based rune column into a byte offset.
func (li lineIndex) offset(src []byte, line, col int) int {
	if line < 1 {
		return 0
	}
	if line > len(li) {
		return len(src)
	}
	off := li[line-1]
	for i := 1; i < col && off < len(src) && src[off] != '\n'; i++ {
		_, w := utf8.DecodeRune(src[off:])
		off += w
	}
	return off
}

func (li lineIndex) position(src []byte, off int) Position {
	if off > len(src) {
		off = len(src)
	}
	l := li.line(off)
	if l < 0 {
		return Position{}
	}
	return Position{Line: l, Character: utf8.RuneCount(src[li[l]:off])}
}
