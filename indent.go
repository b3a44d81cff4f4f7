package yamlsplice

import (
	"bytes"
	"strings"
)

// seqIndent records whether block sequences that are values of mapping keys are
// indented one level under the key, written flush with it, or unknown.
type seqIndent int

const (
	seqIndentUnknown seqIndent = iota
	seqIndentIndented
	seqIndentFlush
)

// layout holds the document-wide formatting conventions.
type layout struct {
	unit int
	seq  seqIndent
	nl   string
}

// detectLayout reads the indentation step, the sequence convention and the line
// break style from the raw source.
func detectLayout(b []byte) layout {
	lines := bytes.Split(b, []byte("\n"))
	unit := indentUnit(lines)
	return layout{
		unit: unit,
		seq:  sequenceConvention(lines, unit),
		nl:   lineBreakStyle(b),
	}
}

// indentUnit is the greatest common divisor of every content line's indent. Flat
// documents and implausibly wide steps fall back to 2.
func indentUnit(lines [][]byte) int {
	unit := 0
	for _, ln := range lines {
		if contentLine(ln) {
			if w := leadingSpaces(ln); w > 0 {
				unit = gcd(unit, w)
			}
		}
	}
	if unit == 0 || unit > 8 {
		return 2
	}
	return unit
}

// sequenceConvention looks at the first content line after each bare "key:" line.
// A dash one unit deeper counts for indented sequences, a dash at the key's column
// counts for flush ones; the majority wins.
func sequenceConvention(lines [][]byte, unit int) seqIndent {
	balance := 0
	for i, ln := range lines {
		if !contentLine(ln) || !opensBlock(ln) {
			continue
		}
		key := leadingSpaces(ln)
		for _, next := range lines[i+1:] {
			if !contentLine(next) {
				continue
			}
			if body := bytes.TrimLeft(next, " "); body[0] == '-' {
				switch leadingSpaces(next) {
				case key + unit:
					balance++
				case key:
					balance--
				}
			}
			break
		}
	}
	switch {
	case balance > 0:
		return seqIndentIndented
	case balance < 0:
		return seqIndentFlush
	}
	return seqIndentUnknown
}

// lineBreakStyle returns the break used by the first line of b.
func lineBreakStyle(b []byte) string {
	if i := bytes.IndexByte(b, '\n'); i > 0 && b[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// contentLine reports whether ln holds something other than whitespace or a comment.
func contentLine(ln []byte) bool {
	t := bytes.TrimSpace(ln)
	return len(t) > 0 && t[0] != '#'
}

// opensBlock reports whether ln is "key:" with nothing but a comment after the colon.
func opensBlock(ln []byte) bool {
	colon := bytes.IndexByte(ln, ':')
	if colon < 0 {
		return false
	}
	rest := bytes.TrimSpace(ln[colon+1:])
	return len(rest) == 0 || rest[0] == '#'
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func leadingSpaces(line []byte) int {
	return len(line) - len(bytes.TrimLeft(line, " "))
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
