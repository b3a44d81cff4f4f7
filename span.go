package yamlsplice

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// yamlNode is the Node adapter over a yaml.v3 tree. yaml.v3 only records where a node
// starts, so the builder recovers exact value and key spans from the source text.
type yamlNode struct {
	kind     Kind
	key      string
	hasKey   bool
	keySpan  Span
	span     Span
	parent   *yamlNode
	children []Node
	depth    int
}

func (n *yamlNode) Kind() Kind { return n.kind }
func (n *yamlNode) Key() (string, bool) { return n.key, n.hasKey }
func (n *yamlNode) KeySpan() (Span, bool) { return n.keySpan, n.hasKey }
func (n *yamlNode) Span() Span { return n.span }
func (n *yamlNode) Children() []Node { return n.children }
func (n *yamlNode) Depth() int { return n.depth }

func (n *yamlNode) Parent() Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

type treeBuilder struct {
	src   []byte
	lines lineIndex
}

func (b *treeBuilder) pos(n *yaml.Node) int {
	return b.lines.offset(b.src, n.Line, n.Column)
}

func (b *treeBuilder) col(off int) int {
	return utf8.RuneCount(b.src[b.lines.start(off):off])
}

// build converts n. start is the known content offset, or -1 to use yaml.v3's
// position. ownerCol is the column of the key or dash owning n, used to bound block
// scalars and folded plain scalars.
func (b *treeBuilder) build(n *yaml.Node, parent *yamlNode, depth int, flow bool, start, ownerCol int) (*yamlNode, error) {
	out := &yamlNode{parent: parent, depth: depth}
	if start < 0 {
		start = b.pos(n)
	}
	start = skipProperties(b.src, start, n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode)

	switch n.Kind {
	case yaml.MappingNode:
		out.kind = MappingKind
		if err := b.buildMapping(out, n, flow, start); err != nil {
			return nil, err
		}
	case yaml.SequenceNode:
		out.kind = SequenceKind
		if err := b.buildSequence(out, n, flow, start); err != nil {
			return nil, err
		}
	default:
		out.kind = ScalarKind
		out.span = Span{Start: start, End: b.scalarEnd(n, start, flow, ownerCol)}
	}
	return out, nil
}

func (b *treeBuilder) buildMapping(out *yamlNode, n *yaml.Node, flow bool, start int) error {
	isFlow := start < len(b.src) && b.src[start] == '{'
	if isFlow {
		out.span = Span{Start: start, End: matchBracket(b.src, start)}
	}
	inner := flow || isFlow

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		ks := skipProperties(b.src, b.pos(k), false)
		ke := b.scalarEnd(k, ks, inner, -1)
		keyCol := b.col(ks)

		var child *yamlNode
		var err error
		colon, ok := findColon(b.src, ke)
		switch {
		case ok && isEmptyValue(b.src, v, colon+1, inner):
			child = &yamlNode{kind: ScalarKind, span: Span{Start: colon + 1, End: colon + 1}}
		case ok:
			child, err = b.build(v, out, out.depth+1, inner, skipBlank(b.src, colon+1), keyCol)
		default:
			child, err = b.build(v, out, out.depth+1, inner, -1, keyCol)
		}
		if err != nil {
			return err
		}
		child.parent = out
		child.depth = out.depth + 1
		child.key = keyName(k)
		child.hasKey = true
		child.keySpan = Span{Start: ks, End: ke}
		out.children = append(out.children, child)
	}

	if !isFlow {
		if len(out.children) == 0 {
			out.span = Span{Start: start, End: start}
			return nil
		}
		first := out.children[0].(*yamlNode)
		last := out.children[len(out.children)-1].(*yamlNode)
		out.span = Span{Start: first.keySpan.Start, End: last.span.End}
	}
	return nil
}

func (b *treeBuilder) buildSequence(out *yamlNode, n *yaml.Node, flow bool, start int) error {
	isFlow := start < len(b.src) && b.src[start] == '['
	if isFlow {
		out.span = Span{Start: start, End: matchBracket(b.src, start)}
	}
	inner := flow || isFlow

	for _, item := range n.Content {
		itemStart := skipProperties(b.src, b.pos(item), item.Kind == yaml.MappingNode || item.Kind == yaml.SequenceNode)
		ownerCol := -1
		dash, hasDash := -1, false
		if !isFlow {
			dash, hasDash = dashBefore(b.src, itemStart)
			if hasDash {
				ownerCol = b.col(dash)
			}
		}

		var child *yamlNode
		if !isFlow && isEmptyNull(item) && hasDash {
			// yaml.v3 places empty items at the following token; anchor them after their dash.
			child = &yamlNode{kind: ScalarKind, span: Span{Start: dash + 1, End: dash + 1}}
		} else {
			var err error
			child, err = b.build(item, out, out.depth+1, inner, itemStart, ownerCol)
			if err != nil {
				return err
			}
		}
		child.parent = out
		child.depth = out.depth + 1
		out.children = append(out.children, child)
	}

	if !isFlow {
		if len(out.children) == 0 {
			out.span = Span{Start: start, End: start}
			return nil
		}
		first := out.children[0].(*yamlNode)
		last := out.children[len(out.children)-1].(*yamlNode)
		s := first.span.Start
		if start < len(b.src) && b.src[start] == '-' {
			s = start
		} else if d, ok := dashBefore(b.src, first.span.Start); ok {
			s = d
		}
		out.span = Span{Start: s, End: last.span.End}
	}
	return nil
}

func (b *treeBuilder) scalarEnd(n *yaml.Node, start int, flow bool, ownerCol int) int {
	src := b.src
	if start >= len(src) {
		return len(src)
	}
	switch src[start] {
	case '"':
		return scanDoubleQuoted(src, start)
	case '\'':
		return scanSingleQuoted(src, start)
	case '|', '>':
		if n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
			return blockScalarEnd(src, start, ownerCol)
		}
	}
	end := plainEnd(src, start, flow)
	if !flow && n.Kind == yaml.ScalarNode && n.Style == 0 {
		end = foldedPlainEnd(src, n.Value, start, end, ownerCol)
	}
	return end
}

// foldedPlainEnd extends a plain scalar over continuation lines until the
// collapsed source text matches the parsed value.
func foldedPlainEnd(src []byte, value string, start, end, ownerCol int) int {
	want := collapse(value)
	if collapse(string(src[start:end])) == want {
		return end
	}
	i := lineBreak(src, end)
	for i < len(src) {
		ls := i + 1
		nl := lineBreak(src, ls)
		line := src[ls:nl]
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			if leadingSpaces(line) <= ownerCol || trimmed[0] == '#' {
				break
			}
			cs := ls + leadingSpaces(line)
			end = plainEnd(src, cs, false)
			if collapse(string(src[start:end])) == want {
				return end
			}
		}
		i = nl
	}
	return end
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func keyName(k *yaml.Node) string {
	switch k.Kind {
	case yaml.ScalarNode:
		return k.Value
	case yaml.AliasNode:
		if k.Alias != nil && k.Alias.Kind == yaml.ScalarNode {
			return k.Alias.Value
		}
	}
	return ""
}

func isEmptyNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null" && n.Value == "" && n.Style == 0 && n.Anchor == ""
}

// isEmptyValue reports whether the value after a mapping colon has no source text.
func isEmptyValue(src []byte, v *yaml.Node, from int, flow bool) bool {
	if !isEmptyNull(v) {
		return false
	}
	i := from
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) {
		return true
	}
	switch src[i] {
	case '\n', '\r', '#':
		return true
	case ',', '}', ']':
		return flow
	}
	return false
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isFlowIndicator(c byte) bool {
	return c == ',' || c == '[' || c == ']' || c == '{' || c == '}'
}

func lineBreak(src []byte, off int) int {
	if off >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(src)
}

// skipBlank skips whitespace, line breaks and comments.
func skipBlank(src []byte, off int) int {
	i := off
	for i < len(src) {
		switch {
		case isBlank(src[i]):
			i++
		case src[i] == '#' && i > 0 && isBlank(src[i-1]):
			i = lineBreak(src, i)
		default:
			return i
		}
	}
	return i
}

// skipProperties moves past anchors and tags. Only collections may continue on the
// next line after their properties.
func skipProperties(src []byte, off int, crossLines bool) int {
	for off < len(src) && (src[off] == '&' || src[off] == '!') {
		j := off
		for j < len(src) && !isBlank(src[j]) && !isFlowIndicator(src[j]) {
			j++
		}
		for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
			j++
		}
		if j < len(src) && (src[j] == '\n' || src[j] == '\r' || src[j] == '#') {
			if !crossLines {
				return j
			}
			j = skipBlank(src, j)
		}
		off = j
	}
	return off
}

func findColon(src []byte, off int) (int, bool) {
	i := off
	for i < len(src) && isBlank(src[i]) {
		i++
	}
	if i < len(src) && src[i] == ':' {
		return i, true
	}
	return -1, false
}

// dashBefore finds the block sequence indicator preceding off.
func dashBefore(src []byte, off int) (int, bool) {
	i := off - 1
	for i >= 0 && isBlank(src[i]) {
		i--
	}
	if i >= 0 && src[i] == '-' && (i == 0 || isBlank(src[i-1]) || src[i-1] == '-') {
		return i, true
	}
	return -1, false
}

func scanDoubleQuoted(src []byte, start int) int {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(src)
}

func scanSingleQuoted(src []byte, start int) int {
	for i := start + 1; i < len(src); i++ {
		if src[i] == '\'' {
			if i+1 < len(src) && src[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(src)
}

func plainEnd(src []byte, start int, flow bool) int {
	i := start
	for i < len(src) {
		c := src[i]
		if c == '\n' || c == '\r' {
			break
		}
		if c == '#' && i > start && (src[i-1] == ' ' || src[i-1] == '\t') {
			break
		}
		if c == ':' && i > start && (i+1 >= len(src) || isBlank(src[i+1]) || (flow && isFlowIndicator(src[i+1]))) {
			break
		}
		if flow && i > start && isFlowIndicator(c) {
			break
		}
		i++
	}
	for i > start && (src[i-1] == ' ' || src[i-1] == '\t') {
		i--
	}
	return i
}

// blockScalarEnd returns the end of a literal or folded scalar: the last non-blank
// line indented deeper than ownerCol.
func blockScalarEnd(src []byte, start, ownerCol int) int {
	nl := lineBreak(src, start)
	end := start + len(bytes.TrimRight(src[start:nl], " \t\r"))
	i := nl
	for i < len(src) {
		ls := i + 1
		next := lineBreak(src, ls)
		line := src[ls:next]
		if len(bytes.TrimSpace(line)) > 0 {
			if leadingSpaces(line) <= ownerCol {
				break
			}
			end = ls + len(bytes.TrimRight(line, " \t\r"))
		}
		i = next
	}
	return end
}

// matchBracket returns the offset just past the bracket closing the one at start.
func matchBracket(src []byte, start int) int {
	depth := 0
	for i := start; i < len(src); i++ {
		c := src[i]
		boundary := i == start || isBlank(src[i-1]) || isFlowIndicator(src[i-1]) || src[i-1] == ':'
		switch {
		case c == '"' && boundary:
			i = scanDoubleQuoted(src, i) - 1
		case c == '\'' && boundary:
			i = scanSingleQuoted(src, i) - 1
		case c == '#' && i > start && isBlank(src[i-1]):
			i = lineBreak(src, i) - 1
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(src)
}
