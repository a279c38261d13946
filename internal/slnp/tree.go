package slnp

import (
	"strconv"
	"strings"
)

type nodeKind uint8

const (
	kindCommand nodeKind = iota
	kindGroup
	kindParam
)

// node is one position in the parsed command. Nodes are appended in line
// order, which is also depth-first order, so the arena index is the tree order.
type node struct {
	kind     nodeKind
	name     string
	value    string
	level    int
	ordinal  int // 1-based position among siblings
	parent   int // -1 for the command root
	children []int
	line     int
}

// Tree is the parsed form of one framed request.
type Tree struct {
	Valid   bool
	Name    string // command name, set once the command line was seen
	ErrLine int    // 1-based line of the first structural error, 0 if none
	ErrText string // offending line, trimmed
	Err     *Error

	nodes []node
}

// Entry is a read-only view of a parameter line in the tree.
type Entry struct {
	Key   string
	Name  string
	Value string
	Level int
	Line  int
}

func newTree() *Tree {
	return &Tree{
		Valid: true,
		nodes: []node{{kind: kindCommand, parent: -1}},
	}
}

func (t *Tree) fail(err *Error, line int, text string) {
	t.Valid = false
	t.Err = err
	t.ErrLine = line
	t.ErrText = text
}

func (t *Tree) addChild(parent int, n node) int {
	p := &t.nodes[parent]
	n.parent = parent
	n.level = p.level + 1
	n.ordinal = len(p.children) + 1
	idx := len(t.nodes)
	t.nodes = append(t.nodes, n)
	t.nodes[parent].children = append(t.nodes[parent].children, idx)
	return idx
}

func (t *Tree) addGroup(parent, line int) int {
	return t.addChild(parent, node{kind: kindGroup, line: line})
}

func (t *Tree) addParam(parent int, name, value string, line int) int {
	return t.addChild(parent, node{kind: kindParam, name: name, value: value, line: line})
}

// leaves returns the arena indexes of all parameter nodes in tree order.
func (t *Tree) leaves() []int {
	out := make([]int, 0, len(t.nodes))
	for i := range t.nodes {
		if t.nodes[i].kind == kindParam {
			out = append(out, i)
		}
	}
	return out
}

// key renders the sibling ordinals from the root down to i, e.g. "2.1".
func (t *Tree) key(i int) string {
	var parts []string
	for ; i > 0; i = t.nodes[i].parent {
		parts = append(parts, strconv.Itoa(t.nodes[i].ordinal))
	}
	for l, r := 0, len(parts)-1; l < r; l, r = l+1, r-1 {
		parts[l], parts[r] = parts[r], parts[l]
	}
	return strings.Join(parts, ".")
}

// Entries lists every parameter line in tree order.
func (t *Tree) Entries() []Entry {
	idx := t.leaves()
	out := make([]Entry, 0, len(idx))
	for _, i := range idx {
		n := t.nodes[i]
		out = append(out, Entry{
			Key:   t.key(i),
			Name:  n.name,
			Value: n.value,
			Level: n.level,
			Line:  n.line,
		})
	}
	return out
}

// LeafCount returns the number of parameter lines in the tree.
func (t *Tree) LeafCount() int {
	return len(t.leaves())
}

// Groups returns the number of repeating group instances opened in the tree.
func (t *Tree) Groups() int {
	n := 0
	for i := range t.nodes {
		if t.nodes[i].kind == kindGroup {
			n++
		}
	}
	return n
}

// CompareKeys orders two hierarchical keys as produced by Entries: segments
// are compared numerically, and on an equal prefix the deeper key is greater.
func CompareKeys(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, _ := strconv.Atoi(as[i])
		y, _ := strconv.Atoi(bs[i])
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
