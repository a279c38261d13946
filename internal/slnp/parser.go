package slnp

import (
	"regexp"
	"strings"
)

// Structural tokens.
const (
	TokenBegin      = "SLNPBegin"
	TokenEnd        = "SLNPEnd"
	TokenEndCommand = "SLNPEndCommand"
	TokenQuit       = "SLNPQuit"
	TokenEndOfData  = "SLNPEndOfData"
)

var (
	controlLine    = regexp.MustCompile(`^\s*(SLNPBegin|SLNPEnd|SLNP\w+)\s*$`)
	paramLine      = regexp.MustCompile(`^\s*(\w+)\s*:(.*)$`)
	terminatorLine = regexp.MustCompile(`(?m)^\s*(SLNPEndCommand|SLNPQuit)\s*$`)
)

// IsTerminator reports whether line closes a request frame and returns the
// terminating token.
func IsTerminator(line string) (string, bool) {
	m := terminatorLine.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Parse turns a framed request into a Tree. Malformed input never panics or
// returns an error: the tree comes back with Valid false and Err describing
// the first problem found.
func Parse(raw string) *Tree {
	t := newTree()
	raw = strings.ReplaceAll(raw, "\r", "")

	if !terminatorLine.MatchString(raw) {
		t.fail(NewError(ErrEndCommandLacking, "%s lacking", TokenEndCommand), 0, "")
		return t
	}

	var (
		lv   int // current nesting depth
		cur  int // arena index of the open container
		done bool
	)
	syntaxError := func(n int, line string) {
		text := strings.TrimSpace(line)
		t.fail(NewError(ErrReqFormat, "Syntax error in line %d: %s", n, text), n, text)
	}

	for i, line := range strings.Split(raw, "\n") {
		n := i + 1
		if strings.TrimSpace(line) == "" {
			continue
		}
		if done {
			syntaxError(n, line)
			return t
		}

		if m := controlLine.FindStringSubmatch(line); m != nil {
			switch tok := m[1]; tok {
			case TokenEndCommand:
				if lv != 1 {
					syntaxError(n, line)
					return t
				}
				lv, done = 0, true
			case TokenBegin:
				if lv <= 0 {
					syntaxError(n, line)
					return t
				}
				cur = t.addGroup(cur, n)
				lv++
			case TokenEnd:
				if lv <= 1 {
					syntaxError(n, line)
					return t
				}
				cur = t.nodes[cur].parent
				lv--
			default:
				if lv != 0 {
					syntaxError(n, line)
					return t
				}
				t.Name = tok
				t.nodes[0].name = tok
				t.nodes[0].line = n
				cur, lv = 0, 1
				if tok == TokenQuit {
					lv, done = 0, true
				}
			}
			continue
		}

		if m := paramLine.FindStringSubmatch(line); m != nil {
			if lv < 1 {
				syntaxError(n, line)
				return t
			}
			t.addParam(cur, m[1], m[2], n)
			continue
		}

		syntaxError(n, line)
		return t
	}

	if !done {
		t.fail(NewError(ErrEndCommandLacking, "%s lacking", TokenEndCommand), 0, "")
	}
	return t
}
