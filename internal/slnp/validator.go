package slnp

import "github.com/stuffbucket/slnpd/internal/schema"

type presenceKey struct {
	name  string
	level int
}

// Validate checks a parsed tree against the schema entry for its command and
// rewrites each known parameter value to the first capture group of its
// pattern. cmd is nil when the command is unknown. The first failure wins.
func Validate(t *Tree, cmd *schema.Command, rejectUnspecified bool) *Tree {
	if !t.Valid {
		return t
	}
	if cmd == nil {
		t.fail(NewError(ErrCmdNotImplemented, "Command %s not implemented", t.Name), t.nodes[0].line, t.Name)
		return t
	}

	leaves := t.leaves()
	presence := make(map[presenceKey]int, len(leaves))
	for _, i := range leaves {
		n := &t.nodes[i]
		presence[presenceKey{n.name, n.level}]++
	}

	for _, p := range cmd.Params {
		if p.Mandatory && presence[presenceKey{p.Name, p.Level}] == 0 {
			t.fail(NewError(ErrMandParamLacking, "Mandatory parameter %s lacking", p.Name), 0, "")
			return t
		}
	}

	for _, i := range leaves {
		n := &t.nodes[i]
		p, ok := cmd.Param(n.name)
		if !ok {
			if rejectUnspecified {
				t.fail(NewError(ErrParamUnspecified, "Parameter %s not specified for %s", n.name, cmd.Name), n.line, n.name)
				return t
			}
			continue
		}
		if n.level != p.Level {
			t.fail(NewError(ErrParamLevelWrong, "Parameter %s on level %d, expected %d", n.name, n.level, p.Level), n.line, n.name)
			return t
		}
		m := p.Pattern.FindStringSubmatch(n.value)
		if m == nil {
			t.fail(NewError(ErrParamValueInvalid, "Value of parameter %s not valid", n.name), n.line, n.name)
			return t
		}
		n.value = m[1]
	}
	return t
}
