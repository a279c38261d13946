// Package schema holds the static table of SLNP commands the connector
// accepts: their parameters, nesting levels, validation patterns and the
// identifier of the handler that executes them.
//
// A Registry is built once at startup and never mutated afterwards, so it can
// be shared by every connection without locking.
package schema

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

// CommandName is the top-level command identifier, e.g. "SLNPFLBestellung".
type CommandName string

// HandlerID names a command handler implementation, e.g. "ill.order".
type HandlerID string

// Param describes one recognized parameter of a command.
type Param struct {
	Name      string
	Level     int
	Pattern   *regexp.Regexp
	Mandatory bool
}

// Command is the schema entry for one command.
type Command struct {
	Name    CommandName
	Handler HandlerID
	// Login marks the command that authenticates a session; it is exempt
	// from the login gate.
	Login  bool
	Params []Param

	byName map[string]int
}

// Param looks up a parameter by name.
func (c *Command) Param(name string) (Param, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Param{}, false
	}
	return c.Params[i], true
}

// Registry is an immutable set of commands.
type Registry struct {
	commands map[CommandName]*Command
}

var (
	ErrNoCaptureGroup = errors.New("schema: pattern has no capture group")
	ErrDuplicateParam = errors.New("schema: duplicate parameter")
	ErrInvalidLevel   = errors.New("schema: level must be >= 1")
	ErrNoHandler      = errors.New("schema: handler is required")
	ErrDuplicateCmd   = errors.New("schema: duplicate command")
)

// New checks the given commands and builds a Registry from them.
func New(commands ...Command) (*Registry, error) {
	r := &Registry{commands: make(map[CommandName]*Command, len(commands))}
	for i := range commands {
		cmd := commands[i]
		if cmd.Name == "" {
			return nil, errors.New("schema: command name is required")
		}
		if _, dup := r.commands[cmd.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCmd, cmd.Name)
		}
		if cmd.Handler == "" {
			return nil, fmt.Errorf("%w: %s", ErrNoHandler, cmd.Name)
		}
		params := make([]Param, len(cmd.Params))
		copy(params, cmd.Params)
		cmd.Params = params
		cmd.byName = make(map[string]int, len(params))
		for j, p := range params {
			if _, dup := cmd.byName[p.Name]; dup {
				return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateParam, cmd.Name, p.Name)
			}
			if p.Level < 1 {
				return nil, fmt.Errorf("%w: %s.%s", ErrInvalidLevel, cmd.Name, p.Name)
			}
			if p.Pattern == nil || p.Pattern.NumSubexp() < 1 {
				return nil, fmt.Errorf("%w: %s.%s", ErrNoCaptureGroup, cmd.Name, p.Name)
			}
			cmd.byName[p.Name] = j
		}
		r.commands[cmd.Name] = &cmd
	}
	return r, nil
}

// Lookup returns the schema entry for name.
func (r *Registry) Lookup(name CommandName) (*Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns all commands sorted by name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of commands.
func (r *Registry) Len() int {
	return len(r.commands)
}
