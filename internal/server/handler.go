package server

import (
	"context"

	"github.com/stuffbucket/slnpd/internal/schema"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

// Request is a validated command handed to a Handler.
type Request struct {
	Command *schema.Command
	Tree    *slnp.Tree
	Session *Session
}

// Name returns the command name.
func (r *Request) Name() string {
	return string(r.Command.Name)
}

// Read returns one tuple per repeating group instance at level.
func (r *Request) Read(level int, names ...string) [][]string {
	return slnp.Read(r.Tree, level, names...)
}

// ReadOne returns the flat level-1 values for names.
func (r *Request) ReadOne(names ...string) []string {
	return slnp.ReadOne(r.Tree, names...)
}

// Handler executes a command.
//
// Expected rejections are returned as an *slnp.Error (directly or wrapped);
// they go on the wire with their own status. Any other error, and any panic,
// is an unexpected fault and is reported as SLNP_CMD_EXECUTION_ERROR.
type Handler interface {
	Handle(ctx context.Context, req *Request) (slnp.Response, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) (slnp.Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (slnp.Response, error) {
	return f(ctx, req)
}
