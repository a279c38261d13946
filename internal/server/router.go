package server

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"

	"github.com/stuffbucket/slnpd/internal/schema"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

// ErrUnknownHandler is returned by Bind when the schema names a handler that
// was never registered.
var ErrUnknownHandler = errors.New("server: unknown handler")

// Router collects handler implementations by identifier.
type Router struct {
	handlers map[schema.HandlerID]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[schema.HandlerID]Handler)}
}

// Handle registers a handler under id.
func (r *Router) Handle(id schema.HandlerID, h Handler) {
	r.handlers[id] = h
}

// HandleFunc registers a handler function under id.
func (r *Router) HandleFunc(id schema.HandlerID, f HandlerFunc) {
	r.handlers[id] = f
}

// Handlers returns the registered identifiers, sorted.
func (r *Router) Handlers() []schema.HandlerID {
	ids := make([]schema.HandlerID, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Bind resolves every command of reg to its handler. The result is read-only
// and shared by all connections.
func (r *Router) Bind(reg *schema.Registry) (*Dispatcher, error) {
	d := &Dispatcher{
		registry: reg,
		routes:   make(map[schema.CommandName]Handler, reg.Len()),
	}
	for _, cmd := range reg.Commands() {
		h, ok := r.handlers[cmd.Handler]
		if !ok {
			return nil, fmt.Errorf("%w: %s (command %s)", ErrUnknownHandler, cmd.Handler, cmd.Name)
		}
		d.routes[cmd.Name] = h
	}
	return d, nil
}

// Dispatcher maps command names to bound handlers.
type Dispatcher struct {
	registry *schema.Registry
	routes   map[schema.CommandName]Handler
}

// Registry returns the schema the dispatcher was bound to.
func (d *Dispatcher) Registry() *schema.Registry {
	return d.registry
}

// Lookup returns the schema entry and handler for a command name.
func (d *Dispatcher) Lookup(name string) (*schema.Command, Handler, bool) {
	cmd, ok := d.registry.Lookup(schema.CommandName(name))
	if !ok {
		return nil, nil, false
	}
	return cmd, d.routes[cmd.Name], true
}

// Dispatch runs h and converts faults into an execution error response.
func (d *Dispatcher) Dispatch(ctx context.Context, h Handler, req *Request) (resp slnp.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = slnp.Failure(slnp.NewError(slnp.ErrCmdExecution, "%v", rec).
				WithDiagnostic(fmt.Sprintf("panic in %s: %v\n%s", req.Name(), rec, debug.Stack())))
		}
	}()

	out, err := h.Handle(ctx, req)
	if err != nil {
		var perr *slnp.Error
		if errors.As(err, &perr) {
			return slnp.Failure(perr)
		}
		return slnp.Failure(slnp.NewError(slnp.ErrCmdExecution, "%s", err.Error()).
			WithDiagnostic(fmt.Sprintf("%s failed: %+v", req.Name(), err)))
	}
	return out
}
