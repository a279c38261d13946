package server

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/stuffbucket/slnpd/internal/logging"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

// Session is the state of one peer connection. It is owned by the
// connection's goroutine and never shared.
type Session struct {
	ID         string
	RemoteAddr string
	Started    time.Time

	loggedIn bool
	user     string
	quit     bool
	commands int
	bytesOut int64
}

// NewSession creates session state for a peer address.
func NewSession(remote net.Addr) *Session {
	s := &Session{
		ID:      uuid.New().String(),
		Started: time.Now(),
	}
	if remote != nil {
		s.RemoteAddr = remote.String()
	}
	return s
}

// LoggedIn reports whether a login handler authenticated this session.
func (s *Session) LoggedIn() bool { return s.loggedIn }

// User returns the authenticated user name, if any.
func (s *Session) User() string { return s.user }

// Login marks the session as authenticated.
func (s *Session) Login(user string) {
	s.loggedIn = true
	s.user = user
}

// Quit ends the session after the current command.
func (s *Session) Quit() { s.quit = true }

// Commands returns how many commands were processed.
func (s *Session) Commands() int { return s.commands }

// CommandRecord describes one processed command for the journal.
type CommandRecord struct {
	SessionID string
	Remote    string
	Command   string
	Code      int
	ErrorType string
	Duration  time.Duration
	At        time.Time
}

// Journal persists command records. Failures are logged, never surfaced to
// the peer.
type Journal interface {
	RecordCommand(ctx context.Context, rec CommandRecord) error
}

// EngineConfig configures command processing.
type EngineConfig struct {
	Dispatcher        *Dispatcher
	RequireLogin      bool
	RejectUnspecified bool
	Journal           Journal // optional
}

// Engine runs parse, validate, login gate, dispatch and render for a framed
// request. It holds no per-connection state and is safe for concurrent use.
type Engine struct {
	dispatcher        *Dispatcher
	requireLogin      bool
	rejectUnspecified bool
	journal           Journal
}

// NewEngine creates an engine.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		dispatcher:        cfg.Dispatcher,
		requireLogin:      cfg.RequireLogin,
		rejectUnspecified: cfg.RejectUnspecified,
		journal:           cfg.Journal,
	}
}

// Process handles one framed request and returns the response text.
func (e *Engine) Process(ctx context.Context, sess *Session, raw string) string {
	start := time.Now()
	resp, name := e.process(ctx, sess, raw)
	sess.commands++

	log := logging.L().With("session", sess.ID, "command", name)
	if resp.Err != nil {
		if resp.Err.Diagnostic != "" {
			log.Error("command failed", "type", resp.Err.Type, "text", resp.Err.Text, "diagnostic", resp.Err.Diagnostic)
		} else {
			log.Info("command rejected", "type", resp.Err.Type, "text", resp.Err.Text)
		}
	} else {
		log.Debug("command completed", "params", len(resp.Params), "elapsed", time.Since(start))
	}

	if e.journal != nil {
		rec := CommandRecord{
			SessionID: sess.ID,
			Remote:    sess.RemoteAddr,
			Command:   name,
			Code:      resp.Code(),
			Duration:  time.Since(start),
			At:        start,
		}
		if resp.Err != nil {
			rec.ErrorType = string(resp.Err.Type)
		}
		if err := e.journal.RecordCommand(ctx, rec); err != nil {
			log.Warn("journal write failed", "error", err)
		}
	}

	return slnp.Render(name, resp)
}

func (e *Engine) process(ctx context.Context, sess *Session, raw string) (slnp.Response, string) {
	tree := slnp.Parse(raw)
	if !tree.Valid {
		return slnp.Failure(tree.Err), tree.Name
	}

	cmd, h, known := e.dispatcher.Lookup(tree.Name)
	if e.requireLogin && !sess.loggedIn && !(known && cmd.Login) {
		return slnp.Failure(slnp.NewError(slnp.ErrNotLoggedIn, "Not logged in")), tree.Name
	}

	slnp.Validate(tree, cmd, e.rejectUnspecified)
	if !tree.Valid {
		return slnp.Failure(tree.Err), tree.Name
	}

	req := &Request{Command: cmd, Tree: tree, Session: sess}
	return e.dispatcher.Dispatch(ctx, h, req), tree.Name
}
