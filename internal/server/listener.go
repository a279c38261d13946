package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"runtime/debug"
	"sync"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/stuffbucket/slnpd/internal/logging"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

// SocketCheckTimeout bounds the probe for an already running listener.
const SocketCheckTimeout = 100 * time.Millisecond

// ListenerConfig holds configuration for an SLNP listener.
type ListenerConfig struct {
	Address       string
	Transport     Transport
	Engine        *Engine
	IdleTimeout   time.Duration // zero disables
	MaxFrameBytes int           // zero disables
}

// Listener accepts peer connections and runs one session per connection.
type Listener struct {
	address   string
	transport Transport
	engine    *Engine
	idle      time.Duration
	maxFrame  int
	netListen net.Listener

	// base is handed to sessions. It is cancelled when open sessions are
	// force-closed, never by the context passed to Serve.
	base       context.Context
	cancelBase context.CancelFunc

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewListener binds the configured address.
func NewListener(cfg ListenerConfig) (*Listener, error) {
	if cfg.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Transport == nil {
		cfg.Transport = DefaultTransport
	}

	if cfg.Transport.Name() == TransportUnix {
		// Refuse to steal the socket of a running instance.
		conn, err := cfg.Transport.Dial(cfg.Address, SocketCheckTimeout)
		if err == nil {
			conn.Close()
			return nil, fmt.Errorf("listener already running on %s", cfg.Address)
		}
		if err := cfg.Transport.Cleanup(cfg.Address); err != nil {
			return nil, fmt.Errorf("cleanup stale socket: %w", err)
		}
	}

	netListen, err := cfg.Transport.Listen(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}

	if cfg.Transport.Name() == TransportUnix {
		if err := os.Chmod(cfg.Address, 0o600); err != nil {
			netListen.Close()
			return nil, fmt.Errorf("chmod socket: %w", err)
		}
	}

	base, cancel := context.WithCancel(context.Background())
	return &Listener{
		address:    cfg.Address,
		transport:  cfg.Transport,
		engine:     cfg.Engine,
		idle:       cfg.IdleTimeout,
		maxFrame:   cfg.MaxFrameBytes,
		netListen:  netListen,
		base:       base,
		cancelBase: cancel,
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.netListen.Addr()
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed. It returns nil on an orderly shutdown. Cancelling ctx only stops
// accepting; sessions still running when Serve returns are ended by Shutdown
// or Close.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = l.netListen.Close() })
	defer stop()

	for {
		conn, err := l.netListen.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				logging.L().Warn("accept timeout", "error", err)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !l.track(conn) {
			conn.Close()
			return nil
		}
		go func() {
			defer l.wg.Done()
			defer l.untrack(conn)
			l.handleConnection(l.base, conn)
		}()
	}
}

func (l *Listener) track(conn net.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conns[conn] = struct{}{}
	l.wg.Add(1)
	return true
}

func (l *Listener) untrack(conn net.Conn) {
	l.mu.Lock()
	delete(l.conns, conn)
	l.mu.Unlock()
}

func (l *Listener) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	sess := NewSession(conn.RemoteAddr())
	log := logging.L().With("session", sess.ID, "remote", sess.RemoteAddr)
	log.Info("session opened")

	frames := NewFrameReader(idleReader{conn: conn, idle: l.idle}, l.maxFrame)
	w := bufio.NewWriter(conn)
	reason := "peer closed"

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("session aborted", "panic", rec, "stack", string(debug.Stack()))
			reason = "internal fault"
		}
		log.Info("session closed",
			"reason", reason,
			"commands", sess.commands,
			"in", humanize.Bytes(uint64(frames.BytesRead())),
			"out", humanize.Bytes(uint64(sess.bytesOut)),
			"duration", time.Since(sess.Started).Round(time.Millisecond))
	}()

	for {
		frame, err := frames.Next()
		if err != nil {
			reason = l.closeReason(err, w, log)
			return
		}

		if frame.Terminator == slnp.TokenQuit {
			reason = "quit"
			return
		}

		out := l.engine.Process(ctx, sess, frame.Raw)
		n, err := writeResponse(w, out)
		sess.bytesOut += int64(n)
		if err != nil {
			reason = "write failed"
			log.Warn("write response", "error", err)
			return
		}
		if sess.quit {
			reason = "quit"
			return
		}
	}
}

// closeReason classifies a read error. An oversized frame is answered before
// the connection is dropped.
func (l *Listener) closeReason(err error, w *bufio.Writer, log *charmlog.Logger) string {
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		return "peer closed"
	case errors.Is(err, ErrFrameTooLarge):
		e := slnp.NewError(slnp.ErrFrameTooLarge, "Request exceeds %d bytes", l.maxFrame)
		_, _ = writeResponse(w, slnp.Render("", slnp.Failure(e)))
		log.Warn("frame too large", "limit", l.maxFrame)
		return "frame too large"
	case errors.As(err, &ne) && ne.Timeout():
		return "idle timeout"
	case errors.Is(err, net.ErrClosed):
		return "server shutdown"
	case errors.Is(err, syscall.ECONNRESET):
		return "connection reset"
	default:
		log.Warn("read request", "error", err)
		return "read error"
	}
}

// Close stops accepting, closes open sessions and waits for them to finish.
func (l *Listener) Close() error {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return l.Shutdown(ctx)
}

// Shutdown stops accepting and waits for open sessions to end on their own.
// Sessions still open when ctx is done are closed.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	first := !l.closed
	l.closed = true
	l.mu.Unlock()

	var errs []error
	if first {
		if err := l.netListen.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		l.closeConns()
		<-done
	}
	l.cancelBase()

	if first {
		if err := l.transport.Cleanup(l.address); err != nil {
			errs = append(errs, fmt.Errorf("cleanup: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (l *Listener) closeConns() {
	l.cancelBase()
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.conns); n > 0 {
		logging.L().Info("closing open sessions", "count", n)
	}
	for c := range l.conns {
		c.Close()
	}
}
