package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/stuffbucket/slnpd/internal/slnp"
)

const defaultClientTimeout = 5 * time.Second

// ClientConfig holds client configuration options.
type ClientConfig struct {
	Address   string
	Transport Transport
	Timeout   time.Duration
}

// Client sends SLNP requests to a running server.
type Client struct {
	address   string
	transport Transport
	timeout   time.Duration
}

// NewClient creates a client for cfg.Address.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Transport == nil {
		cfg.Transport = DefaultTransport
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultClientTimeout
	}
	return &Client{
		address:   cfg.Address,
		transport: cfg.Transport,
		timeout:   cfg.Timeout,
	}
}

// Conn is an open client session.
type Conn struct {
	conn    net.Conn
	r       *bufio.Reader
	timeout time.Duration
}

// Dial opens a session.
func (c *Client) Dial() (*Conn, error) {
	conn, err := c.transport.Dial(c.address, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.address, err)
	}
	return &Conn{conn: conn, r: bufio.NewReader(conn), timeout: c.timeout}, nil
}

// Send writes one request and returns the raw response text. A request
// without a terminator line gets SLNPEndCommand appended.
func (c *Conn) Send(raw string) (string, error) {
	raw = terminate(raw)
	_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	if _, err := c.conn.Write([]byte(raw)); err != nil {
		return "", fmt.Errorf("write request: %w", err)
	}
	return c.readResponse()
}

// readResponse reads until SLNPEndOfData for a success response, or a single
// line for an error response.
func (c *Conn) readResponse() (string, error) {
	var b strings.Builder
	first := true
	for {
		line, err := c.r.ReadString('\n')
		if err != nil {
			return b.String(), fmt.Errorf("read response: %w", err)
		}
		b.WriteString(line)
		line = strings.TrimRight(line, "\r\n")
		if first {
			first = false
			if !strings.HasPrefix(line, fmt.Sprintf("%d ", slnp.CodeBegin)) {
				return b.String(), nil
			}
			continue
		}
		if strings.HasPrefix(line, fmt.Sprintf("%d ", slnp.CodeEndOfData)) {
			return b.String(), nil
		}
	}
}

// Quit ends the session and closes the connection.
func (c *Conn) Quit() error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	_, werr := c.conn.Write([]byte(slnp.TokenQuit + "\n"))
	return errors.Join(werr, c.conn.Close())
}

// Close drops the connection without a quit.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// Send opens a session, sends one request and quits.
func (c *Client) Send(raw string) (string, error) {
	conn, err := c.Dial()
	if err != nil {
		return "", err
	}
	resp, err := conn.Send(raw)
	if qerr := conn.Quit(); err == nil && qerr != nil && !errors.Is(qerr, net.ErrClosed) {
		err = qerr
	}
	return resp, err
}

func terminate(raw string) string {
	raw = strings.TrimRight(raw, "\r\n")
	lines := strings.Split(raw, "\n")
	if _, ok := slnp.IsTerminator(lines[len(lines)-1]); !ok {
		raw += "\n" + slnp.TokenEndCommand
	}
	return raw + "\n"
}
