package server

import (
	"fmt"
	"net"
	"os"
	"time"
)

// Transport names as used in the config file and on the command line.
const (
	TransportTCP  = "tcp"
	TransportUnix = "unix"
)

// Transport is the socket family a listener binds and a client dials.
// ILL peers connect over TCP; Unix sockets serve local tooling and tests.
type Transport interface {
	Name() string
	Listen(address string) (net.Listener, error)
	Dial(address string, timeout time.Duration) (net.Conn, error)
	// Cleanup removes what Listen left behind, such as a socket file.
	Cleanup(address string) error
}

// TCPTransport serves SLNP peers over TCP.
type TCPTransport struct{}

func (TCPTransport) Name() string { return TransportTCP }

func (t TCPTransport) Listen(address string) (net.Listener, error) {
	return net.Listen(t.Name(), address)
}

func (t TCPTransport) Dial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(t.Name(), address, timeout)
}

func (TCPTransport) Cleanup(string) error { return nil }

// UnixTransport serves local clients over a Unix domain socket.
type UnixTransport struct{}

func (UnixTransport) Name() string { return TransportUnix }

func (t UnixTransport) Listen(address string) (net.Listener, error) {
	return net.Listen(t.Name(), address)
}

func (t UnixTransport) Dial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(t.Name(), address, timeout)
}

// Cleanup removes a stale socket file.
func (UnixTransport) Cleanup(address string) error {
	if err := os.Remove(address); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// DefaultTransport is used when a config leaves the transport unset.
var DefaultTransport Transport = TCPTransport{}

// TransportByName maps a config value to a Transport. Empty selects the
// default.
func TransportByName(name string) (Transport, error) {
	switch name {
	case "":
		return DefaultTransport, nil
	case TransportTCP:
		return TCPTransport{}, nil
	case TransportUnix:
		return UnixTransport{}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}
