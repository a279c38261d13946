package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/stuffbucket/slnpd/internal/slnp"
)

// ErrFrameTooLarge is returned when a request grows past the frame limit
// before a terminator line arrives.
var ErrFrameTooLarge = errors.New("slnp: request frame too large")

// Frame is one complete request as received from a peer.
type Frame struct {
	Raw        string
	Terminator string // slnp.TokenEndCommand or slnp.TokenQuit
	Lines      int
}

// FrameReader accumulates lines until a terminator line frames a request.
type FrameReader struct {
	r     *bufio.Reader
	max   int
	buf   strings.Builder
	lines int
	read  int64
}

// NewFrameReader reads frames from r. maxBytes <= 0 disables the size limit.
func NewFrameReader(r io.Reader, maxBytes int) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r), max: maxBytes}
}

// BytesRead returns the number of bytes consumed so far.
func (f *FrameReader) BytesRead() int64 {
	return f.read
}

// Next blocks until a full request is framed. A partial request pending at
// end of stream is discarded and io.EOF returned.
func (f *FrameReader) Next() (Frame, error) {
	for {
		line, err := f.readLine()
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			f.buf.WriteString(line)
			f.buf.WriteByte('\n')
			f.lines++

			if tok, ok := slnp.IsTerminator(line); ok {
				frame := Frame{Raw: f.buf.String(), Terminator: tok, Lines: f.lines}
				f.reset()
				return frame, nil
			}
		}
		if err != nil {
			f.reset()
			return Frame{}, err
		}
	}
}

func (f *FrameReader) reset() {
	f.buf.Reset()
	f.lines = 0
}

func (f *FrameReader) readLine() (string, error) {
	var line []byte
	for {
		frag, err := f.r.ReadSlice('\n')
		f.read += int64(len(frag))
		line = append(line, frag...)
		if f.max > 0 && f.buf.Len()+len(line) > f.max {
			return "", ErrFrameTooLarge
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(line), err
	}
}

// idleReader pushes the read deadline forward before every read so a peer
// that stays silent for longer than idle is disconnected.
type idleReader struct {
	conn net.Conn
	idle time.Duration
}

func (r idleReader) Read(p []byte) (int, error) {
	if r.idle > 0 {
		if err := r.conn.SetReadDeadline(time.Now().Add(r.idle)); err != nil {
			return 0, err
		}
	}
	return r.conn.Read(p)
}

// writeResponse writes rendered response text and flushes it.
func writeResponse(w *bufio.Writer, text string) (int, error) {
	n, err := w.WriteString(text)
	if err != nil {
		return n, err
	}
	return n, w.Flush()
}
