// Package session implements the TCP session layer: the listener/dialer,
// the line-delimited JSON message codec, and the split read/write halves
// the rest of the daemon depends on for deadlock-free concurrent I/O.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/macwinctl/macwinctl/internal/model"
)

const readBufferSize = 4 * 1024

// Conn wraps a single TCP connection with an independently-locked write
// half. The read half has no lock because exactly one goroutine ever calls
// ReadMessage on a given Conn (the reader loop that owns it) — concurrent
// writers (the control loop, the ping responder) serialize on writeMu
// without ever blocking that reader, satisfying the dual-half I/O
// invariant: reads must not block writes and vice versa.
type Conn struct {
	net.Conn
	writeMu sync.Mutex
	reader  *bufio.Reader
}

func newConn(nc net.Conn) *Conn {
	return &Conn{Conn: nc, reader: bufio.NewReaderSize(nc, readBufferSize)}
}

// Send marshals and writes a single message line. The write-half lock is
// acquired only for the duration of the marshal+write, never across a
// suspension point held by anything else.
func (c *Conn) Send(msg model.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.Conn.Write(data)
	return err
}

// ReadMessage blocks until bufio delivers one full line. bufio.Reader
// already buffers partial lines across underlying reads, which is what the
// framing-robustness requirement needs: a single TCP read may straddle
// message boundaries and must not lose or duplicate bytes.
func (c *Conn) ReadMessage() (model.Message, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return model.Message{}, err
	}

	var msg model.Message
	if jsonErr := json.Unmarshal([]byte(line), &msg); jsonErr != nil {
		return model.Message{}, &malformedLineError{line: line, cause: jsonErr}
	}
	return msg, nil
}

// malformedLineError marks a line that failed to parse as JSON — distinct
// from a net.Conn read error so callers can skip-and-continue instead of
// tearing down the session.
type malformedLineError struct {
	line  string
	cause error
}

func (e *malformedLineError) Error() string {
	return fmt.Sprintf("malformed line %q: %v", e.line, e.cause)
}

func (e *malformedLineError) Unwrap() error { return e.cause }

func isMalformedLine(err error) bool {
	_, ok := err.(*malformedLineError)
	return ok
}
