// Package ws implements the WebSocket duplex wrapper that is C1 of the
// tunnel engine: it terminates the client's WebSocket (via gobwas/ws, a
// low-level framing library), decodes the optional early-data header, and
// hands the rest of the engine one contiguous byte buffer per inbound
// message.
package ws

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/relaytun/edgetunnel/common/convert"
)

// EarlyDataHeader is the request header that may carry a base64url-encoded
// first frame, letting the client save a round trip.
const EarlyDataHeader = "Sec-WebSocket-Protocol"

// Conn is a server-side WebSocket duplex stream. NextFrame implements the
// frame-buffer contract (C1): each call returns one fully materialized
// message, never splitting or merging across calls. Writes are
// mutex-serialized so the engine's single-writer discipline
// holds even if callers are sloppy about it.
type Conn struct {
	raw   net.Conn
	rw    *bufio.ReadWriter
	early []byte
	// hasEarly is consumed exactly once: the early-data buffer, when
	// present, is frame #1; the first real WS message becomes frame #2.
	hasEarly bool

	writeMu sync.Mutex
	// closeSent is guarded by writeMu; it keeps Close to one close frame.
	closeSent bool
}

// Upgrade completes the WebSocket handshake on an inbound HTTP request and
// decodes any early-data payload carried in the Sec-WebSocket-Protocol
// header. A decode failure fails the connection.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Conn, error) {
	protoHeader := r.Header.Get(EarlyDataHeader)

	u := ws.HTTPUpgrader{
		Protocol: func(string) bool { return true },
	}
	raw, rw, _, err := u.Upgrade(r, w)
	if err != nil {
		return nil, fmt.Errorf("ws: upgrade: %w", err)
	}

	c := &Conn{raw: raw, rw: rw}
	if protoHeader != "" {
		early, decodeErr := convert.DecodeEarlyDataBase64(protoHeader)
		if decodeErr != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("ws: decode early data: %w", decodeErr)
		}
		c.early = early
		c.hasEarly = true
	}
	return c, nil
}

// NextFrame returns the next inbound message as a contiguous buffer: the
// decoded early-data payload first (if any), then one buffer per
// subsequent WebSocket binary/text message. Control frames (ping/pong)
// are answered transparently by wsutil and never surface here; a close
// frame surfaces as io.EOF.
func (c *Conn) NextFrame() ([]byte, error) {
	if c.hasEarly {
		c.hasEarly = false
		return c.early, nil
	}
	for {
		data, op, err := wsutil.ReadClientData(c.rw)
		if err != nil {
			// wsutil reports a client close frame as a ClosedError.
			var closed wsutil.ClosedError
			if errors.As(err, &closed) {
				return nil, io.EOF
			}
			return nil, err
		}
		switch op {
		case ws.OpBinary, ws.OpText:
			return data, nil
		case ws.OpClose:
			return nil, io.EOF
		default:
			continue
		}
	}
}

// WriteMessage sends data as a single binary WebSocket message.
func (c *Conn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wsutil.WriteServerMessage(c.rw, ws.OpBinary, data); err != nil {
		return err
	}
	return c.rw.Flush()
}

// Close sends a close frame carrying (code, reason) then closes the
// underlying connection. Safe to call more than once; only the first call
// writes the close frame.
func (c *Conn) Close(code ws.StatusCode, reason string) error {
	c.writeMu.Lock()
	if !c.closeSent {
		c.closeSent = true
		_ = wsutil.WriteServerMessage(c.rw, ws.OpClose, ws.NewCloseFrameBody(code, reason))
		_ = c.rw.Flush()
	}
	c.writeMu.Unlock()
	return c.raw.Close()
}
