package tunnelengine

import (
	"net"

	netutil "github.com/relaytun/edgetunnel/common/net"
	"github.com/relaytun/edgetunnel/common/pool"
)

// egressBufSize is the size of the egress pump's read buffer.
const egressBufSize = 32 * 1024

// pump runs the egress copy loop of C7 (outConn -> client) in the caller's
// goroutine. The ingress direction is not started here: it is the
// connection's single, lifetime-owned goroutine (see ingress), so
// that a retry never has to start a second reader of c.ws — only swap the
// outbound slot the running ingress goroutine already writes to.
// hadIncoming reports whether any byte was read from outConn, driving the
// retry rule in connection.go.
func (c *Connection) pump(outConn net.Conn, prefix []byte) (hadIncoming bool, err error) {
	defer outConn.Close()

	c.setOutConn(outConn)
	c.ingressOnce.Do(func() { go c.ingress() })

	buf := pool.Get(egressBufSize)
	defer pool.Put(buf)
	first := true
	for {
		n, rerr := outConn.Read(buf)
		if n > 0 {
			hadIncoming = true
			// c.ws.WriteMessage finishes synchronously (it writes and
			// flushes before returning), so buf[:n] can be handed to it
			// directly: nothing reuses buf until this Read call returns
			// again on the next loop iteration.
			msg := buf[:n]
			if first && len(prefix) > 0 {
				msg = append(append([]byte(nil), prefix...), buf[:n]...)
			}
			first = false
			if werr := c.ws.WriteMessage(msg); werr != nil {
				return hadIncoming, werr
			}
		}
		if rerr != nil {
			return hadIncoming, rerr
		}
	}
}

// setOutConn swaps the outbound slot (data model §3) that the ingress
// goroutine writes to. Called under pump, sequentially with any other
// caller, since the connection's control flow is single-threaded
// cooperative per spec §5 — no lock is needed around the call site, only
// around the field itself (ingress reads it concurrently).
func (c *Connection) setOutConn(conn net.Conn) {
	c.outMu.Lock()
	c.outConn = conn
	c.outMu.Unlock()
}

// ingress is started exactly once per connection (via c.ingressOnce) and
// runs for the connection's whole lifetime: it is the only goroutine that
// ever calls c.ws.NextFrame(), so two dial attempts (the original
// destination and the single retry) never race on the shared WebSocket
// reader. Each client frame is written to whatever outConn currently holds;
// a write failure against a stale/closed outbound (e.g. the window between
// the first pump ending and a retry's pump claiming the slot) is dropped
// rather than treated as fatal, since the slot may still be replaced once.
// ingress exits only when the client's WebSocket itself ends, at which
// point it closes the current outbound so any blocked egress Read unwinds:
// closing the WebSocket cancels both pumps.
func (c *Connection) ingress() {
	for {
		buf, err := c.ws.NextFrame()
		if err != nil {
			c.outMu.Lock()
			out := c.outConn
			c.outMu.Unlock()
			if out != nil {
				_ = out.Close()
			}
			return
		}

		c.outMu.Lock()
		out := c.outConn
		c.outMu.Unlock()
		if out == nil {
			continue
		}
		_ = netutil.WriteAll(out, buf)
	}
}
