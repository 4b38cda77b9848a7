// Package tunnelengine is the per-connection state machine: protocol
// detection, header parsing, outbound dialing, bidirectional pumping and
// teardown (C2, C7, C8). It is the only package importing every protocol
// parser and the outbound dialer — the place adapters and transports meet.
package tunnelengine

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gobwas/ws"

	atomicutil "github.com/relaytun/edgetunnel/common/atomic"
	netutil "github.com/relaytun/edgetunnel/common/net"
	C "github.com/relaytun/edgetunnel/constant"
	"github.com/relaytun/edgetunnel/log"
	"github.com/relaytun/edgetunnel/outbound"
	wsconn "github.com/relaytun/edgetunnel/transport/ws"
)

// closerFunc adapts a close action to io.Closer for netutil.SetupContextForConn.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Connection owns one client WebSocket for its full lifetime: AWAIT_HEADER
// -> DIALING -> FORWARDING (-> retry DIALING once) -> CLOSING.
type Connection struct {
	id     string
	ws     *wsconn.Conn
	dialer *outbound.Dialer

	// retryAddr is the configured upstream relay endpoint to fall back to
	// on a silent TCP dial/response failure. Empty disables
	// retry entirely; the caller computes it once per request.
	retryAddr string
	watchdog  time.Duration

	// outMu guards outConn, the connection's single outbound slot (data
	// model §3): ingress runs as one goroutine for the connection's whole
	// lifetime and always writes to whatever outConn currently holds, so
	// the retry path only ever has to swap this field — never start a
	// second reader of c.ws.
	outMu       sync.Mutex
	outConn     net.Conn
	ingressOnce sync.Once

	// closed guards the WebSocket close against the goroutine running Run
	// and the watchdog's watcher goroutine both racing to tear the connection
	// down (P4): only the CompareAndSwap that flips false->true proceeds.
	closed atomicutil.TypedValue[bool]
}

// New constructs a Connection. watchdog <= 0 disables the optional
// request-deadline race.
func New(id string, conn *wsconn.Conn, dialer *outbound.Dialer, retryAddr string, watchdog time.Duration) *Connection {
	return &Connection{id: id, ws: conn, dialer: dialer, retryAddr: retryAddr, watchdog: watchdog}
}

// Run drives the connection to completion. It never returns an error: every
// failure path ends in a WebSocket close, logged or not per Classify.
func (c *Connection) Run(ctx context.Context) {
	if c.watchdog > 0 {
		wctx, cancel := context.WithTimeout(ctx, c.watchdog)
		defer cancel()
		ctx = wctx
		done := netutil.SetupContextForConn(wctx, closerFunc(func() error {
			c.closeWS(ws.StatusNormalClosure, "")
			return nil
		}))
		defer done()
	}

	first, err := c.ws.NextFrame()
	if err != nil {
		c.closeWS(ws.StatusNormalClosure, "")
		return
	}

	proto := Detect(first)
	header, err := parseHeader(proto, first)
	if err != nil {
		log.Warnln("header parse failed", log.Fields{"conn": c.id, "proto": proto.String(), "err": err.Error()})
		c.closeWS(ws.StatusProtocolError, err.Error())
		return
	}
	log.Debugln("connection accepted", log.Fields{"conn": c.id, "proto": proto.String(), "dest": header.Destination()})

	if header.Command == C.CommandUDP {
		c.runUDP(ctx, header)
		return
	}
	c.runTCP(ctx, header)
}

func (c *Connection) runTCP(ctx context.Context, header *C.Header) {
	addr := header.Destination()
	outConn, err := c.dialer.DialTCP(ctx, addr, header.Payload)
	if err != nil {
		if c.retryTCP(ctx, header, addr) {
			return
		}
		log.Warnln("dial failed, no retry available", log.Fields{"conn": c.id, "addr": addr, "err": err.Error()})
		c.closeWS(ws.StatusProtocolError, err.Error())
		return
	}

	hadIncoming, perr := c.pump(outConn, header.ResponsePrefix)
	if !hadIncoming && c.retryTCP(ctx, header, addr) {
		return
	}
	c.teardownAfterPump(perr)
}

// retryTCP implements the at-most-once retry path. It is a
// no-op if no retry endpoint is configured or it coincides with the
// destination already tried.
func (c *Connection) retryTCP(ctx context.Context, header *C.Header, triedAddr string) bool {
	if c.retryAddr == "" || c.retryAddr == triedAddr {
		return false
	}
	retryAddr := c.retryAddr
	c.retryAddr = "" // at most one retry per connection

	outConn, err := c.dialer.DialTCP(ctx, retryAddr, header.Payload)
	if err != nil {
		log.Warnln("retry dial failed", log.Fields{"conn": c.id, "addr": retryAddr, "err": err.Error()})
		return false
	}
	_, perr := c.pump(outConn, nil)
	c.teardownAfterPump(perr)
	return true
}

func (c *Connection) runUDP(ctx context.Context, header *C.Header) {
	payload := header.Payload
	prefix := header.ResponsePrefix

	for {
		relayConn, err := c.dialer.DialUDPRelay(ctx, header.Host, header.Port, payload)
		if err != nil {
			log.Warnln("udp relay dial failed", log.Fields{"conn": c.id, "err": err.Error()})
			c.closeWS(ws.StatusProtocolError, err.Error())
			return
		}

		reply, rerr := io.ReadAll(relayConn)
		_ = relayConn.Close()
		if rerr != nil && !Classify(rerr) {
			log.Errorln("udp relay read failed", log.Fields{"conn": c.id, "err": rerr.Error()})
		}

		msg := reply
		if len(prefix) > 0 {
			msg = append(append([]byte(nil), prefix...), reply...)
		}
		prefix = nil
		if len(msg) > 0 {
			if werr := c.ws.WriteMessage(msg); werr != nil {
				c.closeWS(ws.StatusNormalClosure, "")
				return
			}
		}

		next, nerr := c.ws.NextFrame()
		if nerr != nil {
			c.teardownAfterPump(nerr)
			return
		}
		payload = next
	}
}

// teardownAfterPump closes the WebSocket with code 1000 regardless of
// whether the pump ended benignly or fatally; fatal causes are logged first.
func (c *Connection) teardownAfterPump(err error) {
	if err != nil && !Classify(err) {
		log.Errorln("pump ended with unclassified error", log.Fields{"conn": c.id, "err": err.Error()})
	}
	c.closeWS(ws.StatusNormalClosure, "")
}

func (c *Connection) closeWS(code ws.StatusCode, reason string) {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	_ = c.ws.Close(code, reason)
}
