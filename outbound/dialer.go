// Package outbound dials the destinations the tunnel engine forwards to:
// a direct/region-selected TCP endpoint (C5) or the UDP-over-TCP relay
// gateway (C6). Both share a single net.Dialer configuration built around
// one TCP keepalive constant applied at dial time.
package outbound

import (
	"context"
	"net"
	"time"

	netutil "github.com/relaytun/edgetunnel/common/net"
	C "github.com/relaytun/edgetunnel/constant"
)

// DefaultKeepAlive is the TCP keepalive interval applied to every dial.
const DefaultKeepAlive = 30 * time.Second

// Dialer opens outbound connections for the tunnel engine.
type Dialer struct {
	KeepAlive time.Duration
}

// NewDialer returns a Dialer configured with the default keepalive.
func NewDialer() *Dialer {
	return &Dialer{KeepAlive: DefaultKeepAlive}
}

func (d *Dialer) netDialer() *net.Dialer {
	return &net.Dialer{KeepAlive: d.KeepAlive}
}

// DialTCP opens a TCP connection to addr ("host:port") and writes payload
// in one shot before returning, so the caller's first egress read already
// reflects the destination's reaction to the residual handshake payload.
// Returns *C.Error{Kind: KindDialFailed} on any failure.
func (d *Dialer) DialTCP(ctx context.Context, addr string, payload []byte) (net.Conn, error) {
	conn, err := d.netDialer().DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, C.NewErrorf(C.KindDialFailed, "outbound: dial %s: %v", addr, err)
	}
	if len(payload) > 0 {
		if err := netutil.WriteAll(conn, payload); err != nil {
			_ = conn.Close()
			return nil, C.NewErrorf(C.KindDialFailed, "outbound: write residual payload to %s: %v", addr, err)
		}
	}
	return conn, nil
}
