package outbound

import (
	"bytes"
	"context"
	"net"
	"strconv"

	netutil "github.com/relaytun/edgetunnel/common/net"
	C "github.com/relaytun/edgetunnel/constant"
)

// RelayHost and RelayPort are the fixed UDP-over-TCP relay gateway. There
// is no discovery or configuration for this endpoint — it is a single
// well-known address.
const (
	RelayHost = "udp-relay.hobihaus.space"
	RelayPort = 7300
)

var relayAddr = net.JoinHostPort(RelayHost, strconv.Itoa(RelayPort))

// DialUDPRelay opens a new TCP connection to the fixed relay gateway and
// writes one framed message: "udp:" + host + ":" + port + "|" + payload.
// Every UDP-framed WebSocket message gets its own relay connection — this
// function is called once per inbound datagram, never reused across
// messages (see DESIGN.md's Open Question decision on this).
func (d *Dialer) DialUDPRelay(ctx context.Context, destHost string, destPort uint16, payload []byte) (net.Conn, error) {
	conn, err := d.netDialer().DialContext(ctx, "tcp", relayAddr)
	if err != nil {
		return nil, C.NewErrorf(C.KindDialFailed, "outbound: dial udp relay: %v", err)
	}
	frame := BuildRelayFrame(destHost, destPort, payload)
	if err := netutil.WriteAll(conn, frame); err != nil {
		_ = conn.Close()
		return nil, C.NewErrorf(C.KindDialFailed, "outbound: write udp relay frame: %v", err)
	}
	return conn, nil
}

// BuildRelayFrame constructs the "udp:host:port|payload" wire frame the
// relay gateway expects.
func BuildRelayFrame(host string, port uint16, payload []byte) []byte {
	var b bytes.Buffer
	b.WriteString("udp:")
	b.WriteString(host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(port)))
	b.WriteByte('|')
	b.Write(payload)
	return b.Bytes()
}
