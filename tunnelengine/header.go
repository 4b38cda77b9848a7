package tunnelengine

import (
	"fmt"

	C "github.com/relaytun/edgetunnel/constant"
	"github.com/relaytun/edgetunnel/transport/shadowsocks"
	"github.com/relaytun/edgetunnel/transport/trojan"
	"github.com/relaytun/edgetunnel/transport/vless"
)

// parseHeader dispatches the first frame to the parser matching the
// detected protocol (C3).
func parseHeader(proto C.Protocol, buf []byte) (*C.Header, error) {
	switch proto {
	case C.VLESS:
		return vless.Parse(buf)
	case C.Trojan:
		return trojan.Parse(buf)
	case C.Shadowsocks:
		return shadowsocks.Parse(buf)
	default:
		return nil, fmt.Errorf("tunnelengine: unrecognized protocol")
	}
}
