// Package shadowsocks decodes the Shadowsocks request header (C3).
// Payloads are forwarded opaquely; cipher suites are out of scope, so
// this package only parses the plaintext address header the worker sees
// after the WebSocket framing.
package shadowsocks

import (
	"encoding/binary"
	"fmt"

	C "github.com/relaytun/edgetunnel/constant"
)

const dnsPort = 53

// Parse decodes a Shadowsocks header from buf:
//
//	[atyp:1][addr:*][port:2 BE][payload:*]
//
// Command is inferred: UDP when the destination port is 53 (DNS), TCP
// otherwise — Shadowsocks carries no explicit command byte.
func Parse(buf []byte) (*C.Header, error) {
	if len(buf) < 1 {
		return nil, fmt.Errorf("shadowsocks: short header")
	}

	atype, err := C.SOCKS5AddrType(buf[0])
	if err != nil {
		return nil, fmt.Errorf("shadowsocks: %w", err)
	}

	host, n, err := C.ReadAddr(buf[1:], atype)
	if err != nil {
		return nil, fmt.Errorf("shadowsocks: %w", err)
	}
	off := 1 + n

	if len(buf) < off+2 {
		return nil, fmt.Errorf("shadowsocks: short header after address")
	}
	port := binary.BigEndian.Uint16(buf[off : off+2])
	off += 2

	cmd := C.CommandTCP
	if port == dnsPort {
		cmd = C.CommandUDP
	}

	return &C.Header{
		Protocol: C.Shadowsocks,
		Host:     host,
		Port:     port,
		Command:  cmd,
		Payload:  buf[off:],
	}, nil
}
