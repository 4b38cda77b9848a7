// Package vless decodes the VLESS (version 0) request header: C3 of the
// tunnel engine for this protocol, reading the fixed VLESS v0 layout
// directly rather than the protobuf-style addon encoding later versions use.
package vless

import (
	"encoding/binary"
	"fmt"

	C "github.com/relaytun/edgetunnel/constant"
)

const (
	commandTCP byte = 1
	commandUDP byte = 2
)

// Parse decodes a VLESS v0 header from buf:
//
//	[ver:1][uuid:16][optLen:1][opt:optLen][cmd:1][port:2 BE][atyp:1][addr:*][payload:*]
//
// The uuid is not validated against any allowlist — detection only, never
// authentication; by the time Parse runs, Detect has already matched the
// UUID's v4 shape.
func Parse(buf []byte) (*C.Header, error) {
	const minHeader = 1 + 16 + 1 // ver + uuid + optLen, before optional bytes and the rest
	if len(buf) < minHeader {
		return nil, fmt.Errorf("vless: short header")
	}

	ver := buf[0]
	off := 1 + 16

	optLen := int(buf[off])
	off++
	if len(buf) < off+optLen+1+2+1 {
		return nil, fmt.Errorf("vless: short header after options")
	}
	off += optLen // addons payload is carried but not interpreted, non-goal beyond detection

	cmdByte := buf[off]
	off++
	var cmd C.Command
	switch cmdByte {
	case commandTCP:
		cmd = C.CommandTCP
	case commandUDP:
		cmd = C.CommandUDP
	default:
		return nil, fmt.Errorf("vless: unsupported command %d", cmdByte)
	}

	port := binary.BigEndian.Uint16(buf[off : off+2])
	off += 2

	if len(buf) < off+1 {
		return nil, fmt.Errorf("vless: missing address type")
	}
	atypByte := buf[off]
	off++

	var atype C.AddrType
	switch atypByte {
	case 1:
		atype = C.AddrIPv4
	case 2:
		atype = C.AddrDomain
	case 3:
		atype = C.AddrIPv6
	default:
		return nil, fmt.Errorf("vless: unknown address type %d", atypByte)
	}

	host, n, err := C.ReadAddr(buf[off:], atype)
	if err != nil {
		return nil, fmt.Errorf("vless: %w", err)
	}
	off += n

	return &C.Header{
		Protocol:       C.VLESS,
		Host:           host,
		Port:           port,
		Command:        cmd,
		Payload:        buf[off:],
		ResponsePrefix: []byte{ver, 0},
	}, nil
}
