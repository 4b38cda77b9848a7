// Package trojan decodes the Trojan request header (C3). KeyLength/Key()
// stay available for an optional strict-auth mode; this engine never
// originates a Trojan client handshake and never speaks Trojan's native
// UDP packet sub-protocol, since UDP commands are handled by the shared
// UDP relay adapter, not by re-framing as Trojan UDP packets.
package trojan

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	C "github.com/relaytun/edgetunnel/constant"
)

const (
	KeyLength = 56

	commandTCP byte = 1
	commandUDP byte = 3
)

var crlf = []byte{'\r', '\n'}

// Key hashes a Trojan password into its hex-encoded SHA-224 form. Kept for
// an optional strict-auth mode; the default detection path accepts any
// 56-byte hash as framing only, never verified against this.
func Key(password string) (key [KeyLength]byte) {
	hash := sha256.Sum224([]byte(password))
	hex.Encode(key[:], hash[:])
	return
}

// Parse decodes a Trojan header from buf:
//
//	[hash_hex:56][CRLF:2][cmd:1][atyp:1][addr:*][port:2 BE][CRLF:2][payload:*]
func Parse(buf []byte) (*C.Header, error) {
	const minHeader = KeyLength + 2 + 1 + 1 + 2 + 2
	if len(buf) < minHeader {
		return nil, fmt.Errorf("trojan: short header")
	}

	off := KeyLength
	if buf[off] != '\r' || buf[off+1] != '\n' {
		return nil, fmt.Errorf("trojan: missing CRLF after hash")
	}
	off += 2

	var cmd C.Command
	switch buf[off] {
	case commandTCP:
		cmd = C.CommandTCP
	case commandUDP:
		cmd = C.CommandUDP
	default:
		return nil, fmt.Errorf("trojan: unsupported command %d", buf[off])
	}
	off++

	atype, err := C.SOCKS5AddrType(buf[off])
	if err != nil {
		return nil, fmt.Errorf("trojan: %w", err)
	}
	off++

	host, n, err := C.ReadAddr(buf[off:], atype)
	if err != nil {
		return nil, fmt.Errorf("trojan: %w", err)
	}
	off += n

	if len(buf) < off+2+2 {
		return nil, fmt.Errorf("trojan: short header after address")
	}
	port := binary.BigEndian.Uint16(buf[off : off+2])
	off += 2

	if buf[off] != '\r' || buf[off+1] != '\n' {
		return nil, fmt.Errorf("trojan: missing CRLF after port")
	}
	off += 2

	return &C.Header{
		Protocol: C.Trojan,
		Host:     host,
		Port:     port,
		Command:  cmd,
		Payload:  buf[off:],
	}, nil
}
