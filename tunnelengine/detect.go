package tunnelengine

import C "github.com/relaytun/edgetunnel/constant"

// Detect classifies the first buffered frame by structural signature.
// Trojan is checked first because the UUID-shape check
// can false-match inside an arbitrary Shadowsocks body; Trojan's
// fixed-offset CRLF+command byte is a stronger anchor. Shadowsocks is the
// catch-all — Detect never fails.
func Detect(buf []byte) C.Protocol {
	if isTrojan(buf) {
		return C.Trojan
	}
	if isVLESS(buf) {
		return C.VLESS
	}
	return C.Shadowsocks
}

// isTrojan checks bytes [56,60) for "0D 0A {01|03|7F} {01|03|04}": the
// CRLF that ends the 56-byte hex password, followed by a command byte and
// an address-type byte.
func isTrojan(buf []byte) bool {
	if len(buf) < 62 {
		return false
	}
	if buf[56] != 0x0D || buf[57] != 0x0A {
		return false
	}
	switch buf[58] {
	case 0x01, 0x03, 0x7F:
	default:
		return false
	}
	switch buf[59] {
	case 0x01, 0x03, 0x04:
		return true
	default:
		return false
	}
}

// isVLESS checks bytes [1,17) — the 16 bytes following the version byte —
// for a v4 UUID shape: version nibble 4, variant nibble in {8,9,a,b}.
// This never consults the configured UUID: any well-formed
// v4-shaped UUID is accepted as a VLESS signature.
func isVLESS(buf []byte) bool {
	if len(buf) < 17 {
		return false
	}
	uuid := buf[1:17]
	if uuid[6]>>4 != 0x4 {
		return false
	}
	if uuid[8]>>6 != 0b10 {
		return false
	}
	return true
}
