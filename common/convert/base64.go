// Package convert holds small encoding helpers shared across the tunnel
// engine; today that's the base64url early-data decoder used by wsconn.
package convert

import (
	"encoding/base64"
	"strings"
)

// DecodeEarlyDataBase64 decodes the base64url payload carried in the
// Sec-WebSocket-Protocol request header: '-'/'_' in place of '+'/'/', and
// padding-insensitive, tolerating both raw and padded input.
func DecodeEarlyDataBase64(s string) ([]byte, error) {
	s = strings.NewReplacer("-", "+", "_", "/").Replace(s)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
