package constant

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ReadAddr decodes one address of the given type from data, returning the
// canonical textual host and the number of bytes consumed. It is the single
// place that renders IPv4/domain/IPv6 bytes to strings, shared by the VLESS,
// Trojan, and Shadowsocks header parsers so atyp fidelity (P6) only has to
// be gotten right once.
func ReadAddr(data []byte, atype AddrType) (host string, n int, err error) {
	switch atype {
	case AddrIPv4:
		if len(data) < 4 {
			return "", 0, fmt.Errorf("short ipv4 address")
		}
		return fmt.Sprintf("%d.%d.%d.%d", data[0], data[1], data[2], data[3]), 4, nil
	case AddrDomain:
		if len(data) < 1 {
			return "", 0, fmt.Errorf("missing domain length")
		}
		l := int(data[0])
		if l == 0 {
			return "", 0, fmt.Errorf("empty domain")
		}
		if len(data) < 1+l {
			return "", 0, fmt.Errorf("short domain address")
		}
		return string(data[1 : 1+l]), 1 + l, nil
	case AddrIPv6:
		if len(data) < 16 {
			return "", 0, fmt.Errorf("short ipv6 address")
		}
		groups := make([]string, 8)
		for i := 0; i < 8; i++ {
			groups[i] = fmt.Sprintf("%x", binary.BigEndian.Uint16(data[i*2:i*2+2]))
		}
		return strings.Join(groups, ":"), 16, nil
	default:
		return "", 0, fmt.Errorf("unknown address type %d", atype)
	}
}

// SOCKS5AddrType maps the SOCKS5-style atyp byte (1=IPv4, 3=domain,
// 4=IPv6) shared by the Trojan and Shadowsocks wire formats onto AddrType.
// VLESS uses its own, differently numbered atyp (1/2/3) and does not use
// this helper.
func SOCKS5AddrType(b byte) (AddrType, error) {
	switch b {
	case 1:
		return AddrIPv4, nil
	case 3:
		return AddrDomain, nil
	case 4:
		return AddrIPv6, nil
	default:
		return 0, fmt.Errorf("unknown address type %d", b)
	}
}
