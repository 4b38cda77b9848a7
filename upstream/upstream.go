// Package upstream implements the upstream selector (C4): turning the
// inbound WebSocket path into a concrete dial endpoint, either a direct
// host:port or a uniformly random pick from a region's proxy list.
package upstream

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	C "github.com/relaytun/edgetunnel/constant"
)

var (
	directPattern = regexp.MustCompile(`^(.+)[-:=](\d{1,5})$`)
	regionPattern = regexp.MustCompile(`^[A-Z]{2}(,[A-Z]{2})*$`)
)

// Endpoint is a concrete dial target: host plus port.
type Endpoint struct {
	Host string
	Port uint16
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// Resolve turns an inbound path segment (with or without its leading "/")
// into an Endpoint. proxyList is the PROXY_LIST configuration: region
// code -> list of "ip:port" strings.
func Resolve(path string, proxyList map[string][]string) (Endpoint, error) {
	path = strings.TrimPrefix(path, "/")

	if m := directPattern.FindStringSubmatch(path); m != nil {
		port, err := strconv.ParseUint(m[2], 10, 16)
		if err != nil {
			return Endpoint{}, fmt.Errorf("upstream: invalid port %q", m[2])
		}
		return Endpoint{Host: m[1], Port: uint16(port)}, nil
	}

	if regionPattern.MatchString(path) {
		codes := regionCodes(path)
		code, err := pickRandom(codes)
		if err != nil {
			return Endpoint{}, err
		}

		list := proxyList[code]
		if len(list) == 0 {
			return Endpoint{}, C.NewErrorf(C.KindRegionEmpty, "upstream: no proxies configured for region %q", code)
		}
		picked, err := pickRandom(list)
		if err != nil {
			return Endpoint{}, err
		}

		host, portStr, err := net.SplitHostPort(picked)
		if err != nil {
			return Endpoint{}, fmt.Errorf("upstream: invalid proxy entry %q for region %q: %w", picked, code, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Endpoint{}, fmt.Errorf("upstream: invalid port in %q: %w", picked, err)
		}
		return Endpoint{Host: host, Port: uint16(port)}, nil
	}

	return Endpoint{}, fmt.Errorf("upstream: path %q matches neither a direct endpoint nor a region list", path)
}

// pickRandom selects one element of items uniformly at random using a
// cryptographic source. lo.Sample is not used here despite being this
// package's functional-helper library of choice: it draws from math/rand,
// which an endpoint selector handling live traffic should not rely on.
func pickRandom[T any](items []T) (T, error) {
	var zero T
	if len(items) == 0 {
		return zero, fmt.Errorf("upstream: empty candidate list")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(items))))
	if err != nil {
		return zero, fmt.Errorf("upstream: read random source: %w", err)
	}
	return items[n.Int64()], nil
}

// regionCodes splits a comma-joined region-code path segment and drops
// blank entries.
// Kept as a small lo-based helper so the region-list branch above reads as
// a pipeline (split -> filter blanks) rather than hand-rolled loops.
func regionCodes(path string) []string {
	return lo.Filter(strings.Split(path, ","), func(code string, _ int) bool {
		return code != ""
	})
}
