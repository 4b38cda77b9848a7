package tunnelengine

import "strings"

// benignSubstrings is the table-driven, case-insensitive match list for
// teardown causes attributable to the peer or to cancellation. Anything
// not matched here is fatal and gets logged.
var benignSubstrings = []string{
	"writable stream closed",
	"broken pipe",
	"connection reset",
	"connection closed",
	"connection refused",
	"connection timed out",
	"read timed out",
	"write timed out",
	"i/o timeout",
	"end of stream",
	"eof",
	"cancelled",
	"canceled",
	"aborted",
	"context canceled",
	"network is unreachable",
	"host is unreachable",
	"no route to host",
	"dns resolution failed",
	"unknown host",
	"no such host",
	"use of closed network connection",
	"econnreset",
	"epipe",
	"econnrefused",
	"etimedout",
	"enetunreach",
	"ehostunreach",
}

// Classify reports whether err is benign (expected during normal teardown,
// suppressed from logs) or fatal (logged). It is exported specifically so
// tests can assert the classification table.
func Classify(err error) (benign bool) {
	if err == nil {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range benignSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
