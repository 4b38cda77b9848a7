// Package net holds small net.Conn helpers shared by the tunnel engine.
package net

import (
	"context"
	"io"
	"net"
)

// SetupContextForConn starts a watcher goroutine that closes closer if ctx
// is canceled before the returned done func runs. Used by the connection
// lifecycle's optional 8s watchdog to race the bidirectional
// pump against a deadline without a per-read timeout.
//
//	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
//	defer cancel()
//	done := SetupContextForConn(ctx, conn)
//	defer done()
//	pump(conn)
func SetupContextForConn(ctx context.Context, closer io.Closer) (done func()) {
	stopc := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = closer.Close()
		case <-stopc:
		}
	}()
	var closed bool
	return func() {
		if !closed {
			closed = true
			close(stopc)
		}
	}
}

// WriteAll writes buf to w in full, looping on short writes. Shared by the
// outbound dialer (the residual-payload and UDP-relay-frame writes) and
// the ingress pump (client -> outbound forwarding), so the short-write
// loop is only implemented once.
func WriteAll(w net.Conn, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}
