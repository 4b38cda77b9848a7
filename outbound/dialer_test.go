package outbound

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialTCPWritesResidualPayloadInOneShot(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, _ := conn.Read(buf)
		received <- buf[:n]
	}()

	d := NewDialer()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := d.DialTCP(ctx, ln.Addr().String(), []byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	defer conn.Close()

	select {
	case got := <-received:
		assert.Equal(t, "GET / HTTP/1.1\r\n\r\n", string(got))
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
	}
}

func TestDialTCPFailsOnUnreachableEndpoint(t *testing.T) {
	d := NewDialer()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	_, err := d.DialTCP(ctx, "127.0.0.1:1", nil)
	assert.Error(t, err)
}
