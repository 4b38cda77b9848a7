package tunnelengine_test

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaytun/edgetunnel/outbound"
	"github.com/relaytun/edgetunnel/tunnelengine"
	wsconn "github.com/relaytun/edgetunnel/transport/ws"
)

// echoListener accepts one connection, echoes everything it reads back to
// the writer, and stops when the connection closes.
func echoListener(t *testing.T) (addr string, done chan struct{}) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done = make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				_, _ = conn.Write(buf[:n])
			}
			if err != nil {
				return
			}
		}
	}()
	return ln.Addr().String(), done
}

// vlessFrame builds scenario 1's first frame targeting host:port.
func vlessFrame(t *testing.T, host string, port uint16, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(0x00)
	buf.Write([]byte{0x7b, 0x79, 0xe5, 0xe1, 0x0e, 0xb0, 0x4a, 0x88, 0x8b, 0x0f, 0x60, 0xeb, 0xf2, 0xa0, 0xab, 0x1c})
	buf.WriteByte(0x00) // optLen
	buf.WriteByte(0x01) // cmd TCP
	buf.WriteByte(byte(port >> 8))
	buf.WriteByte(byte(port))
	buf.WriteByte(0x02) // atyp domain
	buf.WriteByte(byte(len(host)))
	buf.WriteString(host)
	buf.WriteString(payload)
	return buf.Bytes()
}

func TestEndToEndVLESSRoundTripWithResponsePrefix(t *testing.T) {
	echoAddr, done := echoListener(t)
	host, portStr, _ := net.SplitHostPort(echoAddr)
	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse port: %v", err)
	}
	port := uint16(portNum)

	mux := http.NewServeMux()
	mux.HandleFunc("/tunnel", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsconn.Upgrade(w, r)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		engine := tunnelengine.New("test", conn, outbound.NewDialer(), "", 0)
		engine.Run(context.Background())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + srv.URL[len("http"):] + "/tunnel"
	clientConn, _, _, err := ws.Dial(context.Background(), wsURL)
	require.NoError(t, err)
	defer clientConn.Close()

	frame := vlessFrame(t, host, port, "GET / HTTP/1.1\r\n\r\n")
	require.NoError(t, wsutil.WriteClientMessage(clientConn, ws.OpBinary, frame))

	_ = clientConn.SetReadDeadline(time.Now().Add(3 * time.Second))
	reply, _, err := wsutil.ReadServerData(clientConn)
	require.NoError(t, err)

	want := append([]byte{0x00, 0x00}, []byte("GET / HTTP/1.1\r\n\r\n")...)
	assert.Equal(t, want, reply)

	_ = clientConn.Close()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for outbound connection to tear down")
	}
}

// multiEchoListener, unlike echoListener, accepts as many connections as
// arrive and echoes each independently, so the concurrency test below can
// dial one outbound per client connection.
func multiEchoListener(t *testing.T) (addr string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 4096)
				for {
					n, err := c.Read(buf)
					if n > 0 {
						_, _ = c.Write(buf[:n])
					}
					if err != nil {
						return
					}
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

// TestConcurrentConnectionsDoNotCrossContaminateResponsePrefixes drives a
// batch of simultaneous VLESS connections, each with a distinct payload,
// through one shared httptest server and asserts every reply's response
// prefix and echoed body match only its own connection's request (§8
// boundary test: "concurrent 1k connections, no cross-contamination of
// response prefixes").
func TestConcurrentConnectionsDoNotCrossContaminateResponsePrefixes(t *testing.T) {
	const n = 256

	echoAddr := multiEchoListener(t)
	host, portStr, _ := net.SplitHostPort(echoAddr)
	portNum, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	port := uint16(portNum)

	mux := http.NewServeMux()
	mux.HandleFunc("/tunnel", func(w http.ResponseWriter, r *http.Request) {
		conn, err := wsconn.Upgrade(w, r)
		if err != nil {
			return
		}
		engine := tunnelengine.New("concurrent", conn, outbound.NewDialer(), "", 0)
		engine.Run(context.Background())
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	wsURL := "ws" + srv.URL[len("http"):] + "/tunnel"

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			payload := fmt.Sprintf("conn-%04d-payload", i)

			clientConn, _, _, err := ws.Dial(context.Background(), wsURL)
			if !assert.NoError(t, err) {
				return
			}
			defer clientConn.Close()

			frame := vlessFrame(t, host, port, payload)
			if !assert.NoError(t, wsutil.WriteClientMessage(clientConn, ws.OpBinary, frame)) {
				return
			}

			_ = clientConn.SetReadDeadline(time.Now().Add(5 * time.Second))
			reply, _, err := wsutil.ReadServerData(clientConn)
			if !assert.NoError(t, err) {
				return
			}

			want := append([]byte{0x00, 0x00}, []byte(payload)...)
			assert.Equal(t, want, reply, "connection %d must see only its own prefix+payload", i)
		}(i)
	}
	wg.Wait()
}
