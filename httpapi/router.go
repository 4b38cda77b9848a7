// Package httpapi wires the external HTTP route table: five static
// page-fetch paths, the tunnel upgrade entry point, and a catch-all 404.
// None of this is core — it exists to hand the tunnel engine a WebSocket
// and a retry endpoint, using go-chi/chi for routing.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	C "github.com/relaytun/edgetunnel/constant"
	"github.com/relaytun/edgetunnel/config"
	"github.com/relaytun/edgetunnel/log"
	"github.com/relaytun/edgetunnel/outbound"
	"github.com/relaytun/edgetunnel/tunnelengine"
	wsconn "github.com/relaytun/edgetunnel/transport/ws"
	"github.com/relaytun/edgetunnel/upstream"
)

// Watchdog is the optional ambient request deadline race.
// Left at zero by default: forcing every tunnel closed after 8s would
// contradict full-duplex forwarding for normal, long-lived sessions, so
// it is only engaged when the deployment explicitly opts in.
var Watchdog time.Duration

// NewRouter builds the full external HTTP surface against cfg.
func NewRouter(cfg *config.Config) http.Handler {
	s := &server{
		cfg:    cfg,
		dialer: outbound.NewDialer(),
		client: &http.Client{Timeout: 10 * time.Second},
	}

	r := chi.NewRouter()
	r.Get("/", s.fetchPage(func() string { return cfg.MainPageURL }))
	r.Get("/sub", s.fetchPage(func() string { return cfg.SubPageURL }))
	r.Get("/link", s.fetchPage(func() string { return cfg.LinkPageURL }))
	r.Get("/converter", s.fetchPage(func() string { return cfg.ConverterPageURL }))
	r.Get("/checker", s.fetchPage(func() string { return cfg.CheckerPageURL }))
	r.NotFound(s.tunnelOrNotFound)
	return r
}

type server struct {
	cfg    *config.Config
	dialer *outbound.Dialer
	client *http.Client

	connSeq counter
}

// fetchPage proxies the response of a configured static page URL verbatim.
func (s *server) fetchPage(url func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := s.client.Get(url())
		if err != nil {
			http.Error(w, "upstream page fetch failed", http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}
}

// tunnelOrNotFound handles every path not claimed by the five static
// routes: a WebSocket upgrade enters the tunnel; anything else, or a
// non-upgrade request, is a plain 404.
func (s *server) tunnelOrNotFound(w http.ResponseWriter, r *http.Request) {
	if !isWebSocketUpgrade(r) {
		http.NotFound(w, r)
		return
	}

	retryAddr, resolveErr := upstream.Resolve(r.URL.Path, s.cfg.ProxyList)
	var cerr *C.Error
	if resolveErr != nil {
		if errors.As(resolveErr, &cerr) {
			renderConfigError(w, r, cerr)
			return
		}
		http.NotFound(w, r)
		return
	}

	conn, err := wsconn.Upgrade(w, r)
	if err != nil {
		log.Warnln("websocket upgrade failed", log.Fields{"path": r.URL.Path, "err": err.Error()})
		return
	}

	id := s.connSeq.next()
	engineConn := tunnelengine.New(id, conn, s.dialer, retryAddr.String(), Watchdog)
	go engineConn.Run(context.Background())
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// renderConfigError maps a *C.Error's disposition Kind onto the 502
// response the error-handling design requires.
func renderConfigError(w http.ResponseWriter, r *http.Request, cerr *C.Error) {
	switch cerr.Kind {
	case C.KindConfigMissing, C.KindConfigInvalid, C.KindRegionEmpty:
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, map[string]string{
			"error":  string(cerr.Kind),
			"detail": cerr.Error(),
		})
	default:
		http.NotFound(w, r)
	}
}

// counter hands out small per-connection ids for logging. Many connections
// run concurrently, so increments go through sync/atomic rather
// than a plain int.
type counter struct {
	n int64
}

func (c *counter) next() string {
	return strconv.FormatInt(atomic.AddInt64(&c.n, 1), 10)
}
