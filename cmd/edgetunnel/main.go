// Command edgetunnel runs the edge proxy worker as a standalone HTTP
// server: it loads configuration from the environment, wires the external
// route table, and listens. Grounded on the teacher's cmd/mihomo entry
// point's shape (load config, set up logging, serve), reduced to this
// project's much smaller surface.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/relaytun/edgetunnel/config"
	"github.com/relaytun/edgetunnel/httpapi"
	"github.com/relaytun/edgetunnel/log"
)

func main() {
	if lvl, ok := log.LogLevelMapping[os.Getenv("LOG_LEVEL")]; ok {
		log.SetLevel(lvl)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "edgetunnel: configuration error:", err)
		os.Exit(1)
	}

	if os.Getenv("WATCHDOG") == "1" {
		httpapi.Watchdog = 8 * time.Second
	}

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Infoln("starting edgetunnel", log.Fields{"addr": addr})
	router := httpapi.NewRouter(cfg)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Errorln("server exited", log.Fields{"err": err.Error()})
		os.Exit(1)
	}
}
