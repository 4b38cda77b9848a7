// Package config loads the worker's environment-variable configuration:
// the UUID shape check, the static page URLs, and the PROXY_LIST region
// map. None of this is part of the tunnel engine core;
// it exists purely to hand C4/C5 a concrete proxyList and to give the HTTP
// route table its page-fetch targets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/gofrs/uuid/v5"

	C "github.com/relaytun/edgetunnel/constant"
)

// uuidPattern matches the shape required of the UUID env var;
// it is intentionally unrelated to the VLESS auto-detection signature in
// tunnelengine.Detect, which never consults this value.
var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Config is the fully validated environment configuration.
type Config struct {
	UUID uuid.UUID

	MainPageURL      string
	SubPageURL       string
	LinkPageURL      string
	ConverterPageURL string
	CheckerPageURL   string

	ProxyList map[string][]string
}

// Load reads and validates every required environment variable, returning
// a *C.Error with the matching disposition Kind on any failure
// (ConfigMissing or ConfigInvalid). Load runs once at startup, and
// cmd/edgetunnel exits on such an error; no HTTP request is ever answered
// with a 502 for a configuration failure.
func Load() (*Config, error) {
	cfg := &Config{}

	rawUUID, err := requireEnv("UUID")
	if err != nil {
		return nil, err
	}
	if !uuidPattern.MatchString(rawUUID) {
		return nil, C.NewErrorf(C.KindConfigInvalid, "config: UUID %q does not match the required shape", rawUUID)
	}
	parsed, err := uuid.FromString(rawUUID)
	if err != nil {
		return nil, C.NewErrorf(C.KindConfigInvalid, "config: UUID %q failed to parse: %v", rawUUID, err)
	}
	cfg.UUID = parsed

	for name, dst := range map[string]*string{
		"MAIN_PAGE_URL":      &cfg.MainPageURL,
		"SUB_PAGE_URL":       &cfg.SubPageURL,
		"LINK_PAGE_URL":      &cfg.LinkPageURL,
		"CONVERTER_PAGE_URL": &cfg.ConverterPageURL,
		"CHECKER_PAGE_URL":   &cfg.CheckerPageURL,
	} {
		val, err := requireEnv(name)
		if err != nil {
			return nil, err
		}
		*dst = val
	}

	proxyListRaw := os.Getenv("PROXY_LIST")
	if proxyListRaw != "" {
		var proxyList map[string][]string
		if err := json.Unmarshal([]byte(proxyListRaw), &proxyList); err != nil {
			return nil, C.NewErrorf(C.KindConfigInvalid, "config: PROXY_LIST is not valid JSON: %v", err)
		}
		cfg.ProxyList = proxyList
	} else {
		cfg.ProxyList = map[string][]string{}
	}

	return cfg, nil
}

func requireEnv(name string) (string, error) {
	val := os.Getenv(name)
	if val == "" {
		return "", C.NewError(C.KindConfigMissing, fmt.Errorf("missing required environment variable %s", name))
	}
	return val, nil
}
