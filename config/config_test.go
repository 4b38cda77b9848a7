package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	C "github.com/relaytun/edgetunnel/constant"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	env := map[string]string{
		"UUID":               "7b79e5e1-0eb0-4a88-8b0f-60ebf2a0ab1c",
		"MAIN_PAGE_URL":      "https://example.com/main",
		"SUB_PAGE_URL":       "https://example.com/sub",
		"LINK_PAGE_URL":      "https://example.com/link",
		"CONVERTER_PAGE_URL": "https://example.com/converter",
		"CHECKER_PAGE_URL":   "https://example.com/checker",
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadSuccess(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROXY_LIST", `{"SG":["203.0.113.5:443"]}`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7b79e5e1-0eb0-4a88-8b0f-60ebf2a0ab1c", cfg.UUID.String())
	assert.Len(t, cfg.ProxyList["SG"], 1)
}

func TestLoadMissingUUIDFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UUID", "")

	_, err := Load()
	assertKind(t, err, C.KindConfigMissing)
}

func TestLoadMalformedUUIDFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UUID", "not-a-uuid")

	_, err := Load()
	assertKind(t, err, C.KindConfigInvalid)
}

func TestLoadMalformedProxyListFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PROXY_LIST", "{not json")

	_, err := Load()
	assertKind(t, err, C.KindConfigInvalid)
}

func TestLoadMissingPageURLFails(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUB_PAGE_URL", "")

	_, err := Load()
	assertKind(t, err, C.KindConfigMissing)
}

func assertKind(t *testing.T, err error, kind C.Kind) {
	t.Helper()
	require.Error(t, err)
	var cerr *C.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, kind, cerr.Kind)
}
