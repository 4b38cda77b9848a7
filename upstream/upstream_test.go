package upstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	C "github.com/relaytun/edgetunnel/constant"
)

func TestResolveDirectEndpoint(t *testing.T) {
	ep, err := Resolve("/example.com-8443", nil)
	require.NoError(t, err)
	assert.Equal(t, "example.com", ep.Host)
	assert.EqualValues(t, 8443, ep.Port)
}

func TestResolveDirectEndpointColonSeparator(t *testing.T) {
	ep, err := Resolve("1.2.3.4:443", nil)
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", ep.Host)
	assert.EqualValues(t, 443, ep.Port)
}

func TestResolveScenario4RegionRouting(t *testing.T) {
	proxyList := map[string][]string{"SG": {"203.0.113.5:443"}}
	ep, err := Resolve("/SG", proxyList)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.5:443", ep.String())
}

func TestResolveRegionNotInMapFails502Kind(t *testing.T) {
	_, err := Resolve("/FR", map[string][]string{"SG": {"203.0.113.5:443"}})
	require.Error(t, err)

	var cerr *C.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, C.KindRegionEmpty, cerr.Kind)
}

func TestResolveMultiRegionList(t *testing.T) {
	proxyList := map[string][]string{
		"SG": {"203.0.113.5:443"},
		"US": {"203.0.113.6:443"},
	}
	ep, err := Resolve("/SG,US", proxyList)
	require.NoError(t, err)
	assert.Contains(t, []string{"203.0.113.5", "203.0.113.6"}, ep.Host)
}

func TestResolveUnrecognizedPathFails(t *testing.T) {
	_, err := Resolve("/not a valid path!!", nil)
	assert.Error(t, err)
}
