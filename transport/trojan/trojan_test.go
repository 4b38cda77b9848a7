package trojan

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	C "github.com/relaytun/edgetunnel/constant"
)

func buildFrame(hash string) []byte {
	var buf bytes.Buffer
	buf.WriteString(hash)
	buf.Write(crlf)
	buf.WriteByte(0x01)           // cmd TCP
	buf.WriteByte(0x01)           // atyp IPv4
	buf.Write([]byte{8, 8, 8, 8}) // 8.8.8.8
	buf.Write([]byte{0x00, 0x35}) // port 53
	buf.Write(crlf)
	buf.WriteString("query")
	return buf.Bytes()
}

func TestParseScenario2(t *testing.T) {
	hash := strings.Repeat("a", KeyLength)
	header, err := Parse(buildFrame(hash))
	require.NoError(t, err)

	assert.Equal(t, "8.8.8.8", header.Host)
	assert.EqualValues(t, 53, header.Port)
	assert.Equal(t, C.CommandTCP, header.Command)
	assert.Equal(t, "query", string(header.Payload))
	assert.Empty(t, header.ResponsePrefix)
}

func TestParseAcceptsHashWithoutVerification(t *testing.T) {
	// Any 56-byte hash is accepted — the field is framing only, never
	// checked against Key().
	hash := strings.Repeat("0", KeyLength)
	_, err := Parse(buildFrame(hash))
	assert.NoError(t, err)
}

func TestParseRejectsShortHeader(t *testing.T) {
	hash := strings.Repeat("a", KeyLength)
	frame := buildFrame(hash)
	_, err := Parse(frame[:KeyLength+1])
	assert.Error(t, err)
}

func TestKeyIsHexSHA224(t *testing.T) {
	key := Key("password")
	assert.Len(t, key, KeyLength)
	assert.Equal(t, "d63dc919e201d7bc4c825630d2cf25fdc93d4b2f0d46706d29038d01", string(key[:]))
}
