package tunnel

import (
	"context"
	"net"
	"testing"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	ln, err := Static("127.0.0.1:0", "https://example.ngrok.app/")
	require.NoError(t, err)
	defer ln.Close()

	assert.Equal(t, "https://example.ngrok.app", ln.URL())

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	conn.Close()
}

func TestStatic_RequiresURL(t *testing.T) {
	_, err := Static("127.0.0.1:0", "")
	assert.Error(t, err)
}

func TestOpen_PrefersPublicURL(t *testing.T) {
	ln, err := Open(context.Background(), config.TunnelConfig{
		PublicURL:      "https://voice.example.com",
		NgrokAuthToken: "unused",
	}, "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	assert.Equal(t, "https://voice.example.com", ln.URL())
}

func TestNgrok_RequiresToken(t *testing.T) {
	_, err := Ngrok(context.Background(), "")
	assert.Error(t, err)
}
