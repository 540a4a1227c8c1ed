// Package tunnel provides the listener the phone server is served on,
// together with the public URL Twilio uses to reach it.
package tunnel

import (
	"context"
	"log/slog"
	"net"
	"strings"

	"github.com/mrsingh-rishi/voice-assistant/config"
	"github.com/pkg/errors"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"
)

// Listener is a net.Listener that knows its public base URL.
type Listener interface {
	net.Listener
	URL() string
}

type staticListener struct {
	net.Listener
	url string
}

func (l *staticListener) URL() string { return l.url }

// Static listens on addr and reports publicURL, for deployments where
// something else (a reverse proxy, a hosted ngrok agent) forwards traffic.
func Static(addr, publicURL string) (Listener, error) {
	if publicURL == "" {
		return nil, errors.New("public URL is required")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listening on %s", addr)
	}
	return &staticListener{Listener: ln, url: strings.TrimRight(publicURL, "/")}, nil
}

// Ngrok opens an HTTPS endpoint through the ngrok service. Connections
// arrive on the returned listener directly, so nothing binds a local port.
func Ngrok(ctx context.Context, authToken string) (Listener, error) {
	if authToken == "" {
		return nil, errors.New("ngrok auth token is required")
	}
	tun, err := ngrok.Listen(ctx,
		ngrokconfig.HTTPEndpoint(),
		ngrok.WithAuthtoken(authToken),
	)
	if err != nil {
		return nil, errors.Wrap(err, "starting ngrok tunnel")
	}
	return tun, nil
}

// Open picks Static when a public URL is configured and ngrok otherwise.
func Open(ctx context.Context, cfg config.TunnelConfig, addr string) (Listener, error) {
	if cfg.PublicURL != "" {
		ln, err := Static(addr, cfg.PublicURL)
		if err != nil {
			return nil, err
		}
		slog.Info("serving on local address", "addr", ln.Addr().String(), "public_url", ln.URL())
		return ln, nil
	}
	ln, err := Ngrok(ctx, cfg.NgrokAuthToken)
	if err != nil {
		return nil, err
	}
	slog.Info("ngrok tunnel established", "public_url", ln.URL())
	return ln, nil
}
