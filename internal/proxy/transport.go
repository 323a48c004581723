package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	xproxy "golang.org/x/net/proxy"
)

// NewHTTPClient returns a one-shot client whose traffic leaves through
// endpoint. An empty endpoint means a direct connection. Connections are not
// kept alive since the proxy changes between requests.
func NewHTTPClient(endpoint string, timeout time.Duration) (*http.Client, error) {
	transport, err := NewTransport(endpoint, timeout)
	if err != nil {
		return nil, err
	}
	transport.DisableKeepAlives = true
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// NewTransport builds an http.Transport for endpoint. HTTP(S) proxies use
// CONNECT, SOCKS5 proxies replace the dialer.
func NewTransport(endpoint string, timeout time.Duration) (*http.Transport, error) {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	if endpoint == "" {
		return transport, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", Redact(endpoint), err)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		d, err := xproxy.FromURL(u, dialer)
		if err != nil {
			return nil, fmt.Errorf("failed to create socks dialer: %w", err)
		}
		transport.DialContext = contextDialer(d)
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	return transport, nil
}

func contextDialer(d xproxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(xproxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}
