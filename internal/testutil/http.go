package testutil

import (
	"net"
	"net/http"
	"testing"
	"time"
)

// NoProxyClient returns an HTTP client that doesn't use any proxy.
// Tests talk to loopback listeners and must not be routed through an
// HTTP_PROXY set in the environment.
func NoProxyClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			Proxy: nil,
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		},
	}
}

// FreeAddr returns a loopback address with a port that was free when
// checked.
func FreeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("find free port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}
