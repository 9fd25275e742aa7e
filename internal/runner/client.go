package runner

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/http2"
)

// NewTransport builds the connection pool shared by all virtual users.
func NewTransport(cfg Config) (*http.Transport, error) {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxConnsPerHost = 2000
	t.MaxIdleConnsPerHost = 2000
	t.TLSClientConfig = &tls.Config{InsecureSkipVerify: cfg.Insecure}

	if cfg.HTTP2 {
		t.TLSNextProto = nil
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("failed to enable http2: %w", err)
		}
	}
	return t, nil
}

// newUserClient gives a virtual user its own cookie session over the shared pool.
func newUserClient(transport http.RoundTripper, timeoutSec int) *http.Client {
	jar, _ := cookiejar.New(nil)
	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   time.Duration(timeoutSec) * time.Second,
	}
}
