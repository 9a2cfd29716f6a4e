// Package transport builds the http.Client a resource dispatches
// through. Timeouts are enforced per request via context, so the
// clients built here carry no client-wide deadline.
package transport

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	// DefaultMaxRedirects is the maximum number of redirects to follow.
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host.
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool.
	DefaultIdleConnTimeout = 90 * time.Second
)

type settings struct {
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
}

// Option configures the client under construction.
type Option func(*settings)

// WithFollowRedirects enables or disables redirect following.
func WithFollowRedirects(follow bool) Option {
	return func(s *settings) {
		s.followRedirect = follow
	}
}

// WithMaxRedirects caps how many redirects are followed.
func WithMaxRedirects(max int) Option {
	return func(s *settings) {
		s.maxRedirects = max
	}
}

// WithValidateSSL enables or disables TLS certificate validation.
func WithValidateSSL(validate bool) Option {
	return func(s *settings) {
		s.validateSSL = validate
	}
}

// WithProxy routes requests through the given proxy URL.
func WithProxy(proxyURL string) Option {
	return func(s *settings) {
		s.proxyURL = proxyURL
	}
}

// New builds an http.Client with the pack's pooling defaults and the
// given options applied.
func New(opts ...Option) *http.Client {
	s := &settings{
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
	}
	for _, opt := range opts {
		opt(s)
	}

	transport := &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}

	if !s.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if s.proxyURL != "" {
		if proxyURL, err := url.Parse(s.proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !s.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= s.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: redirectPolicy,
	}
}

var (
	defaultClient *http.Client
	defaultOnce   sync.Once
)

// Default returns the shared client used by resources that were not
// given a client of their own.
func Default() *http.Client {
	defaultOnce.Do(func() {
		defaultClient = New()
	})
	return defaultClient
}
