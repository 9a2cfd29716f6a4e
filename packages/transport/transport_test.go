package transport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	client := New()

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, transport.TLSClientConfig)
	assert.Nil(t, transport.Proxy)
	assert.Zero(t, client.Timeout)
}

func TestWithValidateSSL(t *testing.T) {
	client := New(WithValidateSSL(false))

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.TLSClientConfig)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestWithProxy(t *testing.T) {
	client := New(WithProxy("http://proxy.local:8080"))

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, transport.Proxy)
}

func TestWithProxyInvalidURLIgnored(t *testing.T) {
	client := New(WithProxy("http://%zz"))

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, transport.Proxy)
}

func TestRedirectPolicy(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		via      int
		wantStop bool
	}{
		{"follows by default", nil, 1, false},
		{"stops when disabled", []Option{WithFollowRedirects(false)}, 0, true},
		{"stops at max redirects", []Option{WithMaxRedirects(3)}, 3, true},
		{"continues under max", []Option{WithMaxRedirects(3)}, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := New(tt.opts...)
			via := make([]*http.Request, tt.via)

			err := client.CheckRedirect(nil, via)
			if tt.wantStop {
				assert.Equal(t, http.ErrUseLastResponse, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
