// Package httpclient builds the *http.Client used as the default transport
// of a tcrest.Client.
//
// A client is built with New(), which takes Options, or from a Config
// (typically loaded from the "transport" section of a YAML config file):
//
//     c, err := httpclient.New(httpclient.SkipVerify(true), httpclient.Timeout(10 * time.Second))
//
//     cfg := httpclient.Config{Timeout: 30 * time.Second, NoRedirects: true}
//     c, err = httpclient.New(cfg.Options()...)
//
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/ansel1/merry"
)

// Config is a declarative form of the Options in this package.  Zero
// values leave the corresponding setting at its http.DefaultClient value.
type Config struct {
	// Timeout limits the whole exchange, including reading the response body.
	Timeout time.Duration `yaml:"timeout"`

	// InsecureSkipVerify disables verification of the server's certificate.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// ProxyURL routes every request through a single proxy.
	ProxyURL string `yaml:"proxy_url"`

	// MaxRedirects caps the number of redirects followed.
	MaxRedirects int `yaml:"max_redirects"`

	// NoRedirects returns redirect responses to the caller instead of
	// following them.  Takes precedence over MaxRedirects.
	NoRedirects bool `yaml:"no_redirects"`
}

// Options converts the Config into Options.
func (c Config) Options() []Option {
	var opts []Option
	if c.Timeout > 0 {
		opts = append(opts, Timeout(c.Timeout))
	}
	if c.InsecureSkipVerify {
		opts = append(opts, SkipVerify(true))
	}
	if c.ProxyURL != "" {
		opts = append(opts, ProxyURL(c.ProxyURL))
	}
	switch {
	case c.NoRedirects:
		opts = append(opts, NoRedirects())
	case c.MaxRedirects > 0:
		opts = append(opts, MaxRedirects(c.MaxRedirects))
	}
	return opts
}

// New builds a new *http.Client.  With no arguments, the client behaves
// like http.DefaultClient, but is a separate instance, so it can be
// modified without global effects.
func New(opts ...Option) (*http.Client, error) {
	c := &http.Client{}
	return c, Apply(c, opts...)
}

// Apply applies options to an existing client.
func Apply(c *http.Client, opts ...Option) error {
	for _, opt := range opts {
		if err := opt.Apply(c); err != nil {
			return merry.Prepend(err, "configuring http client")
		}
	}
	return nil
}

// newTransport mirrors the settings of http.DefaultTransport.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Option configures an http.Client.  The client argument is never nil.
type Option interface {
	Apply(*http.Client) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*http.Client) error

// Apply implements Option.
func (f OptionFunc) Apply(c *http.Client) error {
	return f(c)
}

// TransportOption configures the client's *http.Transport, installing
// a fresh one first if the client has none.  It fails if the client's
// transport is some other kind of http.RoundTripper.
type TransportOption func(transport *http.Transport) error

// Apply implements Option.
func (f TransportOption) Apply(c *http.Client) error {
	switch t := c.Transport.(type) {
	case nil:
		tr := newTransport()
		c.Transport = tr
		return f(tr)
	case *http.Transport:
		return f(t)
	default:
		return merry.Errorf("client.Transport is not a *http.Transport.  It's a %T", c.Transport)
	}
}

// TLSOption configures the transport's TLS config, creating it if needed.
type TLSOption func(c *tls.Config) error

// Apply implements Option.
func (f TLSOption) Apply(c *http.Client) error {
	return TransportOption(func(t *http.Transport) error {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{}
		}
		return f(t.TLSClientConfig)
	}).Apply(c)
}
