package httpclient

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"time"

	"github.com/ansel1/merry"
)

// NoRedirects stops the client from following redirects.  The redirect
// response itself is returned.
func NoRedirects() Option {
	return OptionFunc(func(client *http.Client) error {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

// MaxRedirects makes the client give up after max redirects.
func MaxRedirects(max int) Option {
	return OptionFunc(func(client *http.Client) error {
		client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) >= max {
				return merry.Errorf("stopped after max %d requests", len(via))
			}
			return nil
		}
		return nil
	})
}

// ProxyURL sends all requests through one proxy.
func ProxyURL(proxyURL string) Option {
	return TransportOption(func(t *http.Transport) error {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return merry.Prepend(err, "invalid proxy url")
		}
		t.Proxy = http.ProxyURL(u)
		return nil
	})
}

// Timeout sets http.Client.Timeout.
func Timeout(d time.Duration) Option {
	return OptionFunc(func(client *http.Client) error {
		client.Timeout = d
		return nil
	})
}

// SkipVerify sets the TLS config's InsecureSkipVerify flag.
func SkipVerify(skip bool) Option {
	return TLSOption(func(c *tls.Config) error {
		c.InsecureSkipVerify = skip // nolint:gosec
		return nil
	})
}
