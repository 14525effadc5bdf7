package tcrest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/ThalesGroup/tcrest/httpclient"
	"github.com/ThalesGroup/tcrest/jsonutil"
	"github.com/ansel1/merry"
	"github.com/sirupsen/logrus"
)

// Client calls the REST API of a build server.
//
// The auth realm, API root URL and auth headers are derived from the
// Config on each call:
//
//     Config                      API root
//     {Host: "ci"}                http://ci/guestAuth/app/rest/
//     {Host: "ci", APIKey: "k"}   http://ci/app/rest/                (plus "Authorization: Bearer k")
//     {Host: "ci", User: "bob",   http://bob:pw@ci/httpAuth/app/rest/
//      Password: "pw"}
//
// A Client is immutable once built, and safe for concurrent use.  Each
// method sends exactly one request.  Nothing is retried or cached.
type Client struct {
	config     Config
	doer       Doer
	middleware []Middleware
	logger     logrus.FieldLogger
}

// Option configures a Client in NewClient.
type Option interface {
	Apply(*Client) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*Client) error

// Apply implements Option.
func (f OptionFunc) Apply(c *Client) error {
	return f(c)
}

// WithDoer replaces the transport.  If nil, NewClient builds an
// *http.Client from Config.Transport.
func WithDoer(d Doer) Option {
	return OptionFunc(func(c *Client) error {
		c.doer = d
		return nil
	})
}

// Use appends middleware.  Middleware is invoked in the order added,
// after the default ExpectSuccessCode middleware.
func Use(m ...Middleware) Option {
	return OptionFunc(func(c *Client) error {
		c.middleware = append(c.middleware, m...)
		return nil
	})
}

// WithLogger sets the logger.  Requests and responses are logged at debug
// level, with passwords and tokens redacted.  By default nothing is logged.
func WithLogger(l logrus.FieldLogger) Option {
	return OptionFunc(func(c *Client) error {
		c.logger = l
		return nil
	})
}

// HTTPClient builds the transport with the httpclient package.  The
// options are applied after those derived from Config.Transport.
func HTTPClient(opts ...httpclient.Option) Option {
	return OptionFunc(func(c *Client) error {
		hc, err := httpclient.New(append(c.config.Transport.Options(), opts...)...)
		if err != nil {
			return err
		}
		c.doer = hc
		return nil
	})
}

// NewClient validates cfg and returns a Client using a defaulted copy of it.
// If cfg is invalid, the error matches ErrConfiguration and no Client is
// returned.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	c := &Client{
		config:     cfg,
		middleware: []Middleware{ExpectSuccessCode()},
	}
	for _, opt := range opts {
		if err := opt.Apply(c); err != nil {
			return nil, merry.Prepend(err, "applying options")
		}
	}

	if c.doer == nil {
		hc, err := httpclient.New(cfg.Transport.Options()...)
		if err != nil {
			return nil, err
		}
		c.doer = hc
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}
	return c, nil
}

// Config returns a copy of the Client's (validated) Config.
func (c *Client) Config() Config {
	return c.config
}

// AuthMode returns the Config's AuthMode.
func (c *Client) AuthMode() AuthMode { return c.config.AuthMode() }

// AccessType returns the Config's AccessType.
func (c *Client) AccessType() string { return c.config.AccessType() }

// APIURL returns the Config's APIURL.
func (c *Client) APIURL() string { return c.config.APIURL() }

// Auth returns the Config's Auth.
func (c *Client) Auth() string { return c.config.Auth() }

// Do implements Doer.  It sends req through the middleware and the
// transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return Wrap(c.doer, c.middleware...).Do(req)
}

// Read sends a request to APIURL()+apiPath and returns the raw response
// body.  The method defaults to GET.  The API key header, if any, replaces
// caller supplied headers with the same key.
//
// Errors from the transport are returned unchanged.  Non-2XX responses
// return an ErrUnexpectedStatus error.
func (c *Client) Read(ctx context.Context, apiPath string, opts ...CallOption) ([]byte, error) {
	call, err := newCall(http.MethodGet, opts)
	if err != nil {
		return nil, err
	}
	return c.read(ctx, apiPath, call)
}

func (c *Client) read(ctx context.Context, apiPath string, call *Call) ([]byte, error) {
	call.Header = mergeHeaders(call.Header, c.config.APIKeyHeader())
	return c.send(ctx, apiPath, call, nil)
}

// ReadJSON is like Read, but asks for JSON and parses the response with
// jsonutil.ToJSON.  If the body isn't valid JSON, it is returned as a string.
//
// The Accept header may be overridden by the caller.
func (c *Client) ReadJSON(ctx context.Context, apiPath string, opts ...CallOption) (interface{}, error) {
	body, err := c.readJSON(ctx, apiPath, opts)
	if err != nil {
		return nil, err
	}
	return jsonutil.ToJSON(string(body)), nil
}

// ReadInto sends the same request as ReadJSON, and unmarshals the response
// into the value pointed to by into.  Unlike ReadJSON, a malformed body is
// an error.
func (c *Client) ReadInto(ctx context.Context, apiPath string, into interface{}, opts ...CallOption) error {
	body, err := c.readJSON(ctx, apiPath, opts)
	if err != nil {
		return err
	}
	return merry.Prepend(json.Unmarshal(body, into), "decoding response body")
}

func (c *Client) readJSON(ctx context.Context, apiPath string, opts []CallOption) ([]byte, error) {
	call, err := newCall(http.MethodGet, opts)
	if err != nil {
		return nil, err
	}
	call.Header = mergeHeaders(c.config.JSONHeader(), call.Header)
	return c.read(ctx, apiPath, call)
}

// SendJSON sends body to APIURL()+apiPath, and parses the response like
// ReadJSON.  The method defaults to POST.
//
// Headers are merged in this order, later ones winning: Content-Type:
// application/json, the caller's headers, JSONHeader(), APIKeyHeader().
// So the caller can change the Content-Type, but not Accept or the
// bearer Authorization.
//
// A string, []byte, or json.RawMessage body is sent as is.  Other values
// are marshaled to JSON.  A nil body sends no body.
func (c *Client) SendJSON(ctx context.Context, apiPath string, body interface{}, opts ...CallOption) (interface{}, error) {
	call, err := newCall(http.MethodPost, opts)
	if err != nil {
		return nil, err
	}
	call.Header = mergeHeaders(
		http.Header{HeaderContentType: []string{ContentTypeJSON}},
		call.Header,
		c.config.JSONHeader(),
		c.config.APIKeyHeader(),
	)

	reqBody, err := jsonBody(body)
	if err != nil {
		return nil, err
	}

	respBody, err := c.send(ctx, apiPath, call, reqBody)
	if err != nil {
		return nil, err
	}
	return jsonutil.ToJSON(string(respBody)), nil
}

func jsonBody(body interface{}) (io.Reader, error) {
	switch t := body.(type) {
	case nil:
		return nil, nil
	case string:
		return bytes.NewReader([]byte(t)), nil
	case []byte:
		return bytes.NewReader(t), nil
	case json.RawMessage:
		return bytes.NewReader(t), nil
	default:
		b, err := json.Marshal(body)
		if err != nil {
			return nil, merry.Prepend(err, "marshaling request body")
		}
		return bytes.NewReader(b), nil
	}
}

func (c *Client) send(ctx context.Context, apiPath string, call *Call, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, call.Method, c.config.APIURL()+apiPath, body)
	if err != nil {
		return nil, merry.Prepend(err, "building request")
	}

	for k, v := range call.Header {
		req.Header[k] = v
	}

	if len(call.Query) > 0 {
		values := req.URL.Query()
		for key, vs := range call.Query {
			for _, v := range vs {
				values.Add(key, v)
			}
		}
		req.URL.RawQuery = values.Encode()
	}

	log := c.logger.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.Redacted(),
	})
	log.WithField("headers", redactHeader(req.Header)).Debug("sending request")

	start := time.Now()
	resp, err := c.Do(req)
	respBody, readErr := readBody(resp)

	if err != nil {
		log.WithError(err).WithField("elapsed", time.Since(start)).Debug("request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"bytes":   len(respBody),
		"elapsed": time.Since(start),
	}).Debug("received response")

	if readErr != nil {
		return nil, readErr
	}
	return respBody, nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return body, merry.Prepend(err, "reading response body")
}

func redactHeader(h http.Header) http.Header {
	r := h.Clone()
	if r.Get(HeaderAuthorization) != "" {
		r.Set(HeaderAuthorization, "REDACTED")
	}
	return r
}
