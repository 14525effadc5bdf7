package tcrest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"

	"github.com/ansel1/merry"
)

// Middleware wraps a Doer with extra behavior:
//
//     countRequests := func(next tcrest.Doer) tcrest.Doer {
//         return tcrest.DoerFunc(func(req *http.Request) (*http.Response, error) {
//             atomic.AddInt64(&count, 1)
//             return next.Do(req)
//         })
//     }
//
// Middleware is an Option, so it can be passed straight to NewClient:
//
//     c, err := tcrest.NewClient(cfg, tcrest.Middleware(countRequests))
//
type Middleware func(Doer) Doer

// Apply implements Option
func (m Middleware) Apply(c *Client) error {
	c.middleware = append(c.middleware, m)
	return nil
}

// Wrap applies middleware to a Doer.  The first middleware is the
// outermost: it sees the request first and the response last.
func Wrap(d Doer, m ...Middleware) Doer {
	for i := len(m) - 1; i > -1; i-- {
		d = m[i](d)
	}
	return d
}

// ExpectSuccessCode turns responses with a status outside 200-299 into
// ErrUnexpectedStatus errors.  The response is still returned, with its
// body intact, and the body is also attached to the error (see StatusBody).
//
// NewClient installs it by default.
func ExpectSuccessCode() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.Do(req)
			if err != nil || resp == nil || (resp.StatusCode >= 200 && resp.StatusCode <= 299) {
				return resp, err
			}

			var body []byte
			if resp.Body != nil {
				body, _ = io.ReadAll(resp.Body)
				_ = resp.Body.Close()
				resp.Body = io.NopCloser(bytes.NewReader(body))
			}

			return resp, merry.Here(ErrUnexpectedStatus).
				WithMessagef("server returned an unsuccessful status code: %d", resp.StatusCode).
				WithHTTPCode(resp.StatusCode).
				WithValue(errKeyBody, body)
		})
	}
}

// Dump writes each request and response to w, for debugging.  Each is
// written with a single Write() call, so w can be a line-oriented logger.
// Bodies are included; they are buffered and restored by httputil.
func Dump(w io.Writer) Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(req *http.Request) (*http.Response, error) {
			writeDump(w, "request", func() ([]byte, error) {
				return httputil.DumpRequestOut(req, true)
			})
			resp, err := next.Do(req)
			if resp != nil {
				writeDump(w, "response", func() ([]byte, error) {
					return httputil.DumpResponse(resp, true)
				})
			}
			return resp, err
		})
	}
}

func writeDump(w io.Writer, what string, dump func() ([]byte, error)) {
	b, err := dump()
	if err != nil {
		b = []byte("Error dumping " + what + ": " + err.Error())
	}
	_, _ = w.Write(append(b, '\n'))
}
