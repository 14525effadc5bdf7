package tcrest

import (
	"io"
	"net/http"
	"strconv"
	"strings"
)

// These are tools for writing tests.

// MockDoer creates a Doer which answers every request with the same
// canned response, for writing tests.
func MockDoer(statusCode int, contentType, body string) DoerFunc {
	return func(req *http.Request) (*http.Response, error) {
		resp := MockResponse(statusCode, contentType, body)
		resp.Request = req
		return resp, nil
	}
}

// MockResponse creates an *http.Response with the given status, Content-Type
// and body.  If contentType is empty, no Content-Type header is set.
func MockResponse(statusCode int, contentType, body string) *http.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set(HeaderContentType, contentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))

	return &http.Response{
		Status:        strconv.Itoa(statusCode) + " " + http.StatusText(statusCode),
		StatusCode:    statusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          io.NopCloser(strings.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// ErrorDoer creates a Doer which fails every request with err.
func ErrorDoer(err error) DoerFunc {
	return func(*http.Request) (*http.Response, error) {
		return nil, err
	}
}
