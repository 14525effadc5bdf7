package tcrest

import "net/http"

// Doer is the HTTP transport a Client delegates to.  *http.Client
// implements it, and so does Client itself, so a Client can be wrapped
// by middleware or by another Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to implement Doer
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do implements the Doer interface
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}
