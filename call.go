package tcrest

import (
	"net/http"
	"net/url"

	"github.com/ansel1/merry"
	goquery "github.com/google/go-querystring/query"
)

// Call holds the per-call settings of a request.  It's built from
// CallOptions by the Client's Read and Send methods.
type Call struct {
	// Method defaults to GET for reads and POST for SendJSON.
	Method string

	// Header holds caller supplied headers.  How they are merged with
	// the Client's own headers depends on the method called.
	Header http.Header

	// Query is merged into any query already present in the API path.
	Query url.Values
}

// CallOption configures a single call.
type CallOption func(*Call) error

func newCall(method string, opts []CallOption) (*Call, error) {
	call := &Call{Method: method, Header: http.Header{}}
	for _, opt := range opts {
		if err := opt(call); err != nil {
			return nil, merry.Prepend(err, "applying call options")
		}
	}
	return call, nil
}

// Method sets the HTTP method.  An empty string keeps the default.
func Method(m string) CallOption {
	return func(c *Call) error {
		if m != "" {
			c.Method = m
		}
		return nil
	}
}

// Header sets a header value, using Header.Set()
func Header(key, value string) CallOption {
	return func(c *Call) error {
		c.Header.Set(key, value)
		return nil
	}
}

// Headers sets every key of h, replacing existing values for those keys.
func Headers(h http.Header) CallOption {
	return func(c *Call) error {
		for key, values := range h {
			c.Header[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
		return nil
	}
}

// QueryParams adds query parameters.  The arguments may be url.Values,
// map[string][]string, or a struct with `url` tags, which is encoded with
// github.com/google/go-querystring:
//
//     type BuildQuery struct {
//         Locator string `url:"locator,omitempty"`
//         Fields  string `url:"fields,omitempty"`
//     }
//
//     c.ReadJSON(ctx, "builds", tcrest.QueryParams(BuildQuery{Locator: "buildType:Main,count:5"}))
//
func QueryParams(queryStructs ...interface{}) CallOption {
	return func(c *Call) error {
		if c.Query == nil {
			c.Query = url.Values{}
		}
		for _, queryStruct := range queryStructs {
			var values url.Values
			switch t := queryStruct.(type) {
			case nil:
			case map[string][]string:
				values = url.Values(t)
			case url.Values:
				values = t
			default:
				var err error
				values, err = goquery.Values(queryStruct)
				if err != nil {
					return merry.Prepend(err, "invalid query struct")
				}
			}

			for key, vs := range values {
				for _, v := range vs {
					c.Query.Add(key, v)
				}
			}
		}
		return nil
	}
}

// mergeHeaders combines headers.  For each key, the value from the last
// header holding it wins.
func mergeHeaders(headers ...http.Header) http.Header {
	merged := http.Header{}
	for _, h := range headers {
		for key, values := range h {
			merged[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
	return merged
}
