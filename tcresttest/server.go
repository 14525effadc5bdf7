// Package tcresttest provides a fake build server for testing code which
// uses tcrest.
//
// The Server routes the three auth realms of the REST API, enforces the
// credentials it was created with, and records every exchange:
//
//     ts := tcresttest.NewServer(tcresttest.Credentials{APIKey: "k"}, tcresttest.EchoHandler())
//     defer ts.Close()
//
//     c, _ := ts.Client(tcrest.Config{APIKey: "k"})
//     v, err := c.ReadJSON(ctx, "builds")
//
//     ex := ts.Inspector.LastExchange()
//
package tcresttest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/ThalesGroup/tcrest"
)

// Realm names, as they appear in the URL path.
const (
	RealmGuest  = "guestAuth"
	RealmHTTP   = "httpAuth"
	RealmAPIKey = ""
)

const restRoot = "app/rest/"

// Credentials are the secrets the Server accepts.  Requests to the
// httpAuth realm must carry User and Password as basic auth, or APIKey as
// a bearer token.  Requests to the unprefixed realm must carry APIKey as a
// bearer token.  The guest realm is open.
type Credentials struct {
	User     string
	Password string
	APIKey   string
}

// Server is a fake build server.  Close it at the end of the test.
type Server struct {
	*httptest.Server

	// Inspector records the exchanges handled by the server.
	Inspector *Inspector

	// Handler serves authorized requests.  Use RESTPath and Realm to see
	// what was asked for.
	Handler http.Handler

	creds Credentials
}

// NewServer starts a Server.  If handler is nil, EchoHandler is used.
func NewServer(creds Credentials, handler http.Handler) *Server {
	if handler == nil {
		handler = EchoHandler()
	}
	s := &Server{
		Inspector: NewInspector(0),
		Handler:   handler,
		creds:     creds,
	}
	s.Server = httptest.NewServer(s.Inspector.Wrap(http.HandlerFunc(s.serve)))
	return s
}

// BaseConfig returns a tcrest.Config pointing at the server, with no
// credentials.
func (s *Server) BaseConfig() tcrest.Config {
	return tcrest.Config{
		Protocol: "http://",
		Host:     strings.TrimPrefix(s.URL, "http://"),
	}
}

// Client builds a tcrest.Client talking to the server.  cfg's Protocol
// and Host are replaced with the server's; its credentials are kept.
//
// The plain *http.Client of the test server is still available as
// s.Server.Client().
func (s *Server) Client(cfg tcrest.Config, opts ...tcrest.Option) (*tcrest.Client, error) {
	base := s.BaseConfig()
	cfg.Protocol, cfg.Host = base.Protocol, base.Host
	opts = append([]tcrest.Option{tcrest.WithDoer(s.Server.Client())}, opts...)
	return tcrest.NewClient(cfg, opts...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	realm, ok := Realm(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	switch realm {
	case RealmHTTP:
		// net/http drops the URL's userinfo when an Authorization header is
		// already set, so a client configured with both sends the token.
		if !s.basicOK(r) && !s.bearerOK(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="TeamCity"`)
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
	case RealmAPIKey:
		if !s.bearerOK(r) {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
	}

	s.Handler.ServeHTTP(w, r)
}

func (s *Server) basicOK(r *http.Request) bool {
	user, password, ok := r.BasicAuth()
	return ok && s.creds.User != "" && user == s.creds.User && password == s.creds.Password
}

func (s *Server) bearerOK(r *http.Request) bool {
	return s.creds.APIKey != "" && r.Header.Get(tcrest.HeaderAuthorization) == "Bearer "+s.creds.APIKey
}

// Realm reports which auth realm the request's path targets.  ok is false
// if the path is not under any REST root.
func Realm(r *http.Request) (realm string, ok bool) {
	p := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case strings.HasPrefix(p, RealmGuest+"/"+restRoot):
		return RealmGuest, true
	case strings.HasPrefix(p, RealmHTTP+"/"+restRoot):
		return RealmHTTP, true
	case strings.HasPrefix(p, restRoot):
		return RealmAPIKey, true
	}
	return "", false
}

// RESTPath returns the request path relative to the REST root, e.g.
// "builds/id:1" for "/httpAuth/app/rest/builds/id:1".
func RESTPath(r *http.Request) string {
	realm, ok := Realm(r)
	if !ok {
		return ""
	}
	p := strings.TrimPrefix(r.URL.Path, "/")
	if realm != RealmAPIKey {
		p = strings.TrimPrefix(p, realm+"/")
	}
	return strings.TrimPrefix(p, restRoot)
}

// Echo is the response body written by EchoHandler.
type Echo struct {
	Method      string              `json:"method"`
	Realm       string              `json:"realm"`
	Path        string              `json:"path"`
	Query       map[string][]string `json:"query,omitempty"`
	Accept      string              `json:"accept,omitempty"`
	ContentType string              `json:"contentType,omitempty"`
	Body        string              `json:"body,omitempty"`
}

// EchoHandler answers with a JSON description of the request it got.
func EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		realm, _ := Realm(r)
		body, _ := io.ReadAll(r.Body)
		e := Echo{
			Method:      r.Method,
			Realm:       realm,
			Path:        RESTPath(r),
			Query:       r.URL.Query(),
			Accept:      r.Header.Get(tcrest.HeaderAccept),
			ContentType: r.Header.Get(tcrest.HeaderContentType),
			Body:        string(body),
		}
		if len(e.Query) == 0 {
			e.Query = nil
		}
		w.Header().Set(tcrest.HeaderContentType, tcrest.ContentTypeJSON)
		_ = json.NewEncoder(w).Encode(e)
	})
}

// StaticHandler answers every request with the same status, Content-Type
// and body.
func StaticHandler(statusCode int, contentType, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			w.Header().Set(tcrest.HeaderContentType, contentType)
		}
		w.WriteHeader(statusCode)
		_, _ = io.WriteString(w, body)
	})
}
