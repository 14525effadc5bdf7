package tcresttest

import (
	"bytes"
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// Exchange is a snapshot of one request/response exchange with the server.
type Exchange struct {
	Request     *http.Request
	RequestBody *bytes.Buffer

	// Realm is the auth realm targeted by the request path.
	Realm string

	StatusCode   int
	Header       http.Header
	ResponseBody *bytes.Buffer
}

// Inspector is server-side middleware which records exchanges in a
// buffered channel.  Once the buffer is full, further exchanges are
// dropped.
type Inspector struct {
	Exchanges chan Exchange
}

// NewInspector creates an Inspector buffering size exchanges.  If size
// is 0, it buffers 50.
func NewInspector(size int) *Inspector {
	if size == 0 {
		size = 50
	}
	return &Inspector{
		Exchanges: make(chan Exchange, size),
	}
}

// NextExchange returns the oldest recorded exchange, or nil.  It doesn't
// block.
func (b *Inspector) NextExchange() *Exchange {
	select {
	case e := <-b.Exchanges:
		return &e
	default:
		return nil
	}
}

// LastExchange drains the buffer and returns the newest exchange, or nil.
// It doesn't block.
func (b *Inspector) LastExchange() *Exchange {
	var e *Exchange

	for {
		select {
		case ex := <-b.Exchanges:
			e = &ex
		default:
			return e
		}
	}
}

// Clear drops every recorded exchange.
func (b *Inspector) Clear() {
	if b == nil {
		return
	}
	b.LastExchange()
}

// Wrap returns a handler which records exchanges, then delegates to next.
func (b *Inspector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex := Exchange{
			Request:      r,
			RequestBody:  captureRequestBody(r),
			StatusCode:   http.StatusOK,
			ResponseBody: &bytes.Buffer{},
		}
		ex.Realm, _ = Realm(r)

		rec := &responseRecorder{ex: &ex, header: w.Header}
		next.ServeHTTP(httpsnoop.Wrap(w, rec.hooks()), r)
		rec.snapshotHeader()

		select {
		case b.Exchanges <- ex:
		default:
		}
	})
}

// captureRequestBody reads the request body into a buffer, and puts back a
// fresh reader for the handler.  It returns nil for requests without a
// body.
func captureRequestBody(r *http.Request) *bytes.Buffer {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	buf := &bytes.Buffer{}
	if _, err := buf.ReadFrom(r.Body); err != nil {
		panic(err)
	}
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf.Bytes()))
	return buf
}

// responseRecorder fills in the response half of an Exchange.  The
// response headers are frozen the first time the status or body is
// written, since handlers may keep mutating the map afterwards.
type responseRecorder struct {
	ex     *Exchange
	header func() http.Header
}

func (rr *responseRecorder) snapshotHeader() {
	if rr.ex.Header == nil {
		rr.ex.Header = rr.header().Clone()
	}
}

func (rr *responseRecorder) hooks() httpsnoop.Hooks {
	return httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				rr.ex.StatusCode = code
				rr.snapshotHeader()
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(p []byte) (int, error) {
				rr.snapshotHeader()
				rr.ex.ResponseBody.Write(p)
				return next(p)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				rr.snapshotHeader()
				return next(io.TeeReader(src, rr.ex.ResponseBody))
			}
		},
	}
}
