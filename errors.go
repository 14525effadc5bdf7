package tcrest

import (
	"github.com/ansel1/merry"
)

// Configuration errors are returned by NewClient.  All of them match
// ErrConfiguration:
//
//     _, err := tcrest.NewClient(tcrest.Config{Host: "ci", User: "bob"})
//     merry.Is(err, tcrest.ErrConfiguration)   // true
//     merry.Is(err, tcrest.ErrMissingPassword) // true
//
// nolint:gochecknoglobals
var (
	ErrConfiguration   = merry.New("invalid configuration")
	ErrMissingPassword = ErrConfiguration.WithMessage("incorrect password: user is set without a password")
	ErrMissingUser     = ErrConfiguration.WithMessage("incorrect user: password is set without a user")
	ErrMissingHost     = ErrConfiguration.WithMessage("host is required")
)

// ErrUnexpectedStatus is returned when the server answers with a non-2XX
// status.  The status code is attached to the error, and can be read
// with merry.HTTPCode().  The response body can be read with StatusBody().
// nolint:gochecknoglobals
var ErrUnexpectedStatus = merry.New("server returned an unsuccessful status code")

type errKey int

const errKeyBody errKey = iota

// StatusBody returns the response body attached to an ErrUnexpectedStatus
// error, or nil.
func StatusBody(err error) []byte {
	b, _ := merry.Value(err, errKeyBody).([]byte)
	return b
}
