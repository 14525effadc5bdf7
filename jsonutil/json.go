// Package jsonutil parses response bodies as JSON, degrading to a fallback
// value instead of failing when the body is not well-formed JSON.
//
//     v := jsonutil.Parse(`{"count":3}`, nil)      // map[string]interface{}{"count": 3.0}
//     v  = jsonutil.Parse("<html>", "unavailable") // "unavailable"
//     v  = jsonutil.ToJSON("<html>")               // "<html>"
//
package jsonutil

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Parse decodes data as JSON.  data may be a string, a []byte, or a
// json.RawMessage.  Values of any other type are never decoded, and
// are treated like malformed input.
//
// Decoded values follow the encoding/json conventions for interface{}:
// objects become map[string]interface{}, arrays []interface{}, numbers
// float64, and null becomes nil.
//
// If data can't be decoded, Parse returns defaultValue.  If defaultValue
// is nil, data itself is returned unchanged.  Zero values like 0, "" or
// false are valid defaults: only nil means "no default".
func Parse(data interface{}, defaultValue interface{}) interface{} {
	v, ok := decode(data)
	if ok {
		return v
	}
	if defaultValue != nil {
		return defaultValue
	}
	return data
}

// ToJSON parses body with no default, so malformed input is returned as is.
func ToJSON(body interface{}) interface{} {
	return Parse(body, nil)
}

// Valid reports whether data is a string, []byte or json.RawMessage holding
// well-formed JSON.
func Valid(data interface{}) bool {
	s, ok := text(data)
	return ok && gjson.Valid(s)
}

func decode(data interface{}) (interface{}, bool) {
	s, ok := text(data)
	if !ok || !gjson.Valid(s) {
		return nil, false
	}
	return gjson.Parse(s).Value(), true
}

func text(data interface{}) (string, bool) {
	switch t := data.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case json.RawMessage:
		return string(t), true
	}
	return "", false
}
