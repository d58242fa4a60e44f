// Package normalize reshapes backend JSON into the shapes the frontend reads
// and maps frontend request bodies back to backend field names.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Transform is a named pair of body mappings. Either side may be nil.
type Transform struct {
	// Response maps a decoded 2xx backend body; baseURL absolutizes media paths
	Response func(v any, baseURL string) any
	// Request maps a decoded JSON request body before it is forwarded
	Request func(v any) any
}

var transforms = map[string]Transform{
	"media_urls": {
		Response: AbsolutizeMedia,
	},
	"application_stats": {
		Response: applicationStats,
	},
	"employer_profile": {
		Response: employerProfile.toFrontend,
		Request:  employerProfile.toBackend,
	},
	"employee_profile": {
		Response: employeeProfile.toFrontend,
		Request:  employeeProfile.toBackend,
	},
}

// Known reports whether a transform with this name exists
func Known(name string) bool {
	_, ok := transforms[name]
	return ok
}

// Names lists the registered transforms in sorted order
func Names() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Response applies the named transform to a backend body. An empty name or
// an empty body returns the body unchanged.
func Response(name string, body json.RawMessage, baseURL string) (json.RawMessage, error) {
	if name == "" || len(body) == 0 {
		return body, nil
	}
	t, ok := transforms[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q", name)
	}
	if t.Response == nil {
		return body, nil
	}

	v, err := decode(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t.Response(v, baseURL))
}

// Request applies the named transform to a JSON request body
func Request(name string, body []byte) ([]byte, error) {
	if name == "" || len(bytes.TrimSpace(body)) == 0 {
		return body, nil
	}
	t, ok := transforms[name]
	if !ok {
		return nil, fmt.Errorf("unknown transform %q", name)
	}
	if t.Request == nil {
		return body, nil
	}

	v, err := decode(body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(t.Request(v))
}

// decode keeps numbers as json.Number so ids and amounts survive untouched
func decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	return v, nil
}
