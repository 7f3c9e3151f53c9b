// internal/source/source.go
//
// formscribe – Raw input sources.
//
// Context
//   The engine reads raw input through a two-method lookup: Get for one key
//   and Keys for the regex scan.  This package adapts the usual carriers of
//   posted data to that shape: url.Values from an HTML POST, a JSON object
//   body, a YAML document, or a plain Go map in tests.
//
// Notes
//   •  Keys are returned sorted so regex groups come out in a stable order.
//   •  url.Values keep only the first value per key, as browsers send one
//      value for every non-multi control.
//   •  JSON numbers decode as json.Number so large integers stay exact.
//
//------------------------------------------------------------------------------

package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Map is a Source over an in-memory mapping.
type Map map[string]any

// Get implements form.Source.
func (m Map) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys implements form.Source.  The result is sorted.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromValues copies the first value of every key in v.
func FromValues(v url.Values) Map {
	m := make(Map, len(v))
	for k, vals := range v {
		if len(vals) == 0 {
			continue
		}
		m[k] = vals[0]
	}
	return m
}

// FromJSON decodes one JSON object.
func FromJSON(r io.Reader) (Map, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode JSON source: %w", err)
	}
	if m == nil {
		return Map{}, nil
	}
	return Map(m), nil
}

// FromJSONList decodes a JSON array of objects, one Map per element.
func FromJSONList(r io.Reader) ([]Map, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var list []map[string]any
	if err := dec.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode JSON source list: %w", err)
	}
	out := make([]Map, len(list))
	for i, m := range list {
		if m == nil {
			m = map[string]any{}
		}
		out[i] = Map(m)
	}
	return out, nil
}

// FromYAML decodes one YAML mapping.
func FromYAML(raw []byte) (Map, error) {
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode YAML source: %w", err)
	}
	if m == nil {
		return Map{}, nil
	}
	return Map(m), nil
}

// ErrUnsupportedMedia is returned by FromRequest for unknown content types.
var ErrUnsupportedMedia = errors.New("source: unsupported content type")

// FromRequest reads r's body according to its Content-Type.  A missing
// header means urlencoded.  maxBytes caps the body size; zero means 1 MiB.
func FromRequest(r *http.Request, maxBytes int64) (Map, error) {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}

	ct := r.Header.Get("Content-Type")
	media := "application/x-www-form-urlencoded"
	if ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, ct)
		}
		media = mt
	}

	// Oversized bodies surface as *http.MaxBytesError.
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)

	switch media {
	case "application/json":
		return FromJSON(r.Body)

	case "application/yaml", "application/x-yaml", "text/yaml":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		return FromYAML(bytes.TrimSpace(raw))

	case "application/x-www-form-urlencoded":
		// Parsed here rather than by r.ParseForm, which ignores the body
		// when the Content-Type header is missing.
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		vals, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("decode form source: %w", err)
		}
		return FromValues(vals), nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return nil, err
		}
		return FromValues(r.PostForm), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, media)
	}
}
