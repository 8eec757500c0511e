// Package http serves the budgeting JSON API.
//
// This file implements reading request bodies. Clients may send JSON or
// form-encoded data; scalar values are always read back as strings so the
// domain parsers decide how lenient to be.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body of r once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errBadRequest, p.err)
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: malformed JSON body", errBadRequest)
		}
		return p.err
	}

	if p.formData, p.err = url.ParseQuery(trimmed); p.err != nil {
		p.err = fmt.Errorf("%w: malformed form body", errBadRequest)
	}
	return p.err
}

// Has reports whether key was sent at all.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	_, ok := p.formData[key]
	return ok
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetFloat returns key as a float, or 0.
func (p *RequestBodyParser) GetFloat(key string) float64 {
	f, err := strconv.ParseFloat(p.Get(key), 64)
	if err != nil {
		return 0
	}
	return f
}

// GetBool returns key as a bool and whether it was a valid boolean.
func (p *RequestBodyParser) GetBool(key string) (bool, bool) {
	b, err := strconv.ParseBool(p.Get(key))
	return b, err == nil
}

// GetList returns a JSON array of strings, or a comma separated form value.
func (p *RequestBodyParser) GetList(key string) []string {
	var raw []string
	if p.jsonData != nil {
		switch v := p.jsonData[key].(type) {
		case []any:
			for _, item := range v {
				raw = append(raw, stringValue(item))
			}
		case string:
			raw = strings.Split(v, ",")
		}
	} else if p.formData != nil {
		for _, v := range p.formData[key] {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = sanitizeInput(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// parseBody reads and parses the body of r.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
