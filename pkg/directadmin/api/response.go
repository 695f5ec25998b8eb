package api

import (
	"fmt"
	"net/url"
	"strings"
)

const listKey = "list[]"

// Response is a parsed url-encoded DirectAdmin reply.
type Response struct {
	values url.Values
}

// ParseResponse decodes a url-encoded response body.
func ParseResponse(body []byte) (*Response, error) {
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("decode form body: %w", err)
	}
	return &Response{values: values}, nil
}

// Failed reports whether the server flagged the call with error=1.
func (r *Response) Failed() bool {
	return r.values.Get("error") == "1"
}

// Get returns the first value for key.
func (r *Response) Get(key string) string {
	return r.values.Get(key)
}

// Map flattens the response into key -> first value, skipping list entries.
func (r *Response) Map() map[string]string {
	m := make(map[string]string, len(r.values))
	for k, v := range r.values {
		if k == listKey || len(v) == 0 {
			continue
		}
		m[k] = v[0]
	}
	return m
}

// List returns the values of list[] in the order sent by the server.
func (r *Response) List() []string {
	return append([]string(nil), r.values[listKey]...)
}

// Table decodes responses where every value is itself a url-encoded record,
// e.g. per-domain settings keyed by domain name.
func (r *Response) Table() (map[string]map[string]string, error) {
	out := make(map[string]map[string]string, len(r.values))
	for k, v := range r.values {
		if k == listKey || len(v) == 0 {
			continue
		}
		row, err := url.ParseQuery(v[0])
		if err != nil {
			return nil, fmt.Errorf("decode record %q: %w", k, err)
		}
		record := make(map[string]string, len(row))
		for rk, rv := range row {
			if len(rv) > 0 {
				record[rk] = rv[0]
			}
		}
		out[k] = record
	}
	return out, nil
}
