package probe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// RequestError is a construction-time failure: the payload could not be
// turned into a Request. It is never reported as a walk Result.
type RequestError struct {
	Field string
	Err   error
}

func (e *RequestError) Error() string {
	if e.Field == "" {
		return "invalid walk request: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid walk request %s: %v", e.Field, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// NewRequest validates rawURL and method. A non-positive timeoutMS is kept as
// zero so the walker applies its default.
func NewRequest(rawURL, method string, timeoutMS int64) (Request, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Request{}, &RequestError{Field: "url", Err: err}
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return Request{}, &RequestError{Field: "url", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	if u.Hostname() == "" {
		return Request{}, &RequestError{Field: "url", Err: fmt.Errorf("missing host in %q", rawURL)}
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		return Request{}, &RequestError{Field: "method", Err: fmt.Errorf("method is required")}
	}
	// net/http rejects anything that is not a token.
	if _, err := http.NewRequest(method, u.String(), nil); err != nil {
		return Request{}, &RequestError{Field: "method", Err: err}
	}

	var timeout time.Duration
	if timeoutMS > math.MaxInt64/int64(time.Millisecond) {
		timeoutMS = math.MaxInt64 / int64(time.Millisecond)
	}
	if timeoutMS > 0 {
		timeout = time.Duration(timeoutMS) * time.Millisecond
	}
	return Request{URL: u, Method: method, Timeout: timeout}, nil
}

type payload struct {
	URL     string          `json:"url"`
	Method  string          `json:"method"`
	Timeout json.RawMessage `json:"timeout"`
}

// ParseRequest decodes a {url, method, timeout} JSON payload.
func ParseRequest(raw []byte) (Request, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Request{}, &RequestError{Err: fmt.Errorf("decode payload: %w", err)}
	}
	if p.URL == "" {
		return Request{}, &RequestError{Field: "url", Err: fmt.Errorf("url is required")}
	}
	return NewRequest(p.URL, p.Method, parseTimeout(p.Timeout))
}

// parseTimeout accepts a JSON number or a numeric string. Anything else is 0.
func parseTimeout(raw json.RawMessage) int64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f < math.MaxInt32 {
		return int64(f)
	}
	return 0
}
