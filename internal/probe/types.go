package probe

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// Cause is the semantic bucket assigned to a failed walk.
type Cause string

const (
	CauseDNS   Cause = "dns"
	CauseTLS   Cause = "tls"
	CauseAbort Cause = "abort"
	// CauseUnknown is the zero value; it is omitted on the wire.
	CauseUnknown Cause = ""
)

// Request is a validated walk input. Build it with NewRequest or ParseRequest.
type Request struct {
	URL     *url.URL
	Method  string
	Timeout time.Duration // zero means "use the walker default"
}

// TLS reports whether the request goes over https.
func (r Request) TLS() bool { return r.URL.Scheme == "https" }

// Host returns the hostname without brackets or port.
func (r Request) Host() string { return r.URL.Hostname() }

// Port returns the explicit port or the scheme default.
func (r Request) Port() string {
	if p := r.URL.Port(); p != "" {
		return p
	}
	if r.TLS() {
		return "443"
	}
	return "80"
}

// Path returns the path and query sent on the request line.
func (r Request) Path() string { return r.URL.RequestURI() }

// ErrorDetail describes the underlying error of a failed walk.
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Success holds the fields of a walk that got a complete response.
type Success struct {
	Status  int
	Body    []byte
	Latency time.Duration // time to response headers
}

// Failure holds the fields of a walk that ended in an error.
type Failure struct {
	Cause Cause
	Error ErrorDetail
}

// Result is the terminal record of one walk. Exactly one of Success or
// Failure is set; Duration is always set. The zero value is not valid.
type Result struct {
	duration time.Duration
	success  *Success
	failure  *Failure
}

func newSuccess(s Success, d time.Duration) Result {
	return Result{duration: d, success: &s}
}

func newFailure(f Failure, d time.Duration) Result {
	return Result{duration: d, failure: &f}
}

// OK reports whether this is a Success result.
func (r Result) OK() bool { return r.success != nil }

// Duration is the time from the start anchor to connection close.
func (r Result) Duration() time.Duration { return r.duration }

func (r Result) Success() (Success, bool) {
	if r.success == nil {
		return Success{}, false
	}
	s := *r.success
	s.Body = append([]byte(nil), s.Body...)
	return s, true
}

func (r Result) Failure() (Failure, bool) {
	if r.failure == nil {
		return Failure{}, false
	}
	return *r.failure, true
}

// Elapsed is a monotonic delta encoded as [seconds, fractional milliseconds].
type Elapsed time.Duration

func (e Elapsed) MarshalJSON() ([]byte, error) {
	d := time.Duration(e)
	sec := d / time.Second
	rem := d - sec*time.Second
	ms := float64(rem) / float64(time.Millisecond)
	out := make([]byte, 0, 32)
	out = append(out, '[')
	out = strconv.AppendInt(out, int64(sec), 10)
	out = append(out, ',')
	out = strconv.AppendFloat(out, ms, 'f', -1, 64)
	out = append(out, ']')
	return out, nil
}

func (e *Elapsed) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	*e = Elapsed(time.Duration(pair[0])*time.Second + time.Duration(pair[1]*float64(time.Millisecond)))
	return nil
}

type wireResult struct {
	Success  bool         `json:"success"`
	Status   int          `json:"status,omitempty"`
	Latency  *Elapsed     `json:"latency,omitempty"`
	Body     *string      `json:"body,omitempty"`
	Cause    Cause        `json:"cause,omitempty"`
	Error    *ErrorDetail `json:"error,omitempty"`
	Duration Elapsed      `json:"duration"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{Duration: Elapsed(r.duration)}
	switch {
	case r.success != nil:
		lat := Elapsed(r.success.Latency)
		body := string(r.success.Body)
		w.Success = true
		w.Status = r.success.Status
		w.Latency = &lat
		w.Body = &body
	case r.failure != nil:
		detail := r.failure.Error
		w.Cause = r.failure.Cause
		w.Error = &detail
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the wire form, used by clients of the walk API.
func (r *Result) UnmarshalJSON(b []byte) error {
	var w wireResult
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Success {
		s := Success{Status: w.Status}
		if w.Latency != nil {
			s.Latency = time.Duration(*w.Latency)
		}
		if w.Body != nil {
			s.Body = []byte(*w.Body)
		}
		*r = newSuccess(s, time.Duration(w.Duration))
		return nil
	}
	f := Failure{Cause: w.Cause}
	if w.Error != nil {
		f.Error = *w.Error
	}
	*r = newFailure(f, time.Duration(w.Duration))
	return nil
}
