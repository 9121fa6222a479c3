package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultRequestTimeout applies when neither the request nor the walker
// carries a positive timeout.
const DefaultRequestTimeout = 10 * time.Millisecond

// Walker performs single-shot HTTP(S) walks. It holds no per-walk state and is
// safe for concurrent use.
type Walker struct {
	Logger         *zap.Logger
	Resolver       *BoundedResolver
	DefaultTimeout time.Duration
	// TLSConfig is cloned for every walk; nil verifies against system roots.
	TLSConfig *tls.Config
}

func NewWalker(logger *zap.Logger, resolver *BoundedResolver, defaultTimeout time.Duration) *Walker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if resolver == nil {
		resolver = NewBoundedResolver(DefaultDNSTimeout)
	}
	return &Walker{Logger: logger, Resolver: resolver, DefaultTimeout: defaultTimeout}
}

type phase int

const (
	phasePending phase = iota
	phaseHeaders
	phaseBodyComplete
	phaseFailed
	phaseFinal
)

// walk is the private state of one invocation. Only finalize produces a Result.
type walk struct {
	start   time.Time
	phase   phase
	status  int
	latency time.Duration
	body    []byte
	err     error
}

func (s *walk) headers(status int) {
	if s.phase != phasePending {
		return
	}
	s.status = status
	s.latency = time.Since(s.start)
	s.phase = phaseHeaders
}

func (s *walk) bodyComplete(b []byte) {
	if s.phase != phaseHeaders {
		return
	}
	s.body = b
	s.phase = phaseBodyComplete
}

func (s *walk) fail(err error) {
	if s.phase == phaseFailed || s.phase == phaseFinal {
		return
	}
	s.err = err
	s.body = nil
	s.phase = phaseFailed
}

func (s *walk) finalize() Result {
	d := time.Since(s.start)
	if s.phase != phaseBodyComplete && s.phase != phaseFailed {
		s.fail(errors.New("walk ended before a response was complete"))
	}
	s.phase = phaseFinal
	if s.err != nil {
		return newFailure(Failure{Cause: Classify(s.err), Error: Describe(s.err)}, d)
	}
	return newSuccess(Success{Status: s.status, Body: s.body, Latency: s.latency}, d)
}

// Walk runs req and always returns exactly one Result. Network, TLS,
// resolution and timeout errors are reported as a Failure, never returned.
func (w *Walker) Walk(ctx context.Context, req Request) Result {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = w.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	log := w.logger().With(zap.String("walk_id", uuid.NewString()))
	log.Info("walk_start",
		zap.String("hostname", req.Host()),
		zap.Bool("tls", req.TLS()),
		zap.String("port", req.Port()),
		zap.String("path", req.Path()),
		zap.String("method", req.Method),
		zap.Duration("timeout", timeout),
	)

	tr := w.transport()
	defer tr.CloseIdleConnections()

	ctx, cancel := context.WithTimeoutCause(ctx, timeout, ErrSocketTimeout)
	defer cancel()

	st := &walk{}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), nil)
	st.start = time.Now()
	if err != nil {
		st.fail(err)
	} else {
		w.exchange(ctx, tr, hreq, st)
	}

	res := st.finalize()
	if f, ok := res.Failure(); ok {
		log.Info("walk_failure",
			zap.String("cause", string(f.Cause)),
			zap.String("error_type", f.Error.Type),
			zap.String("error_code", f.Error.Code),
			zap.String("error_message", f.Error.Message),
		)
	} else if s, ok := res.Success(); ok {
		log.Info("walk_success", zap.Int("status", s.Status), zap.Duration("latency", s.Latency))
	}
	log.Info("walk_done", zap.Duration("duration", res.Duration()))
	return res
}

func (w *Walker) exchange(ctx context.Context, tr *http.Transport, hreq *http.Request, st *walk) {
	resp, err := tr.RoundTrip(hreq)
	if err != nil {
		st.fail(timeoutCause(ctx, err))
		return
	}
	st.headers(resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		st.fail(timeoutCause(ctx, err))
		return
	}
	st.bodyComplete(body)
}

// timeoutCause swaps whatever the transport reported for ErrSocketTimeout
// once the request-level timer has fired.
func timeoutCause(ctx context.Context, err error) error {
	if errors.Is(err, ErrDNSLookupTimeout) {
		return err
	}
	if ctx.Err() != nil && errors.Is(context.Cause(ctx), ErrSocketTimeout) {
		return ErrSocketTimeout
	}
	return err
}

func (w *Walker) transport() *http.Transport {
	var cfg *tls.Config
	if w.TLSConfig != nil {
		cfg = w.TLSConfig.Clone()
	}
	return &http.Transport{
		DialContext:        w.dial,
		TLSClientConfig:    cfg,
		DisableKeepAlives:  true,
		DisableCompression: true,
	}
}

// dial resolves through the bounded resolver, then tries each address in turn.
func (w *Walker) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	resolver := w.Resolver
	if resolver == nil {
		resolver = NewBoundedResolver(DefaultDNSTimeout)
	}
	addrs, err := resolver.Resolve(ctx, host)
	if err != nil {
		return nil, err
	}

	var d net.Dialer
	var firstErr error
	for _, a := range addrs {
		conn, err := d.DialContext(ctx, network, net.JoinHostPort(a.String(), port))
		if err == nil {
			return conn, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, firstErr
}

func (w *Walker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
