package probe

import (
	"context"
	"net"
	"time"
)

// DefaultDNSTimeout is the resolver ceiling used when none is configured.
const DefaultDNSTimeout = 1 * time.Second

// HostLookuper is the subset of *net.Resolver the walker needs.
type HostLookuper interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// BoundedResolver resolves a hostname but gives up after Timeout, regardless
// of the request-level deadline of the walk that uses it.
type BoundedResolver struct {
	Lookuper HostLookuper
	Timeout  time.Duration
}

func NewBoundedResolver(timeout time.Duration) *BoundedResolver {
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	return &BoundedResolver{Lookuper: &net.Resolver{}, Timeout: timeout}
}

type lookupResult struct {
	addrs []net.IPAddr
	err   error
}

// Resolve returns the addresses of host. IP literals are returned as-is.
//
// The lookup and the ceiling timer race; the first to complete decides the
// outcome. A lookup that finishes after the timer lands in a buffered channel
// nobody reads and is dropped.
func (r *BoundedResolver) Resolve(ctx context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}
	lookuper := r.Lookuper
	if lookuper == nil {
		lookuper = &net.Resolver{}
	}

	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	done := make(chan lookupResult, 1)
	go func() {
		addrs, err := lookuper.LookupIPAddr(lctx, host)
		done <- lookupResult{addrs: addrs, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		if res.err == nil && len(res.addrs) == 0 {
			return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
		}
		return res.addrs, res.err
	case <-timer.C:
		return nil, ErrDNSLookupTimeout
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}
