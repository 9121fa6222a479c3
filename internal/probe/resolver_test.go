package probe

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedResolver_IPLiteralSkipsLookup(t *testing.T) {
	var calls int32
	r := &BoundedResolver{
		Timeout: time.Second,
		Lookuper: lookupFunc(func(ctx context.Context, host string) ([]net.IPAddr, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("should not be called")
		}),
	}

	addrs, err := r.Resolve(context.Background(), "::1")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.True(t, addrs[0].IP.Equal(net.IPv6loopback))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestBoundedResolver_ReturnsLookupResult(t *testing.T) {
	r := &BoundedResolver{
		Timeout: time.Second,
		Lookuper: lookupFunc(func(ctx context.Context, host string) ([]net.IPAddr, error) {
			return []net.IPAddr{{IP: net.IPv4(10, 0, 0, 7)}}, nil
		}),
	}

	addrs, err := r.Resolve(context.Background(), "svc.internal")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "10.0.0.7", addrs[0].String())
}

func TestBoundedResolver_EmptyAnswerIsNotFound(t *testing.T) {
	r := &BoundedResolver{
		Timeout: time.Second,
		Lookuper: lookupFunc(func(ctx context.Context, host string) ([]net.IPAddr, error) {
			return nil, nil
		}),
	}

	_, err := r.Resolve(context.Background(), "empty.example")
	var de *net.DNSError
	require.ErrorAs(t, err, &de)
	assert.True(t, de.IsNotFound)
}

func TestBoundedResolver_TimerWinsOverHungLookup(t *testing.T) {
	release := make(chan struct{})
	r := &BoundedResolver{
		Timeout: 30 * time.Millisecond,
		Lookuper: lookupFunc(func(ctx context.Context, host string) ([]net.IPAddr, error) {
			<-release
			return []net.IPAddr{{IP: net.IPv4(127, 0, 0, 1)}}, nil
		}),
	}

	start := time.Now()
	addrs, err := r.Resolve(context.Background(), "slow.example")
	assert.ErrorIs(t, err, ErrDNSLookupTimeout)
	assert.Nil(t, addrs)
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// The late answer must not block or surface anywhere.
	close(release)
	time.Sleep(10 * time.Millisecond)
}

func TestBoundedResolver_ParentCancelReturnsCause(t *testing.T) {
	r := &BoundedResolver{
		Timeout: time.Second,
		Lookuper: lookupFunc(func(ctx context.Context, host string) ([]net.IPAddr, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}),
	}

	ctx, cancel := context.WithTimeoutCause(context.Background(), 20*time.Millisecond, ErrSocketTimeout)
	defer cancel()

	_, err := r.Resolve(ctx, "slow.example")
	assert.ErrorIs(t, err, ErrSocketTimeout)
}

func TestNewBoundedResolver_DefaultsCeiling(t *testing.T) {
	r := NewBoundedResolver(0)
	assert.Equal(t, DefaultDNSTimeout, r.Timeout)
	assert.NotNil(t, r.Lookuper)
}
