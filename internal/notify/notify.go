// Package notify pushes failed walks to an external channel.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hamed0406/uptimewalk/internal/probe"
)

// Alert describes one failed walk.
type Alert struct {
	URL      string
	Method   string
	Cause    probe.Cause
	Error    probe.ErrorDetail
	Duration time.Duration
}

// FromResult builds an Alert for res. It reports false for a successful walk.
func FromResult(req probe.Request, res probe.Result) (Alert, bool) {
	f, ok := res.Failure()
	if !ok {
		return Alert{}, false
	}
	a := Alert{Method: req.Method, Cause: f.Cause, Error: f.Error, Duration: res.Duration()}
	if req.URL != nil {
		a.URL = req.URL.String()
	}
	return a, true
}

func (a Alert) Title() string {
	cause := string(a.Cause)
	if cause == "" {
		cause = "unclassified"
	}
	return fmt.Sprintf("walk failed (%s): %s %s", cause, a.Method, a.URL)
}

func (a Alert) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error: %s", a.Error.Message)
	if a.Error.Code != "" {
		fmt.Fprintf(&b, " [%s]", a.Error.Code)
	}
	fmt.Fprintf(&b, "\ntype: %s\nduration: %s", a.Error.Type, a.Duration.Round(time.Microsecond))
	return b.String()
}

type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// Multi fans an alert out to every notifier and returns the first error.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, a Alert) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, a); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
