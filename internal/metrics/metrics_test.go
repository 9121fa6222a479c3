package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamed0406/uptimewalk/internal/probe"
)

func decode(t *testing.T, raw string) probe.Result {
	t.Helper()
	var res probe.Result
	require.NoError(t, res.UnmarshalJSON([]byte(raw)))
	return res
}

func TestObserve_CountsByOutcomeAndCause(t *testing.T) {
	c := New()

	c.Observe(decode(t, `{"success":true,"status":200,"latency":[0,5],"body":"ok","duration":[0,9]}`))
	c.Observe(decode(t, `{"success":false,"cause":"abort","error":{"type":"x","message":"y"},"duration":[0,3]}`))
	c.Observe(decode(t, `{"success":false,"cause":"abort","error":{"type":"x","message":"y"},"duration":[0,3]}`))
	c.Observe(decode(t, `{"success":false,"error":{"type":"x","message":"z"},"duration":[0,1]}`))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.walksTotal.WithLabelValues("success", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.walksTotal.WithLabelValues("failure", "abort")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.walksTotal.WithLabelValues("failure", "unclassified")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.walkDuration))
}

func TestMiddlewareAndHandler(t *testing.T) {
	c := New()
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/walk", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "418")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "walk_api_requests_total"))
}
