package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveIssue(IssueOK)
	m.ObserveIssue(IssueOK)
	m.ObserveIssue(IssueDuplicate)
	m.ObserveVerification("key", "invalid_signature", 5*time.Millisecond)
	m.ObservePruned(3)
	m.ObservePruned(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.issued.WithLabelValues(IssueOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.issued.WithLabelValues(IssueDuplicate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.verifications.WithLabelValues("key", "invalid_signature")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.logsPruned))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveIssue(IssueOK)
		m.ObserveVerification("qr", "valid", time.Millisecond)
		m.ObservePruned(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveVerification("search", "valid", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `certsrv_verifications_total{mode="search",outcome="valid"} 1`)
}
