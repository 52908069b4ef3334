package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveQueryAndExport(t *testing.T) {
	m := New()

	m.ObserveQuery("leads", 12, 3*time.Millisecond, nil)
	m.ObserveQuery("leads", 0, 0, errors.New("bad view"))
	m.ObserveExport("leads", "csv", 12, nil)
	m.ObserveExport("leads", "xlsx", 0, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("leads", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueriesTotal.WithLabelValues("leads", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.RecordsFiltered.WithLabelValues("leads")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.ExportedRecords.WithLabelValues("leads", "csv")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("leads", "xlsx", "error")))
}

func TestObserveRefreshKeepsSnapshotGaugesOnError(t *testing.T) {
	m := New()
	at := time.Unix(1710000000, 0)

	m.ObserveRefresh("cases", 40, time.Second, at, nil)
	m.ObserveRefresh("cases", 0, time.Second, at.Add(time.Minute), errors.New("timeout"))

	assert.Equal(t, 40.0, testutil.ToFloat64(m.SnapshotRecords.WithLabelValues("cases")))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.SnapshotUpdated.WithLabelValues("cases")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("cases", "error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveQuery("emails", 3, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `crm_queries_total{entity="emails",status="ok"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
