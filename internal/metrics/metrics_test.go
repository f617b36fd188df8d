package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservePersist_CountsFailures(t *testing.T) {
	before := testutil.ToFloat64(PersistFailures.WithLabelValues("metrics_test"))

	ObservePersist("metrics_test", time.Now(), nil)
	ObservePersist("metrics_test", time.Now(), errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(PersistFailures.WithLabelValues("metrics_test")))
}

func TestRecordBackup(t *testing.T) {
	ok := BackupsTotal.WithLabelValues("metrics_test", StatusSuccess)
	failed := BackupsTotal.WithLabelValues("metrics_test", StatusError)
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordBackup("metrics_test", nil)
	RecordBackup("metrics_test", errors.New("disk"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	ObserveHTTP(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
	assert.Contains(t, rec.Body.String(), "ledger_entries")
}
