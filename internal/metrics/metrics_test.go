package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/core"
)

func TestRecorder(t *testing.T) {
	r := New(func() int { return 3 })

	r.IngestionFinished(core.OutcomeSuccess, 10, 512, 40*time.Millisecond)
	r.IngestionFinished(core.OutcomeSuccess, 5, 256, 20*time.Millisecond)
	r.IngestionFinished(core.OutcomeRejected, 0, 0, time.Millisecond)
	r.BatchesEvicted(2)
	r.OrphansSwept(1)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.ingestions.WithLabelValues(core.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ingestions.WithLabelValues(core.OutcomeRejected)))
	assert.Equal(t, 15.0, testutil.ToFloat64(r.rowsIngested))
	assert.Equal(t, 768.0, testutil.ToFloat64(r.bytesIngested))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.evicted))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.orphansSwept))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.uploadsActive))
}

func TestHandler(t *testing.T) {
	r := New(nil)
	r.BatchesEvicted(4)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "equipment_batches_evicted_total 4"))
	assert.Contains(t, string(body), "go_goroutines")
}
