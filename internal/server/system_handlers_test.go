package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/vigil/internal/database"
	"github.com/aristath/vigil/internal/modules/marketdata"
	"github.com/aristath/vigil/internal/scheduler"
	testingpkg "github.com/aristath/vigil/internal/testing"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Run() error   { j.runs++; return j.err }
func (j *stubJob) Name() string { return j.name }

func TestHandleHealthAllDatabasesUp(t *testing.T) {
	marketDB, cleanupMarket := testingpkg.NewTestDB(t, "market", nil)
	defer cleanupMarket()
	ledgerDB, cleanupLedger := testingpkg.NewTestDB(t, "ledger", nil)
	defer cleanupLedger()

	h := NewSystemHandlers(zerolog.Nop(), []*database.DB{marketDB, ledgerDB}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ok", response["status"])

	databases := response["databases"].(map[string]interface{})
	assert.Equal(t, "ok", databases["market"])
	assert.Equal(t, "ok", databases["ledger"])
}

func TestHandleHealthDegradedOnClosedDatabase(t *testing.T) {
	marketDB, cleanupMarket := testingpkg.NewTestDB(t, "market", nil)
	defer cleanupMarket()
	ledgerDB, cleanupLedger := testingpkg.NewTestDB(t, "ledger", nil)

	// Close one database so its ping fails
	cleanupLedger()

	h := NewSystemHandlers(zerolog.Nop(), []*database.DB{marketDB, ledgerDB}, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "degraded", response["status"])

	databases := response["databases"].(map[string]interface{})
	assert.Equal(t, "ok", databases["market"])
	assert.NotEqual(t, "ok", databases["ledger"])
}

func TestHandleStatus(t *testing.T) {
	marketDB, cleanup := testingpkg.NewTestDB(t, "market", func(db *database.DB) error {
		return marketdata.InitSchema(db.Conn())
	})
	defer cleanup()

	sched := scheduler.New(zerolog.Nop())
	require.NoError(t, sched.AddJob("0 5 0 * * *", &stubJob{name: "snapshot"}))

	h := NewSystemHandlers(zerolog.Nop(), []*database.DB{marketDB}, sched)

	req := httptest.NewRequest("GET", "/api/system/status", nil)
	w := httptest.NewRecorder()
	h.HandleStatus(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response StatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	assert.Greater(t, response.Goroutines, 0)
	assert.Contains(t, response.Databases, "market")
	assert.Greater(t, response.Databases["market"].SizeBytes, int64(0))

	require.NotNil(t, response.Scheduler)
	assert.False(t, response.Scheduler.Running)
	require.Len(t, response.Scheduler.Jobs, 1)
	assert.Equal(t, "snapshot", response.Scheduler.Jobs[0].Name)
}

func TestHandleTriggerJob(t *testing.T) {
	h := NewSystemHandlers(zerolog.Nop(), nil, nil)

	job := &stubJob{name: "backup"}
	h.RegisterJob(job)

	tests := []struct {
		name           string
		job            string
		expectedStatus int
	}{
		{name: "registered job runs", job: "backup", expectedStatus: http.StatusOK},
		{name: "unknown job", job: "nope", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/system/jobs/"+tt.job, nil)
			w := httptest.NewRecorder()
			h.HandleTriggerJob(w, req, tt.job)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}

	assert.Equal(t, 1, job.runs)
}

func TestHandleTriggerJobFailure(t *testing.T) {
	h := NewSystemHandlers(zerolog.Nop(), nil, nil)
	h.RegisterJob(&stubJob{name: "backup", err: errors.New("bucket gone")})

	req := httptest.NewRequest("POST", "/api/system/jobs/backup", nil)
	w := httptest.NewRecorder()
	h.HandleTriggerJob(w, req, "backup")

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "failed", response["status"])
	assert.Contains(t, response["error"], "bucket gone")
}
