package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/vigil/internal/database"
	"github.com/aristath/vigil/internal/scheduler"
)

// SystemHandlers serves health and status endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	databases []*database.DB
	scheduler *scheduler.Scheduler
	startedAt time.Time

	mu   sync.RWMutex
	jobs map[string]scheduler.Job
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, databases []*database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		databases: databases,
		scheduler: sched,
		startedAt: time.Now(),
		jobs:      make(map[string]scheduler.Job),
	}
}

// RegisterJob makes a job triggerable via the API
func (h *SystemHandlers) RegisterJob(job scheduler.Job) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[job.Name()] = job
}

// HandleHealth pings every database. Any failure degrades the status
// and flips the response to 503 so load checks catch it.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	databases := make(map[string]string)

	for _, db := range h.databases {
		if db == nil {
			continue
		}

		if err := db.QuickCheck(ctx); err != nil {
			databases[db.Name()] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			databases[db.Name()] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	h.encode(w, map[string]interface{}{
		"status":    status,
		"databases": databases,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// DatabaseStatus describes one database in the status response
type DatabaseStatus struct {
	SizeBytes    int64 `json:"size_bytes"`
	WALSizeBytes int64 `json:"wal_size_bytes"`
	PageCount    int64 `json:"page_count"`
}

// SchedulerStatus describes the scheduler in the status response
type SchedulerStatus struct {
	Running bool                `json:"running"`
	Jobs    []scheduler.JobInfo `json:"jobs"`
}

// StatusResponse is the system status payload
type StatusResponse struct {
	CPUPercent    float64                   `json:"cpu_percent"`
	MemoryPercent float64                   `json:"memory_percent"`
	Goroutines    int                       `json:"goroutines"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Databases     map[string]DatabaseStatus `json:"databases"`
	Scheduler     *SchedulerStatus          `json:"scheduler,omitempty"`
	Timestamp     string                    `json:"timestamp"`
}

// HandleStatus returns process and database statistics
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemMetrics()

	response := StatusResponse{
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
		Databases:     make(map[string]DatabaseStatus),
		Timestamp:     time.Now().Format(time.RFC3339),
	}

	for _, db := range h.databases {
		if db == nil {
			continue
		}

		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to collect database statistics")
			continue
		}
		response.Databases[db.Name()] = DatabaseStatus{
			SizeBytes:    stats.SizeBytes,
			WALSizeBytes: stats.WALSizeBytes,
			PageCount:    stats.PageCount,
		}
	}

	if h.scheduler != nil {
		response.Scheduler = &SchedulerStatus{
			Running: h.scheduler.Running(),
			Jobs:    h.scheduler.Jobs(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, response)
}

// HandleTriggerJob runs a registered job immediately.
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request, name string) {
	h.mu.RLock()
	job, ok := h.jobs[name]
	h.mu.RUnlock()

	if !ok {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")

	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Triggered job failed")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		h.encode(w, map[string]string{
			"job":    name,
			"status": "failed",
			"error":  err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	h.encode(w, map[string]string{
		"job":    name,
		"status": "completed",
	})
}

// systemMetrics samples CPU and memory usage
func (h *SystemHandlers) systemMetrics() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) encode(w http.ResponseWriter, data interface{}) {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
