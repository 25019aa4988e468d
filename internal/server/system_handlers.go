package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/smartwealth/internal/database"
	"github.com/aristath/smartwealth/internal/modules/cachestore"
	"github.com/aristath/smartwealth/internal/scheduler"
)

// Pinger checks that the warehouse is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// CacheStatusReporter reports the state of every cached dataset
type CacheStatusReporter interface {
	Status() []cachestore.Status
}

// SystemHandlers serves process, database and job status
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	stateDB   *database.DB
	warehouse Pinger
	cache     CacheStatusReporter
	startedAt time.Time

	jobsMu sync.Mutex
	jobs   map[string]scheduler.Job
}

// NewSystemHandlers creates system handlers. warehouse may be nil.
func NewSystemHandlers(log zerolog.Logger, dataDir string, stateDB *database.DB, warehouse Pinger, cache CacheStatusReporter) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		stateDB:   stateDB,
		warehouse: warehouse,
		cache:     cache,
		startedAt: time.Now(),
		jobs:      make(map[string]scheduler.Job),
	}
}

// SetJobs registers job instances for manual triggering via API
func (h *SystemHandlers) SetJobs(jobs ...scheduler.Job) {
	h.jobsMu.Lock()
	defer h.jobsMu.Unlock()
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
}

// SystemStatusResponse is the payload of GET /api/system/status
type SystemStatusResponse struct {
	Status        string              `json:"status"`
	UptimeSeconds float64             `json:"uptime_seconds"`
	Goroutines    int                 `json:"goroutines"`
	CPUPercent    float64             `json:"cpu_percent"`
	MemoryPercent float64             `json:"memory_percent"`
	HeapAlloc     string              `json:"heap_alloc"`
	StateDBSize   string              `json:"state_db_size"`
	Warehouse     WarehouseStatus     `json:"warehouse"`
	Datasets      []cachestore.Status `json:"datasets"`
	StaleDatasets int                 `json:"stale_datasets"`
}

// WarehouseStatus reports warehouse reachability
type WarehouseStatus struct {
	Configured bool   `json:"configured"`
	Reachable  bool   `json:"reachable"`
	Error      string `json:"error,omitempty"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, memPercent := h.getSystemStats()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startedAt).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		HeapAlloc:     humanize.Bytes(ms.HeapAlloc),
		Datasets:      []cachestore.Status{},
	}

	if h.stateDB != nil {
		if stats, err := h.stateDB.GetStats(r.Context()); err == nil {
			response.StateDBSize = humanize.Bytes(uint64(stats.SizeBytes + stats.WALSizeBytes))
		} else {
			h.log.Warn().Err(err).Msg("Failed to get state database stats")
		}
	}

	if h.warehouse != nil {
		response.Warehouse.Configured = true
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := h.warehouse.Ping(ctx)
		cancel()
		if err != nil {
			response.Warehouse.Error = err.Error()
			response.Status = "degraded"
		} else {
			response.Warehouse.Reachable = true
		}
	}

	if h.cache != nil {
		response.Datasets = h.cache.Status()
		for _, st := range response.Datasets {
			if st.Stale {
				response.StaleDatasets++
			}
		}
	}

	h.writeJSON(w, http.StatusOK, response)
}

// getSystemStats calculates CPU and RAM usage percentages over a short window
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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

// HandleJobs handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobs(w http.ResponseWriter, r *http.Request) {
	h.jobsMu.Lock()
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	h.jobsMu.Unlock()
	sort.Strings(names)

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": names})
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	h.jobsMu.Lock()
	job, ok := h.jobs[name]
	h.jobsMu.Unlock()
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job"})
		return
	}

	start := time.Now()
	if err := job.Run(); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	h.log.Info().Str("job", name).Msg("Manually triggered job completed")
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"job":         name,
		"status":      "completed",
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
