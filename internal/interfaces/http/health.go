package http

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"
)

// HealthHandler provides system health status endpoint
type HealthHandler struct {
	pinger    Pinger
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(pinger Pinger, version string) *HealthHandler {
	return &HealthHandler{
		pinger:    pinger,
		startTime: time.Now(),
		version:   version,
		timeout:   2 * time.Second,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string      `json:"status"` // "healthy", "unhealthy"
	Timestamp time.Time   `json:"timestamp"`
	Uptime    string      `json:"uptime"`
	Version   string      `json:"version"`
	Store     CheckResult `json:"store"`
	System    SystemInfo  `json:"system"`
}

// SystemInfo provides system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAlloc      uint64 `json:"mem_alloc_bytes"`
	NumGC         uint32 `json:"num_gc"`
}

// CheckResult represents individual health check results
type CheckResult struct {
	Status   string `json:"status"` // "pass", "fail"
	Message  string `json:"message"`
	Duration string `json:"duration"`
}

// ServeHTTP implements the health check endpoint
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Version:   h.version,
		Store:     h.checkStore(ctx),
		System:    systemInfo(),
	}

	status := http.StatusOK
	if response.Store.Status != "pass" {
		response.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *HealthHandler) checkStore(ctx context.Context) CheckResult {
	if h.pinger == nil {
		return CheckResult{Status: "fail", Message: "no store configured"}
	}

	start := time.Now()
	if err := h.pinger.Ping(ctx); err != nil {
		return CheckResult{Status: "fail", Message: err.Error(), Duration: time.Since(start).String()}
	}
	return CheckResult{Status: "pass", Message: "store reachable", Duration: time.Since(start).String()}
}

func systemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemAlloc:      memStats.Alloc,
		NumGC:         memStats.NumGC,
	}
}
