package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/VishwasN1706/airis/internal/adapter/external/intel"
	"github.com/VishwasN1706/airis/internal/config"
)

var startTime = time.Now()

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string           `json:"status"`
	Version     string           `json:"version"`
	Uptime      string           `json:"uptime"`
	Environment string           `json:"environment"`
	Timestamp   time.Time        `json:"timestamp"`
	Cache       intel.CacheStats `json:"cache"`
	System      SystemInfo       `json:"system"`
}

// SystemInfo represents system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAllocMB   uint64 `json:"mem_alloc_mb"`
}

// HealthCheck returns a handler for the health check endpoint
func HealthCheck(cfg *config.Config, cache *intel.CachedClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		response := HealthResponse{
			Status:      "healthy",
			Version:     "1.0.0",
			Uptime:      time.Since(startTime).Round(time.Second).String(),
			Environment: cfg.App.Env,
			Timestamp:   time.Now().UTC(),
			Cache:       cache.CacheStats(),
			System: SystemInfo{
				GoVersion:    runtime.Version(),
				NumCPU:       runtime.NumCPU(),
				NumGoroutine: runtime.NumGoroutine(),
				MemAllocMB:   m.Alloc / 1024 / 1024,
			},
		}

		JSONResponse(w, http.StatusOK, response)
	}
}
