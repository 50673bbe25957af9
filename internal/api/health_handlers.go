// internal/api/health_handlers.go
package api

import (
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/InstaIntelli/insta/internal/failover"
	"github.com/InstaIntelli/insta/internal/logging"
)

func (s *Server) report() failover.Report {
	if s.health == nil {
		return failover.Aggregate()
	}
	return failover.Aggregate(s.health.Reporters()...)
}

// handleHealth is the process-level health check. It does not touch the
// backends.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": ServiceName,
		"version": s.config.Version,
		"uptime":  time.Since(s.startTime).Seconds(),
	})
}

// handleDatabaseHealth serves the aggregated failover report. A degraded
// report is served with 503 so load balancers can act on it.
func (s *Server) handleDatabaseHealth(w http.ResponseWriter, r *http.Request) {
	report := s.report()

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
		var unusable []string
		for _, kind := range report.Kinds() {
			if !report.Backends[kind].Usable() {
				unusable = append(unusable, kind)
			}
		}
		logging.FromContext(r.Context(), s.logger).Warn("database health degraded",
			zap.Strings("unusable", unusable))
	}
	writeJSON(w, status, report)
}

// handleLiveness reports that the process is up
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// handleReadiness reports whether every backend is serving traffic
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	report := s.report()
	ready := report.Ready()

	backends := make(map[string]string, len(report.Backends))
	for kind, st := range report.Backends {
		backends[kind] = st.CurrentDB
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"ready":     ready,
		"backends":  backends,
		"timestamp": time.Now().UTC(),
		"memory_mb": getMemoryUsageMB(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": ServiceName,
		"version": s.config.Version,
		"go":      runtime.Version(),
	})
}

func getMemoryUsageMB() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc / 1024 / 1024
}
