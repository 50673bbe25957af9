// internal/failover/status.go
package failover

import (
	"sort"
	"time"

	"github.com/goccy/go-json"
)

// CurrentDBNone is reported as current_db by an Unusable manager
const CurrentDBNone = "none"

// Overall statuses of a Report
const (
	OverallHealthy  = "healthy"
	OverallDegraded = "degraded"
)

// Status is a point-in-time snapshot of one manager
type Status struct {
	Backend           string     `json:"-"`
	UsingPrimary      bool       `json:"using_primary"`
	PrimaryAvailable  bool       `json:"primary_available"`
	FallbackAvailable bool       `json:"fallback_available"`
	PrimaryHealthy    *bool      `json:"primary_healthy"`
	CurrentDB         string     `json:"current_db"`
	State             State      `json:"state"`
	LastCheck         *time.Time `json:"last_check,omitempty"`
}

// Usable reports whether the manager has a pool to hand out
func (s Status) Usable() bool {
	return s.PrimaryAvailable || s.FallbackAvailable
}

// Serving reports whether the active pool is not known to be failing.
// The fallback pool is never probed and counts as serving.
func (s Status) Serving() bool {
	switch s.State {
	case StateUsingPrimary:
		return s.PrimaryHealthy == nil || *s.PrimaryHealthy
	case StateUsingFallback:
		return true
	default:
		return false
	}
}

// Reporter is anything that can describe its own failover status
type Reporter interface {
	Kind() string
	Status() Status
}

// Report combines the status of several managers
type Report struct {
	Backends      map[string]Status
	OverallStatus string
}

// Aggregate collects the status of every reporter. The report is degraded
// as soon as one backend kind has no configured pool.
func Aggregate(reporters ...Reporter) Report {
	r := Report{
		Backends:      make(map[string]Status, len(reporters)),
		OverallStatus: OverallHealthy,
	}
	for _, rep := range reporters {
		s := rep.Status()
		r.Backends[rep.Kind()] = s
		if !s.Usable() {
			r.OverallStatus = OverallDegraded
		}
	}
	return r
}

// Healthy reports whether every backend kind has a configured pool
func (r Report) Healthy() bool {
	return r.OverallStatus == OverallHealthy
}

// Ready reports whether every backend is serving from a pool not known to
// be failing
func (r Report) Ready() bool {
	for _, s := range r.Backends {
		if !s.Serving() {
			return false
		}
	}
	return r.Healthy()
}

// Kinds returns the backend kinds in the report in sorted order
func (r Report) Kinds() []string {
	kinds := make([]string, 0, len(r.Backends))
	for k := range r.Backends {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// MarshalJSON emits one object per backend kind next to overall_status
func (r Report) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Backends)+1)
	for kind, s := range r.Backends {
		out[kind] = s
	}
	out["overall_status"] = r.OverallStatus
	return json.Marshal(out)
}
