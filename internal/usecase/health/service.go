package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the search API is unreachable; translation still works.
	Degraded Status = "degraded"
	// Unhealthy indicates a storage failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	kv       Pinger
	sql      Pinger
	upstream Pinger
	timeout  time.Duration
}

// New creates a Service. upstream can be nil.
func New(kv, sql, upstream Pinger) *Service {
	return &Service{kv: kv, sql: sql, upstream: upstream, timeout: 2 * time.Second}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if s.ping(ctx, s.kv) != nil {
		checks["kv"] = CheckError
		status = Unhealthy
	} else {
		checks["kv"] = CheckOK
	}

	if s.ping(ctx, s.sql) != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.upstream != nil {
		if s.ping(ctx, s.upstream) != nil {
			checks["search_api"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["search_api"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) ping(ctx context.Context, p Pinger) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return p.Ping(ctx)
}
