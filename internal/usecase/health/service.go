package health

import (
	"context"
	"time"
)

const checkTimeout = 2 * time.Second

// Status represents the aggregated health status.
type Status string

// Healthy is reported while the gateway serves requests. Offline mode is a
// serving mode, so backend and provider failures show up only in Checks.
const Healthy Status = "ok"

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckOnline indicates the backend session is online.
	CheckOnline CheckResult = "online"
	// CheckOffline indicates the backend session serves substitutes.
	CheckOffline CheckResult = "offline"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend   ModeReporter
	embedding EmbeddingChecker
	cache     CachePinger
}

// New creates a Service. embedding and cache can be nil.
func New(backend ModeReporter, embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{backend: backend, embedding: embedding, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.backend.Online() {
		checks["backend"] = CheckOnline
	} else {
		checks["backend"] = CheckOffline
	}

	if s.embedding != nil {
		checks["embedding"] = probe(ctx, s.embedding.HealthCheck)
	}
	if s.cache != nil {
		checks["cache"] = probe(ctx, s.cache.Ping)
	}

	return Report{Status: Healthy, Checks: checks}
}

func probe(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
