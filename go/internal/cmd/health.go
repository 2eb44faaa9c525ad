package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const readinessTimeout = 2 * time.Second

type readinessCheck struct {
	name  string
	check func(ctx context.Context) error
}

type ReadinessStatus struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
}

// Readiness aggregates dependency checks registered by the providers.
type Readiness struct {
	mu     sync.Mutex
	checks []readinessCheck
}

func newReadiness() *Readiness {
	return &Readiness{}
}

func (r *Readiness) Add(name string, check func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, readinessCheck{name: name, check: check})
}

func (r *Readiness) Check(ctx context.Context) ReadinessStatus {
	r.mu.Lock()
	checks := append([]readinessCheck(nil), r.checks...)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	status := ReadinessStatus{Healthy: true, Checks: make(map[string]string, len(checks))}
	for _, c := range checks {
		if err := c.check(ctx); err != nil {
			status.Healthy = false
			status.Checks[c.name] = err.Error()
			continue
		}
		status.Checks[c.name] = "ok"
	}
	return status
}

func (r *Readiness) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	status := r.Check(req.Context())

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write readiness response")
	}
}
