package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const defaultProbeTimeout = 1500 * time.Millisecond

// Probe is a named backend connectivity check used by readiness handlers.
type Probe struct {
	Name    string
	Timeout time.Duration
	Check   func(context.Context) error
}

type probeHealthRepository struct {
	probes         []Probe
	defaultTimeout time.Duration
}

var _ HealthRepository = (*probeHealthRepository)(nil)

// NewProbeHealthRepository builds a HealthRepository that runs every probe
// and fails on the first error.
func NewProbeHealthRepository(probes []Probe) (HealthRepository, error) {
	if len(probes) == 0 {
		return nil, errors.New("health repository: at least one probe is required")
	}
	for _, probe := range probes {
		if strings.TrimSpace(probe.Name) == "" {
			return nil, errors.New("health repository: probe missing name")
		}
		if probe.Check == nil {
			return nil, fmt.Errorf("health repository: probe %s missing check function", probe.Name)
		}
	}
	repo := &probeHealthRepository{
		probes:         make([]Probe, len(probes)),
		defaultTimeout: defaultProbeTimeout,
	}
	copy(repo.probes, probes)
	return repo, nil
}

func (r *probeHealthRepository) Ping(ctx context.Context) error {
	for _, probe := range r.probes {
		timeout := probe.Timeout
		if timeout <= 0 {
			timeout = r.defaultTimeout
		}
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		err := probe.Check(probeCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("health repository: %s: %w", probe.Name, err)
		}
	}
	return nil
}
