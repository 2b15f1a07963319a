package repositories

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestProbeHealthRepositoryAllHealthy(t *testing.T) {
	repo, err := NewProbeHealthRepository([]Probe{
		{Name: "firestore", Check: func(context.Context) error { return nil }},
		{Name: "pubsub", Check: func(context.Context) error { return nil }},
	})
	if err != nil {
		t.Fatalf("NewProbeHealthRepository: %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestProbeHealthRepositoryFailsOnProbeError(t *testing.T) {
	boom := errors.New("backend down")
	repo, err := NewProbeHealthRepository([]Probe{
		{Name: "firestore", Check: func(context.Context) error { return boom }},
	})
	if err != nil {
		t.Fatalf("NewProbeHealthRepository: %v", err)
	}
	if err := repo.Ping(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Ping = %v, want wrapped probe error", err)
	}
}

func TestProbeHealthRepositoryAppliesTimeout(t *testing.T) {
	repo, err := NewProbeHealthRepository([]Probe{
		{
			Name:    "slow",
			Timeout: 10 * time.Millisecond,
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	})
	if err != nil {
		t.Fatalf("NewProbeHealthRepository: %v", err)
	}
	if err := repo.Ping(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Ping = %v, want deadline exceeded", err)
	}
}

func TestProbeHealthRepositoryValidation(t *testing.T) {
	if _, err := NewProbeHealthRepository(nil); err == nil {
		t.Fatalf("expected error for empty probe set")
	}
	if _, err := NewProbeHealthRepository([]Probe{{Name: ""}}); err == nil {
		t.Fatalf("expected error for unnamed probe")
	}
	if _, err := NewProbeHealthRepository([]Probe{{Name: "x"}}); err == nil {
		t.Fatalf("expected error for probe without check")
	}
}
