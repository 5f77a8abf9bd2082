package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSweeper struct {
	calls atomic.Int32
}

func (c *countingSweeper) CleanExpired() int {
	c.calls.Add(1)
	return 1
}

func TestAddCacheSweep_InvalidSpec(t *testing.T) {
	s := New()
	if err := s.AddCacheSweep("every now and then", &countingSweeper{}); err == nil {
		t.Fatal("expected an error for an invalid spec")
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestAddCacheSweep_Runs(t *testing.T) {
	s := New()
	sweeper := &countingSweeper{}
	if err := s.AddCacheSweep("@every 1s", sweeper); err != nil {
		t.Fatalf("AddCacheSweep() error = %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}

	s.Start()
	deadline := time.Now().Add(5 * time.Second)
	for sweeper.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)

	if sweeper.calls.Load() == 0 {
		t.Error("sweep never ran")
	}
}
