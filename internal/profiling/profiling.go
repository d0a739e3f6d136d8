// Package profiling brackets logical render phases with named samples.
// A sample is recorded on the command buffer and timed on the CPU.
package profiling

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"planar-reflection/internal/gpu"
	"planar-reflection/internal/logging"
)

// Sampler names used by the reflection pass.
const (
	ReflectionSampler = "PlanarReflections"
	BlurSampler       = "ReflectionBlur"
)

// Stats is a snapshot of a sampler.
type Stats struct {
	Name  string
	Count int
	Total time.Duration
	Last  time.Duration
}

// Mean returns the average recorded duration.
func (s Stats) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

// Sampler accumulates durations for one named phase.
type Sampler struct {
	name string

	mu    sync.Mutex
	count int
	total time.Duration
	last  time.Duration
}

// NewSampler returns an empty sampler.
func NewSampler(name string) *Sampler {
	return &Sampler{name: name}
}

// Name returns the sample name.
func (s *Sampler) Name() string { return s.name }

// Begin opens a scope. The caller must End it on every path, typically
// with defer.
func (s *Sampler) Begin(cb *gpu.CommandBuffer) *Scope {
	if cb != nil {
		cb.BeginSample(s.name)
	}
	return &Scope{sampler: s, cb: cb, start: time.Now()}
}

// Stats returns a snapshot.
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Name: s.name, Count: s.count, Total: s.total, Last: s.last}
}

func (s *Sampler) record(d time.Duration) {
	s.mu.Lock()
	s.count++
	s.total += d
	s.last = d
	s.mu.Unlock()
}

// Scope is one open sample.
type Scope struct {
	sampler *Sampler
	cb      *gpu.CommandBuffer
	start   time.Time
	ended   bool
}

// End closes the scope. Further calls do nothing.
func (sc *Scope) End() {
	if sc == nil || sc.ended {
		return
	}
	sc.ended = true
	if sc.cb != nil {
		sc.cb.EndSample(sc.sampler.name)
	}
	d := time.Since(sc.start)
	sc.sampler.record(d)
	logging.L().Named("profiling").Debug("sample",
		zap.String("name", sc.sampler.name),
		zap.Duration("elapsed", d))
}
