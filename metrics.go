package xmlvalidator

import (
	"sync/atomic"
	"time"
)

// Metrics tracks run performance counters using lock-free atomics.
// All methods are safe for concurrent use.
type Metrics struct {
	validationsTotal atomic.Uint64
	validationsValid atomic.Uint64

	validationTimeTotal atomic.Uint64
	validationTimeMin   atomic.Uint64
	validationTimeMax   atomic.Uint64

	parses  atomic.Uint64
	fetches atomic.Uint64

	rawHits      atomic.Uint64
	rawMisses    atomic.Uint64
	parsedHits   atomic.Uint64
	parsedMisses atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so the first sample becomes the minimum.
	m.validationTimeMin.Store(^uint64(0))
	return m
}

// RecordValidation records a completed document validation.
func (m *Metrics) RecordValidation(d time.Duration, valid bool) {
	m.validationsTotal.Add(1)
	if valid {
		m.validationsValid.Add(1)
	}

	ns := uint64(d.Nanoseconds())
	m.validationTimeTotal.Add(ns)

	for {
		old := m.validationTimeMin.Load()
		if ns >= old || m.validationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.validationTimeMax.Load()
		if ns <= old || m.validationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// RecordParse counts one schema compile.
func (m *Metrics) RecordParse() { m.parses.Add(1) }

// RecordFetch counts one remote schema download.
func (m *Metrics) RecordFetch() { m.fetches.Add(1) }

// RecordRawCache counts a raw byte cache lookup.
func (m *Metrics) RecordRawCache(hit bool) {
	if hit {
		m.rawHits.Add(1)
	} else {
		m.rawMisses.Add(1)
	}
}

// RecordParsedCache counts a compiled schema cache lookup.
func (m *Metrics) RecordParsedCache(hit bool) {
	if hit {
		m.parsedHits.Add(1)
	} else {
		m.parsedMisses.Add(1)
	}
}

// MetricsSnapshot is an immutable copy of the counters.
type MetricsSnapshot struct {
	Validations      uint64
	ValidDocuments   uint64
	Parses           uint64
	Fetches          uint64
	RawHits          uint64
	RawMisses        uint64
	ParsedHits       uint64
	ParsedMisses     uint64
	TotalTime        time.Duration
	MinTime          time.Duration
	MaxTime          time.Duration
	ParsedCacheRatio float64
}

// Snapshot returns a consistent-enough copy of the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Validations:    m.validationsTotal.Load(),
		ValidDocuments: m.validationsValid.Load(),
		Parses:         m.parses.Load(),
		Fetches:        m.fetches.Load(),
		RawHits:        m.rawHits.Load(),
		RawMisses:      m.rawMisses.Load(),
		ParsedHits:     m.parsedHits.Load(),
		ParsedMisses:   m.parsedMisses.Load(),
		TotalTime:      time.Duration(m.validationTimeTotal.Load()),
		MaxTime:        time.Duration(m.validationTimeMax.Load()),
	}
	if min := m.validationTimeMin.Load(); min != ^uint64(0) {
		s.MinTime = time.Duration(min)
	}
	if total := s.ParsedHits + s.ParsedMisses; total > 0 {
		s.ParsedCacheRatio = float64(s.ParsedHits) / float64(total)
	}
	return s
}
