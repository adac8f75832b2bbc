package extract

import (
	"slices"
	"sync"
	"time"
)

// Call describes one finished model call.
type Call struct {
	Duration      time.Duration
	PromptChars   int
	ResponseChars int
	Err           error
}

type sample struct {
	at        time.Time
	latencyMs int64
	respChars int
	failed    bool
	throttled bool
}

// StatsSnapshot aggregates the model calls still inside the window.
// Latency percentiles cover successful and failed calls alike.
type StatsSnapshot struct {
	Calls     int `json:"calls"`
	Failed    int `json:"failed"`
	Throttled int `json:"throttled"`

	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`

	AvgResponseChars float64 `json:"avg_response_chars"`
}

// LLMStats keeps a rolling window of model call samples.
type LLMStats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
}

func NewLLMStats(window time.Duration) *LLMStats {
	if window <= 0 {
		window = time.Hour
	}
	return &LLMStats{window: window}
}

// Record adds a call. Retryable errors count as throttled as well as failed.
func (s *LLMStats) Record(c Call) {
	now := time.Now()
	sm := sample{
		at:        now,
		latencyMs: max(c.Duration.Milliseconds(), 0),
		respChars: c.ResponseChars,
		failed:    c.Err != nil,
		throttled: IsRetryable(c.Err),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(now)
	s.samples = append(s.samples, sm)
}

func (s *LLMStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	s.prune(time.Now())
	samples := slices.Clone(s.samples)
	s.mu.Unlock()

	var snap StatsSnapshot
	if len(samples) == 0 {
		return snap
	}

	latencies := make([]int64, len(samples))
	var total int64
	var chars, succeeded int
	for i, sm := range samples {
		latencies[i] = sm.latencyMs
		total += sm.latencyMs
		switch {
		case sm.throttled:
			snap.Throttled++
			snap.Failed++
		case sm.failed:
			snap.Failed++
		default:
			chars += sm.respChars
			succeeded++
		}
	}
	slices.Sort(latencies)

	snap.Calls = len(samples)
	snap.MinMs = latencies[0]
	snap.MaxMs = latencies[len(latencies)-1]
	snap.AvgMs = float64(total) / float64(len(latencies))
	snap.P50Ms = percentile(latencies, 50)
	snap.P95Ms = percentile(latencies, 95)
	if succeeded > 0 {
		snap.AvgResponseChars = float64(chars) / float64(succeeded)
	}
	return snap
}

// prune drops samples older than the window. Samples are in time order.
func (s *LLMStats) prune(now time.Time) {
	cutoff := now.Add(-s.window)
	i, _ := slices.BinarySearchFunc(s.samples, cutoff, func(sm sample, t time.Time) int {
		return sm.at.Compare(t)
	})
	s.samples = slices.Delete(s.samples, 0, i)
}

// percentile interpolates linearly between the closest ranks.
func percentile(sorted []int64, pct float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[n-1])
	}
	rank := float64(n-1) * pct / 100
	lo := int(rank)
	if lo+1 >= n {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
