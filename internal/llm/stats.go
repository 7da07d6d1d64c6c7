package llm

import (
	"sort"
	"sync"
	"time"
)

type callSample struct {
	at        time.Time
	latencyMs int64
	tokens    int
	costUSD   float64
}

// StatsSnapshot is a point-in-time aggregate of generation calls.
type StatsSnapshot struct {
	Count       int     `json:"count"`
	MinMs       int64   `json:"min_ms"`
	MaxMs       int64   `json:"max_ms"`
	AvgMs       float64 `json:"avg_ms"`
	P50Ms       float64 `json:"p50_ms"`
	P95Ms       float64 `json:"p95_ms"`
	P99Ms       float64 `json:"p99_ms"`
	TotalTokens int     `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost_usd"`
}

// Stats tracks recent generation calls within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples []callSample
	maxAge  time.Duration
}

// NewStats builds a tracker. maxAge <= 0 defaults to one hour.
func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make([]callSample, 0, 256),
		maxAge:  maxAge,
	}
}

// Record adds one finished call.
func (s *Stats) Record(resp *Response) {
	latencyMs := resp.Latency.Milliseconds()
	if latencyMs < 0 {
		latencyMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, callSample{
		at:        now,
		latencyMs: latencyMs,
		tokens:    resp.TotalTokens(),
		costUSD:   resp.CostUSD,
	})
}

// Snapshot aggregates the calls still inside the window.
func (s *Stats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if len(s.samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	snap := StatsSnapshot{Count: len(s.samples)}
	for _, sm := range s.samples {
		values = append(values, sm.latencyMs)
		sum += sm.latencyMs
		snap.TotalTokens += sm.tokens
		snap.TotalCost += sm.costUSD
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.MinMs = values[0]
	snap.MaxMs = values[len(values)-1]
	snap.AvgMs = float64(sum) / float64(len(values))
	snap.P50Ms = percentile(values, 50)
	snap.P95Ms = percentile(values, 95)
	snap.P99Ms = percentile(values, 99)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.at.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
