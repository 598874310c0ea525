// Package stats summarizes per-call latencies of a session.
package stats

import (
	"math"
	"slices"
	"time"
)

// Summary describes the latency of every successful call in a session.
type Summary struct {
	Count int           // Number of calls measured
	Total time.Duration // Sum of all call latencies
	P50   time.Duration // Median latency
	P95   time.Duration // 95th percentile latency
	Max   time.Duration // Slowest call
}

// Summarize computes count, total, P50, P95 and max over the latencies of
// one session.
//
// Parameters:
//   - latencies: Per-call round trip times, in any order
//
// Returns:
//   - Summary: Aggregated statistics; the zero Summary for an empty input
//
// Behavior:
//   - The input slice is not modified; a sorted copy is used
//   - Percentiles use the nearest-rank method, so with few samples P95
//     equals Max
func Summarize(latencies []time.Duration) Summary {
	if len(latencies) == 0 {
		return Summary{}
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var total time.Duration
	for _, d := range sorted {
		total += d
	}

	return Summary{
		Count: len(sorted),
		Total: total,
		P50:   Percentile(sorted, 0.50),
		P95:   Percentile(sorted, 0.95),
		Max:   sorted[len(sorted)-1],
	}
}

// Percentile returns the nearest-rank percentile of an ascending slice.
//
// Parameters:
//   - sorted: Latencies sorted in ascending order
//   - p: Percentile as a fraction between 0 and 1 (0.95 for P95)
//
// Returns:
//   - time.Duration: Element at index ceil(n*p)-1, clamped to [0, n-1];
//     zero for an empty slice
//
// Examples:
//   - 20 samples, p=0.50 -> 10th smallest
//   - 20 samples, p=0.95 -> 19th smallest
//   - 4 samples, p=0.95 -> largest
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}

	index := int(math.Ceil(float64(n)*p)) - 1
	if index >= n {
		index = n - 1
	}
	if index < 0 {
		index = 0
	}
	return sorted[index]
}
