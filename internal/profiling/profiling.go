package profiling

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Lightweight stage profiler shared by generator workers and the owning loop.

// Stage aggregates the samples recorded under one name.
type Stage struct {
	Total time.Duration
	Count int
}

// Mean returns the average sample duration.
func (s Stage) Mean() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Count)
}

var (
	mu     sync.Mutex
	stages = make(map[string]Stage)
)

// Track returns a stop function that records the elapsed time under the given name.
// Usage: defer profiling.Track("noise.Generate")()
func Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		mu.Lock()
		s := stages[name]
		s.Total += d
		s.Count++
		stages[name] = s
		mu.Unlock()
	}
}

// Reset clears every recorded stage.
func Reset() {
	mu.Lock()
	clear(stages)
	mu.Unlock()
}

// Snapshot returns a copy of the recorded stages.
func Snapshot() map[string]Stage {
	mu.Lock()
	defer mu.Unlock()
	out := make(map[string]Stage, len(stages))
	for k, v := range stages {
		out[k] = v
	}
	return out
}

// TopN formats the n stages with the largest total time.
// Example: "tile.GenerateMapData:42.5ms/8, meshing.Build:12ms/8"
func TopN(n int) string {
	ss := Snapshot()
	names := make([]string, 0, len(ss))
	for k := range ss {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if ss[names[i]].Total == ss[names[j]].Total {
			return names[i] < names[j]
		}
		return ss[names[i]].Total > ss[names[j]].Total
	})
	n = min(n, len(names))
	parts := make([]string, 0, n)
	for _, name := range names[:n] {
		s := ss[name]
		parts = append(parts, name+":"+formatMs(s.Total)+"/"+strconv.Itoa(s.Count))
	}
	return strings.Join(parts, ", ")
}

// formatMs keeps one decimal and drops a trailing ".0".
func formatMs(d time.Duration) string {
	ms := float64(d.Microseconds()) / 1000.0
	s := strconv.FormatFloat(ms, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0") + "ms"
}
