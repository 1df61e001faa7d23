package stats

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"
)

type Type int

const (
	Traversed Type = iota
	Resolved
	Matched
	Cached
)

func (t Type) String() string {
	switch t {
	case Traversed:
		return "traversed"
	case Resolved:
		return "resolved"
	case Matched:
		return "matched"
	case Cached:
		return "cached"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

type Stats struct {
	start    time.Time
	counters map[Type]*atomic.Int64
}

func New() Stats {
	// init counters
	counters := make(map[Type]*atomic.Int64)
	counters[Traversed] = &atomic.Int64{}
	counters[Resolved] = &atomic.Int64{}
	counters[Matched] = &atomic.Int64{}
	counters[Cached] = &atomic.Int64{}

	return Stats{
		start:    time.Now(),
		counters: counters,
	}
}

func (s *Stats) Add(t Type, delta int) int {
	return int(s.counters[t].Add(int64(delta)))
}

func (s *Stats) Value(t Type) int {
	return int(s.counters[t].Load())
}

func (s *Stats) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Reset zeroes every counter and restarts the clock. It must not race with Add.
func (s *Stats) Reset() {
	for _, counter := range s.counters {
		counter.Store(0)
	}

	s.start = time.Now()
}

func (s *Stats) Print(w io.Writer) {
	components := []string{
		"traversed %d files",
		"resolved %d files",
		"matched %d files to overrides",
		"served %d files from cache",
		"in %v",
		"",
	}

	_, _ = fmt.Fprintf(w,
		strings.Join(components, "\n"),
		s.Value(Traversed),
		s.Value(Resolved),
		s.Value(Matched),
		s.Value(Cached),
		s.Elapsed().Round(time.Millisecond),
	)
}
