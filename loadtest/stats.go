package loadtest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Recorder accumulates per-operation latency samples and error counts from
// all virtual users.
type Recorder struct {
	mu     sync.Mutex
	series map[string]*opSeries
}

type opSeries struct {
	durations []time.Duration
	errors    int
}

func NewRecorder() *Recorder {
	return &Recorder{series: make(map[string]*opSeries)}
}

func (r *Recorder) Record(op string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.series[op]
	if !ok {
		s = &opSeries{}
		r.series[op] = s
	}
	s.durations = append(s.durations, d)
	if err != nil {
		s.errors++
	}
}

// OperationSummary is the latency/error digest for one operation.
type OperationSummary struct {
	Name   string
	Count  int
	Errors int
	Min    time.Duration
	Mean   time.Duration
	P95    time.Duration
	Max    time.Duration
}

// Report is the result of one load run.
type Report struct {
	RunID      string
	Scenario   string
	Users      int
	Elapsed    time.Duration
	Operations []OperationSummary
}

// Summarize folds the recorded samples into a report, with operations sorted
// by name for stable output.
func (r *Recorder) Summarize(runID, scenario string, users int, elapsed time.Duration) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := &Report{RunID: runID, Scenario: scenario, Users: users, Elapsed: elapsed}
	names := make([]string, 0, len(r.series))
	for name := range r.series {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s := r.series[name]
		report.Operations = append(report.Operations, summarize(name, s))
	}
	return report
}

func summarize(name string, s *opSeries) OperationSummary {
	out := OperationSummary{Name: name, Count: len(s.durations), Errors: s.errors}
	if out.Count == 0 {
		return out
	}

	sorted := append([]time.Duration(nil), s.durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	out.Min = sorted[0]
	out.Max = sorted[len(sorted)-1]
	out.Mean = total / time.Duration(out.Count)
	out.P95 = sorted[percentileIndex(len(sorted), 95)]
	return out
}

// percentileIndex returns the zero-based nearest-rank index for the pct-th
// percentile of n sorted samples: the smallest rank holding at least pct
// percent of the distribution.
func percentileIndex(n, pct int) int {
	idx := (n*pct+99)/100 - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func (rep *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Load run %s (%q): %d user(s), %s elapsed\n",
		rep.RunID, rep.Scenario, rep.Users, rep.Elapsed.Round(time.Millisecond))
	for _, op := range rep.Operations {
		fmt.Fprintf(&b, "  %-28s count=%-6d errors=%-4d min=%-10s mean=%-10s p95=%-10s max=%s\n",
			op.Name, op.Count, op.Errors,
			op.Min.Round(time.Millisecond), op.Mean.Round(time.Millisecond),
			op.P95.Round(time.Millisecond), op.Max.Round(time.Millisecond))
	}
	return b.String()
}
