package build

import (
	"sort"
	"sync"
	"time"

	"github.com/conneroisu/quire/internal/errors"
)

// Report summarizes one generation run.
type Report struct {
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration

	// Written lists output files relative to the output root, sorted.
	Written []string
	// Unchanged counts outputs whose content matched what was on disk.
	Unchanged int
	// Skipped counts tasks never dispatched because the run was cancelled.
	Skipped  int
	Assets   int
	Failures []errors.PageFailure

	diagnostics *errors.DiagnosticCollector
	metrics     *BuildMetrics
	mutex       sync.Mutex
}

func newReport(buildID string) *Report {
	return &Report{
		BuildID:     buildID,
		StartedAt:   time.Now(),
		diagnostics: errors.NewDiagnosticCollector(),
		metrics:     NewBuildMetrics(),
	}
}

// Record adds a task result to the report.
func (r *Report) Record(result TaskResult) {
	r.metrics.RecordBuild(result)
	r.diagnostics.Merge(result.Name, result.Diagnostics)

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Written = append(r.Written, result.Written...)
	r.Unchanged += result.Unchanged
	if result.Err != nil {
		r.Failures = append(r.Failures, errors.PageFailure{Page: result.Name, Err: result.Err})
	}
}

// Diagnostics returns every diagnostic collected during the run.
func (r *Report) Diagnostics() []errors.Diagnostic {
	return r.diagnostics.All()
}

// Failed reports whether any page failed to render.
func (r *Report) Failed() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Failures) > 0
}

// Metrics returns a snapshot of the per-task timings.
func (r *Report) Metrics() BuildMetrics {
	return r.metrics.GetSnapshot()
}

func (r *Report) finish() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	sort.Strings(r.Written)
	sort.Slice(r.Failures, func(i, j int) bool { return r.Failures[i].Page < r.Failures[j].Page })
	r.Duration = time.Since(r.StartedAt)
}

// BuildMetrics tracks render task timings.
type BuildMetrics struct {
	TotalTasks      int64
	SucceededTasks  int64
	FailedTasks     int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	SlowestTask     string
	SlowestDuration time.Duration
	mutex           sync.RWMutex
}

// NewBuildMetrics creates a new metrics tracker.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordBuild records one task result.
func (bm *BuildMetrics) RecordBuild(result TaskResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalTasks++
	bm.TotalDuration += result.Duration

	if result.Err != nil {
		bm.FailedTasks++
	} else {
		bm.SucceededTasks++
	}

	if result.Duration > bm.SlowestDuration {
		bm.SlowestDuration = result.Duration
		bm.SlowestTask = result.Name
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalTasks)
}

// GetSnapshot returns a copy of the current metrics.
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	return BuildMetrics{
		TotalTasks:      bm.TotalTasks,
		SucceededTasks:  bm.SucceededTasks,
		FailedTasks:     bm.FailedTasks,
		AverageDuration: bm.AverageDuration,
		TotalDuration:   bm.TotalDuration,
		SlowestTask:     bm.SlowestTask,
		SlowestDuration: bm.SlowestDuration,
	}
}

// Reset clears all metrics.
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalTasks = 0
	bm.SucceededTasks = 0
	bm.FailedTasks = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
	bm.SlowestTask = ""
	bm.SlowestDuration = 0
}

// SuccessRate returns the share of tasks that succeeded as a percentage.
func (bm *BuildMetrics) SuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	if bm.TotalTasks == 0 {
		return 0
	}
	return float64(bm.SucceededTasks) / float64(bm.TotalTasks) * 100
}
