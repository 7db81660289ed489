package build

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/conneroisu/quire/internal/errors"
)

// Task is one unit of render work: a page, a post or a listing page.
type Task struct {
	// Name identifies the task in the report, usually the source path.
	Name string
	Run  func(ctx context.Context) TaskResult
}

// TaskResult is what a task hands back to the report.
type TaskResult struct {
	Name        string
	Written     []string
	Unchanged   int
	Diagnostics []errors.Diagnostic
	Err         error
	Duration    time.Duration
}

// WorkerManager runs render tasks over a fixed number of workers.
type WorkerManager struct {
	// workers defines the number of concurrent render workers
	workers int
	// workerWg synchronizes worker goroutine lifecycle
	workerWg sync.WaitGroup
	// cancel terminates all worker operations
	cancel context.CancelFunc
	// mu protects concurrent access to worker state
	mu sync.RWMutex
}

// NewWorkerManager creates a worker manager. A non-positive count uses one
// worker per CPU.
func NewWorkerManager(workers int) *WorkerManager {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerManager{workers: workers}
}

// Workers returns the configured parallelism.
func (wm *WorkerManager) Workers() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	return wm.workers
}

// Run dispatches tasks to the workers and blocks until every dispatched task
// has finished. Cancelling ctx stops dispatching; tasks already running are
// allowed to complete, and so does StopWorkers. It returns the number of tasks that were never
// dispatched.
func (wm *WorkerManager) Run(ctx context.Context, tasks []Task, record func(TaskResult)) int {
	wm.mu.Lock()
	workerCtx, cancel := context.WithCancel(ctx)
	workers := wm.workers
	// Workers are counted before cancel is published so StopWorkers always
	// waits on them.
	wm.workerWg.Add(workers)
	wm.cancel = cancel
	wm.mu.Unlock()
	defer cancel()

	queue := make(chan Task)
	for i := 0; i < workers; i++ {
		go wm.worker(workerCtx, queue, record)
	}

	dispatched := 0
dispatch:
	for _, task := range tasks {
		if workerCtx.Err() != nil {
			break
		}
		select {
		case <-workerCtx.Done():
			break dispatch
		case queue <- task:
			dispatched++
		}
	}
	close(queue)

	wm.workerWg.Wait()
	return len(tasks) - dispatched
}

// StopWorkers cancels the current run and waits for its workers to finish.
func (wm *WorkerManager) StopWorkers() {
	wm.mu.RLock()
	cancel := wm.cancel
	wm.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	wm.workerWg.Wait()
}

func (wm *WorkerManager) worker(ctx context.Context, queue <-chan Task, record func(TaskResult)) {
	defer wm.workerWg.Done()

	for task := range queue {
		start := time.Now()
		result := task.Run(ctx)
		if result.Name == "" {
			result.Name = task.Name
		}
		result.Duration = time.Since(start)
		record(result)
	}
}
