package engine

import (
	"context"
	"runtime"
	"sync"

	"github.com/luxera/luxcalc/pkg/direct"
)

// PointBatch is one worker task: a contiguous range of calculation points
// writing into a shared result slice. Batches never overlap, so workers can
// write without locks and the combined result does not depend on completion
// order.
type PointBatch struct {
	TaskID int
	Start  int // offset into the shared values slice
	Points []direct.Point
	Values []float64 // shared slice to write into
}

// BatchResult reports one finished batch.
type BatchResult struct {
	TaskID int
	Err    error
}

// WorkerPool evaluates point batches in parallel against one kernel.
type WorkerPool struct {
	taskQueue   chan PointBatch
	resultQueue chan BatchResult
	numWorkers  int
	kernel      *direct.Kernel
	ctx         context.Context
	wg          sync.WaitGroup
}

// NewWorkerPool creates a pool with the given worker count (0 = CPU count).
// capacity bounds the task/result queues.
func NewWorkerPool(ctx context.Context, kernel *direct.Kernel, numWorkers, capacity int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if capacity < numWorkers {
		capacity = numWorkers
	}
	return &WorkerPool{
		taskQueue:   make(chan PointBatch, capacity),
		resultQueue: make(chan BatchResult, capacity),
		numWorkers:  numWorkers,
		kernel:      kernel,
		ctx:         ctx,
	}
}

// Start begins all workers.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.run()
	}
}

// Stop closes the task queue and waits for workers to drain.
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// Submit queues a batch for evaluation.
func (wp *WorkerPool) Submit(batch PointBatch) {
	wp.taskQueue <- batch
}

// GetResult retrieves one completed batch result.
func (wp *WorkerPool) GetResult() (BatchResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// NumWorkers returns the pool's worker count.
func (wp *WorkerPool) NumWorkers() int {
	return wp.numWorkers
}

// run is the worker loop. Cancellation is cooperative: it is checked
// between batches, never mid-batch, so shared intermediate state stays
// valid.
func (wp *WorkerPool) run() {
	defer wp.wg.Done()
	for batch := range wp.taskQueue {
		if err := wp.ctx.Err(); err != nil {
			wp.resultQueue <- BatchResult{TaskID: batch.TaskID, Err: err}
			continue
		}
		wp.kernel.EvaluateInto(batch.Points, batch.Values, batch.Start)
		wp.resultQueue <- BatchResult{TaskID: batch.TaskID}
	}
}
