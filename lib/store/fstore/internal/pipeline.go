// Package internal provides the serialized write pipeline used by the
// file-backed token store.
//
// Features and Guarantees:
//
//   - Lock-Free submission: atomic operations for the producer side, so any
//     number of goroutines can Submit() concurrently without blocking each
//     other
//   - Unbounded Size: the pipeline can grow to any size as needed, limited
//     only by available memory
//   - Single Consumer: one goroutine executes the queued tasks strictly one
//     at a time, in arrival order. This is the store's sole mutual
//     exclusion mechanism
//   - Per-Task Errors: a failing (or panicking) task is reported only to its
//     own submitter; the pipeline itself keeps running
package internal

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// ErrPipelineClosed is reported for tasks submitted after Close.
var ErrPipelineClosed = errors.New("pipeline is closed")

// task pairs a queued function with the channel its result is delivered on.
type task struct {
	fn   func() error
	done chan error
}

// node represents a single element in the queue
type node struct {
	value *task
	next  atomic.Pointer[node]
}

// Pipeline is a lock-free multi-producer single-consumer task queue.
// Implementation uses a linked list of nodes with atomic operations for
// concurrent submissions without locks; a single consumer goroutine runs
// each task to completion before dequeuing the next.
type Pipeline struct {
	head     atomic.Pointer[node]
	tail     atomic.Pointer[node]
	consumer sync.WaitGroup
	closed   atomic.Bool // atomic flag

	// Condition variable for efficient waiting
	mu   sync.Mutex
	cond *sync.Cond
}

// NewPipeline creates a new pipeline and starts its consumer goroutine.
func NewPipeline() *Pipeline {
	// Create a sentinel node (dummy node at the beginning)
	sentinel := &node{}

	p := &Pipeline{}

	// Initialize condition variable
	p.cond = sync.NewCond(&p.mu)

	// Set the initial head and tail to the sentinel node
	p.head.Store(sentinel)
	p.tail.Store(sentinel)

	p.consumer.Add(1)
	go p.consume()

	return p
}

// Submit enqueues fn for serialized execution and returns a channel that
// delivers fn's result (exactly one value) once it has run. Tasks execute
// in the order their Submit calls complete; a task's failure never delays
// or fails tasks submitted after it.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (p *Pipeline) Submit(fn func() error) <-chan error {
	done := make(chan error, 1)

	if p.closed.Load() {
		done <- ErrPipelineClosed
		return done
	}

	newNode := &node{value: &task{fn: fn, done: done}}

	var tailNode *node
	var backoff uint8 = 0

	for {
		tailNode = p.tail.Load()

		// try to atomically append our node to the current tail
		next := tailNode.next.Load()
		if next == nil {
			// the tail has no next node yet, try to append our node
			if tailNode.next.CompareAndSwap(nil, newNode) {
				/*
				 Successfully appended, now try to update tail
				 Note: CAS may fail if another producer helps update tail,
				 but that's okay - tail will still be updated eventually
				*/
				p.tail.CompareAndSwap(tailNode, newNode)

				// Signal the consumer that new work is available
				p.cond.Signal()

				return done
			}
		} else {
			// help update the tail pointer if another producer has already appended a node but hasn't updated the tail yet
			p.tail.CompareAndSwap(tailNode, next)
		}

		/*
		 Exponential backoff to handle contention:
		  - At low contention (<10 retries): CPU spinning to avoid thread scheduling overhead
		  - At higher contention: yield the processor so other goroutines make progress
		*/
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// consume runs queued tasks one at a time and reports each result to its
// submitter. A panicking task is converted into an error for its submitter
// and the loop continues with the next task.
func (p *Pipeline) consume() {
	defer p.consumer.Done()

	for {
		// Process all available tasks in the queue
		hasItems := false

		for {
			head := p.head.Load()
			next := head.next.Load()

			if next == nil {
				break // No more tasks available
			}

			hasItems = true

			// Capture task before updating pointers
			t := next.value

			// move head pointer (free up memory)
			p.head.Store(next)

			// Execute the task and deliver its result
			t.done <- runTask(t.fn)
			close(t.done)

			// help go gc - safe to clear after delivery
			next.value = nil
		}

		// Exit if closed and no more tasks
		if !hasItems && p.closed.Load() {
			return
		}

		// If no tasks were processed, wait for signal
		if !hasItems {
			p.mu.Lock()
			// Double-check condition after acquiring lock
			head := p.head.Load()
			if head.next.Load() == nil && !p.closed.Load() {
				// Wait for signal (releases lock while waiting)
				p.cond.Wait()
			}
			p.mu.Unlock()
		}
	}
}

// runTask executes fn, converting a panic into an error.
func runTask(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn()
}

// Close closes the pipeline, preventing further submissions.
// Tasks already in the queue still execute and deliver their results.
// Close returns after the consumer has drained the queue and stopped.
func (p *Pipeline) Close() {
	if p.closed.CompareAndSwap(false, true) {
		// Wake up the consumer if it's waiting
		p.cond.Signal()
		p.consumer.Wait()
	}
}

// IsClosed returns true if the pipeline is closed.
func (p *Pipeline) IsClosed() bool {
	return p.closed.Load()
}
