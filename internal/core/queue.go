package core

import (
	"errors"
	"sync"
)

// ErrQueueFull is returned by Enqueue when an id already has the maximum
// number of pending items.
var ErrQueueFull = errors.New("queue is full")

type lane[T any] struct {
	items   []T
	running bool
}

// Queue processes items in arrival order per id. Items of different ids are
// processed concurrently, items of one id never are.
type Queue[T any] struct {
	process func(id string, item T)
	limit   int

	mu    sync.Mutex
	lanes map[string]*lane[T]
	wg    sync.WaitGroup
}

// NewQueue creates a Queue. limit bounds pending items per id; zero or less
// means unbounded.
func NewQueue[T any](limit int, process func(id string, item T)) *Queue[T] {
	return &Queue[T]{
		process: process,
		limit:   limit,
		lanes:   make(map[string]*lane[T]),
	}
}

// Enqueue adds item behind the pending items of id and starts draining id
// if it is idle.
func (q *Queue[T]) Enqueue(id string, item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	l, ok := q.lanes[id]
	if !ok {
		l = &lane[T]{}
		q.lanes[id] = l
	}
	if q.limit > 0 && len(l.items) >= q.limit {
		return ErrQueueFull
	}
	l.items = append(l.items, item)
	if !l.running {
		l.running = true
		q.wg.Add(1)
		go q.drain(id, l)
	}
	return nil
}

func (q *Queue[T]) drain(id string, l *lane[T]) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if len(l.items) == 0 {
			l.running = false
			delete(q.lanes, id)
			q.mu.Unlock()
			return
		}
		item := l.items[0]
		var zero T
		l.items[0] = zero
		l.items = l.items[1:]
		q.mu.Unlock()

		q.process(id, item)
	}
}

// Pending returns the number of items of id not yet handed to process.
func (q *Queue[T]) Pending(id string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.lanes[id]; ok {
		return len(l.items)
	}
	return 0
}

// Wait blocks until every id has drained.
func (q *Queue[T]) Wait() {
	q.wg.Wait()
}
