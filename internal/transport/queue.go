package transport

import "sync"

// DefaultQueueCapacity bounds the offline queue.
const DefaultQueueCapacity = 1024

// queue is the bounded FIFO of frames awaiting delivery. When full, the
// oldest frame is dropped to admit the newest.
type queue struct {
	mu    sync.Mutex
	cap   int
	items [][]byte
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &queue{cap: capacity}
}

// push appends a frame, reporting whether an older frame was dropped to
// make room.
func (q *queue) push(frame []byte) (dropped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) >= q.cap {
		q.items = q.items[1:]
		dropped = true
	}
	q.items = append(q.items, frame)
	return dropped
}

// drain removes and returns every queued frame in FIFO order.
func (q *queue) drain() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.items
	q.items = nil
	return items
}

func (q *queue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
