// Package jobqueue implements the durable priority Job Queue & Worker
// Pool (spec.md §4.F): an in-memory priority heap, adapted from
// satellite/jobq/jobqueue's binary-heap dispatch pattern, layered in
// front of the durable jobs table so every state change the heap makes
// is mirrored to disk and survives a restart.
package jobqueue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/bizzlechizzle/archivist-core/internal/catalog/store"
)

// Named queues from spec.md §4.F.
const (
	QueueImport             = "import"
	QueueExiftool            = "exiftool"
	QueueThumbnail           = "thumbnail"
	QueueProxy               = "proxy"
	QueuePerceptualHash      = "perceptual-hash"
	QueueRefMapPointMatch    = "ref-map-point-match"
	QueueBagItValidate       = "bagit-validate"
	QueueExtraction          = "extraction"
	QueueLocationStats       = "location-stats"
)

// AllQueues lists every named queue, used to start one worker pool per
// queue at startup.
var AllQueues = []string{
	QueueImport, QueueExiftool, QueueThumbnail, QueueProxy,
	QueuePerceptualHash, QueueRefMapPointMatch, QueueBagItValidate,
	QueueExtraction, QueueLocationStats,
}

// entry is one heap item: just enough to order dispatch without holding
// the whole job payload in memory.
type entry struct {
	id         string
	priority   int
	createdAt  time.Time
	insertedAt time.Time
}

// priorityHeap orders by priority DESC, then createdAt ASC, mirroring
// store.JobRepo.ClaimNext's SQL ordering so the in-memory index and the
// durable table never disagree about dispatch order.
type priorityHeap []*entry

func (h priorityHeap) Len() int { return len(h) }
func (h priorityHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].createdAt.Before(h[j].createdAt)
}
func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *priorityHeap) Push(x any)   { *h = append(*h, x.(*entry)) }
func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Queue is the in-memory pending-job index for one named queue. It holds
// no payload data; Pop returns only an id, which the caller resolves
// against the durable store. Now is a test seam, mirroring the teacher's
// jobqueue.Queue.Now field.
type Queue struct {
	mu   sync.Mutex
	heap priorityHeap
	ids  map[string]*entry

	Now func() time.Time
}

// NewQueue returns an empty in-memory queue.
func NewQueue() *Queue {
	return &Queue{
		ids: make(map[string]*entry),
		Now: time.Now,
	}
}

// Insert adds or updates a job's position in the heap. Returns true if
// the job was not already tracked.
func (q *Queue) Insert(id string, priority int, createdAt time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if e, ok := q.ids[id]; ok {
		e.priority = priority
		e.createdAt = createdAt
		heap.Fix(&q.heap, q.indexOf(id))
		return false
	}

	e := &entry{id: id, priority: priority, createdAt: createdAt, insertedAt: q.Now()}
	q.ids[id] = e
	heap.Push(&q.heap, e)
	return true
}

// Pop removes and returns the highest-priority job id.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.heap.Len() == 0 {
		return "", false
	}
	e := heap.Pop(&q.heap).(*entry)
	delete(q.ids, e.id)
	return e.id, true
}

// Delete removes a job from the heap without returning it, used when a
// job is claimed by another worker pool replica or cancelled.
func (q *Queue) Delete(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx, ok := q.index(id)
	if !ok {
		return false
	}
	heap.Remove(&q.heap, idx)
	delete(q.ids, id)
	return true
}

// Len reports the number of pending jobs tracked in memory.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

func (q *Queue) indexOf(id string) int {
	idx, _ := q.index(id)
	return idx
}

func (q *Queue) index(id string) (int, bool) {
	for i, e := range q.heap {
		if e.id == id {
			return i, true
		}
	}
	return 0, false
}

// Hydrate loads every pending job for queueName from the durable store
// into a fresh in-memory Queue, per spec.md §4.F: "on worker-pool start,
// the queue hydrates its heap from the pending rows."
func Hydrate(ctx context.Context, jobs *store.JobRepo, queueName string, now func() time.Time) (*Queue, error) {
	q := NewQueue()
	if now != nil {
		q.Now = now
	}
	pending, err := jobs.ListPending(ctx, queueName)
	if err != nil {
		return nil, err
	}
	for _, j := range pending {
		q.Insert(j.ID, j.Priority, j.CreatedAt)
	}
	return q, nil
}
