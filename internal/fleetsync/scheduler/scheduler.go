package scheduler

import "sync"

// Kind identifies one background refresh operation.
type Kind int

const (
	FetchFleet Kind = iota
	FetchWaypoints
	FetchContracts
	FetchShipyards
)

// Kinds lists every operation in seed order.
var Kinds = []Kind{FetchFleet, FetchWaypoints, FetchContracts, FetchShipyards}

// String returns the operation name used in the activity log.
func (k Kind) String() string {
	switch k {
	case FetchFleet:
		return "GetFleet"
	case FetchWaypoints:
		return "GetWaypoints"
	case FetchContracts:
		return "GetContracts"
	case FetchShipyards:
		return "GetShipyards"
	default:
		return "Unknown"
	}
}

// Queue is a rotating ring seeded with one entry of each Kind. It is safe for
// concurrent use so observers can inspect the order while the engine runs.
type Queue struct {
	mu    sync.Mutex
	order []Kind
	head  int
}

// New returns a queue seeded as fleet, waypoints, contracts, shipyards.
func New() *Queue {
	order := make([]Kind, len(Kinds))
	copy(order, Kinds)
	return &Queue{order: order}
}

// Next returns the head of the queue and rotates it to the tail.
func (q *Queue) Next() Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	kind := q.order[q.head]
	q.head = (q.head + 1) % len(q.order)
	return kind
}

// Peek returns the head without rotating.
func (q *Queue) Peek() Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order[q.head]
}

// Order returns the queue contents from head to tail.
func (q *Queue) Order() []Kind {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Kind, 0, len(q.order))
	for i := range q.order {
		out = append(out, q.order[(q.head+i)%len(q.order)])
	}
	return out
}

// Len is always the number of kinds.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}
