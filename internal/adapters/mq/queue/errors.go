package queue

// Drop reasons reported when an event is not enqueued.
const (
	DropClosed    = "closed"
	DropFull      = "queue_full"
	DropCancelled = "context_cancelled"
)
