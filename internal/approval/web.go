package approval

import (
	"context"
	"errors"
)

// WebConfirmer puts each prompt on a Queue and waits for a decision made
// through the approval Server.
type WebConfirmer struct {
	Queue *Queue
}

// NewWebConfirmer returns a confirmer backed by queue.
func NewWebConfirmer(queue *Queue) *WebConfirmer {
	return &WebConfirmer{Queue: queue}
}

// Confirm queues p and blocks until it is approved, denied, times out or
// ctx is done. A cancelled request is removed from the queue.
func (c *WebConfirmer) Confirm(ctx context.Context, p Prompt) (bool, error) {
	respCh := make(chan Response, 1)
	id := c.Queue.Add(&PendingRequest{Prompt: p, Response: respCh})

	select {
	case resp := <-respCh:
		switch resp.Status {
		case StatusApproved:
			return true, nil
		case StatusTimeout:
			return false, ErrTimeout
		default:
			if resp.Reason != "" {
				return false, errors.New(resp.Reason)
			}
			return false, nil
		}
	case <-ctx.Done():
		c.Queue.Remove(id)
		return false, ctx.Err()
	}
}
