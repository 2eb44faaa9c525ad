package realtime

import (
	"context"
	"sync"
)

// Subscription is a latest-wins event stream. A reader that falls behind
// skips intermediate events but always receives the most recent one. C is
// closed once the subscription ends.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	mu     sync.Mutex
	closed bool
	once   sync.Once
	stop   func()
	detach func() bool
}

func newSubscription(ctx context.Context, stop func()) *Subscription {
	ch := make(chan Event, 1)
	s := &Subscription{C: ch, ch: ch, stop: stop}
	detach := context.AfterFunc(ctx, s.Close)
	s.mu.Lock()
	s.detach = detach
	s.mu.Unlock()
	return s
}

// offer delivers ev, replacing an unread older event if the buffer is full.
func (s *Subscription) offer(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- ev:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// Close ends the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		detach := s.detach
		s.mu.Unlock()
		if detach != nil {
			detach()
		}
		if s.stop != nil {
			s.stop()
		}
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}
