package session

import (
	"context"
	"sync"

	id "consentmgr/pkg/domain"
)

// writeSequencer orders backend writes. Writes to one purpose run one at a
// time in the order acquire was called; a bulk write waits for every write
// issued before it and every write issued after it waits for the bulk write.
type writeSequencer struct {
	mu    sync.Mutex
	tails map[id.PurposeID]chan struct{}
	bulk  chan struct{}
}

func newWriteSequencer() *writeSequencer {
	return &writeSequencer{tails: make(map[id.PurposeID]chan struct{})}
}

// acquire waits for the previous write to purposeID and any earlier bulk
// write. If ctx ends first the slot is still handed on in order.
func (s *writeSequencer) acquire(ctx context.Context, purposeID id.PurposeID) (func(), error) {
	done := make(chan struct{})

	s.mu.Lock()
	waits := []chan struct{}{s.tails[purposeID], s.bulk}
	s.tails[purposeID] = done
	s.mu.Unlock()

	release := func() {
		close(done)
		s.mu.Lock()
		if s.tails[purposeID] == done {
			delete(s.tails, purposeID)
		}
		s.mu.Unlock()
	}
	return release, s.wait(ctx, waits, release)
}

// acquireAll waits for every outstanding write.
func (s *writeSequencer) acquireAll(ctx context.Context) (func(), error) {
	done := make(chan struct{})

	s.mu.Lock()
	waits := make([]chan struct{}, 0, len(s.tails)+1)
	for _, tail := range s.tails {
		waits = append(waits, tail)
	}
	waits = append(waits, s.bulk)
	s.bulk = done
	s.mu.Unlock()

	release := func() {
		close(done)
		s.mu.Lock()
		if s.bulk == done {
			s.bulk = nil
		}
		s.mu.Unlock()
	}
	return release, s.wait(ctx, waits, release)
}

// wait blocks on every channel in waits. On cancellation it returns ctx.Err()
// and releases the slot once the predecessors finish.
func (s *writeSequencer) wait(ctx context.Context, waits []chan struct{}, release func()) error {
	for i, ch := range waits {
		if ch == nil {
			continue
		}
		select {
		case <-ch:
		case <-ctx.Done():
			rest := waits[i:]
			go func() {
				for _, ch := range rest {
					if ch != nil {
						<-ch
					}
				}
				release()
			}()
			return ctx.Err()
		}
	}
	return nil
}
