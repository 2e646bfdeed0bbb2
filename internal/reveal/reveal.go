// internal/reveal/reveal.go
package reveal

import (
	"sync"
	"time"

	"github.com/rakshaklabs/rakshak-console/internal/models"
)

// Scheduler reveals a fixed string one character at a time at a
// constant cadence. Starting a new reveal pre-empts the previous one;
// at most one timer is active per scheduler, and no tick from a
// cancelled run is ever delivered.
type Scheduler struct {
	mu       sync.Mutex
	interval time.Duration

	gen      int // bumped on every Start/Cancel; stale runs check it and exit
	text     []rune
	revealed int
	complete bool
	onTick   func(models.RevealSnapshot)
	stop     chan struct{}
}

// NewScheduler creates a scheduler ticking once per interval.
func NewScheduler(interval time.Duration) *Scheduler {
	return &Scheduler{interval: interval}
}

// Start cancels any in-flight reveal, resets the revealed prefix to
// zero and schedules ticks until the whole text is revealed. onTick is
// invoked after every advance with a consistent snapshot; ticks run to
// completion before the next is scheduled and never overlap.
func (s *Scheduler) Start(text string, onTick func(models.RevealSnapshot)) {
	s.mu.Lock()

	s.gen++
	myGen := s.gen
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}

	s.text = []rune(text)
	s.revealed = 0
	s.complete = false
	s.onTick = onTick

	if len(s.text) == 0 {
		// Nothing to reveal: complete immediately, no timer
		s.complete = true
		if onTick != nil {
			onTick(s.snapshotLocked())
		}
		s.mu.Unlock()
		return
	}

	stopCh := make(chan struct{})
	s.stop = stopCh
	s.mu.Unlock()

	go s.run(myGen, stopCh)
}

// Cancel stops ticking immediately. Idempotent; cancellation before
// completion leaves IsComplete false and discards remaining ticks.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Snapshot returns the current reveal state.
func (s *Scheduler) Snapshot() models.RevealSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Scheduler) snapshotLocked() models.RevealSnapshot {
	return models.RevealSnapshot{
		FullText:             string(s.text),
		Revealed:             string(s.text[:s.revealed]),
		RevealedPrefixLength: s.revealed,
		IsComplete:           s.complete,
	}
}

// run is the single timer loop for one reveal generation.
func (s *Scheduler) run(myGen int, stopCh chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.gen != myGen || s.complete {
				s.mu.Unlock()
				return
			}

			s.revealed++
			if s.revealed >= len(s.text) {
				s.revealed = len(s.text)
				s.complete = true
			}

			// Delivered under the lock so a tick can never land after
			// Cancel returns. onTick must not call back into the scheduler.
			done := s.complete
			if s.onTick != nil {
				s.onTick(s.snapshotLocked())
			}
			s.mu.Unlock()

			if done {
				return
			}
		}
	}
}
