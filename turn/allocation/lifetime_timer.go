package allocation

import (
	"sync"
	"sync/atomic"
	"time"
)

// lifetimeTimer is a resettable single-shot timer: a control channel the
// owner keeps and the background task consumes, instead of a shared
// cancellation flag.
type lifetimeTimer struct {
	resetCh chan time.Duration
	expired atomic.Bool
	stopped atomic.Bool

	closeOnce sync.Once
}

// start launches the background task and returns the timer. onExpire
// runs on the task's goroutine when the timer elapses without a reset
// racing it.
func startLifetimeTimer(lifetime time.Duration, onExpire func()) *lifetimeTimer {
	t := &lifetimeTimer{resetCh: make(chan time.Duration, 1)}
	go t.run(lifetime, onExpire)
	return t
}

func (t *lifetimeTimer) run(lifetime time.Duration, onExpire func()) {
	timer := time.NewTimer(lifetime)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			onExpire()
			t.expired.Store(true)
			return
		case d, ok := <-t.resetCh:
			if !ok {
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(d)
		}
	}
}

// refresh is a non-blocking send of the new lifetime.
func (t *lifetimeTimer) refresh(lifetime time.Duration) {
	select {
	case t.resetCh <- lifetime:
	default:
	}
}

// stop drops the control channel. It returns true iff the timer had
// already expired or stop is called a second time.
func (t *lifetimeTimer) stop() bool {
	alreadyDone := t.expired.Load() || t.stopped.Load()
	t.closeOnce.Do(func() {
		t.stopped.Store(true)
		close(t.resetCh)
	})
	return alreadyDone
}
