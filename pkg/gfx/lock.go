package gfx

import "time"

// Lock acquires the render lock. Any code that creates or mutates render
// tree objects outside the engine task must hold it.
//
// A negative timeout (Forever) blocks until acquisition. A zero timeout
// fails fast when the lock is held. A positive timeout bounds the wait.
// The return value must be checked; a false return means the lock was not
// acquired and render state must not be touched.
func (h *Handle) Lock(timeout time.Duration) bool {
	if timeout < 0 {
		h.lockCh <- struct{}{}
		return true
	}
	if timeout == 0 {
		select {
		case h.lockCh <- struct{}{}:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case h.lockCh <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

// Unlock releases the render lock. Calling it without holding the lock is
// a no-op.
func (h *Handle) Unlock() {
	select {
	case <-h.lockCh:
	default:
	}
}
