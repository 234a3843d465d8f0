package convert

import (
	"errors"
	"sync/atomic"
)

// ErrConversionInProgress is returned when a corpus conversion is started
// while another is still running on the same Converter.
var ErrConversionInProgress = errors.New("conversion already in progress")

// runLock provides non-blocking lock semantics using atomic operations, so a
// second ConvertAll fails fast instead of interleaving writes with the first.
type runLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

func (l *runLock) tryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

func (l *runLock) release() {
	l.state.Store(0)
}
