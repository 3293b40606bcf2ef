// Package ready is the one-shot handshake between the boot sequence and the
// network core. The network core calls the registered callback once from its
// own context when it has booted; the sequence polls until it sees it.
package ready

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultPoll is the yield interval between checks.
const DefaultPoll = 100 * time.Millisecond

// Flag is written false to true at most once per boot and never reset.
// The zero value is ready to use.
type Flag struct {
	set  atomic.Bool
	poll time.Duration
}

// New returns a flag that polls at the given interval (DefaultPoll if <= 0).
func New(poll time.Duration) *Flag {
	return &Flag{poll: poll}
}

// Callback is handed to the network core init. It does one atomic store and
// nothing else, so it is safe from interrupt or foreign goroutine context.
func (f *Flag) Callback() func() {
	return func() { f.set.Store(true) }
}

// Wait returns once the callback has fired. There is no timeout; ctx is only
// there so a host harness can abandon the wait. If already set it returns
// without sleeping.
func (f *Flag) Wait(ctx context.Context) error {
	poll := f.poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	for !f.set.Load() {
		t := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return nil
}
