// services/boot/steady.go
package boot

import (
	"context"
	"runtime"

	"golang.org/x/time/rate"

	"audioboot-go/types"
)

// Steady is the forever loop: drive stream control and, on debug builds with
// a stack probe, report stack headroom no more often than the configured
// interval. It returns only when ctx is cancelled.
func (s *Sequencer) Steady(ctx context.Context) error {
	s.publishState(types.BootRunning, "", "steady", nil)
	s.log.Info().Msg("entering steady state")

	var report *rate.Sometimes
	if s.v.Debug && s.d.Stack != nil {
		report = &rate.Sometimes{Interval: s.v.StackReportInterval()}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.d.Stream.HandleEvent()
		if report != nil {
			report.Do(s.reportStack)
		}
		runtime.Gosched()
	}
}

func (s *Sequencer) reportStack() {
	unused, err := s.d.Stack.UnusedStack()
	if err != nil {
		s.log.Debug().Err(err).Msg("stack probe failed")
		return
	}
	s.log.Debug().Uint32("unused_bytes", unused).Msg("unused space in main context")
	s.publish(topicStack, types.StackUsage{Context: "main", UnusedBytes: unused, TS: s.now().UnixNano()}, false)
}
