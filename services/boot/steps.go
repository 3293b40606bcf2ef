// services/boot/steps.go
package boot

import (
	"context"
	"time"

	"audioboot-go/errcode"
	"audioboot-go/services/channel"
	"audioboot-go/types"
)

func (s *Sequencer) resolveChannel() error {
	ch, assigned, err := s.chans.Resolve()
	if err != nil {
		return err
	}
	s.ch, s.assigned = ch, assigned
	s.log.Info().Stringer("channel", ch).Bool("assigned", assigned).Msg("channel")
	s.publishRetained(topicRole, types.RoleInfo{Role: s.v.Role.String(), Channel: ch.String(), Assigned: assigned})
	return nil
}

func (s *Sequencer) readBoard() error {
	m, rev, ok := s.board.Read()
	if !ok {
		return errcode.New(errcode.NotReady, "boardrev.read", "board not validated")
	}
	s.mask, s.rev = m, rev
	s.publishRetained(topicBoard, types.BoardInfo{Revision: rev.Name, BoardID: s.board.BoardID(), Mask: uint32(m)})
	return nil
}

func (s *Sequencer) pmicInit() error {
	if s.d.PMIC == nil {
		return errcode.New(errcode.InvalidParams, "pmic.init", "board has a PMIC but no driver was supplied")
	}
	return s.d.PMIC.Init()
}

func (s *Sequencer) pmicDefaults() error {
	if s.d.PMIC == nil {
		return errcode.New(errcode.InvalidParams, "pmic.defaults", "board has a PMIC but no driver was supplied")
	}
	return s.d.PMIC.SetDefaults()
}

func (s *Sequencer) sdInit() error {
	if s.d.SD == nil {
		return errcode.New(errcode.InvalidParams, "sd.init", "board has an SD slot but no driver was supplied")
	}
	return s.d.SD.Init()
}

// netcoreInit registers the ready callback. The init call itself must come
// back within the response window; a network core that never answers is
// usually one that was not programmed.
func (s *Sequencer) netcoreInit(ctx context.Context) error {
	done := make(chan error, 1)
	cb := s.flag.Callback()
	go func() { done <- s.d.NetCore.Init(cb) }()

	t := time.NewTimer(s.v.NetcoreTimeout())
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		return errcode.New(errcode.NoResponse, "netcore.init", "no response from network core, check it is programmed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// netcoreWait blocks until the network core reports ready. No timeout.
func (s *Sequencer) netcoreWait(ctx context.Context) error {
	s.publishState(types.BootWaiting, StepNetCoreWait, "awaiting_netcore", nil)
	s.log.Info().Dur("poll", s.v.ReadyPoll()).Msg("waiting for network core")
	if err := s.flag.Wait(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("network core ready")
	return nil
}

// IndicatorColor is the RGB pattern shown once the device is up.
func IndicatorColor(role channel.Role, ch channel.Channel) Color {
	if role == channel.RoleGateway {
		return ColorGreen
	}
	if ch == channel.Right {
		return ColorMagenta
	}
	return ColorBlue
}

func (s *Sequencer) setIndicators() error {
	if err := s.d.Indicators.Blink(LEDAppStatus); err != nil {
		return err
	}
	ch, err := s.chans.Current()
	if err != nil {
		return err
	}
	return s.d.Indicators.Solid(LEDAppRGB, IndicatorColor(s.v.Role, ch))
}

func (s *Sequencer) playTone() error {
	t := s.v.Tone
	return s.d.Tone.Play(t.FreqHz, t.DurationMs, t.Repeat)
}
