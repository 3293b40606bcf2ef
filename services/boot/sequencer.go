// services/boot/sequencer.go
package boot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"audioboot-go/bus"
	"audioboot-go/errcode"
	"audioboot-go/services/boardrev"
	"audioboot-go/services/channel"
	"audioboot-go/services/config"
	"audioboot-go/services/fatal"
	"audioboot-go/services/ready"
	"audioboot-go/types"
)

// Step names, in execution order.
const (
	StepIndicatorInit  = "indicator_init"
	StepInputInit      = "input_init"
	StepChannelResolve = "channel_resolve"
	StepFirmwareInfo   = "firmware_info"
	StepPlatform       = "platform_configure"
	StepBoardValidate  = "board_validate"
	StepBoardRead      = "board_read"
	StepPMICInit       = "pmic_init"
	StepPMICDefaults   = "pmic_defaults"
	StepSDCardInit     = "sd_card_init"
	StepPowerInit      = "power_init"
	StepUSBAudioInit   = "audio_usb_init"
	StepDatapathInit   = "audio_datapath_init"
	StepSyncTimerInit  = "sync_timer_init"
	StepI2SInit        = "i2s_init"
	StepCodecInit      = "codec_init"
	StepSyncEvent      = "sync_event"
	StepNetCoreInit    = "netcore_init"
	StepNetCoreWait    = "netcore_wait"
	StepIndicatorSet   = "indicator_set"
	StepStreamStart    = "stream_start"
	StepTonePlay       = "tone_play"
)

// step is one entry of the boot plan.
type step struct {
	name string
	// when gates the step on data known only at runtime; nil means always.
	when     func() bool
	run      func(ctx context.Context) error
	tolerate []errcode.Code
	msg      string
}

// Sequencer runs the bring-up plan once, then the steady-state loop.
type Sequencer struct {
	v    config.Variant
	d    Deps
	conn *bus.Connection
	log  zerolog.Logger
	now  func() time.Time

	bootID string
	flag   *ready.Flag
	chans  *channel.Resolver
	board  *boardrev.Resolver

	// resolved during the boot, read-only afterwards
	mask     boardrev.Mask
	rev      boardrev.Revision
	ch       channel.Channel
	assigned bool
}

// New checks the collaborator set against the variant. Zero durations in v
// take their defaults. conn may be nil.
func New(v config.Variant, d Deps, conn *bus.Connection, log zerolog.Logger) (*Sequencer, error) {
	config.Normalize(&v)
	if err := config.Validate(v); err != nil {
		return nil, errcode.Wrap(errcode.InvalidParams, "boot.variant", err)
	}
	if err := d.validate(v); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	log = log.With().Str("mod", "boot").Str("boot_id", id).Logger()
	return &Sequencer{
		v:      v,
		d:      d,
		conn:   conn,
		log:    log,
		now:    time.Now,
		bootID: id,
		flag:   ready.New(v.ReadyPoll()),
		chans:  channel.NewResolver(v.ChannelConfig(), d.Store, d.Inputs, log),
		board:  boardrev.NewResolver(d.BoardID, log),
	}, nil
}

func (s *Sequencer) BootID() string              { return s.bootID }
func (s *Sequencer) Mask() boardrev.Mask         { return s.mask }
func (s *Sequencer) Revision() boardrev.Revision { return s.rev }
func (s *Sequencer) Channel() channel.Channel    { return s.ch }

// Assigned reports whether the channel was settled (fixed, persisted or
// sampled) rather than defaulted.
func (s *Sequencer) Assigned() bool { return s.assigned }

// Plan lists the step names the variant will walk through, gated steps
// included.
func (s *Sequencer) Plan() []string {
	p := s.plan()
	out := make([]string, len(p))
	for i, st := range p {
		out[i] = st.name
	}
	return out
}

func (s *Sequencer) plan() []step {
	p := []step{
		{name: StepIndicatorInit, run: noCtx(s.d.Indicators.Init)},
		{name: StepInputInit, run: noCtx(s.d.Inputs.Init)},
		{name: StepChannelResolve, run: noCtx(s.resolveChannel)},
		{name: StepFirmwareInfo, run: noCtx(s.d.Info.PrintFirmwareInfo)},
		{name: StepPlatform, run: noCtx(s.d.Platform.Configure)},
		{name: StepBoardValidate, run: noCtx(s.board.Validate), msg: "board revision not supported"},
		{name: StepBoardRead, run: noCtx(s.readBoard)},
		{name: StepPMICInit, when: s.has(boardrev.CapPMIC), run: noCtx(s.pmicInit)},
		{name: StepPMICDefaults, when: s.has(boardrev.CapPMIC), run: noCtx(s.pmicDefaults)},
		{name: StepSDCardInit, when: s.has(boardrev.CapSDCard), run: noCtx(s.sdInit), tolerate: []errcode.Code{errcode.NotPresent}},
		{name: StepPowerInit, run: noCtx(s.d.Power.Init)},
	}

	if s.v.AudioSource == config.AudioUSB {
		p = append(p, step{name: StepUSBAudioInit, run: noCtx(s.d.USB.Init)})
	} else {
		p = append(p,
			step{name: StepDatapathInit, run: noCtx(s.d.Local.DatapathInit)},
			step{name: StepSyncTimerInit, run: noCtx(s.d.Local.SyncTimerInit)},
			step{name: StepI2SInit, run: noCtx(s.d.Local.I2SInit)},
			step{name: StepCodecInit, run: noCtx(s.d.Local.CodecInit)},
			step{name: StepSyncEvent, run: noCtx(s.d.Local.SyncEventSend)},
		)
	}

	return append(p,
		step{name: StepNetCoreInit, run: s.netcoreInit, msg: "network core init failed"},
		step{name: StepNetCoreWait, run: s.netcoreWait},
		step{name: StepIndicatorSet, run: noCtx(s.setIndicators)},
		step{name: StepStreamStart, run: noCtx(s.d.Stream.Start)},
		step{name: StepTonePlay, run: noCtx(s.playTone)},
	)
}

func noCtx(f func() error) func(context.Context) error {
	return func(context.Context) error { return f() }
}

func (s *Sequencer) has(flag boardrev.Mask) func() bool {
	return func() bool { return s.mask.Has(flag) }
}

// -----------------------------------------------------------------------------
// Running
// -----------------------------------------------------------------------------

// Run executes the boot plan and then the steady-state loop. It only returns
// on a step failure (a *fatal.Error the caller must halt on) or when ctx is
// cancelled by a host harness.
func (s *Sequencer) Run(ctx context.Context) error {
	if err := s.Boot(ctx); err != nil {
		return err
	}
	return s.Steady(ctx)
}

// Boot executes the plan up to and including the tone, strictly in order.
// Every result goes through the fatal policy before the next step starts.
func (s *Sequencer) Boot(ctx context.Context) error {
	s.publishState(types.BootStarting, "", "booting", nil)
	s.log.Info().Str("variant", s.v.Name).Stringer("role", s.v.Role).Str("audio", string(s.v.AudioSource)).Msg("boot start")

	for i, st := range s.plan() {
		id := fatal.Step{Index: i + 1, Name: st.name}

		if st.when != nil && !st.when() {
			s.log.Debug().Str("step", st.name).Msg("skipped, not populated")
			s.publishStep(id, types.StepSkipped, nil)
			continue
		}

		s.publishStep(id, types.StepBegin, nil)
		err := st.run(ctx)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return ctx.Err()
		}
		if err != nil && len(st.tolerate) > 0 && fatal.Tolerate(err, st.tolerate...) == nil {
			s.log.Warn().Str("step", st.name).Str("code", string(errcode.Of(err))).Msg("tolerated")
			err = nil
		}
		if st.msg != "" {
			err = fatal.CheckMsg(id, err, st.msg)
		} else {
			err = fatal.Check(id, err)
		}
		if err != nil {
			s.log.Error().Err(err).Str("step", st.name).Msg("step failed")
			s.publishStep(id, types.StepFailed, err)
			s.publishState(types.BootFailed, st.name, "step_failed", err)
			return err
		}
		s.publishStep(id, types.StepDone, nil)
	}
	return nil
}
