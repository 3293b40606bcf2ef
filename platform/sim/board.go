// Package sim is a host rendition of the audio board: every collaborator the
// boot sequence needs, backed by in-memory state. The PMIC is the real
// max14690 driver talking to a register model.
package sim

import (
	"errors"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"audioboot-go/drivers/max14690"
	"audioboot-go/errcode"
	"audioboot-go/services/boot"
	"audioboot-go/services/channel"
)

// Options shape the simulated hardware.
type Options struct {
	BoardID    uint16
	Held       []channel.Control
	ReadyAfter time.Duration // < 0: the network core never reports ready
	NetSilent  bool          // network core init never returns
	SDAbsent   bool
	PMICAbsent bool          // nothing answers at the PMIC address
	EventTick  time.Duration // steady-state event pacing
	Log        zerolog.Logger
}

// DefaultOptions describes a 1.0.0 board with both PMIC and SD populated.
func DefaultOptions() Options {
	return Options{
		BoardID:    350,
		ReadyAfter: 50 * time.Millisecond,
		EventTick:  10 * time.Millisecond,
		Log:        zerolog.Nop(),
	}
}

const stackBudget = 8 << 10

// Board holds the simulated state. Safe for concurrent use.
type Board struct {
	opts Options
	log  zerolog.Logger

	I2C  *RegisterI2C
	pmic *max14690.Device

	mu     sync.Mutex
	events []string
	leds   map[boot.LED]string
	held   map[channel.Control]bool
	tones  int
	ticks  int
}

func New(opts Options) *Board {
	if opts.EventTick <= 0 {
		opts.EventTick = 10 * time.Millisecond
	}
	b := &Board{
		opts: opts,
		log:  opts.Log.With().Str("mod", "sim").Logger(),
		I2C:  NewRegisterI2C(),
		leds: map[boot.LED]string{},
		held: map[channel.Control]bool{},
	}
	for _, c := range opts.Held {
		b.held[c] = true
	}
	if !opts.PMICAbsent {
		b.I2C.Attach(max14690.AddressDefault, map[byte]byte{0x00: 0x01, 0x01: 0x02})
	}
	b.pmic = max14690.New(b.I2C, max14690.DefaultConfig())
	return b
}

// Deps wires the board into a collaborator set. store may be nil for fixed
// channel variants.
func (b *Board) Deps(store channel.Store) boot.Deps {
	return boot.Deps{
		Indicators: leds{b},
		Inputs:     buttons{b},
		Info:       firmware{b},
		Platform:   platform{b},
		BoardID:    boardID{b},
		Store:      store,
		PMIC:       pmic{b},
		SD:         sdCard{b},
		Power:      power{b},
		USB:        usbAudio{b},
		Local:      localAudio{b},
		NetCore:    netCore{b},
		Stream:     stream{b},
		Tone:       tone{b},
		Stack:      stackProbe{b},
	}
}

func (b *Board) note(ev string) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
	b.log.Debug().Str("ev", ev).Msg("sim")
}

// Events lists hardware actions in the order they happened, steady-state
// ticks excluded.
func (b *Board) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

// LED returns the current pattern of an indicator ("" when untouched).
func (b *Board) LED(id boot.LED) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.leds[id]
}

func (b *Board) Tones() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tones
}

// Ticks counts steady-state stream events handled.
func (b *Board) Ticks() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticks
}

// PMIC exposes the driver for direct use outside the boot, such as power off
// on shutdown.
func (b *Board) PMIC() *max14690.Device { return b.pmic }

// ---- collaborators ----

type leds struct{ *Board }

func (l leds) Init() error {
	l.note("led.init")
	return nil
}

func (l leds) Blink(id boot.LED) error {
	l.mu.Lock()
	l.leds[id] = "blink"
	l.mu.Unlock()
	l.note("led.blink")
	return nil
}

func (l leds) Solid(id boot.LED, c boot.Color) error {
	l.mu.Lock()
	l.leds[id] = c.String()
	l.mu.Unlock()
	l.note("led.solid:" + c.String())
	return nil
}

type buttons struct{ *Board }

func (k buttons) Init() error {
	k.note("button.init")
	return nil
}

func (k buttons) IsEngaged(c channel.Control) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.held[c]
}

type firmware struct{ *Board }

func (f firmware) PrintFirmwareInfo() error {
	ev := f.log.Info().Str("go", runtime.Version())
	if bi, ok := debug.ReadBuildInfo(); ok {
		ev = ev.Str("module", bi.Main.Path).Str("version", bi.Main.Version)
	}
	ev.Msg("firmware")
	f.note("fw.print")
	return nil
}

type platform struct{ *Board }

func (p platform) Configure() error {
	p.note("platform.configure")
	return nil
}

type boardID struct{ *Board }

func (b boardID) ReadBoardID() (uint16, error) {
	b.note("board.read_id")
	return b.opts.BoardID, nil
}

// pmic adapts the max14690 driver. Bus failures surface as io.
type pmic struct{ *Board }

func (p pmic) Init() error {
	p.note("pmic.init")
	err := p.pmic.Configure()
	switch {
	case err == nil:
		if rev, rerr := p.pmic.ChipRevision(); rerr == nil {
			p.log.Info().Uint8("rev", rev).Msg("pmic")
		}
		return nil
	case errors.Is(err, max14690.ErrChipID):
		return errcode.Wrap(errcode.Unsupported, "pmic.init", err)
	case errcode.Of(err) == errcode.Error:
		return errcode.Wrap(errcode.IO, "pmic.init", err)
	}
	return err
}

func (p pmic) SetDefaults() error {
	p.note("pmic.defaults")
	return errcode.Wrap(errcode.IO, "pmic.defaults", p.pmic.SetDefaults())
}

type sdCard struct{ *Board }

func (s sdCard) Init() error {
	s.note("sd.init")
	if s.opts.SDAbsent {
		return errcode.New(errcode.NotPresent, "sd.init", "no card in slot")
	}
	return nil
}

type power struct{ *Board }

func (p power) Init() error {
	p.note("power.init")
	return nil
}

type usbAudio struct{ *Board }

func (u usbAudio) Init() error {
	u.note("usb.init")
	return nil
}

type localAudio struct{ *Board }

func (a localAudio) DatapathInit() error  { a.note("datapath.init"); return nil }
func (a localAudio) SyncTimerInit() error { a.note("sync_timer.init"); return nil }
func (a localAudio) I2SInit() error       { a.note("i2s.init"); return nil }
func (a localAudio) CodecInit() error     { a.note("codec.init"); return nil }
func (a localAudio) SyncEventSend() error { a.note("sync.event"); return nil }

// netCore fires onReady from its own goroutine, like the IPC interrupt on
// the device.
type netCore struct{ *Board }

func (n netCore) Init(onReady func()) error {
	if onReady == nil {
		return errcode.New(errcode.InvalidParams, "netcore.init", "nil ready callback")
	}
	n.note("netcore.init")
	if n.opts.NetSilent {
		select {}
	}
	if d := n.opts.ReadyAfter; d >= 0 {
		time.AfterFunc(d, func() {
			n.note("netcore.ready")
			onReady()
		})
	}
	return nil
}

type stream struct{ *Board }

func (s stream) Start() error {
	s.note("stream.start")
	return nil
}

func (s stream) HandleEvent() {
	time.Sleep(s.opts.EventTick)
	s.mu.Lock()
	s.ticks++
	s.mu.Unlock()
}

type tone struct{ *Board }

func (t tone) Play(freqHz, durationMs, repeat int) error {
	if freqHz <= 0 || durationMs <= 0 || repeat <= 0 {
		return errcode.New(errcode.InvalidParams, "tone.play", "bad tone parameters")
	}
	t.mu.Lock()
	t.tones++
	t.mu.Unlock()
	t.log.Info().Int("hz", freqHz).Int("ms", durationMs).Int("n", repeat).Msg("tone")
	t.note("tone.play")
	return nil
}

// stackProbe reports the headroom left in a fixed budget given the goroutine
// stack bytes in use.
type stackProbe struct{ *Board }

func (p stackProbe) UnusedStack() (uint32, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	inuse := ms.StackInuse / uint64(max(runtime.NumGoroutine(), 1))
	if inuse >= stackBudget {
		return 0, nil
	}
	return uint32(stackBudget - inuse), nil
}
