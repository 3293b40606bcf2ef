// services/boot/deps.go
package boot

import (
	"audioboot-go/errcode"
	"audioboot-go/services/boardrev"
	"audioboot-go/services/channel"
	"audioboot-go/services/config"
)

// -----------------------------------------------------------------------------
// Indicators
// -----------------------------------------------------------------------------

type LED uint8

const (
	LEDAppStatus LED = iota // single-colour "app core alive"
	LEDAppRGB               // role/channel indicator
)

type Color uint8

const (
	ColorOff Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorMagenta
	ColorWhite
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorMagenta:
		return "magenta"
	case ColorWhite:
		return "white"
	default:
		return "off"
	}
}

// -----------------------------------------------------------------------------
// Collaborators. Every call that can fail returns an error; errcode codes
// carry the meaning (errcode.NotPresent from the SD card is the only one the
// sequence tolerates).
// -----------------------------------------------------------------------------

type Indicators interface {
	Init() error
	Blink(id LED) error
	Solid(id LED, c Color) error
}

type Inputs interface {
	Init() error
	channel.Inputs
}

type FirmwareInfo interface {
	PrintFirmwareInfo() error
}

// Platform covers clock selection and the pin drive-strength fix for the SPI
// bus shared by the SD card and the codec.
type Platform interface {
	Configure() error
}

type PMIC interface {
	Init() error
	SetDefaults() error
}

type SDCard interface {
	Init() error
}

type PowerModule interface {
	Init() error
}

type USBAudio interface {
	Init() error
}

// LocalAudio is the I2S + external codec path. Calls are made in declaration
// order.
type LocalAudio interface {
	DatapathInit() error
	SyncTimerInit() error
	I2SInit() error
	CodecInit() error
	SyncEventSend() error
}

// NetCore brings up the network core. onReady is called exactly once, from
// the network core's own context, when it has finished booting.
type NetCore interface {
	Init(onReady func()) error
}

type StreamControl interface {
	Start() error
	// HandleEvent drives one iteration of the stream state machine. It must
	// not block indefinitely.
	HandleEvent()
}

type ToneGenerator interface {
	Play(freqHz, durationMs, repeat int) error
}

// StackProbe reports unused stack of the sequencing context.
type StackProbe interface {
	UnusedStack() (uint32, error)
}

// Deps is the full collaborator set. PMIC and SD are only needed when the
// board advertises them; USB or Local depending on the variant; Stack and
// Store are optional.
type Deps struct {
	Indicators Indicators
	Inputs     Inputs
	Info       FirmwareInfo
	Platform   Platform
	BoardID    boardrev.IDSource
	Store      channel.Store
	PMIC       PMIC
	SD         SDCard
	Power      PowerModule
	USB        USBAudio
	Local      LocalAudio
	NetCore    NetCore
	Stream     StreamControl
	Tone       ToneGenerator
	Stack      StackProbe
}

func (d Deps) validate(v config.Variant) error {
	missing := func(name string) error {
		return errcode.New(errcode.InvalidParams, "boot.deps", "missing "+name)
	}
	switch {
	case d.Indicators == nil:
		return missing("indicators")
	case d.Inputs == nil:
		return missing("inputs")
	case d.Info == nil:
		return missing("firmware info")
	case d.Platform == nil:
		return missing("platform")
	case d.BoardID == nil:
		return missing("board id")
	case d.Power == nil:
		return missing("power module")
	case d.NetCore == nil:
		return missing("network core")
	case d.Stream == nil:
		return missing("stream control")
	case d.Tone == nil:
		return missing("tone generator")
	}
	if v.AudioSource == config.AudioUSB && d.USB == nil {
		return missing("usb audio")
	}
	if v.AudioSource == config.AudioLocal && d.Local == nil {
		return missing("local audio")
	}
	if v.Role == channel.RoleHeadset && v.ChannelRuntime && d.Store == nil {
		return missing("settings store")
	}
	return nil
}
