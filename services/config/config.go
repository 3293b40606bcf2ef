// Package config holds the build variant the boot sequence branches on.
//
// On the original firmware role and audio source were compile-time switches.
// Here they are one value resolved at startup, so every variant can be built
// and tested in the same binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"audioboot-go/services/channel"
)

// EmbeddedProfileLookup allows overriding how profiles are resolved.
var EmbeddedProfileLookup = func(name string) ([]byte, bool) {
	b, ok := embeddedProfiles[name]
	return b, ok
}

// ---- AUDIO SOURCE ----

type AudioSource string

const (
	AudioLocal AudioSource = "local" // I2S + external codec
	AudioUSB   AudioSource = "usb"
)

// ---- VARIANT ----

type Variant struct {
	Name           string          `yaml:"name"`
	Role           channel.Role    `yaml:"role"`
	AudioSource    AudioSource     `yaml:"audio_source"`
	ChannelRuntime bool            `yaml:"channel_runtime"`
	DefaultChannel channel.Channel `yaml:"default_channel"`
	Debug          bool            `yaml:"debug"`

	ReadyPollMs      int `yaml:"ready_poll_ms"`
	NetcoreTimeoutMs int `yaml:"netcore_timeout_ms"`
	StackReportMs    int `yaml:"stack_report_ms"`

	Tone Tone `yaml:"tone"`
}

type Tone struct {
	FreqHz     int `yaml:"freq_hz"`
	DurationMs int `yaml:"duration_ms"`
	Repeat     int `yaml:"repeat"`
}

const (
	defaultReadyPollMs      = 100
	defaultNetcoreTimeoutMs = 500
	defaultStackReportMs    = 5000
	defaultToneHz           = 1000
	defaultToneMs           = 400
	defaultToneRepeat       = 1
)

func (v Variant) ReadyPoll() time.Duration {
	return time.Duration(v.ReadyPollMs) * time.Millisecond
}

func (v Variant) NetcoreTimeout() time.Duration {
	return time.Duration(v.NetcoreTimeoutMs) * time.Millisecond
}

func (v Variant) StackReportInterval() time.Duration {
	return time.Duration(v.StackReportMs) * time.Millisecond
}

func (v Variant) ChannelConfig() channel.Config {
	return channel.Config{Role: v.Role, Runtime: v.ChannelRuntime, Default: v.DefaultChannel}
}

// ---- LOADING ----

// Profile returns a validated embedded variant.
func Profile(name string) (Variant, error) {
	raw, ok := EmbeddedProfileLookup(name)
	if !ok || len(raw) == 0 {
		return Variant{}, fmt.Errorf("no embedded profile %q (have %s)", name, strings.Join(ProfileNames(), ", "))
	}
	return Parse(raw)
}

// ProfileNames lists the embedded variants.
func ProfileNames() []string {
	out := make([]string, 0, len(embeddedProfiles))
	for k := range embeddedProfiles {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Load reads a variant from a YAML file.
func Load(path string) (Variant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Variant{}, err
	}
	return Parse(raw)
}

// Parse decodes, fills defaults and validates.
func Parse(raw []byte) (Variant, error) {
	var v Variant
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Variant{}, fmt.Errorf("decode variant: %w", err)
	}
	Normalize(&v)
	if err := Validate(v); err != nil {
		return Variant{}, err
	}
	return v, nil
}

// Normalize fills zero values with defaults.
func Normalize(v *Variant) {
	if v == nil {
		return
	}
	if v.AudioSource == "" {
		v.AudioSource = AudioLocal
	}
	if v.ReadyPollMs == 0 {
		v.ReadyPollMs = defaultReadyPollMs
	}
	if v.NetcoreTimeoutMs == 0 {
		v.NetcoreTimeoutMs = defaultNetcoreTimeoutMs
	}
	if v.StackReportMs == 0 {
		v.StackReportMs = defaultStackReportMs
	}
	if v.Tone == (Tone{}) {
		v.Tone = Tone{FreqHz: defaultToneHz, DurationMs: defaultToneMs, Repeat: defaultToneRepeat}
	}
	if v.Role != channel.RoleHeadset {
		v.ChannelRuntime = false
	}
}

var (
	ErrRole        = errors.New("role must be headset or gateway")
	ErrAudioSource = errors.New("audio_source must be local or usb")
	ErrUSBHeadset  = errors.New("usb audio source is only available on the gateway")
	ErrIntervals   = errors.New("ready_poll_ms, netcore_timeout_ms and stack_report_ms must be positive")
)

// Validate checks a normalized variant.
func Validate(v Variant) error {
	var errs []error
	if v.Role != channel.RoleHeadset && v.Role != channel.RoleGateway {
		errs = append(errs, ErrRole)
	}
	switch v.AudioSource {
	case AudioLocal:
	case AudioUSB:
		if v.Role != channel.RoleGateway {
			errs = append(errs, ErrUSBHeadset)
		}
	default:
		errs = append(errs, ErrAudioSource)
	}
	if !v.DefaultChannel.Valid() {
		errs = append(errs, errors.New("default_channel out of range"))
	}
	if v.ReadyPollMs <= 0 || v.NetcoreTimeoutMs <= 0 || v.StackReportMs <= 0 {
		errs = append(errs, ErrIntervals)
	}
	if v.Tone.FreqHz <= 0 || v.Tone.DurationMs <= 0 || v.Tone.Repeat <= 0 {
		errs = append(errs, fmt.Errorf("tone %+v: frequency, duration and repeat must be positive", v.Tone))
	}
	return errors.Join(errs...)
}
