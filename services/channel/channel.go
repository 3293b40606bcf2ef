// Package channel resolves which audio channel this unit plays.
//
// Headsets may have their channel assigned at runtime: on a boot with no
// persisted value the two volume controls are sampled once, and a held
// control fixes the channel for the life of the device. Gateways use a
// build-time default that is never persisted.
package channel

import (
	"fmt"
	"strings"
)

// ---------------- Role ----------------

type Role uint8

const (
	RoleUnknown Role = iota
	RoleHeadset
	RoleGateway
)

func (r Role) String() string {
	switch r {
	case RoleHeadset:
		return "headset"
	case RoleGateway:
		return "gateway"
	default:
		return "unknown"
	}
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "headset":
		return RoleHeadset, nil
	case "gateway":
		return RoleGateway, nil
	default:
		return RoleUnknown, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ---------------- Channel ----------------

type Channel uint8

const (
	Left Channel = iota
	Right
)

// DefaultChannel is used when nothing has been assigned.
const DefaultChannel = Left

func (c Channel) String() string {
	if c == Right {
		return "right"
	}
	return "left"
}

func (c Channel) Valid() bool { return c == Left || c == Right }

func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	default:
		return Left, fmt.Errorf("unknown channel %q", s)
	}
}

func (c Channel) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Channel) UnmarshalText(b []byte) error {
	v, err := ParseChannel(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ---------------- Controls ----------------

// Control names a user input sampled during assignment.
type Control uint8

const (
	ControlVolumeDown Control = iota // held at boot: left
	ControlVolumeUp                  // held at boot: right
)

func (c Control) String() string {
	if c == ControlVolumeUp {
		return "volume_up"
	}
	return "volume_down"
}
