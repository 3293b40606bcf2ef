package channel

import (
	"github.com/rs/zerolog"

	"audioboot-go/errcode"
)

// Store persists the assigned channel in non-volatile storage.
type Store interface {
	// Get returns the persisted channel and whether one exists.
	Get() (Channel, bool, error)
	Set(Channel) error
}

// Inputs is the non-failing button query.
type Inputs interface {
	IsEngaged(c Control) bool
}

type Config struct {
	Role Role
	// Runtime enables boot-time assignment; only meaningful for headsets.
	Runtime bool
	Default Channel
}

type Resolver struct {
	cfg   Config
	store Store
	in    Inputs
	log   zerolog.Logger

	// cached after the first read or assignment in this boot
	have bool
	ch   Channel
}

func NewResolver(cfg Config, store Store, in Inputs, log zerolog.Logger) *Resolver {
	if !cfg.Default.Valid() {
		cfg.Default = DefaultChannel
	}
	return &Resolver{cfg: cfg, store: store, in: in, log: log.With().Str("mod", "channel").Logger()}
}

func (r *Resolver) assignable() bool {
	return r.cfg.Role == RoleHeadset && r.cfg.Runtime
}

// Resolve returns the channel and whether it is settled. On an assignable
// headset with nothing persisted it samples the controls once; if neither is
// held the channel stays unassigned and the default is returned.
func (r *Resolver) Resolve() (Channel, bool, error) {
	if !r.assignable() {
		return r.cfg.Default, true, nil
	}
	if r.have {
		return r.ch, true, nil
	}
	if r.store == nil || r.in == nil {
		return r.cfg.Default, false, errcode.New(errcode.InvalidParams, "channel.resolve", "store and inputs required")
	}

	ch, ok, err := r.store.Get()
	if err != nil {
		return r.cfg.Default, false, errcode.Wrap(errcode.IO, "channel.get", err)
	}
	if ok {
		if !ch.Valid() {
			return r.cfg.Default, false, errcode.New(errcode.InvalidParams, "channel.get", "persisted channel out of range")
		}
		r.have, r.ch = true, ch
		return ch, true, nil
	}

	switch {
	case r.in.IsEngaged(ControlVolumeDown):
		ch = Left
	case r.in.IsEngaged(ControlVolumeUp):
		ch = Right
	default:
		r.log.Debug().Msg("no channel control held, leaving unassigned")
		return r.cfg.Default, false, nil
	}

	if err := r.store.Set(ch); err != nil {
		return r.cfg.Default, false, errcode.Wrap(errcode.IO, "channel.set", err)
	}
	r.have, r.ch = true, ch
	r.log.Info().Stringer("channel", ch).Msg("channel assigned")
	return ch, true, nil
}

// Current is the channel the rest of the boot should act on: the settled
// value if any, otherwise the default. It never samples inputs.
func (r *Resolver) Current() (Channel, error) {
	if r.have {
		return r.ch, nil
	}
	if !r.assignable() || r.store == nil {
		return r.cfg.Default, nil
	}
	ch, ok, err := r.store.Get()
	if err != nil {
		return r.cfg.Default, errcode.Wrap(errcode.IO, "channel.get", err)
	}
	if !ok || !ch.Valid() {
		return r.cfg.Default, nil
	}
	r.have, r.ch = true, ch
	return ch, nil
}
