// Package boardrev identifies the board revision and the optional hardware
// populated on it.
package boardrev

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"audioboot-go/errcode"
)

// Mask is a set of independent "optional part X is populated" flags.
type Mask uint32

const (
	CapPMIC   Mask = 1 << iota // MAX14690 power-management IC
	CapSDCard                  // SD card slot on the shared SPI bus
)

func (m Mask) Has(flag Mask) bool { return m&flag != 0 }

func (m Mask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	if m.Has(CapPMIC) {
		parts = append(parts, "pmic")
	}
	if m.Has(CapSDCard) {
		parts = append(parts, "sd_card")
	}
	if rest := m &^ (CapPMIC | CapSDCard); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Revision is one supported board revision. The board id is a raw reading of
// the revision strap divider; each revision owns an inclusive range.
type Revision struct {
	Name string
	Lo   uint16
	Hi   uint16
	Mask Mask
}

// Revisions is the supported set, ordered by Lo.
var Revisions = []Revision{
	{Name: "0.7.0", Lo: 0, Hi: 61, Mask: CapSDCard},
	{Name: "0.8.0", Lo: 62, Hi: 183, Mask: CapPMIC},
	{Name: "0.9.0", Lo: 184, Hi: 306, Mask: CapPMIC | CapSDCard},
	{Name: "1.0.0", Lo: 307, Hi: 429, Mask: CapPMIC | CapSDCard},
}

// Lookup finds the revision owning a board id.
func Lookup(id uint16) (Revision, bool) {
	for _, r := range Revisions {
		if id >= r.Lo && id <= r.Hi {
			return r, true
		}
	}
	return Revision{}, false
}

// IDSource reads the raw board id (ADC on the strap divider).
type IDSource interface {
	ReadBoardID() (uint16, error)
}

// Resolver validates the board id once and then serves the mask.
type Resolver struct {
	src IDSource
	log zerolog.Logger

	mu    sync.Mutex
	valid bool
	id    uint16
	rev   Revision
}

func NewResolver(src IDSource, log zerolog.Logger) *Resolver {
	return &Resolver{src: src, log: log.With().Str("mod", "boardrev").Logger()}
}

// Validate reads the board id and checks it against the supported set.
// Once a revision has validated, later calls are no-ops.
func (r *Resolver) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.valid {
		return nil
	}
	if r.src == nil {
		return errcode.New(errcode.InvalidParams, "boardrev.validate", "no board id source")
	}
	id, err := r.src.ReadBoardID()
	if err != nil {
		return errcode.Wrap(errcode.IO, "boardrev.read_id", err)
	}
	rev, ok := Lookup(id)
	if !ok {
		r.log.Error().Uint16("board_id", id).Msg("unsupported board revision")
		return &errcode.E{C: errcode.UnknownRevision, Op: "boardrev.validate", Msg: fmt.Sprintf("board id %d", id)}
	}
	r.valid, r.id, r.rev = true, id, rev
	r.log.Info().Str("revision", rev.Name).Uint16("board_id", id).Stringer("mask", rev.Mask).Msg("board revision")
	return nil
}

// Read returns the capability mask and revision. Before a successful
// Validate it returns the zero mask and ok=false.
func (r *Resolver) Read() (Mask, Revision, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.valid {
		return 0, Revision{}, false
	}
	return r.rev.Mask, r.rev, true
}

// BoardID is the raw id that validated.
func (r *Resolver) BoardID() uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// ValidateAndRead validates then reads. No mask is produced on failure.
func (r *Resolver) ValidateAndRead() (Mask, Revision, error) {
	if err := r.Validate(); err != nil {
		return 0, Revision{}, err
	}
	m, rev, _ := r.Read()
	return m, rev, nil
}
