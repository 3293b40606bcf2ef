package channel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audioboot-go/errcode"
	"audioboot-go/internal/logging"
)

type memStore struct {
	ch   Channel
	ok   bool
	sets int
	err  error
}

func (m *memStore) Get() (Channel, bool, error) { return m.ch, m.ok, m.err }
func (m *memStore) Set(c Channel) error {
	if m.err != nil {
		return m.err
	}
	m.ch, m.ok = c, true
	m.sets++
	return nil
}

type fakeInputs struct {
	held    map[Control]bool
	samples int
}

func (f *fakeInputs) IsEngaged(c Control) bool {
	f.samples++
	return f.held[c]
}

func headset() Config { return Config{Role: RoleHeadset, Runtime: true, Default: Left} }

func TestResolve_AssignsLeftAndPersists(t *testing.T) {
	st := &memStore{}
	in := &fakeInputs{held: map[Control]bool{ControlVolumeDown: true}}

	r := NewResolver(headset(), st, in, logging.Nop())
	ch, ok, err := r.Resolve()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Left, ch)
	assert.Equal(t, 1, st.sets)

	// Next boot: fresh resolver, same storage, no held controls.
	in2 := &fakeInputs{}
	r2 := NewResolver(headset(), st, in2, logging.Nop())
	ch, ok, err = r2.Resolve()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Left, ch)
	assert.Zero(t, in2.samples, "persisted channel must not re-sample inputs")
	assert.Equal(t, 1, st.sets)
}

func TestResolve_RightWhenOnlySecondHeld(t *testing.T) {
	st := &memStore{}
	in := &fakeInputs{held: map[Control]bool{ControlVolumeUp: true}}

	ch, ok, err := NewResolver(headset(), st, in, logging.Nop()).Resolve()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Right, ch)
	assert.Equal(t, Right, st.ch)
}

func TestResolve_FirstControlWins(t *testing.T) {
	st := &memStore{}
	in := &fakeInputs{held: map[Control]bool{ControlVolumeDown: true, ControlVolumeUp: true}}

	ch, _, err := NewResolver(headset(), st, in, logging.Nop()).Resolve()
	require.NoError(t, err)
	assert.Equal(t, Left, ch)
}

func TestResolve_NothingHeldLeavesUnset(t *testing.T) {
	st := &memStore{}
	in := &fakeInputs{}

	r := NewResolver(headset(), st, in, logging.Nop())
	ch, ok, err := r.Resolve()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Left, ch)
	assert.False(t, st.ok)
	assert.Zero(t, st.sets)
	assert.Equal(t, 2, in.samples)
}

func TestResolve_IdempotentWithinBoot(t *testing.T) {
	st := &memStore{ch: Right, ok: true}
	in := &fakeInputs{held: map[Control]bool{ControlVolumeDown: true}}

	r := NewResolver(headset(), st, in, logging.Nop())
	a, _, err := r.Resolve()
	require.NoError(t, err)
	b, _, err := r.Resolve()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, Right, a)
	assert.Zero(t, in.samples)
}

func TestResolve_GatewayIsFixed(t *testing.T) {
	st := &memStore{}
	in := &fakeInputs{held: map[Control]bool{ControlVolumeUp: true}}

	r := NewResolver(Config{Role: RoleGateway, Runtime: true, Default: Left}, st, in, logging.Nop())
	ch, ok, err := r.Resolve()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Left, ch)
	assert.Zero(t, in.samples)
	assert.Zero(t, st.sets)
}

func TestResolve_HeadsetWithoutRuntimeUsesDefault(t *testing.T) {
	in := &fakeInputs{held: map[Control]bool{ControlVolumeDown: true}}
	r := NewResolver(Config{Role: RoleHeadset, Default: Right}, &memStore{}, in, logging.Nop())
	ch, ok, err := r.Resolve()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Right, ch)
	assert.Zero(t, in.samples)
}

func TestResolve_StoreErrors(t *testing.T) {
	st := &memStore{err: errors.New("flash")}
	_, _, err := NewResolver(headset(), st, &fakeInputs{}, logging.Nop()).Resolve()
	require.Error(t, err)
	assert.Equal(t, errcode.IO, errcode.Of(err))
}

func TestCurrent_DefaultsWhenUnassigned(t *testing.T) {
	r := NewResolver(Config{Role: RoleHeadset, Runtime: true, Default: Right}, &memStore{}, &fakeInputs{}, logging.Nop())
	ch, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, Right, ch)

	st := &memStore{ch: Left, ok: true}
	r = NewResolver(headset(), st, &fakeInputs{}, logging.Nop())
	ch, err = r.Current()
	require.NoError(t, err)
	assert.Equal(t, Left, ch)
}

func TestParse(t *testing.T) {
	r, err := ParseRole("Gateway")
	require.NoError(t, err)
	assert.Equal(t, RoleGateway, r)
	_, err = ParseRole("speaker")
	assert.Error(t, err)

	var c Channel
	require.NoError(t, c.UnmarshalText([]byte("right")))
	assert.Equal(t, Right, c)
	assert.Error(t, c.UnmarshalText([]byte("centre")))
}
