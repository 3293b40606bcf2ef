package boot

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"audioboot-go/services/channel"
	"audioboot-go/services/config"
	"audioboot-go/services/settings"
)

// rig records every collaborator call in order and fails the ones named in
// fail.
type rig struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error

	boardID uint16
	held    map[channel.Control]bool
	store   *settings.MemStore

	readyAfter time.Duration // < 0: never
	netHang    chan struct{} // non-nil: netcore.init blocks until closed
	probes     []time.Time
}

func newRig() *rig {
	return &rig{
		fail:    map[string]error{},
		boardID: 350, // 1.0.0: PMIC + SD
		held:    map[channel.Control]bool{},
		store:   &settings.MemStore{},
	}
}

func (r *rig) call(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
	return r.fail[name]
}

func (r *rig) record(name string) {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
}

// Calls returns the call log without the repeating steady-state entries.
func (r *rig) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		if c == "stream.event" || c == "stack.probe" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (r *rig) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (r *rig) has(prefix string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

// ---- collaborator views ----

type leds struct{ *rig }

func (l leds) Init() error        { return l.call("led.init") }
func (l leds) Blink(id LED) error { return l.call("led.blink") }
func (l leds) Solid(id LED, c Color) error {
	return l.call("led.solid:" + c.String())
}

type inputs struct{ *rig }

func (i inputs) Init() error { return i.call("button.init") }
func (i inputs) IsEngaged(c channel.Control) bool {
	i.record("button.sample:" + c.String())
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.held[c]
}

type named struct {
	*rig
	name string
}

func (n named) Init() error              { return n.call(n.name + ".init") }
func (n named) PrintFirmwareInfo() error { return n.call("fw.print") }
func (n named) Configure() error         { return n.call("platform.configure") }

type boardID struct{ *rig }

func (b boardID) ReadBoardID() (uint16, error) {
	if err := b.call("board.read_id"); err != nil {
		return 0, err
	}
	return b.boardID, nil
}

type pmic struct{ *rig }

func (p pmic) Init() error        { return p.call("pmic.init") }
func (p pmic) SetDefaults() error { return p.call("pmic.defaults") }

type local struct{ *rig }

func (l local) DatapathInit() error  { return l.call("datapath.init") }
func (l local) SyncTimerInit() error { return l.call("sync_timer.init") }
func (l local) I2SInit() error       { return l.call("i2s.init") }
func (l local) CodecInit() error     { return l.call("codec.init") }
func (l local) SyncEventSend() error { return l.call("sync.event") }

type netcore struct{ *rig }

func (n netcore) Init(onReady func()) error {
	if err := n.call("netcore.init"); err != nil {
		return err
	}
	if n.netHang != nil {
		<-n.netHang
		return nil
	}
	if n.readyAfter >= 0 {
		d := n.readyAfter
		go func() {
			time.Sleep(d)
			onReady()
		}()
	}
	return nil
}

type stream struct{ *rig }

func (s stream) Start() error { return s.call("stream.start") }
func (s stream) HandleEvent() {
	s.record("stream.event")
	time.Sleep(100 * time.Microsecond)
}

type tone struct{ *rig }

func (t tone) Play(f, d, n int) error { return t.call(fmt.Sprintf("tone.play:%d/%d/%d", f, d, n)) }

type stack struct{ *rig }

func (s stack) UnusedStack() (uint32, error) {
	s.record("stack.probe")
	s.mu.Lock()
	s.probes = append(s.probes, time.Now())
	s.mu.Unlock()
	return 1024, nil
}

func (r *rig) probeTimes() []time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.probes...)
}

// brokenStore fails every read and write.
type brokenStore struct{ err error }

func (b brokenStore) Get() (channel.Channel, bool, error) { return channel.Left, false, b.err }
func (b brokenStore) Set(channel.Channel) error           { return b.err }

func (r *rig) deps() Deps {
	return Deps{
		Indicators: leds{r},
		Inputs:     inputs{r},
		Info:       named{r, "fw"},
		Platform:   named{r, "platform"},
		BoardID:    boardID{r},
		Store:      r.store,
		PMIC:       pmic{r},
		SD:         named{r, "sd"},
		Power:      named{r, "power"},
		USB:        named{r, "usb"},
		Local:      local{r},
		NetCore:    netcore{r},
		Stream:     stream{r},
		Tone:       tone{r},
		Stack:      stack{r},
	}
}

func variant(t *testing.T, yaml string) config.Variant {
	t.Helper()
	v, err := config.Parse([]byte(yaml + "\nready_poll_ms: 1\nnetcore_timeout_ms: 200\n"))
	require.NoError(t, err)
	return v
}

const (
	headsetYAML    = "name: headset\nrole: headset\naudio_source: local\nchannel_runtime: true\ndefault_channel: left\ndebug: true"
	gatewayYAML    = "name: gateway\nrole: gateway\naudio_source: local"
	gatewayUSBYAML = "name: gateway-usb\nrole: gateway\naudio_source: usb"
)
