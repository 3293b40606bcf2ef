// bus/bus_test.go
package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(T("boot", "state"))

	conn.Publish(conn.NewMessage(T("boot", "state"), "starting", false))
	expectOneOf(t, sub, "starting")
	assert.Equal(t, "boot/state", sub.Topic().String())
}

func TestRetainedReplayOnSubscribe(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")
	conn.Publish(conn.NewMessage(T("boot", "board"), "1.0.0", true))

	late := conn.Subscribe(T("boot", "board"))
	expectOneOf(t, late, "1.0.0")
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("boot", "state"))
	sub.Unsubscribe()

	_, ok := <-sub.Channel()
	require.False(t, ok)
	// late publish must not hit the closed channel
	conn.Publish(b.NewMessage(T("boot", "state"), "late", false))
	conn.Unsubscribe(sub)
}

func TestDisconnectClosesAll(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("monitor")
	s1 := conn.Subscribe(T("boot", "state"))
	s2 := conn.Subscribe(T("boot", "step", "+"))
	conn.Disconnect()

	for _, s := range []*Subscription{s1, s2} {
		_, ok := <-s.Channel()
		assert.False(t, ok)
	}
	b.NewConnection("other").Publish(b.NewMessage(T("boot", "step", "pmic_init"), "x", false))
}

func TestQueueFullDropsOldest(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")
	sub := conn.Subscribe(T("boot", "step", "+"))

	for _, p := range []string{"m1", "m2", "m3"} {
		conn.Publish(b.NewMessage(T("boot", "step", "tone_play"), p, false))
	}
	assert.Equal(t, []string{"m2", "m3"}, drainPayloads(t, sub, 2))
}

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, topic Topic
		want           bool
	}{
		{T("boot", "state"), T("boot", "state"), true},
		{T("boot", "+"), T("boot", "state"), true},
		{T("boot", "+"), T("boot"), false},
		{T("boot", "#"), T("boot"), true},
		{T("#"), T("boot", "step", "i2s_init"), true},
		{T("boot", "state"), T("boot", "state", "x"), false},
		{T("boot", "step", "+"), T("diag", "step", "x"), false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Match(c.pattern, c.topic), "Match(%v, %v)", c.pattern, c.topic)
	}
}

// ---- Wildcards ----

func TestWildcard_SingleLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	anyStep := c.Subscribe(T("boot", "step", "+"))
	anyTwo := c.Subscribe(T("boot", "+", "+"))
	pmic := c.Subscribe(T("boot", "step", "pmic_init"))
	sd := c.Subscribe(T("boot", "+", "sd_card_init"))

	c.Publish(b.NewMessage(T("boot", "step", "pmic_init"), "m1", false))
	expectOneOf(t, anyStep, "m1")
	expectOneOf(t, anyTwo, "m1")
	expectOneOf(t, pmic, "m1")
	expectNoMessage(t, sd)

	c.Publish(b.NewMessage(T("boot", "x", "y"), "m2", false))
	expectOneOf(t, anyTwo, "m2")
	expectNoMessage(t, anyStep)
	expectNoMessage(t, pmic)

	c.Publish(b.NewMessage(T("boot", "state"), "m3", false))
	expectNoMessage(t, anyStep)
	expectNoMessage(t, anyTwo)
	expectNoMessage(t, sd)
}

func TestWildcard_MultiLevel(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	bootAll := c.Subscribe(T("boot", "#"))
	all := c.Subscribe(T("#"))
	steps := c.Subscribe(T("boot", "step", "#"))
	exact := c.Subscribe(T("boot"))

	c.Publish(b.NewMessage(T("boot"), "p1", false))
	expectOneOf(t, bootAll, "p1")
	expectOneOf(t, all, "p1")
	expectOneOf(t, exact, "p1")
	expectNoMessage(t, steps)

	c.Publish(b.NewMessage(T("boot", "step", "codec_init"), "p2", false))
	expectOneOf(t, bootAll, "p2")
	expectOneOf(t, all, "p2")
	expectOneOf(t, steps, "p2")
	expectNoMessage(t, exact)

	c.Publish(b.NewMessage(T("diag", "stack"), "p3", false))
	expectOneOf(t, all, "p3")
	expectNoMessage(t, bootAll)
}

func TestWildcard_RetainedDelivery(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("boot"), "r0", true))
	c.Publish(b.NewMessage(T("boot", "state"), "r1", true))
	c.Publish(b.NewMessage(T("boot", "state", "detail"), "r2", true))
	c.Publish(b.NewMessage(T("boot", "role"), "r3", true))

	assert.ElementsMatch(t, []string{"r0", "r1", "r2", "r3"}, drainPayloads(t, c.Subscribe(T("boot", "#")), 4))
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, drainPayloads(t, c.Subscribe(T("boot", "+", "#")), 3))
	assert.ElementsMatch(t, []string{"r1", "r3"}, drainPayloads(t, c.Subscribe(T("boot", "+")), 2))
}

func TestWildcard_RetainedClear(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("boot", "board"), "keep", true))
	c.Publish(b.NewMessage(T("boot", "role"), "other", true))
	c.Publish(b.NewMessage(T("boot", "board"), nil, true))

	assert.Equal(t, []string{"other"}, drainPayloads(t, c.Subscribe(T("boot", "#")), 1))
}

// ---- helpers ----

func expectOneOf(t *testing.T, sub *Subscription, want string) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		require.Equal(t, want, got.Payload)
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case got := <-sub.Channel():
		t.Fatalf("unexpected message: %#v", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, sub *Subscription, n int) []string {
	t.Helper()
	var out []string
	deadline := time.After(300 * time.Millisecond)
	for len(out) < n {
		select {
		case m := <-sub.Channel():
			s, ok := m.Payload.(string)
			require.True(t, ok, "non-string payload %#v", m.Payload)
			out = append(out, s)
		case <-deadline:
			t.Fatalf("expected %d messages, got %d (%v)", n, len(out), out)
		}
	}
	return out
}
