package panel

import (
	"testing"
	"time"

	"github.com/antongulenko/i2cbutton/bus"
	"github.com/antongulenko/i2cbutton/button"
	"github.com/antongulenko/i2cbutton/sim"
	"github.com/stretchr/testify/assert"
)

func newMonitorTest(a *assert.Assertions, major, minor byte) (*sim.Bus, *sim.Button, *Monitor) {
	simBus := sim.NewBus()
	dev := simBus.Add(sim.NewButton(button.DefaultAddress).SetFirmware(major, minor))
	b, err := button.Attach(simBus, button.DefaultAddress, button.DefaultDeviceID)
	a.NoError(err)
	return simBus, dev, &Monitor{
		Buttons:  []*button.Button{b},
		Interval: time.Millisecond,
	}
}

func TestMonitorQueues(t *testing.T) {
	a := assert.New(t)
	_, dev, m := newMonitorTest(a, 1, 2)
	b := m.Buttons[0]

	events, err := m.Poll(b)
	a.NoError(err)
	a.Empty(events)

	dev.Click()
	dev.Click()
	dev.Press()
	events, err = m.Poll(b)
	a.NoError(err)
	a.Len(events, 5)
	kinds := make(map[string]int)
	for _, event := range events {
		a.Equal(b, event.Button)
		a.True(event.Queued)
		kinds[event.Kind]++
	}
	a.Equal(map[string]int{EventPress: 3, EventClick: 2}, kinds)

	presses, clicks := dev.QueueLen()
	a.Equal(0, presses)
	a.Equal(0, clicks)
	st, err := b.Status()
	a.NoError(err)
	a.Equal(button.ButtonStatus{Pressed: true}, st)

	events, err = m.Poll(b)
	a.NoError(err)
	a.Empty(events)
}

func TestMonitorStatusOnly(t *testing.T) {
	a := assert.New(t)
	simBus, dev, m := newMonitorTest(a, 1, 1)
	b := m.Buttons[0]

	dev.Click()
	dev.Click()
	events, err := m.Poll(b)
	a.NoError(err)
	a.Equal([]Event{{Button: b, Kind: EventClick}}, events)
	a.Equal("button: click", events[0].String())

	// Only the status register was cleared, no pop requests
	writes := simBus.Writes()
	a.Len(writes, 1)
	a.Equal([]byte{button.ButtonStatusReg.Addr, 0}, writes[0].Write)

	dev.Press()
	events, err = m.Poll(b)
	a.NoError(err)
	a.Empty(events, "press without release is not a click")
}

// writeHookBus calls the hook before forwarding each write to the simulated bus
type writeHookBus struct {
	*sim.Bus
	hook func(data []byte)
}

func (b *writeHookBus) I2cWrite(addr byte, data ...byte) error {
	if b.hook != nil {
		b.hook(data)
	}
	return b.Bus.I2cWrite(addr, data...)
}

func newHookedMonitorTest(a *assert.Assertions) (*writeHookBus, *sim.Button, *Monitor) {
	simBus := &writeHookBus{Bus: sim.NewBus()}
	dev := simBus.Add(sim.NewButton(button.DefaultAddress).SetFirmware(1, 2))
	b, err := button.Attach(simBus, button.DefaultAddress, button.DefaultDeviceID)
	a.NoError(err)
	return simBus, dev, &Monitor{Buttons: []*button.Button{b}}
}

func TestMonitorEventDuringClear(t *testing.T) {
	a := assert.New(t)
	simBus, dev, m := newHookedMonitorTest(a)
	b := m.Buttons[0]

	dev.Click()
	injected := false
	simBus.hook = func(data []byte) {
		if !injected && len(data) == 2 && data[0] == button.ButtonStatusReg.Addr && data[1] == 0 {
			injected = true
			dev.Click()
		}
	}

	var events []Event
	for i := 0; i < 3; i++ {
		polled, err := m.Poll(b)
		a.NoError(err)
		events = append(events, polled...)
	}
	a.True(injected)
	a.Len(events, 4)
	presses, clicks := dev.QueueLen()
	a.Equal(0, presses)
	a.Equal(0, clicks)
}

func TestMonitorDrainLimit(t *testing.T) {
	a := assert.New(t)
	simBus, dev, m := newHookedMonitorTest(a)
	b := m.Buttons[0]

	// Every press pop is answered with a new click, until the drain limit is hit
	dev.Click()
	injected := 0
	simBus.hook = func(data []byte) {
		if injected < QueueDrainLimit && len(data) == 2 && data[0] == button.PressQueueStatus.Addr && data[1]&button.QUEUE_BIT_POP != 0 {
			injected++
			dev.Click()
		}
	}

	events, err := m.Poll(b)
	a.NoError(err)
	a.Equal(QueueDrainLimit, injected)
	a.Len(events, QueueDrainLimit+sim.QueueCapacity)
	presses, _ := dev.QueueLen()
	a.Equal(1, presses)

	// The remaining press is reported, although the status was cleared in between
	a.NoError(b.Clear())
	events, err = m.Poll(b)
	a.NoError(err)
	a.Len(events, 1)
	a.Equal(EventPress, events[0].Kind)

	events, err = m.Poll(b)
	a.NoError(err)
	a.Empty(events)
}

func TestEventString(t *testing.T) {
	a := assert.New(t)
	_, _, m := newMonitorTest(a, 1, 2)
	b := m.Buttons[0]
	a.Equal("button: click", Event{Button: b, Kind: EventClick}.String())
	a.Equal("button: press 0ms ago", Event{Button: b, Kind: EventPress, Queued: true}.String())
	a.Equal("button: click 25ms ago", Event{Button: b, Kind: EventClick, Queued: true, AgeMs: 25}.String())
}

func TestMonitorError(t *testing.T) {
	a := assert.New(t)
	simBus, _, m := newMonitorTest(a, 1, 2)
	simBus.Fault = bus.ErrBusBusy
	_, err := m.Poll(m.Buttons[0])
	a.Equal(bus.ErrBusBusy, err)
}

func TestMonitorRun(t *testing.T) {
	a := assert.New(t)
	_, dev, m := newMonitorTest(a, 1, 2)

	received := make(chan Event, 10)
	m.Handler = func(e Event) {
		received <- e
	}
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(stop)
	}()

	dev.Click()
	var kinds []string
	for len(kinds) < 2 {
		select {
		case e := <-received:
			kinds = append(kinds, e.Kind)
		case <-time.After(5 * time.Second):
			a.FailNow("no events received")
		}
	}
	close(stop)
	<-done
	a.ElementsMatch([]string{EventPress, EventClick}, kinds)
}
