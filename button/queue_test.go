package button

import (
	"errors"
	"testing"
	"time"

	"github.com/antongulenko/i2cbutton/sim"
	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) advance(ms int) {
	c.now = c.now.Add(time.Duration(ms) * time.Millisecond)
}

func newQueueTest(major, minor byte) (*sim.Bus, *sim.Button, *Button, *fakeClock) {
	clock := &fakeClock{now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	simBus := sim.NewBus()
	dev := simBus.Add(sim.NewButton(DefaultAddress).SetFirmware(major, minor))
	dev.Now = clock.Now
	b, err := Attach(simBus, DefaultAddress, DefaultDeviceID)
	if err != nil {
		panic(err)
	}
	simBus.ResetLog()
	return simBus, dev, b, clock
}

func TestPopEmpty(t *testing.T) {
	a := assert.New(t)
	simBus, _, b, _ := newQueueTest(1, 2)

	_, err := b.PopClickQueue()
	a.True(errors.Is(err, ErrQueueEmpty), "%v", err)
	_, err = b.PopPressQueue()
	a.True(errors.Is(err, ErrQueueEmpty), "%v", err)
	a.Empty(simBus.Writes())
	a.Len(simBus.Transactions(), 2)
}

func TestPop(t *testing.T) {
	a := assert.New(t)
	simBus, dev, b, clock := newQueueTest(1, 2)

	dev.Click()
	clock.advance(300)
	dev.Click()
	clock.advance(200)
	simBus.ResetLog()

	newest, err := b.LastClickMs()
	a.NoError(err)
	a.Equal(uint32(200), newest)
	oldest, err := b.FirstClickMs()
	a.NoError(err)
	a.Equal(uint32(500), oldest)
	simBus.ResetLog()

	age, err := b.PopClickQueue()
	a.NoError(err)
	a.Equal(uint32(500), age)
	_, clicks := dev.QueueLen()
	a.Equal(1, clicks)

	log := simBus.Transactions()
	a.Len(log, 3)
	a.Equal([]byte{ClickQueueStatus.Addr}, log[0].Write)
	a.Len(log[0].Read, 1)
	a.Equal([]byte{FirstClickMs.Addr}, log[1].Write)
	a.Len(log[1].Read, 4)
	a.Equal([]byte{ClickQueueStatus.Addr, QUEUE_BIT_POP}, log[2].Write)
	a.True(log[2].IsWrite())

	age, err = b.PopClickQueue()
	a.NoError(err)
	a.Equal(uint32(200), age)
	_, err = b.PopClickQueue()
	a.True(errors.Is(err, ErrQueueEmpty))

	st, err := b.ClickQueueStatus()
	a.NoError(err)
	a.Equal(QueueStatus{Empty: true}, st)

	// Presses are queued separately
	presses, _ := dev.QueueLen()
	a.Equal(2, presses)
	age, err = b.PopPressQueue()
	a.NoError(err)
	a.Equal(uint32(500), age)
}

func TestPopFullQueue(t *testing.T) {
	a := assert.New(t)
	simBus, dev, b, clock := newQueueTest(1, 2)

	for i := 0; i < sim.QueueCapacity+2; i++ {
		dev.Click()
		clock.advance(10)
	}
	st, err := b.PressQueueStatus()
	a.NoError(err)
	a.Equal(QueueStatus{Full: true}, st)
	simBus.ResetLog()

	// The two oldest entries were dropped
	age, err := b.PopPressQueue()
	a.NoError(err)
	a.Equal(uint32(sim.QueueCapacity*10), age)

	writes := simBus.Writes()
	a.Len(writes, 1)
	a.Equal([]byte{PressQueueStatus.Addr, QUEUE_BIT_POP | QUEUE_BIT_FULL}, writes[0].Write)

	st, err = b.PressQueueStatus()
	a.NoError(err)
	a.Equal(QueueStatus{}, st)
}

func TestPopIgnoredByOldFirmware(t *testing.T) {
	a := assert.New(t)
	_, dev, b, _ := newQueueTest(1, 1)

	supported, err := b.PopSupported()
	a.NoError(err)
	a.False(supported)

	dev.Click()
	_, err = b.PopClickQueue()
	a.NoError(err)
	_, clicks := dev.QueueLen()
	a.Equal(1, clicks)

	dev.SetFirmware(1, 2)
	supported, err = b.PopSupported()
	a.NoError(err)
	a.True(supported)
}

func TestPopDetached(t *testing.T) {
	a := assert.New(t)
	simBus, _, b, _ := newQueueTest(1, 2)
	a.NoError(b.SetAddress(0x60))
	simBus.ResetLog()

	_, err := b.PopClickQueue()
	a.Equal(ErrDetached, err)
	a.Empty(simBus.Transactions())
}
