package button

import (
	"errors"
	"testing"

	"github.com/antongulenko/i2cbutton/bus"
	"github.com/antongulenko/i2cbutton/sim"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type registerSuite struct {
	t *testing.T
	*require.Assertions

	bus    *sim.Bus
	dev    *sim.Button
	button *Button
}

func (s *registerSuite) T() *testing.T {
	return s.t
}

func (s *registerSuite) SetT(t *testing.T) {
	s.t = t
	s.Assertions = require.New(t)
}

func (s *registerSuite) SetupTest() {
	s.bus = sim.NewBus()
	s.dev = s.bus.Add(sim.NewButton(DefaultAddress))
	b, err := Attach(s.bus, DefaultAddress, DefaultDeviceID)
	s.NoError(err)
	s.button = b
	s.bus.ResetLog()
}

func TestRegisters(t *testing.T) {
	suite.Run(t, new(registerSuite))
}

func (s *registerSuite) TestTable() {
	var used [RegisterFileSize]string
	for i, reg := range Registers {
		s.Contains([]int{1, 2, 4}, reg.Width, reg.Name)
		s.True(int(reg.Addr)+reg.Width <= RegisterFileSize, reg.Name)
		if i > 0 {
			s.True(Registers[i-1].Addr < reg.Addr, "table not ordered at %v", reg.Name)
		}
		for addr := int(reg.Addr); addr < int(reg.Addr)+reg.Width; addr++ {
			s.Empty(used[addr], "%v overlaps %v", reg.Name, used[addr])
			used[addr] = reg.Name
		}
		found, ok := RegisterByName(reg.Name)
		s.True(ok)
		s.Equal(reg, found)
	}
	_, ok := RegisterByName("nonexistent")
	s.False(ok)
}

func (s *registerSuite) TestRoundTrip() {
	writable := []Register{InterruptConfig, DebounceMs, LedBrightness, LedGranularity, LedCycleMs, LedOffMs}
	for _, reg := range writable {
		for _, val := range []uint32{0, 1, reg.MaxValue() / 3, reg.MaxValue()} {
			s.NoError(s.button.Set(reg, val), reg.Name)
			read, err := s.button.Get(reg)
			s.NoError(err, reg.Name)
			s.Equal(val, read, reg.Name)
		}
	}
}

func (s *registerSuite) TestLittleEndianWire() {
	s.NoError(s.button.Set(DebounceMs, 0x1234))
	s.NoError(s.button.Set(LedOffMs, 0xBEEF))
	val, err := s.button.Get(FirstClickMs)
	s.NoError(err)
	s.Equal(uint32(0), val)

	log := s.bus.Transactions()
	s.Len(log, 3)
	s.Equal([]byte{0x05, 0x34, 0x12}, log[0].Write)
	s.Equal([]byte{0x1D, 0xEF, 0xBE}, log[1].Write)
	s.Equal([]byte{0x15}, log[2].Write)
	s.Len(log[2].Read, 4)
	s.Equal(byte(0x34), s.dev.Register(0x05))
	s.Equal(byte(0x12), s.dev.Register(0x06))
}

func (s *registerSuite) TestNoCaching() {
	for i := 0; i < 3; i++ {
		_, err := s.button.Get(LedBrightness)
		s.NoError(err)
	}
	s.Len(s.bus.Transactions(), 3)
}

func (s *registerSuite) TestReadOnly() {
	for _, reg := range Registers {
		if !reg.ReadOnly {
			continue
		}
		err := s.button.Set(reg, 1)
		s.True(errors.Is(err, ErrReadOnly), "%v: %v", reg.Name, err)
	}
	s.Empty(s.bus.Transactions())
	s.Equal(sim.DefaultID, s.dev.Register(DeviceID.Addr))
}

func (s *registerSuite) TestOverflow() {
	s.True(errors.Is(s.button.Set(LedBrightness, 0x100), ErrValueOverflow))
	s.True(errors.Is(s.button.Set(DebounceMs, 0x10000), ErrValueOverflow))
	s.True(errors.Is(s.button.Set(I2cAddress, 0x160), ErrValueOverflow))
	s.Empty(s.bus.Transactions())
	s.False(s.button.Detached())
}

func (s *registerSuite) TestTransportFaultPassesThrough() {
	s.bus.Fault = bus.ErrBusBusy
	_, err := s.button.Get(DebounceMs)
	s.Equal(bus.ErrBusBusy, err)
	s.Equal(bus.ErrBusBusy, s.button.Set(DebounceMs, 20))
	s.Len(s.bus.Transactions(), 2, "failed transactions must not be retried")
}

func (s *registerSuite) TestNamedAccessors() {
	s.NoError(s.button.SetDebounceMs(25))
	s.NoError(s.button.SetLed(255, 1, 1000, 200))

	debounce, err := s.button.DebounceMs()
	s.NoError(err)
	s.Equal(uint16(25), debounce)
	brightness, err := s.button.LedBrightness()
	s.NoError(err)
	s.Equal(byte(255), brightness)
	granularity, err := s.button.LedGranularity()
	s.NoError(err)
	s.Equal(byte(1), granularity)
	cycle, err := s.button.LedCycleMs()
	s.NoError(err)
	s.Equal(uint16(1000), cycle)
	off, err := s.button.LedOffMs()
	s.NoError(err)
	s.Equal(uint16(200), off)
}
