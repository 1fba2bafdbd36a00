package sim

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/antongulenko/i2cbutton/bus"
)

// Register layout of the button firmware
const (
	regID             = 0x00
	regFirmwareMinor  = 0x01
	regFirmwareMajor  = 0x02
	regStatus         = 0x03
	regInterrupts     = 0x04
	regDebounce       = 0x05 // 2 byte
	regPressQueue     = 0x07
	regLastPress      = 0x08 // 4 byte
	regFirstPress     = 0x0C // 4 byte
	regClickQueue     = 0x10
	regLastClick      = 0x11 // 4 byte
	regFirstClick     = 0x15 // 4 byte
	regLedBrightness  = 0x19
	regLedGranularity = 0x1A
	regLedCycle       = 0x1B // 2 byte
	regLedOff         = 0x1D // 2 byte
	regAddress        = 0x1F

	numRegisters = 0x20
)

const (
	statusAvailable = byte(0x1)
	statusClicked   = byte(0x2)
	statusPressed   = byte(0x4)

	queuePop   = byte(0x1)
	queueEmpty = byte(0x2)
	queueFull  = byte(0x4)
)

const (
	DefaultAddress  = byte(0x6F)
	DefaultID       = byte(0x5D)
	DefaultDebounce = 10
	QueueCapacity   = 15
)

// Button emulates the firmware of one push button device. Hardware events are injected
// with Press, Release and Click.
type Button struct {
	lock sync.Mutex

	// Firmware version 1.1 ignores the pop request bit
	IgnorePop bool

	// Time source for the event queues, defaults to time.Now
	Now func() time.Time

	regs    [numRegisters]byte
	pointer byte
	pressed bool
	presses eventQueue
	clicks  eventQueue
}

func NewButton(addr byte) *Button {
	b := &Button{
		IgnorePop: true,
		Now:       time.Now,
	}
	b.regs[regID] = DefaultID
	b.regs[regFirmwareMajor] = 1
	b.regs[regFirmwareMinor] = 1
	b.regs[regAddress] = addr
	binary.LittleEndian.PutUint16(b.regs[regDebounce:], DefaultDebounce)
	return b
}

// SetID changes the device ID register, emulating a different device class
func (b *Button) SetID(id byte) *Button {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.regs[regID] = id
	return b
}

// SetFirmware sets the firmware version registers. Version 1.1 ignores pop requests.
func (b *Button) SetFirmware(major, minor byte) *Button {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.regs[regFirmwareMajor] = major
	b.regs[regFirmwareMinor] = minor
	b.IgnorePop = major == 1 && minor == 1
	return b
}

func (b *Button) Address() byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.regs[regAddress]
}

// Register returns the raw content of one register byte as the firmware stores it
func (b *Button) Register(reg byte) byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.render()[reg]
}

func (b *Button) Pressed() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.pressed
}

func (b *Button) Press() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.pressed {
		return
	}
	b.pressed = true
	b.regs[regStatus] |= statusAvailable | statusPressed
	b.presses.push(b.Now())
}

func (b *Button) Release() {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.pressed {
		return
	}
	b.pressed = false
	b.regs[regStatus] = (b.regs[regStatus] &^ statusPressed) | statusAvailable | statusClicked
	b.clicks.push(b.Now())
}

func (b *Button) Click() {
	b.Press()
	b.Release()
}

// QueueLen returns the number of entries in the press and click queues
func (b *Button) QueueLen() (presses, clicks int) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.presses), len(b.clicks)
}

func (b *Button) render() [numRegisters]byte {
	regs := b.regs
	now := b.Now()
	regs[regPressQueue] = b.presses.status()
	regs[regClickQueue] = b.clicks.status()
	binary.LittleEndian.PutUint32(regs[regLastPress:], b.presses.newestAge(now))
	binary.LittleEndian.PutUint32(regs[regFirstPress:], b.presses.oldestAge(now))
	binary.LittleEndian.PutUint32(regs[regLastClick:], b.clicks.newestAge(now))
	binary.LittleEndian.PutUint32(regs[regFirstClick:], b.clicks.oldestAge(now))
	return regs
}

// The register pointer auto-increments and wraps at the end of the register file
func (b *Button) read(data []byte) {
	b.lock.Lock()
	defer b.lock.Unlock()
	regs := b.render()
	for i := range data {
		data[i] = regs[b.pointer%numRegisters]
		b.pointer++
	}
}

func (b *Button) write(data []byte) {
	if len(data) == 0 {
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.pointer = data[0]
	for _, val := range data[1:] {
		b.writeRegister(b.pointer%numRegisters, val)
		b.pointer++
	}
}

func (b *Button) writeRegister(reg byte, val byte) {
	switch {
	case reg <= regFirmwareMajor:
		// Read-only
	case reg == regStatus:
		mask := statusAvailable | statusClicked
		b.regs[regStatus] = (b.regs[regStatus] &^ mask) | (val & mask)
	case reg == regPressQueue:
		if val&queuePop != 0 && !b.IgnorePop {
			b.presses.pop()
		}
	case reg == regClickQueue:
		if val&queuePop != 0 && !b.IgnorePop {
			b.clicks.pop()
		}
	case reg >= regLastPress && reg < regClickQueue, reg >= regLastClick && reg < regLedBrightness:
		// Read-only queue ages
	case reg == regAddress:
		if bus.ValidAddress(val) {
			b.regs[regAddress] = val
		}
	default:
		b.regs[reg] = val
	}
}

// Oldest entry first. When full, the oldest entry is dropped.
type eventQueue []time.Time

func (q *eventQueue) push(t time.Time) {
	if len(*q) >= QueueCapacity {
		*q = (*q)[1:]
	}
	*q = append(*q, t)
}

func (q *eventQueue) pop() {
	if len(*q) > 0 {
		*q = (*q)[1:]
	}
}

func (q eventQueue) status() byte {
	var res byte
	if len(q) == 0 {
		res |= queueEmpty
	}
	if len(q) >= QueueCapacity {
		res |= queueFull
	}
	return res
}

func (q eventQueue) oldestAge(now time.Time) uint32 {
	if len(q) == 0 {
		return 0
	}
	return ageMs(now, q[0])
}

func (q eventQueue) newestAge(now time.Time) uint32 {
	if len(q) == 0 {
		return 0
	}
	return ageMs(now, q[len(q)-1])
}

func ageMs(now, t time.Time) uint32 {
	return uint32(now.Sub(t) / time.Millisecond)
}
