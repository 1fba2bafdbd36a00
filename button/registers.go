package button

import (
	"encoding/binary"
	"fmt"

	"github.com/antongulenko/i2cbutton/bus"
)

// Register describes one entry of the register table. Values are immutable and shared by
// all Button instances. Multi-byte registers are little-endian on the wire.
type Register struct {
	Name     string
	Addr     byte
	Width    int // 1, 2 or 4 byte
	ReadOnly bool
}

var (
	DeviceID         = Register{"device_id", 0x00, 1, true}
	FirmwareMinor    = Register{"firmware_minor", 0x01, 1, true}
	FirmwareMajor    = Register{"firmware_major", 0x02, 1, true}
	ButtonStatusReg  = Register{"button_status", 0x03, 1, false}    // STATUS_BIT_...
	InterruptConfig  = Register{"interrupt_config", 0x04, 1, false} // INTERRUPT_BIT_...
	DebounceMs       = Register{"debounce_ms", 0x05, 2, false}
	PressQueueStatus = Register{"press_queue_status", 0x07, 1, false} // QUEUE_BIT_...
	LastPressMs      = Register{"last_press_ms", 0x08, 4, true}
	FirstPressMs     = Register{"first_press_ms", 0x0C, 4, true}
	ClickQueueStatus = Register{"click_queue_status", 0x10, 1, false} // QUEUE_BIT_...
	LastClickMs      = Register{"last_click_ms", 0x11, 4, true}
	FirstClickMs     = Register{"first_click_ms", 0x15, 4, true}
	LedBrightness    = Register{"led_brightness", 0x19, 1, false}
	LedGranularity   = Register{"led_granularity", 0x1A, 1, false}
	LedCycleMs       = Register{"led_cycle_ms", 0x1B, 2, false}
	LedOffMs         = Register{"led_off_ms", 0x1D, 2, false}
	I2cAddress       = Register{"i2c_address", 0x1F, 1, false}

	// Ordered by address
	Registers = []Register{
		DeviceID, FirmwareMinor, FirmwareMajor, ButtonStatusReg, InterruptConfig, DebounceMs,
		PressQueueStatus, LastPressMs, FirstPressMs, ClickQueueStatus, LastClickMs, FirstClickMs,
		LedBrightness, LedGranularity, LedCycleMs, LedOffMs, I2cAddress,
	}
)

// Size of the register file, including the last byte of I2cAddress
const RegisterFileSize = 0x20

func RegisterByName(name string) (Register, bool) {
	for _, reg := range Registers {
		if reg.Name == name {
			return reg, true
		}
	}
	return Register{}, false
}

func (r Register) String() string {
	access := "rw"
	if r.ReadOnly {
		access = "ro"
	}
	return fmt.Sprintf("%v (%#02x, %v byte, %v)", r.Name, r.Addr, r.Width, access)
}

// MaxValue is the largest value that fits into the register
func (r Register) MaxValue() uint32 {
	if r.Width >= 4 {
		return 0xFFFFFFFF
	}
	return uint32(1)<<(8*uint(r.Width)) - 1
}

// Read issues one write-then-read transaction and decodes the little-endian value.
// There is no caching, every call queries the device.
func (r Register) Read(i2c bus.I2cBus, addr byte) (uint32, error) {
	data, err := bus.ReadRegister(i2c, addr, r.Addr, r.Width)
	if err != nil {
		return 0, err
	}
	return r.decode(data)
}

// Write encodes the value into Width little-endian bytes and issues one write transaction.
// Read-only registers and values exceeding the width are rejected before touching the bus.
func (r Register) Write(i2c bus.I2cBus, addr byte, val uint32) error {
	data, err := r.encode(val)
	if err != nil {
		return err
	}
	return bus.WriteRegister(i2c, addr, r.Addr, data...)
}

func (r Register) encode(val uint32) ([]byte, error) {
	if r.ReadOnly {
		return nil, fmt.Errorf("%w: %v", ErrReadOnly, r)
	}
	if val > r.MaxValue() {
		return nil, fmt.Errorf("%w: %v does not fit into %v", ErrValueOverflow, val, r)
	}
	data := make([]byte, r.Width)
	switch r.Width {
	case 1:
		data[0] = byte(val)
	case 2:
		binary.LittleEndian.PutUint16(data, uint16(val))
	case 4:
		binary.LittleEndian.PutUint32(data, val)
	default:
		return nil, fmt.Errorf("Unsupported register width %v: %v", r.Width, r)
	}
	return data, nil
}

func (r Register) decode(data []byte) (uint32, error) {
	if len(data) != r.Width {
		return 0, fmt.Errorf("Register %v read len %v (need %v byte)", r.Name, len(data), r.Width)
	}
	switch r.Width {
	case 1:
		return uint32(data[0]), nil
	case 2:
		return uint32(binary.LittleEndian.Uint16(data)), nil
	case 4:
		return binary.LittleEndian.Uint32(data), nil
	default:
		return 0, fmt.Errorf("Unsupported register width %v: %v", r.Width, r)
	}
}
