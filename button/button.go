// Package button drives I2C push buttons with their own microcontroller, like the
// Sparkfun Qwiic Button, Qwiic Switch and Qwiic Arcade.
//
// The firmware debounces the button, tracks press and click events (including queues of
// event timestamps) and can pulse a single LED. All state and configuration is exposed
// through a table of registers, see Registers.
//
// A Button is meant to be used by one goroutine. Operations consisting of multiple
// transactions (SetInterrupt, Pop) are not atomic: another driver instance talking to
// the same device in between can interfere.
package button

import (
	"fmt"

	"github.com/antongulenko/i2cbutton/bus"
)

const (
	DefaultAddress  = byte(0x6F)
	DefaultDeviceID = byte(0x5D)
	DefaultName     = "button"
)

// Config selects the device to attach to. Address and DeviceID are used as given, only
// an empty Name is replaced with DefaultName.
type Config struct {
	Name     string
	Address  byte
	DeviceID byte
}

type Button struct {
	bus      bus.I2cBus
	name     string
	addr     byte
	deviceID byte
	detached bool
}

// Attach connects to the button at the given address with the default name
func Attach(i2c bus.I2cBus, addr byte, expectedID byte) (*Button, error) {
	return New(i2c, Config{Address: addr, DeviceID: expectedID})
}

// New reads the device ID register and verifies it against the configured device ID.
// The bus is not owned by the Button and is never closed or reconfigured.
func New(i2c bus.I2cBus, c Config) (*Button, error) {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Address&0x80 != 0 {
		return nil, fmt.Errorf("Invalid I2C address for button %v: %#02x", c.Name, c.Address)
	}
	id, err := DeviceID.Read(i2c, c.Address)
	if err != nil {
		return nil, fmt.Errorf("Failed to read device id of button %v at %#02x: %w", c.Name, c.Address, err)
	}
	if byte(id) != c.DeviceID {
		return nil, &IdentityMismatchError{Found: byte(id), Expected: c.DeviceID, Addr: c.Address}
	}
	return &Button{
		bus:      i2c,
		name:     c.Name,
		addr:     c.Address,
		deviceID: c.DeviceID,
	}, nil
}

func (b *Button) Name() string {
	return b.name
}

// Address is the I2C address this instance talks to
func (b *Button) Address() byte {
	return b.addr
}

func (b *Button) DeviceID() byte {
	return b.deviceID
}

// Detached returns true after SetAddress succeeded. The instance is then unusable.
func (b *Button) Detached() bool {
	return b.detached
}

func (b *Button) String() string {
	return fmt.Sprintf("Button(%v, addr=%#02x, id=%#02x)", b.name, b.addr, b.deviceID)
}

// Get reads any register. Every call is one bus transaction.
func (b *Button) Get(reg Register) (uint32, error) {
	if b.detached {
		return 0, ErrDetached
	}
	return reg.Read(b.bus, b.addr)
}

// Set writes any writable register. Every call is one bus transaction. Writing
// I2cAddress detaches the instance like SetAddress, but without validating the address.
func (b *Button) Set(reg Register, val uint32) error {
	if b.detached {
		return ErrDetached
	}
	if err := reg.Write(b.bus, b.addr, val); err != nil {
		return err
	}
	if reg == I2cAddress {
		// The firmware may have moved the device, see SetAddress
		b.detached = true
	}
	return nil
}

func (b *Button) getByte(reg Register) (byte, error) {
	val, err := b.Get(reg)
	return byte(val), err
}

// Version reads the two firmware version registers independently and formats them
// as "major.minor".
func (b *Button) Version() (string, error) {
	major, err := b.Get(FirmwareMajor)
	if err != nil {
		return "", err
	}
	minor, err := b.Get(FirmwareMinor)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d.%d", major, minor), nil
}

func (b *Button) Status() (ButtonStatus, error) {
	val, err := b.getByte(ButtonStatusReg)
	return DecodeStatus(val), err
}

// Clear resets the available and clicked bits. The pressed bit is owned by the firmware
// and not affected.
func (b *Button) Clear() error {
	return b.Set(ButtonStatusReg, 0)
}

func (b *Button) Interrupts() (Interrupts, error) {
	val, err := b.getByte(InterruptConfig)
	return DecodeInterrupts(val), err
}

// SetInterrupt is a read-modify-write of InterruptConfig, changing only the given bit.
func (b *Button) SetInterrupt(bit byte, enable bool) error {
	current, err := b.getByte(InterruptConfig)
	if err != nil {
		return err
	}
	return b.Set(InterruptConfig, uint32(ApplyInterruptBit(current, bit, enable)))
}

func (b *Button) SetOnClick(enable bool) error {
	return b.SetInterrupt(INTERRUPT_BIT_CLICK, enable)
}

func (b *Button) SetOnPress(enable bool) error {
	return b.SetInterrupt(INTERRUPT_BIT_PRESS, enable)
}

// SetAddress persistently changes the I2C address of the device. When this returns
// without error, the device no longer answers at the old address and this instance
// fails every further call with ErrDetached. Attach again at the new address.
func (b *Button) SetAddress(newAddr byte) error {
	if b.detached {
		return ErrDetached
	}
	if !bus.ValidAddress(newAddr) {
		return fmt.Errorf("Invalid new I2C address for button %v: %#02x", b.name, newAddr)
	}
	if err := I2cAddress.Write(b.bus, b.addr, uint32(newAddr)); err != nil {
		return err
	}
	b.detached = true
	return nil
}

func (b *Button) DebounceMs() (uint16, error) {
	val, err := b.Get(DebounceMs)
	return uint16(val), err
}

func (b *Button) SetDebounceMs(ms uint16) error {
	return b.Set(DebounceMs, uint32(ms))
}

// LastPressMs is the time since the newest entry of the press queue
func (b *Button) LastPressMs() (uint32, error) {
	return b.Get(LastPressMs)
}

// FirstPressMs is the time since the oldest entry of the press queue
func (b *Button) FirstPressMs() (uint32, error) {
	return b.Get(FirstPressMs)
}

func (b *Button) LastClickMs() (uint32, error) {
	return b.Get(LastClickMs)
}

func (b *Button) FirstClickMs() (uint32, error) {
	return b.Get(FirstClickMs)
}

func (b *Button) LedBrightness() (byte, error) {
	return b.getByte(LedBrightness)
}

func (b *Button) SetLedBrightness(val byte) error {
	return b.Set(LedBrightness, uint32(val))
}

// LedGranularity is the brightness step while pulsing. 1 is commonly useful.
func (b *Button) LedGranularity() (byte, error) {
	return b.getByte(LedGranularity)
}

func (b *Button) SetLedGranularity(val byte) error {
	return b.Set(LedGranularity, uint32(val))
}

func (b *Button) LedCycleMs() (uint16, error) {
	val, err := b.Get(LedCycleMs)
	return uint16(val), err
}

func (b *Button) SetLedCycleMs(ms uint16) error {
	return b.Set(LedCycleMs, uint32(ms))
}

func (b *Button) LedOffMs() (uint16, error) {
	val, err := b.Get(LedOffMs)
	return uint16(val), err
}

func (b *Button) SetLedOffMs(ms uint16) error {
	return b.Set(LedOffMs, uint32(ms))
}

// SetLed configures LED pulsing. All zero turns the LED off, a brightness with zero
// cycle time lights it constantly.
func (b *Button) SetLed(brightness, granularity byte, cycleMs, offMs uint16) (err error) {
	b.setValue(&err, LedBrightness, uint32(brightness))
	b.setValue(&err, LedGranularity, uint32(granularity))
	b.setValue(&err, LedCycleMs, uint32(cycleMs))
	b.setValue(&err, LedOffMs, uint32(offMs))
	return
}

func (b *Button) setValue(outErr *error, reg Register, val uint32) {
	if *outErr == nil {
		*outErr = b.Set(reg, val)
	}
}
