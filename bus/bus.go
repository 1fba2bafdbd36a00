// Package bus defines the I2C bus handle consumed by the device drivers, and the two
// transaction primitives every register access is built from.
package bus

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

const (
	// Valid 7-bit addresses, excluding the reserved ranges 0000xxx and 1111xxx
	MinAddress = byte(0x08)
	MaxAddress = byte(0x77)
)

// Transport-level faults. Implementations of I2cBus should return (or wrap) these, so
// that callers can tell them apart with errors.Is.
var (
	ErrNoAck           = errors.New("i2c: no acknowledge from slave")
	ErrBusBusy         = errors.New("i2c: bus busy")
	ErrArbitrationLost = errors.New("i2c: arbitration lost")
	ErrTimeout         = errors.New("i2c: timeout")
)

// I2cBus performs single I2C transactions. Every call must hold exclusive access to the
// bus for its entire duration, and release it when returning, also in case of errors.
type I2cBus interface {
	// Write sends all data bytes to the slave in one transaction (START, data..., STOP)
	I2cWrite(addr byte, data ...byte) error

	// Write the out bytes, then read len(in) bytes after a repeated START, in one transaction
	I2cWriteRead(addr byte, out, in []byte) error
}

// ReadRegister writes the register address and reads size bytes back ("write-then-read").
// Bus faults are returned unchanged.
func ReadRegister(bus I2cBus, addr byte, register byte, size int) ([]byte, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	in := make([]byte, size)
	if err := bus.I2cWriteRead(addr, []byte{register}, in); err != nil {
		return nil, err
	}
	log.Debugf("Read %v byte from register %#02x at %#02x: %#02x", size, register, addr, in)
	return in, nil
}

// WriteRegister writes the register address, followed by the payload, in one transaction.
func WriteRegister(bus I2cBus, addr byte, register byte, payload ...byte) error {
	if err := checkAddress(addr); err != nil {
		return err
	}
	data := make([]byte, 0, len(payload)+1)
	data = append(data, register)
	data = append(data, payload...)
	log.Debugf("Writing %v byte to register %#02x at %#02x: %#02x", len(payload), register, addr, payload)
	return bus.I2cWrite(addr, data...)
}

// ValidAddress returns whether the address is a usable 7-bit slave address
func ValidAddress(addr byte) bool {
	return addr >= MinAddress && addr <= MaxAddress
}

func checkAddress(addr byte) error {
	if addr&0x80 != 0 {
		return fmt.Errorf("Invalid I2C slave address: %02x", addr)
	}
	return nil
}
