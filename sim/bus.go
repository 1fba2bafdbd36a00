// Package sim simulates an I2C bus with attached push button devices, emulating the
// register behavior of the button firmware. It is used for tests and for running the
// tools without hardware.
package sim

import (
	"sync"

	"github.com/antongulenko/i2cbutton/bus"
	log "github.com/sirupsen/logrus"
)

type Transaction struct {
	Addr  byte
	Write []byte
	Read  []byte // nil for write-only transactions
	Err   error
}

// IsWrite returns true for transactions without a read phase
func (t Transaction) IsWrite() bool {
	return t.Read == nil
}

// Bus implements bus.I2cBus. Devices are addressed by their current address register,
// so changing that register moves the device on the bus. Devices sharing an address all
// receive the writes, and reads return the wired-AND of their responses.
type Bus struct {
	// If set, every transaction fails with this error without reaching a device
	Fault error

	lock    sync.Mutex
	devices []*Button
	log     []Transaction
}

func NewBus() *Bus {
	return &Bus{}
}

// Add attaches the device at its current address. A device already using that address
// is not replaced, the two collide.
func (b *Bus) Add(dev *Button) *Button {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.devices = append(b.devices, dev)
	if len(b.at(dev.Address())) > 1 {
		log.Warnf("Simulated button added at occupied address %#02x", dev.Address())
	}
	return dev
}

func (b *Bus) at(addr byte) []*Button {
	var res []*Button
	for _, dev := range b.devices {
		if dev.Address() == addr {
			res = append(res, dev)
		}
	}
	return res
}

// Device returns the first device added at the address, or nil
func (b *Bus) Device(addr byte) *Button {
	b.lock.Lock()
	defer b.lock.Unlock()
	if devs := b.at(addr); len(devs) > 0 {
		return devs[0]
	}
	return nil
}

// Addresses returns the sorted occupied addresses
func (b *Bus) Addresses() []byte {
	return b.addresses(1)
}

// Collisions returns the sorted addresses used by more than one device
func (b *Bus) Collisions() []byte {
	return b.addresses(2)
}

func (b *Bus) addresses(minDevices int) []byte {
	b.lock.Lock()
	defer b.lock.Unlock()
	count := make(map[byte]int, len(b.devices))
	for _, dev := range b.devices {
		count[dev.Address()]++
	}
	var res []byte
	for addr := bus.MinAddress; addr <= bus.MaxAddress; addr++ {
		if count[addr] >= minDevices {
			res = append(res, addr)
		}
	}
	return res
}

func (b *Bus) I2cWrite(addr byte, data ...byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	err := b.Fault
	if err == nil {
		devs := b.at(addr)
		if len(devs) == 0 {
			err = bus.ErrNoAck
		}
		for _, dev := range devs {
			dev.write(data)
			if newAddr := dev.Address(); newAddr != addr {
				log.Debugf("Simulated button moved from %#02x to %#02x", addr, newAddr)
				if len(b.at(newAddr)) > 1 {
					log.Warnf("Simulated button moved to occupied address %#02x", newAddr)
				}
			}
		}
	}
	b.record(Transaction{Addr: addr, Write: data, Err: err})
	return err
}

func (b *Bus) I2cWriteRead(addr byte, out, in []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	err := b.Fault
	if err == nil {
		devs := b.at(addr)
		if len(devs) == 0 {
			err = bus.ErrNoAck
		} else if len(devs) > 1 {
			log.Warnf("Reading from %v simulated buttons sharing address %#02x", len(devs), addr)
		}
		for i, dev := range devs {
			if len(out) > 0 {
				dev.write(out)
			}
			if i == 0 {
				dev.read(in)
				continue
			}
			// Open-drain lines: a 0 bit from any device wins
			response := make([]byte, len(in))
			dev.read(response)
			for j := range in {
				in[j] &= response[j]
			}
		}
	}
	b.record(Transaction{Addr: addr, Write: out, Read: in, Err: err})
	return err
}

func (b *Bus) record(t Transaction) {
	t.Write = append([]byte(nil), t.Write...)
	if t.Read != nil {
		t.Read = append([]byte{}, t.Read...)
	}
	b.log = append(b.log, t)
}

// Transactions returns a copy of all transactions since the last ResetLog
func (b *Bus) Transactions() []Transaction {
	b.lock.Lock()
	defer b.lock.Unlock()
	return append([]Transaction(nil), b.log...)
}

// Writes returns the write-only transactions since the last ResetLog
func (b *Bus) Writes() []Transaction {
	var res []Transaction
	for _, t := range b.Transactions() {
		if t.IsWrite() {
			res = append(res, t)
		}
	}
	return res
}

func (b *Bus) ResetLog() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.log = nil
}
