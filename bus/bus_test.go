package bus

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type transaction struct {
	addr byte
	out  []byte
	read int
}

// recordingBus answers reads with the register address, repeated
type recordingBus struct {
	lock    sync.Mutex
	present map[byte]bool
	fault   error
	log     []transaction
}

func newRecordingBus(addrs ...byte) *recordingBus {
	b := &recordingBus{present: make(map[byte]bool)}
	for _, addr := range addrs {
		b.present[addr] = true
	}
	return b
}

func (b *recordingBus) answer(addr byte) error {
	if b.fault != nil {
		return b.fault
	}
	if !b.present[addr] {
		return ErrNoAck
	}
	return nil
}

func (b *recordingBus) I2cWrite(addr byte, data ...byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.log = append(b.log, transaction{addr, append([]byte(nil), data...), 0})
	return b.answer(addr)
}

func (b *recordingBus) I2cWriteRead(addr byte, out, in []byte) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.log = append(b.log, transaction{addr, append([]byte(nil), out...), len(in)})
	if err := b.answer(addr); err != nil {
		return err
	}
	for i := range in {
		if len(out) > 0 {
			in[i] = out[0]
		}
	}
	return nil
}

func TestReadRegister(t *testing.T) {
	a := assert.New(t)
	rec := newRecordingBus(0x6F)

	data, err := ReadRegister(rec, 0x6F, 0x11, 4)
	a.NoError(err)
	a.Equal([]byte{0x11, 0x11, 0x11, 0x11}, data)
	a.Equal([]transaction{{0x6F, []byte{0x11}, 4}}, rec.log)

	_, err = ReadRegister(rec, 0x60, 0x00, 1)
	a.Equal(ErrNoAck, err)

	_, err = ReadRegister(rec, 0xEF, 0x00, 1)
	a.Error(err)
	a.Len(rec.log, 2, "invalid address must not reach the bus")
}

func TestWriteRegister(t *testing.T) {
	a := assert.New(t)
	rec := newRecordingBus(0x6F)

	a.NoError(WriteRegister(rec, 0x6F, 0x05, 0x34, 0x12))
	a.NoError(WriteRegister(rec, 0x6F, 0x03))
	a.Equal([]transaction{
		{0x6F, []byte{0x05, 0x34, 0x12}, 0},
		{0x6F, []byte{0x03}, 0},
	}, rec.log)

	rec.fault = ErrArbitrationLost
	a.Equal(ErrArbitrationLost, WriteRegister(rec, 0x6F, 0x03, 0))
}

func TestValidAddress(t *testing.T) {
	a := assert.New(t)
	a.False(ValidAddress(0x00))
	a.False(ValidAddress(0x07))
	a.True(ValidAddress(0x08))
	a.True(ValidAddress(0x6F))
	a.True(ValidAddress(0x77))
	a.False(ValidAddress(0x78))
	a.False(ValidAddress(0xFF))
}

func TestScan(t *testing.T) {
	a := assert.New(t)
	rec := newRecordingBus(0x6E, 0x6F, 0x08)

	found, err := Scan(rec)
	a.NoError(err)
	a.Equal([]byte{0x08, 0x6E, 0x6F}, found)
	a.Len(rec.log, int(MaxAddress-MinAddress)+1)
	a.Equal(1, rec.log[0].read)
	a.Empty(rec.log[0].out)

	occupied, err := Occupied(rec, 0x6E)
	a.NoError(err)
	a.True(occupied)
	occupied, err = Occupied(rec, 0x60)
	a.NoError(err)
	a.False(occupied)

	rec.fault = ErrBusBusy
	_, err = Scan(rec)
	a.Equal(ErrBusBusy, err)
	_, err = Occupied(rec, 0x6E)
	a.Equal(ErrBusBusy, err)
}

func TestShared(t *testing.T) {
	a := assert.New(t)
	rec := newRecordingBus(0x6F)
	shared := NewShared(rec)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.NoError(shared.I2cWrite(0x6F, byte(i)))
			in := make([]byte, 2)
			a.NoError(shared.I2cWriteRead(0x6F, []byte{byte(i)}, in))
			a.Equal([]byte{byte(i), byte(i)}, in)
		}(i)
	}
	wg.Wait()
	a.Len(rec.log, 20)
}
