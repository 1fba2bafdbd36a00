package bus

import "sync"

// Shared makes an I2cBus usable from multiple drivers (and goroutines) at once.
// Each transaction holds the lock for its own duration only; sequences of transactions
// (read-modify-write) are not protected.
type Shared struct {
	Bus I2cBus
	mu  sync.Mutex
}

func NewShared(bus I2cBus) *Shared {
	return &Shared{Bus: bus}
}

func (s *Shared) I2cWrite(addr byte, data ...byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Bus.I2cWrite(addr, data...)
}

func (s *Shared) I2cWriteRead(addr byte, out, in []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Bus.I2cWriteRead(addr, out, in)
}
