package button

import (
	"errors"
	"fmt"
)

var (
	ErrReadOnly      = errors.New("write to read-only register")
	ErrValueOverflow = errors.New("value exceeds register width")
	ErrQueueEmpty    = errors.New("queue is empty")

	// Returned by every operation on a Button after its I2C address was changed
	ErrDetached = errors.New("button was moved to another I2C address")
)

// IdentityMismatchError is returned when attaching to an address where the device ID
// register does not contain the expected value.
type IdentityMismatchError struct {
	Found    byte
	Expected byte
	Addr     byte
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("Unexpected device id %#02x at I2C address %#02x (expected %#02x)", e.Found, e.Addr, e.Expected)
}
