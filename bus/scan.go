package bus

import "errors"

// Scan tries every valid 7-bit address with a single-byte read and returns the
// addresses that acknowledged. Any fault other than ErrNoAck aborts the scan.
func Scan(bus I2cBus) ([]byte, error) {
	var found []byte
	in := make([]byte, 1)
	for addr := MinAddress; addr <= MaxAddress; addr++ {
		err := bus.I2cWriteRead(addr, nil, in)
		if err == nil {
			found = append(found, addr)
		} else if !errors.Is(err, ErrNoAck) {
			return found, err
		}
	}
	return found, nil
}

// Occupied scans the bus and returns whether a slave answers at the given address
func Occupied(bus I2cBus, addr byte) (bool, error) {
	slaves, err := Scan(bus)
	if err != nil {
		return false, err
	}
	for _, slave := range slaves {
		if slave == addr {
			return true, nil
		}
	}
	return false, nil
}
