package ft260

import (
	"fmt"
	"time"

	"github.com/antongulenko/i2cbutton/bus"
	log "github.com/sirupsen/logrus"
)

const statusPollInterval = time.Millisecond

func (f *Ft260) I2cWrite(addr byte, data ...byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := f.i2cWrite(addr, true, data); err != nil {
		return err
	}
	return f.waitI2cDone()
}

// I2cWriteRead writes out without a STOP condition, then reads with a repeated START.
// An empty out only performs the read.
func (f *Ft260) I2cWriteRead(addr byte, out, in []byte) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	readCondition := byte(I2C_MasterStartStop)
	if len(out) > 0 {
		if err := f.i2cWrite(addr, false, out); err != nil {
			return err
		}
		readCondition = I2C_MasterRepStartStop
	}
	if len(in) == 0 {
		return f.waitI2cDone()
	}
	err := f.Write(&OperationI2cRead{
		SlaveAddr: addr,
		Condition: readCondition,
		Len:       uint16(len(in)),
	})
	if err != nil {
		return err
	}
	var input OperationI2cInput
	for received := 0; received < len(in); {
		if err := f.Read(&input); err != nil {
			return err
		}
		if len(input.Data) == 0 {
			// The input report carries no data when the slave did not acknowledge
			if err := f.waitI2cDone(); err != nil {
				return err
			}
			return fmt.Errorf("%w: short I2C read at %#02x (%v of %v byte)", bus.ErrNoAck, addr, received, len(in))
		}
		received += copy(in[received:], input.Data)
	}
	log.Debugf("FT260 read %v byte from %#02x", len(in), addr)
	return f.waitI2cDone()
}

func (f *Ft260) i2cWrite(addr byte, stop bool, data []byte) error {
	payloads, conditions := i2cSplitTransaction(stop, data)
	for i, payload := range payloads {
		log.Debugf("FT260 writing %v byte to %#02x (%v)", len(payload), addr, I2cMasterCodeString(conditions[i]))
		err := f.Write(&OperationI2cWrite{
			SlaveAddr: addr,
			Condition: conditions[i],
			Payload:   payload,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// i2cSplitTransaction splits data into report-sized payloads. The first payload carries
// the START condition, the last one the optional STOP condition.
func i2cSplitTransaction(stop bool, data []byte) (payloads [][]byte, conditions []byte) {
	for len(data) > 0 {
		size := len(data)
		if size > I2CMaxPayload {
			size = I2CMaxPayload
		}
		payloads = append(payloads, data[:size])
		conditions = append(conditions, I2C_MasterNone)
		data = data[size:]
	}
	if len(conditions) > 0 {
		conditions[0] |= I2C_MasterStart
		if stop {
			conditions[len(conditions)-1] |= I2C_MasterStop
		}
	}
	return
}

// waitI2cDone polls the I2C status until the controller is idle, and translates error bits
func (f *Ft260) waitI2cDone() error {
	deadline := time.Now().Add(f.Timeout)
	for {
		var status ReportI2cStatus
		if err := f.Read(&status); err != nil {
			return err
		}
		if !status.Busy() {
			return i2cStatusError(status.BusStatus)
		}
		if time.Now().After(deadline) {
			if status.BusStatus&I2C_StatusBusBusy != 0 {
				return bus.ErrBusBusy
			}
			return fmt.Errorf("%w after %v (status %#02x)", bus.ErrTimeout, f.Timeout, status.BusStatus)
		}
		time.Sleep(statusPollInterval)
	}
}

func i2cStatusError(status byte) error {
	if status&I2C_StatusError == 0 {
		return nil
	}
	switch {
	case status&I2C_StatusArbitrationLost != 0:
		return bus.ErrArbitrationLost
	case status&I2C_StatusNoSlaveAck != 0:
		return bus.ErrNoAck
	case status&I2C_StatusNoDataAck != 0:
		return fmt.Errorf("%w (data)", bus.ErrNoAck)
	default:
		return fmt.Errorf("FT260: I2C error (status %#02x)", status)
	}
}
