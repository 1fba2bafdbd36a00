package ft260

import (
	"errors"
	"testing"

	"github.com/antongulenko/i2cbutton/bus"
	"github.com/stretchr/testify/assert"
)

func Test_i2c_split_transactions(t *testing.T) {
	a := assert.New(t)
	test := func(stop bool, data []byte, expectedPayload [][]byte, expectedConditions []byte) {
		payload, conditions := i2cSplitTransaction(stop, data)
		a.Equal(expectedPayload, payload, "Payload differs")
		a.Equal(expectedConditions, conditions, "Conditions differ")
	}

	test(true, nil, nil, nil)
	test(false, nil, nil, nil)
	test(true, []byte{}, nil, nil)
	test(false, []byte{}, nil, nil)

	test(true, []byte{44}, [][]byte{[]byte{44}}, []byte{I2C_MasterStartStop})
	test(false, []byte{44}, [][]byte{[]byte{44}}, []byte{I2C_MasterStart})

	data := make([]byte, 130)
	for i := byte(0); i < byte(len(data)); i++ {
		data[i] = i + 10
	}

	// 59 byte
	test(true, data[:59], [][]byte{data[:59]}, []byte{I2C_MasterStartStop})
	test(false, data[:59], [][]byte{data[:59]}, []byte{I2C_MasterStart})

	// 60 byte
	test(true, data[:60], [][]byte{data[:60]}, []byte{I2C_MasterStartStop})
	test(false, data[:60], [][]byte{data[:60]}, []byte{I2C_MasterStart})

	// 61 byte
	test(true, data[:61], [][]byte{data[:60], data[60:61]}, []byte{I2C_MasterStart, I2C_MasterStop})
	test(false, data[:61], [][]byte{data[:60], data[60:61]}, []byte{I2C_MasterStart, I2C_MasterNone})

	// 121 byte
	test(true, data[:121], [][]byte{data[:60], data[60:120], data[120:121]}, []byte{I2C_MasterStart, I2C_MasterNone, I2C_MasterStop})
	test(false, data[:121], [][]byte{data[:60], data[60:120], data[120:121]}, []byte{I2C_MasterStart, I2C_MasterNone, I2C_MasterNone})
}

func TestI2cStatusError(t *testing.T) {
	a := assert.New(t)
	a.Nil(i2cStatusError(0))
	a.Nil(i2cStatusError(I2C_StatusControllerIdle))
	a.Nil(i2cStatusError(I2C_StatusNoSlaveAck), "ack bit without error bit")

	a.Equal(bus.ErrNoAck, i2cStatusError(I2C_StatusError|I2C_StatusNoSlaveAck))
	a.True(errors.Is(i2cStatusError(I2C_StatusError|I2C_StatusNoDataAck), bus.ErrNoAck))
	a.Equal(bus.ErrArbitrationLost, i2cStatusError(I2C_StatusError|I2C_StatusArbitrationLost|I2C_StatusNoSlaveAck))
	a.NotNil(i2cStatusError(I2C_StatusError))
}

func TestWriteReportID(t *testing.T) {
	a := assert.New(t)
	test := func(payloadLen int, expectedID byte) {
		op := OperationI2cWrite{Payload: make([]byte, payloadLen)}
		a.Equal(expectedID, op.ReportID(), "report id for %v byte", payloadLen)
	}
	test(1, 0xD0)
	test(4, 0xD0)
	test(5, 0xD1)
	test(8, 0xD1)
	test(60, 0xDE)

	b := make([]byte, 5)
	op := OperationI2cWrite{SlaveAddr: 0x6F, Condition: I2C_MasterStart, Payload: []byte{0x03, 0x00}}
	a.NoError(op.Marshall(b))
	a.Equal([]byte{0x6F, I2C_MasterStart, 2, 0x03, 0x00}, b)
	a.Error((&OperationI2cWrite{SlaveAddr: 0x80, Payload: []byte{1}}).Marshall(b))
}
