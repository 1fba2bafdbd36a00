package ft260

import "fmt"

const (
	ReportID_ChipCode      = 0xA0 // Feature In
	ReportID_SystemSetting = 0xA1 // Feature In/Out

	FT260_CHIP_CODE = 0x02600200
)

// Requests for ReportID_SystemSetting Feature Out
const (
	SetSystemSetting_Clock           = 0x01 // Clock...
	SetSystemSetting_EnableWakeupInt = 0x05 // bool
	SetSystemSetting_I2CReset        = 0x20 // <empty>
	SetSystemSetting_I2CSetClock     = 0x22 // LSB+MSB of clock speed in kHz (60-3400)
)

const (
	Clock12MHz = byte(0)
	Clock24MHz = byte(1)
	Clock48MHz = byte(2)

	MinI2cFreq = 60
	MaxI2cFreq = 3400
)

// Result of ReportID_ChipCode Feature In
type ReportChipCode struct {
	ChipCode uint32 // 02600200
	// 8 reserved byte
}

func (r *ReportChipCode) ReportID() byte {
	return ReportID_ChipCode
}

func (r *ReportChipCode) ReportLen() int {
	return 12
}

func (r *ReportChipCode) Unmarshall(b []byte) error {
	r.ChipCode = uint32(b[0])<<24 + uint32(b[1])<<16 + uint32(b[2])<<8 + uint32(b[3])
	return nil
}

// Result of ReportID_SystemSetting Feature In
type ReportSystemStatus struct {
	ChipMode        byte // Bit 0: DCNF0, Bit 1: DCNF1
	Clock           byte // 0..2 (Clock...MHz)
	Suspended       bool
	PowerStatus     bool // Device Ready?
	I2CEnable       bool
	EnableWakeupInt bool // If disabled: pin acts as GPIO3
}

func (r *ReportSystemStatus) ReportID() byte {
	return ReportID_SystemSetting
}

func (r *ReportSystemStatus) ReportLen() int {
	// This should be 19 byte, but the device returns an error for less than 25...
	return 24
}

func (r *ReportSystemStatus) Unmarshall(b []byte) (err error) {
	r.ChipMode = b[0]
	r.Clock = b[1]
	r.Suspended = _readBool(b, 2, &err)
	r.PowerStatus = _readBool(b, 3, &err)
	r.I2CEnable = _readBool(b, 4, &err)
	r.EnableWakeupInt = _readBool(b, 11, &err)
	return
}

type SetSystemStatus struct {
	Request byte
	Value   interface{}
}

func (r *SetSystemStatus) ReportID() byte {
	return ReportID_SystemSetting
}

func (r *SetSystemStatus) ReportLen() int {
	switch r.Request {
	case SetSystemSetting_I2CReset:
		return 1
	case SetSystemSetting_Clock, SetSystemSetting_EnableWakeupInt:
		return 2
	case SetSystemSetting_I2CSetClock:
		return 3
	default:
		panic(fmt.Sprintf("Illegal system status request ID: %v", r.Request))
	}
}

func (r *SetSystemStatus) Marshall(b []byte) error {
	b[0] = r.Request
	switch r.Request {
	case SetSystemSetting_I2CReset:
		// No payload
	case SetSystemSetting_Clock:
		val, ok := r.Value.(byte)
		if !ok {
			return fmt.Errorf("System Setting Request ID %02x expects type %T, but got value of type %T (%v)", r.Request, byte(0), r.Value, r.Value)
		}
		b[1] = val
	case SetSystemSetting_EnableWakeupInt:
		val, ok := r.Value.(bool)
		if !ok {
			return fmt.Errorf("System Setting Request ID %02x expects type %T, but got value of type %T (%v)", r.Request, false, r.Value, r.Value)
		}
		if val {
			b[1] = 1
		} else {
			b[1] = 0
		}
	case SetSystemSetting_I2CSetClock:
		val, ok := r.Value.(uint16)
		if !ok {
			return fmt.Errorf("System Setting Request ID %v expects type %T, but got value of type %T (%v)", r.Request, uint16(0), r.Value, r.Value)
		}
		b[1], b[2] = byte(val), byte(val>>8)
	default:
		return fmt.Errorf("Unknown system setting request ID: %v", r.Request)
	}
	return nil
}

func _readBool(b []byte, index int, e *error) bool {
	if *e != nil {
		return false
	}
	switch b[index] {
	case 0:
		return false
	case 1:
		return true
	default:
		*e = fmt.Errorf("Expected 0 or 1 for byte at index %v, but got %02x", index, b[index])
		return false
	}
}
