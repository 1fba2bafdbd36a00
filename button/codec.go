package button

import "fmt"

// Bits of the ButtonStatusReg register
const (
	STATUS_BIT_AVAILABLE = byte(1 << iota) // An unread event occurred. Write 0 to clear.
	STATUS_BIT_CLICKED                     // Clicked since last clear. Write 0 to clear.
	STATUS_BIT_PRESSED                     // Live button state, owned by the firmware
)

// Bits of the InterruptConfig register
const (
	INTERRUPT_BIT_CLICK = byte(1 << iota)
	INTERRUPT_BIT_PRESS
)

// Bits of the PressQueueStatus and ClickQueueStatus registers
const (
	QUEUE_BIT_POP   = byte(1 << iota) // Write-only: pop the oldest entry
	QUEUE_BIT_EMPTY                   // Read-only
	QUEUE_BIT_FULL                    // Read-only
)

type ButtonStatus struct {
	Available         bool
	ClickedSinceClear bool
	Pressed           bool
}

func DecodeStatus(b byte) ButtonStatus {
	return ButtonStatus{
		Available:         b&STATUS_BIT_AVAILABLE != 0,
		ClickedSinceClear: b&STATUS_BIT_CLICKED != 0,
		Pressed:           b&STATUS_BIT_PRESSED != 0,
	}
}

func (s ButtonStatus) String() string {
	return fmt.Sprintf("available=%v clicked=%v pressed=%v", s.Available, s.ClickedSinceClear, s.Pressed)
}

type Interrupts struct {
	OnClick bool
	OnPress bool
}

func DecodeInterrupts(b byte) Interrupts {
	return Interrupts{
		OnClick: b&INTERRUPT_BIT_CLICK != 0,
		OnPress: b&INTERRUPT_BIT_PRESS != 0,
	}
}

func (i Interrupts) Encode() byte {
	var b byte
	if i.OnClick {
		b |= INTERRUPT_BIT_CLICK
	}
	if i.OnPress {
		b |= INTERRUPT_BIT_PRESS
	}
	return b
}

func (i Interrupts) String() string {
	return fmt.Sprintf("on_click=%v on_press=%v", i.OnClick, i.OnPress)
}

// ApplyInterruptBit returns the register value with the given bit set or cleared,
// leaving all other bits untouched.
func ApplyInterruptBit(current, bit byte, enable bool) byte {
	if enable {
		return current | bit
	}
	return current & (^bit & 0xFF)
}

// QueueStatus does not contain the pop request bit, which always reads as zero.
type QueueStatus struct {
	Empty bool
	Full  bool
}

func DecodeQueueStatus(b byte) QueueStatus {
	return QueueStatus{
		Empty: b&QUEUE_BIT_EMPTY != 0,
		Full:  b&QUEUE_BIT_FULL != 0,
	}
}

// PopCommand is the value written to a queue status register to pop its oldest entry.
// The firmware-owned bits are written back as they were observed.
func (q QueueStatus) PopCommand() byte {
	b := QUEUE_BIT_POP
	if q.Empty {
		b |= QUEUE_BIT_EMPTY
	}
	if q.Full {
		b |= QUEUE_BIT_FULL
	}
	return b
}

func (q QueueStatus) String() string {
	return fmt.Sprintf("empty=%v full=%v", q.Empty, q.Full)
}
