package button

import "fmt"

// Queue identifies one of the two event queues. Only the ages of the newest and oldest
// entries are visible, the entries themselves cannot be read.
type Queue struct {
	Name   string
	Status Register
	Newest Register
	Oldest Register
}

var (
	PressQueue = Queue{"press", PressQueueStatus, LastPressMs, FirstPressMs}
	ClickQueue = Queue{"click", ClickQueueStatus, LastClickMs, FirstClickMs}
)

// Firmware versions that ignore the pop request bit
var popUnsupported = map[string]bool{
	"1.1": true,
}

func (b *Button) QueueStatus(q Queue) (QueueStatus, error) {
	val, err := b.getByte(q.Status)
	return DecodeQueueStatus(val), err
}

func (b *Button) PressQueueStatus() (QueueStatus, error) {
	return b.QueueStatus(PressQueue)
}

func (b *Button) ClickQueueStatus() (QueueStatus, error) {
	return b.QueueStatus(ClickQueue)
}

// Pop returns the age of the oldest queue entry in milliseconds and commands the firmware
// to drop it. The order is fixed: read the status, read the oldest age, write the pop
// command. An empty queue fails with ErrQueueEmpty without any write.
//
// A new entry arriving between reading the status and writing the pop command is not
// detected: the returned age may then belong to a different entry than the one removed.
func (b *Button) Pop(q Queue) (uint32, error) {
	status, err := b.QueueStatus(q)
	if err != nil {
		return 0, err
	}
	if status.Empty {
		return 0, fmt.Errorf("%v %w", q.Name, ErrQueueEmpty)
	}
	age, err := b.Get(q.Oldest)
	if err != nil {
		return 0, err
	}
	if err := b.Set(q.Status, uint32(status.PopCommand())); err != nil {
		return 0, err
	}
	return age, nil
}

func (b *Button) PopPressQueue() (uint32, error) {
	return b.Pop(PressQueue)
}

func (b *Button) PopClickQueue() (uint32, error) {
	return b.Pop(ClickQueue)
}

// PopSupported returns false for firmware versions known to ignore pop commands.
// Pop still executes on those, but the queue is not changed.
func (b *Button) PopSupported() (bool, error) {
	version, err := b.Version()
	if err != nil {
		return false, err
	}
	return !popUnsupported[version], nil
}
