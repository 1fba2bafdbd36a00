package panel

import (
	"errors"
	"fmt"
	"time"

	"github.com/antongulenko/i2cbutton/button"
	log "github.com/sirupsen/logrus"
)

const (
	EventClick = "click"
	EventPress = "press"
)

type Event struct {
	Button *button.Button
	Kind   string // EventClick or EventPress

	// Queued events were popped from an event queue and carry their age. Otherwise the
	// event was derived from the status register.
	Queued bool
	AgeMs  uint32
}

func (e Event) String() string {
	if !e.Queued {
		return fmt.Sprintf("%v: %v", e.Button.Name(), e.Kind)
	}
	return fmt.Sprintf("%v: %v %vms ago", e.Button.Name(), e.Kind, e.AgeMs)
}

// Monitor polls the status register of all buttons. With firmware that supports popping
// the event queues, every queued event is reported. Otherwise only a single click is
// reported per poll, based on the status bits.
//
// The status is cleared before draining the queues. An event arriving during the poll
// is then either drained right away or sets the available bit again for the next poll.
type Monitor struct {
	Buttons  []*button.Button
	Interval time.Duration
	Handler  func(Event)

	popSupported map[button.Key]bool
	backlog      map[button.Key]bool // The last poll stopped at QueueDrainLimit
}

func (m *Monitor) Poll(b *button.Button) ([]Event, error) {
	st, err := b.Status()
	if err != nil {
		return nil, err
	}
	key := b.Key()
	if !st.Available && !m.backlog[key] {
		return nil, nil
	}
	supported, err := m.canPop(b)
	if err != nil {
		return nil, err
	}
	if st.Available {
		if err := b.Clear(); err != nil {
			return nil, err
		}
	}

	var events []Event
	if supported {
		if m.backlog == nil {
			m.backlog = make(map[button.Key]bool)
		}
		var pressesLeft, clicksLeft bool
		events, pressesLeft, err = m.drain(b, button.PressQueue, EventPress, events)
		if err == nil {
			events, clicksLeft, err = m.drain(b, button.ClickQueue, EventClick, events)
		}
		m.backlog[key] = err != nil || pressesLeft || clicksLeft
		if err != nil {
			return events, err
		}
	} else if st.ClickedSinceClear {
		events = append(events, Event{Button: b, Kind: EventClick})
	}
	return events, nil
}

// drain returns true if the queue might still contain entries
func (m *Monitor) drain(b *button.Button, q button.Queue, kind string, events []Event) ([]Event, bool, error) {
	for i := 0; i < QueueDrainLimit; i++ {
		age, err := b.Pop(q)
		if errors.Is(err, button.ErrQueueEmpty) {
			return events, false, nil
		} else if err != nil {
			return events, true, err
		}
		events = append(events, Event{Button: b, Kind: kind, Queued: true, AgeMs: age})
	}
	return events, true, nil
}

// Upper bound of pop operations per queue and poll, in case new events arrive constantly
const QueueDrainLimit = 16

func (m *Monitor) canPop(b *button.Button) (bool, error) {
	if m.popSupported == nil {
		m.popSupported = make(map[button.Key]bool)
	}
	key := b.Key()
	if supported, ok := m.popSupported[key]; ok {
		return supported, nil
	}
	supported, err := b.PopSupported()
	if err != nil {
		return false, err
	}
	if !supported {
		log.Warnf("%v: firmware ignores pop requests, only reporting clicks from the status register", b)
	}
	m.popSupported[key] = supported
	return supported, nil
}

// Run polls all buttons until the stop channel is closed. Errors are logged and do not
// stop the loop.
func (m *Monitor) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		for _, b := range m.Buttons {
			events, err := m.Poll(b)
			if err != nil {
				log.Errorf("Failed to poll %v: %v", b, err)
			}
			for _, event := range events {
				if m.Handler != nil {
					m.Handler(event)
				}
			}
		}
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}
