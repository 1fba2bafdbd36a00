package panel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/antongulenko/i2cbutton/button"
)

var DefaultLedSequence = LedSequence{
	Circle:         true,
	Bounce:         false,
	PeakRadius:     1,
	SleepTime:      50 * time.Millisecond,
	PeakTravelTime: 1500 * time.Millisecond,
}

// LedSequence moves a brightness peak across the LEDs of a row of buttons
type LedSequence struct {
	Circle         bool
	Bounce         bool
	PeakRadius     int           // Number of LEDs around the brightness peak, that are not dark
	SleepTime      time.Duration // Time resolution for LED updates
	PeakTravelTime time.Duration // Time for one brightness peak to travel all LEDs
}

// Run computes the LED values for numRounds rounds. The callback receives values in 0..1,
// one per LED, and is responsible for sleeping.
func (s *LedSequence) Run(numLeds int, numRounds int, callback func(sleepTime time.Duration, values []float64) error) error {
	if numLeds <= 0 {
		return nil
	}
	stepsPerRound := float64(s.PeakTravelTime / s.SleepTime)
	timeStep := float64(numLeds) / stepsPerRound

	values := make([]float64, numLeds)
	numSteps := stepsPerRound * float64(numRounds)
	for i := float64(0); i < numSteps; i++ {
		if s.Circle {
			s.setLedValuesCircling(timeStep, s.Bounce, i, values)
		} else {
			s.setLedValuesBouncing(timeStep, i, values)
		}
		if err := callback(s.SleepTime, values); err != nil {
			return fmt.Errorf("Error during LED sequence, step %v of %v: %w", i, numSteps, err)
		}
	}
	return nil
}

func (s *LedSequence) setLedValuesBouncing(timeStep float64, x float64, values []float64) {
	max := float64(len(values))
	period := 2 * max
	t := x * timeStep
	t = t - math.Floor(t/period)*period
	mid := t
	if mid > max {
		mid = period - mid
	}
	for i := range values {
		values[i] = s.peakValue(float64(i) - mid)
	}
}

func (s *LedSequence) setLedValuesCircling(timeStep float64, bounce bool, x float64, values []float64) {
	if bounce {
		max := 3.2 * float64(len(values))
		x = x - math.Floor(x/max)*max
		if x > max/2 {
			x = max - x
		}
	}

	t := x * timeStep
	max := float64(len(values))
	mid := t - math.Floor(t/max)*max

	for i := range values {
		x := float64(i) - mid

		// Distance wrapping around 0 and max
		x2 := max - mid + float64(i)
		if x < 0 && x2 < math.Abs(x) {
			x = -x2
		}
		x3 := max - float64(i) + mid
		if x3 < x {
			x = -x3
		}
		values[i] = s.peakValue(x)
	}
}

func (s *LedSequence) peakValue(distance float64) float64 {
	radius := float64(s.PeakRadius)
	if radius <= 0 {
		radius = 1
	}
	if math.Abs(distance) > radius {
		return 0
	}
	v := math.Cos(distance / radius * math.Pi)
	return (v + 1) / 2 // Map to 0..1
}

// LedGroup controls the LED brightness of several buttons. Only changed values are
// written to the bus.
type LedGroup struct {
	Buttons []*button.Button

	// Brightness for the value 1
	MaxBrightness byte

	current []int
}

func NewLedGroup(buttons []*button.Button) *LedGroup {
	return &LedGroup{
		Buttons:       buttons,
		MaxBrightness: 255,
	}
}

// Brightness converts a value in 0..1 to a register value
func (g *LedGroup) Brightness(val float64) byte {
	if val < 0 || val > 1 || math.IsNaN(val) {
		panic(fmt.Sprintf("Invalid LED value %v", val))
	}
	return byte(math.Round(val * float64(g.MaxBrightness)))
}

// Set takes one value in 0..1 per button. Missing values leave the LED unchanged.
func (g *LedGroup) Set(values []float64) error {
	if len(g.current) != len(g.Buttons) {
		g.current = make([]int, len(g.Buttons))
		for i := range g.current {
			g.current[i] = -1
		}
	}
	for i, b := range g.Buttons {
		if i >= len(values) {
			break
		}
		brightness := g.Brightness(values[i])
		if g.current[i] == int(brightness) {
			continue
		}
		if err := b.SetLedBrightness(brightness); err != nil {
			g.current[i] = -1
			return err
		}
		g.current[i] = int(brightness)
	}
	return nil
}

func (g *LedGroup) SetAll(val float64) error {
	values := make([]float64, len(g.Buttons))
	for i := range values {
		values[i] = val
	}
	return g.Set(values)
}

var errSequenceStopped = errors.New("LED sequence stopped")

// Play runs the sequence on the group and turns all LEDs off afterwards. Closing the stop
// channel ends the sequence early without error. A nil stop channel is never closed.
func (g *LedGroup) Play(seq *LedSequence, numRounds int, stop <-chan struct{}) error {
	err := seq.Run(len(g.Buttons), numRounds, func(sleepTime time.Duration, values []float64) error {
		if err := g.Set(values); err != nil {
			return err
		}
		select {
		case <-stop:
			return errSequenceStopped
		case <-time.After(sleepTime):
			return nil
		}
	})
	if err != nil && !errors.Is(err, errSequenceStopped) {
		return err
	}
	return g.SetAll(0)
}
