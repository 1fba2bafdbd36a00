package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/i2cbutton/panel"
	log "github.com/sirupsen/logrus"
)

func main() {
	d := newButtonDaemon()
	d.registerFlags()
	golib.RegisterLogFlags()
	flag.Parse()
	golib.ConfigureLogging()

	// "Clean" shutdown with Ctrl-C signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(d.stop)
	}
	defer cleanup()
	go func() {
		fmt.Println("Received signal", <-c)
		cleanup()
		os.Exit(0)
	}()

	golib.Checkerr(d.run())
}

func newButtonDaemon() *buttonDaemon {
	return &buttonDaemon{
		panel:                 panel.DefaultPanel,
		pollInterval:          50 * time.Millisecond,
		ledSequence:           panel.DefaultLedSequence,
		startupSequenceRounds: 1,
		clickLedTime:          200 * time.Millisecond,
		joystick: joystickInput{
			index:          -1,
			retryDuration:  2 * time.Second,
			sequenceButton: 0,
			firstButton:    1,
		},
		stopMonitor: make(chan struct{}),
		monitorDone: make(chan struct{}),
	}
}

type buttonDaemon struct {
	panel panel.Panel

	pollInterval          time.Duration
	ledSequence           panel.LedSequence
	startupSequenceRounds int
	clickLedTime          time.Duration
	joystick              joystickInput

	leds            *panel.LedGroup
	ledLock         sync.Mutex
	sequenceRunning bool
	stopMonitor     chan struct{} // Closed by stop()
	monitorDone     chan struct{} // Closed when run() returns
}

func (d *buttonDaemon) registerFlags() {
	d.panel.RegisterFlags()
	d.joystick.registerFlags()
	flag.DurationVar(&d.pollInterval, "poll", d.pollInterval, "Interval for polling the button status registers")
	flag.IntVar(&d.startupSequenceRounds, "startup-sequence", d.startupSequenceRounds, "Number of startup LED sequence rounds (can be disabled)")
	flag.DurationVar(&d.clickLedTime, "click-led", d.clickLedTime, "Time to light up the LED of a clicked button (0 to disable)")
}

func (d *buttonDaemon) run() error {
	defer close(d.monitorDone)
	if err := d.panel.Setup(); err != nil {
		return err
	}
	buttons, err := d.panel.Attach()
	if err != nil {
		return err
	}
	for _, b := range buttons {
		version, err := b.Version()
		if err != nil {
			return err
		}
		log.Printf("Attached %v, firmware %v", b, version)
	}
	d.leds = panel.NewLedGroup(buttons)

	if d.startupSequenceRounds > 0 {
		log.Println("Initialization done, running LED startup sequence...")
		if err := d.runLedSequence(d.startupSequenceRounds); err != nil {
			log.Errorf("Startup LED sequence failed: %v", err)
		}
	}
	if d.stopped() {
		return nil
	}
	if d.joystick.index >= 0 {
		go d.joystick.waitAndConnect(d)
	}

	monitor := panel.Monitor{
		Buttons:  buttons,
		Interval: d.pollInterval,
		Handler:  d.handleEvent,
	}
	log.Printf("Polling %v button(s) every %v", len(buttons), d.pollInterval)
	monitor.Run(d.stopMonitor) // Returns after stop()
	return nil
}

func (d *buttonDaemon) stopped() bool {
	select {
	case <-d.stopMonitor:
		return true
	default:
		return false
	}
}

func (d *buttonDaemon) handleEvent(event panel.Event) {
	log.Println(event)
	if event.Kind != panel.EventClick || d.clickLedTime <= 0 {
		return
	}
	d.ledLock.Lock()
	defer d.ledLock.Unlock()
	if d.sequenceRunning {
		return
	}
	b := event.Button
	if err := b.SetLedBrightness(d.leds.MaxBrightness); err != nil {
		log.Errorf("Failed to light up %v: %v", b, err)
		return
	}
	time.AfterFunc(d.clickLedTime, func() {
		d.ledLock.Lock()
		defer d.ledLock.Unlock()
		golib.Printerr(b.SetLedBrightness(0))
	})
}

func (d *buttonDaemon) runLedSequence(numRounds int) error {
	d.ledLock.Lock()
	if d.sequenceRunning || d.stopped() {
		d.ledLock.Unlock()
		return nil
	}
	d.sequenceRunning = true
	d.ledLock.Unlock()
	defer func() {
		d.ledLock.Lock()
		d.sequenceRunning = false
		d.ledLock.Unlock()
	}()
	return d.leds.Play(&d.ledSequence, numRounds, d.stopMonitor)
}

// stop must only be called once, and only after run() was started. It waits for run() to
// return before releasing the panel.
func (d *buttonDaemon) stop() {
	close(d.stopMonitor)
	<-d.monitorDone
	d.panel.Cleanup()
}
