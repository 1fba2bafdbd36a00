package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/antongulenko/i2cbutton/sim"
	log "github.com/sirupsen/logrus"
	"github.com/splace/joysticks"
)

// joystickInput triggers LED sequences from a gamepad. With -dummy, the gamepad buttons
// also press and release the simulated buttons, in the order of the configuration file.
type joystickInput struct {
	index          int
	retryDuration  time.Duration
	sequenceButton int
	firstButton    int
}

func (j *joystickInput) registerFlags() {
	flag.IntVar(&j.index, "js", j.index, "Joystick device index (negative to disable)")
	flag.DurationVar(&j.retryDuration, "js-retry", j.retryDuration, "Time to retry joystick initialization")
	flag.IntVar(&j.sequenceButton, "led-sequence-button", j.sequenceButton, "Joystick Button index to manually trigger the LED sequence (0 to disable)")
	flag.IntVar(&j.firstButton, "js-first-button", j.firstButton, "Joystick Button index mapped to the first simulated button (-dummy only)")
}

func (j *joystickInput) waitAndConnect(d *buttonDaemon) {
	// Wait until Joysticks can be initialized successfully
	var js *joysticks.HID
	var err error
	for {
		if js, err = j.setup(d); err != nil {
			log.Errorf("Failed to setup Joystick: %v. Retrying in %v...", err, j.retryDuration)
			time.Sleep(j.retryDuration)
		} else {
			log.Printf("Opened joystick device index %v (%v buttons, %v axes, %v events)", j.index, len(js.Buttons), len(js.HatAxes), len(js.Events))
			break
		}
	}
	js.ParcelOutEvents() // Does not return
}

func (j *joystickInput) setup(d *buttonDaemon) (*joysticks.HID, error) {
	js := joysticks.Connect(j.index)
	if js == nil {
		return nil, fmt.Errorf("Failed to open joystick with index %v", j.index)
	}

	if j.sequenceButton > 0 {
		sequenceButton := uint8(j.sequenceButton)
		if !js.ButtonExists(sequenceButton) {
			return nil, fmt.Errorf("Button for triggering the LED sequence (index %v) does not exist on joystick", sequenceButton)
		}
		runSequence := js.OnButton(sequenceButton)
		go func() {
			for range runSequence {
				if err := d.runLedSequence(1); err != nil {
					log.Errorf("Triggered LED sequence failed: %v", err)
				}
			}
		}()
	}

	if simulated := d.panel.Simulated(); simulated != nil {
		for i, conf := range d.panel.Config.Buttons {
			jsButton := uint8(j.firstButton + i)
			if jsButton == uint8(j.sequenceButton) || !js.ButtonExists(jsButton) {
				continue
			}
			dev := simulated.Device(conf.Address)
			if dev == nil {
				continue
			}
			log.Printf("Joystick button %v simulates button %v", jsButton, conf.Name)
			j.forward(js, jsButton, dev)
		}
	}
	return js, nil
}

func (j *joystickInput) forward(js *joysticks.HID, jsButton uint8, dev *sim.Button) {
	pressed := js.OnClose(jsButton)
	released := js.OnOpen(jsButton)
	go func() {
		for {
			select {
			case <-pressed:
				dev.Press()
			case <-released:
				dev.Release()
			}
		}
	}()
}
