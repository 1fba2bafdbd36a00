// Package panel assembles the I2C bus backend and the configured buttons.
package panel

import (
	"flag"
	"fmt"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/i2cbutton/bus"
	"github.com/antongulenko/i2cbutton/button"
	"github.com/antongulenko/i2cbutton/ft260"
	"github.com/antongulenko/i2cbutton/sim"
	log "github.com/sirupsen/logrus"
)

var DefaultPanel = Panel{
	UsbDevice:       "",
	I2cFreq:         uint(100),
	I2cRequestQueue: 20,
}

type Panel struct {
	UsbDevice       string
	I2cFreq         uint
	I2cRequestQueue int
	NoI2cSequencer  bool
	Dummy           bool
	ConfigFile      string

	Config Config

	usb       *ft260.Ft260
	sequencer *bus.Sequencer
	simulated *sim.Bus
	bus       bus.I2cBus
}

func (p *Panel) RegisterFlags() {
	flag.StringVar(&p.UsbDevice, "dev", p.UsbDevice, "Specify a USB path for FT260")
	flag.UintVar(&p.I2cFreq, "freq", p.I2cFreq, "The I2C bus frequency in kHz (60 - 3400)")
	flag.BoolVar(&p.NoI2cSequencer, "no-i2c-sequencer", p.NoI2cSequencer, "Disable the extra goroutine for sequencing I2C commands")
	flag.BoolVar(&p.Dummy, "dummy", p.Dummy, "Use simulated buttons instead of USB/I2C peripherals")
	flag.StringVar(&p.ConfigFile, "config", p.ConfigFile, "YAML file describing the connected buttons")
}

func (p *Panel) Setup() error {
	if p.ConfigFile != "" {
		conf, err := LoadConfig(p.ConfigFile)
		if err != nil {
			return err
		}
		p.Config = *conf
		log.Printf("Loaded %v button(s) from %v", len(conf.Buttons), p.ConfigFile)
	}
	if len(p.Config.Buttons) == 0 {
		p.Config.Buttons = []ButtonConfig{{Name: button.DefaultName}}
	}
	if err := p.Config.Validate(); err != nil {
		return err
	}

	var backend bus.I2cBus
	if p.Dummy {
		log.Println("Dummy panel: simulating buttons instead of USB/I2C peripherals")
		p.simulated = sim.NewBus()
		for i := range p.Config.Buttons {
			conf := p.Config.Buttons[i].ToButton()
			p.simulated.Add(sim.NewButton(conf.Address).SetID(conf.DeviceID))
		}
		backend = p.simulated
	} else {
		usb, err := ft260.OpenPath(p.UsbDevice)
		if err != nil {
			return err
		}
		p.usb = usb
		if err := usb.Setup(p.I2cFreq); err != nil {
			golib.Printerr(usb.Close())
			p.usb = nil
			return err
		}
		backend = usb
	}

	if p.NoI2cSequencer {
		p.bus = bus.NewShared(backend)
	} else {
		p.sequencer = bus.NewSequencer(backend, p.I2cRequestQueue)
		p.bus = p.sequencer
	}
	log.Println("Successfully initialized I2C bus")
	return nil
}

func (p *Panel) Bus() bus.I2cBus {
	return p.bus
}

// Simulated returns the simulated bus in dummy mode, nil otherwise
func (p *Panel) Simulated() *sim.Bus {
	return p.simulated
}

// Attach connects to all configured buttons and applies their settings
func (p *Panel) Attach() ([]*button.Button, error) {
	buttons := make([]*button.Button, 0, len(p.Config.Buttons))
	for i := range p.Config.Buttons {
		conf := &p.Config.Buttons[i]
		b, err := button.New(p.bus, conf.ToButton())
		if err != nil {
			return nil, err
		}
		if err := conf.Apply(b); err != nil {
			return nil, fmt.Errorf("Failed to configure %v: %w", b, err)
		}
		log.Debugf("Attached %v", b)
		buttons = append(buttons, b)
	}
	button.SortButtons(buttons)
	return buttons, nil
}

// Find attaches to the configured button with the given name
func (p *Panel) Find(name string) (*button.Button, error) {
	for i := range p.Config.Buttons {
		if conf := &p.Config.Buttons[i]; conf.Name == name {
			return button.New(p.bus, conf.ToButton())
		}
	}
	return nil, fmt.Errorf("No button named %v configured", name)
}

func (p *Panel) Cleanup() {
	if p.sequencer != nil {
		p.sequencer.Close()
	}
	if p.usb != nil {
		golib.Printerr(p.usb.Close())
	}
}
