package panel

import (
	"fmt"
	"io/ioutil"

	"github.com/antongulenko/i2cbutton/button"
	"gopkg.in/yaml.v3"
)

// Config describes the buttons wired to the bus. Example:
//
//	buttons:
//	  - name: red
//	    address: 0x6f
//	    debounce_ms: 25
//	    led: {brightness: 0}
//	  - name: blue
//	    address: 0x6e
//	    interrupts: {on_click: true}
type Config struct {
	Buttons []ButtonConfig `yaml:"buttons"`
}

type ButtonConfig struct {
	Name       string           `yaml:"name"`
	Address    byte             `yaml:"address"`
	DeviceID   *byte            `yaml:"device_id"` // nil: button.DefaultDeviceID
	DebounceMs *uint16          `yaml:"debounce_ms"`
	Led        *LedConfig       `yaml:"led"`
	Interrupts *InterruptConfig `yaml:"interrupts"`
}

type LedConfig struct {
	Brightness  byte   `yaml:"brightness"`
	Granularity byte   `yaml:"granularity"`
	CycleMs     uint16 `yaml:"cycle_ms"`
	OffMs       uint16 `yaml:"off_ms"`
}

type InterruptConfig struct {
	OnClick *bool `yaml:"on_click"`
	OnPress *bool `yaml:"on_press"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("Failed to parse button configuration: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate fills in the default name, address and device ID of buttons that leave them
// out, and rejects duplicate buttons. A device_id of 0 is kept.
func (c *Config) Validate() error {
	names := make(map[string]bool)
	addresses := make(map[byte]string)
	for i := range c.Buttons {
		b := &c.Buttons[i]
		if b.Name == "" {
			b.Name = fmt.Sprintf("%v%v", button.DefaultName, i)
		}
		if b.Address == 0 {
			b.Address = button.DefaultAddress
		}
		if b.DeviceID == nil {
			id := button.DefaultDeviceID
			b.DeviceID = &id
		}
		if names[b.Name] {
			return fmt.Errorf("Duplicate button name %v", b.Name)
		}
		if other, ok := addresses[b.Address]; ok {
			return fmt.Errorf("Buttons %v and %v share I2C address %#02x", other, b.Name, b.Address)
		}
		names[b.Name] = true
		addresses[b.Address] = b.Name
	}
	return nil
}

// ToButton expects a validated configuration
func (c *ButtonConfig) ToButton() button.Config {
	id := button.DefaultDeviceID
	if c.DeviceID != nil {
		id = *c.DeviceID
	}
	return button.Config{
		Name:     c.Name,
		Address:  c.Address,
		DeviceID: id,
	}
}

// Apply writes the configured settings to the button. Settings left out are not touched.
func (c *ButtonConfig) Apply(b *button.Button) error {
	if c.DebounceMs != nil {
		if err := b.SetDebounceMs(*c.DebounceMs); err != nil {
			return err
		}
	}
	if c.Led != nil {
		if err := b.SetLed(c.Led.Brightness, c.Led.Granularity, c.Led.CycleMs, c.Led.OffMs); err != nil {
			return err
		}
	}
	if c.Interrupts != nil {
		if c.Interrupts.OnClick != nil {
			if err := b.SetOnClick(*c.Interrupts.OnClick); err != nil {
				return err
			}
		}
		if c.Interrupts.OnPress != nil {
			if err := b.SetOnPress(*c.Interrupts.OnPress); err != nil {
				return err
			}
		}
	}
	return nil
}
