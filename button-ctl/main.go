package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/antongulenko/golib"
	"github.com/antongulenko/i2cbutton/bus"
	"github.com/antongulenko/i2cbutton/button"
	"github.com/antongulenko/i2cbutton/panel"
	log "github.com/sirupsen/logrus"
)

type commandFunc func(args []string) error

var (
	p          = panel.DefaultPanel
	command    = "scan"
	buttonName = ""
	commands   map[string]commandFunc
)

func init() {
	commands = map[string]commandFunc{
		"none":           func([]string) error { return nil },
		"scan":           scan,
		"info":           info,
		"regs":           regs,
		"get":            get,
		"set":            set,
		"status":         status,
		"clear":          clearStatus,
		"interrupts":     interrupts,
		"pop-click":      popQueue(button.ClickQueue),
		"pop-press":      popQueue(button.PressQueue),
		"change-address": changeAddress,
		"apply":          apply,
		"led-sequence":   ledSequence,
		"shell":          shell,
	}
}

func main() {
	p.RegisterFlags()
	flag.StringVar(&command, "c", command, fmt.Sprintf("Command to execute, one of: %v", commandNames()))
	flag.StringVar(&buttonName, "b", buttonName, "Name of the configured button to use (default: first)")
	golib.RegisterLogFlags()
	flag.Parse()
	golib.ConfigureLogging()
	golib.Checkerr(doMain())
}

func doMain() error {
	if err := p.Setup(); err != nil {
		return err
	}
	defer p.Cleanup()

	commandFunc, ok := commands[command]
	if !ok {
		return fmt.Errorf("Unknown command %v, available commands: %v", command, commandNames())
	}
	return commandFunc(flag.Args())
}

func commandNames() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func selectedButton() (*button.Button, error) {
	name := buttonName
	if name == "" {
		name = p.Config.Buttons[0].Name
	}
	return p.Find(name)
}

func parseNumber(str string, bits int) (uint64, error) {
	val, err := strconv.ParseUint(str, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("Failed to parse '%v' as %v bit number: %w", str, bits, err)
	}
	return val, nil
}

func scan([]string) error {
	slaves, err := bus.Scan(p.Bus())
	if err != nil {
		return err
	}
	log.Printf("Scanned slaves: %#02x", slaves)
	return nil
}

func info([]string) error {
	buttons, err := p.Attach()
	if err != nil {
		return err
	}
	for _, b := range buttons {
		if err := printInfo(b); err != nil {
			return err
		}
	}
	return nil
}

func printInfo(b *button.Button) error {
	version, err := b.Version()
	if err != nil {
		return err
	}
	st, err := b.Status()
	if err != nil {
		return err
	}
	ints, err := b.Interrupts()
	if err != nil {
		return err
	}
	debounce, err := b.DebounceMs()
	if err != nil {
		return err
	}
	pressQueue, err := b.PressQueueStatus()
	if err != nil {
		return err
	}
	clickQueue, err := b.ClickQueueStatus()
	if err != nil {
		return err
	}
	log.Printf("%v: firmware %v, debounce %vms", b, version, debounce)
	log.Printf("  status: %v", st)
	log.Printf("  interrupts: %v", ints)
	log.Printf("  press queue: %v, click queue: %v", pressQueue, clickQueue)
	return nil
}

func regs([]string) error {
	b, err := selectedButton()
	if err != nil {
		return err
	}
	for _, reg := range button.Registers {
		val, err := b.Get(reg)
		if err != nil {
			return err
		}
		fmt.Printf("%-60v %v (%#x)\n", reg, val, val)
	}
	return nil
}

func lookupRegister(name string) (button.Register, error) {
	reg, ok := button.RegisterByName(name)
	if !ok {
		return reg, fmt.Errorf("Unknown register %v", name)
	}
	return reg, nil
}

func get(args []string) error {
	if len(args) != 1 {
		return errors.New("Need one argument: register name")
	}
	reg, err := lookupRegister(args[0])
	if err != nil {
		return err
	}
	b, err := selectedButton()
	if err != nil {
		return err
	}
	val, err := b.Get(reg)
	if err != nil {
		return err
	}
	log.Printf("%v = %v (%#x)", reg.Name, val, val)
	return nil
}

func set(args []string) error {
	if len(args) != 2 {
		return errors.New("Need two arguments: register name and value")
	}
	reg, err := lookupRegister(args[0])
	if err != nil {
		return err
	}
	val, err := parseNumber(args[1], 32)
	if err != nil {
		return err
	}
	if reg == button.I2cAddress {
		return errors.New("Use the change-address command to change the I2C address")
	}
	b, err := selectedButton()
	if err != nil {
		return err
	}
	if err := b.Set(reg, uint32(val)); err != nil {
		return err
	}
	log.Printf("%v: set %v to %v", b, reg.Name, val)
	return nil
}

func status([]string) error {
	b, err := selectedButton()
	if err != nil {
		return err
	}
	st, err := b.Status()
	if err != nil {
		return err
	}
	log.Printf("%v: %v", b, st)
	return nil
}

func clearStatus([]string) error {
	b, err := selectedButton()
	if err != nil {
		return err
	}
	return b.Clear()
}

// Without arguments, print the interrupt configuration. Otherwise: on_click|on_press true|false
func interrupts(args []string) error {
	b, err := selectedButton()
	if err != nil {
		return err
	}
	if len(args) == 2 {
		enable, err := strconv.ParseBool(args[1])
		if err != nil {
			return err
		}
		switch args[0] {
		case "on_click":
			err = b.SetOnClick(enable)
		case "on_press":
			err = b.SetOnPress(enable)
		default:
			return fmt.Errorf("Unknown interrupt %v (on_click or on_press)", args[0])
		}
		if err != nil {
			return err
		}
	} else if len(args) != 0 {
		return errors.New("Need zero or two arguments: on_click|on_press true|false")
	}
	ints, err := b.Interrupts()
	if err != nil {
		return err
	}
	log.Printf("%v: interrupts %v", b, ints)
	return nil
}

func popQueue(q button.Queue) commandFunc {
	return func([]string) error {
		b, err := selectedButton()
		if err != nil {
			return err
		}
		return pop(b, q)
	}
}

func pop(b *button.Button, q button.Queue) error {
	if supported, err := b.PopSupported(); err != nil {
		return err
	} else if !supported {
		log.Warnf("%v: the firmware version ignores pop requests, the %v queue will not change", b, q.Name)
	}
	age, err := b.Pop(q)
	if errors.Is(err, button.ErrQueueEmpty) {
		log.Printf("%v: %v", b, err)
		return nil
	} else if err != nil {
		return err
	}
	log.Printf("%v: popped %v event from %vms ago", b, q.Name, age)
	return nil
}

func changeAddress(args []string) error {
	if len(args) != 1 {
		return errors.New("Need one argument: new I2C address")
	}
	newAddr, err := parseNumber(args[0], 7)
	if err != nil {
		return err
	}
	b, err := selectedButton()
	if err != nil {
		return err
	}
	occupied, err := bus.Occupied(p.Bus(), byte(newAddr))
	if err != nil {
		return err
	}
	if occupied {
		return fmt.Errorf("There is already a device at address %#02x", newAddr)
	}
	if err := b.SetAddress(byte(newAddr)); err != nil {
		return err
	}
	moved, err := button.New(p.Bus(), button.Config{Name: b.Name(), Address: byte(newAddr), DeviceID: b.DeviceID()})
	if err != nil {
		return fmt.Errorf("Button not found at new address %#02x: %w", newAddr, err)
	}
	log.Printf("Button now at %#02x: %v. Update the configuration file accordingly.", newAddr, moved)
	return nil
}

func apply([]string) error {
	buttons, err := p.Attach()
	if err != nil {
		return err
	}
	log.Printf("Configured %v button(s)", len(buttons))
	return nil
}

// Optional argument: number of rounds
func ledSequence(args []string) error {
	rounds := uint64(1)
	if len(args) == 1 {
		var err error
		if rounds, err = parseNumber(args[0], 16); err != nil {
			return err
		}
	} else if len(args) > 1 {
		return errors.New("Need zero or one argument: number of rounds")
	}
	buttons, err := p.Attach()
	if err != nil {
		return err
	}
	seq := panel.DefaultLedSequence
	return panel.NewLedGroup(buttons).Play(&seq, int(rounds), nil)
}

func shell([]string) error {
	sh, err := newShell(os.Stdout)
	if err != nil {
		return err
	}
	return sh.run()
}
