package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	log "github.com/sirupsen/logrus"
)

type interactiveShell struct {
	rl  *readline.Instance
	out io.Writer
}

func newShell(out io.Writer) (*interactiveShell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "button> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &interactiveShell{rl: rl, out: rl.Stdout()}, nil
}

func (s *interactiveShell) run() error {
	defer s.rl.Close()
	log.SetOutput(s.rl.Stderr())
	s.printHelp()

	for {
		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err != nil {
			// EOF
			return nil
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]
		switch cmd {
		case "exit", "quit":
			return nil
		case "help", "?":
			s.printHelp()
		case "use":
			s.use(args)
		case "press", "release", "click":
			s.simulate(cmd)
		case "shell":
			fmt.Fprintln(s.out, "Already in the shell")
		default:
			commandFunc, ok := commands[cmd]
			if !ok {
				fmt.Fprintf(s.out, "Unknown command %v, type 'help'\n", cmd)
				continue
			}
			if err := commandFunc(args); err != nil {
				fmt.Fprintln(s.out, "Error:", err)
			}
		}
	}
}

func (s *interactiveShell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  use <name>                     select a configured button")
	fmt.Fprintln(s.out, "  get <register>                 read a register")
	fmt.Fprintln(s.out, "  set <register> <value>         write a register")
	fmt.Fprintln(s.out, "  regs                           read all registers")
	fmt.Fprintln(s.out, "  status, clear, info            button status")
	fmt.Fprintln(s.out, "  interrupts [on_click|on_press true|false]")
	fmt.Fprintln(s.out, "  pop-click, pop-press           pop the oldest queue entry")
	fmt.Fprintln(s.out, "  scan                           scan the I2C bus")
	fmt.Fprintln(s.out, "  led-sequence [rounds]          run a light chase over all buttons")
	fmt.Fprintln(s.out, "  press, release, click          simulate button events (-dummy only)")
	fmt.Fprintln(s.out, "  exit")
}

func (s *interactiveShell) use(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "Need one argument: button name")
		return
	}
	b, err := p.Find(args[0])
	if err != nil {
		fmt.Fprintln(s.out, "Error:", err)
		return
	}
	buttonName = b.Name()
	fmt.Fprintln(s.out, "Using", b)
}

func (s *interactiveShell) simulate(event string) {
	simulated := p.Simulated()
	if simulated == nil {
		fmt.Fprintln(s.out, "Button events can only be simulated with -dummy")
		return
	}
	b, err := selectedButton()
	if err != nil {
		fmt.Fprintln(s.out, "Error:", err)
		return
	}
	dev := simulated.Device(b.Address())
	if dev == nil {
		fmt.Fprintf(s.out, "No simulated device at %#02x\n", b.Address())
		return
	}
	switch event {
	case "press":
		dev.Press()
	case "release":
		dev.Release()
	case "click":
		dev.Click()
	}
	fmt.Fprintf(s.out, "Simulated %v on %v\n", event, b)
}
