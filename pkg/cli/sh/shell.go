package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/rear.go/pkg/bench"
	"github.com/robotalks/rear.go/pkg/unit"
)

// Shell provides ishell backed interactive shell over a bench unit.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell *ishell.Shell
	Bench *bench.Bench
}

const (
	shellKey     = "$shell"
	manualPrompt = "[manual] > "
	autoPrompt   = "[auto] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&AutoCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(b *bench.Bench) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Bench: b,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(manualPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// BenchFrom gets the Bench from ishell context.
func BenchFrom(c *ishell.Context) *bench.Bench {
	return ShellFrom(c).Bench
}

// Print writes v as JSON when requested, or in its display form.
func Print(c *ishell.Context, v interface{}) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(v)
}

// IntArg parses the n-th argument, def when absent.
func IntArg(c *ishell.Context, n int, def int64, bits int) (int64, error) {
	if n >= len(c.Args) {
		return def, nil
	}
	v, err := strconv.ParseInt(c.Args[n], 0, bits)
	if err != nil {
		return 0, fmt.Errorf("argument %d: %w", n+1, err)
	}
	return v, nil
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

// AutoCmd switches between stepping by hand and running the
// scheduler and dispatcher in the background.
var AutoCmd = ishell.Cmd{
	Name: "auto",
	Help: "on|off",
	Func: func(c *ishell.Context) {
		s := ShellFrom(c)
		on := !s.Bench.Running()
		if len(c.Args) > 0 {
			switch c.Args[0] {
			case "on":
				on = true
			case "off":
				on = false
			default:
				c.Err(fmt.Errorf("expect on or off"))
				return
			}
		}
		s.Bench.Auto(on)
		if on {
			s.Shell.SetPrompt(autoPrompt)
		} else {
			s.Shell.SetPrompt(manualPrompt)
		}
	},
}

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	b, err := bench.New(unit.DefaultConfig())
	if err != nil {
		log.Fatalln(err)
	}
	defer b.Close()
	New(b).Run(flag.Args()...)
}
