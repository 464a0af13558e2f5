// Package cli parses the command-line surface (spec §6): a data
// container path plus the debug/trace/screenshot/input-recording flags
// that drive one run.
package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// stringList is a repeatable flag.Value collecting every occurrence in
// order, for flags like --debug-obj/--trace-calls that may be given more
// than once.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }
func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// intList is a repeatable flag.Value for --screenshot-at-frame.
type intList []int

func (l *intList) String() string {
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
func (l *intList) Set(v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("not an integer: %s", v)
	}
	*l = append(*l, n)
	return nil
}

// Config holds the settings parsed from the command line (spec §6).
type Config struct {
	DataPath string // path to the data container (game.unx)

	LogLevel string // debug, info, warn, error
	Debug    bool

	Room      string // name or index; empty = the container's default room
	ListRooms bool

	Screenshot        string // pattern, %s replaced by frame number
	ScreenshotAtFrame []int  // repeatable; presence forces headless mode

	DebugObj []string // object names to log extra detail for

	TraceCalls                []string
	IgnoreFunctionTracedCalls []string
	TraceEvents               []string
	TraceInstructions         []string

	Speed float64 // timestep multiplier, 1.0 = room_speed

	RecordInputs   string // path to write a recording to
	PlaybackInputs string // path to replay a recording from

	ShowHelp bool
}

// ParseArgs parses a command line into a Config, flag-before-positional
// reordered so the data path can appear anywhere on the line.
func ParseArgs(args []string) (*Config, error) {
	reordered := reorderArgs(args)

	fs := flag.NewFlagSet("gmcore", flag.ContinueOnError)
	cfg := &Config{Speed: 1.0, LogLevel: "info"}

	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&cfg.Debug, "debug", false, "enable verbose debug logging")

	fs.StringVar(&cfg.Room, "room", "", "start room, by name or index")
	fs.BoolVar(&cfg.ListRooms, "list-rooms", false, "print room names and exit")

	fs.StringVar(&cfg.Screenshot, "screenshot", "", "screenshot file pattern (%s -> frame number)")
	fs.Var((*intList)(&cfg.ScreenshotAtFrame), "screenshot-at-frame", "capture a screenshot at this frame (repeatable, forces headless mode)")

	fs.Var((*stringList)(&cfg.DebugObj), "debug-obj", "log extra per-instance detail for this object (repeatable)")
	fs.Var((*stringList)(&cfg.TraceCalls), "trace-calls", "trace script calls by name, or * for all (repeatable)")
	fs.Var((*stringList)(&cfg.IgnoreFunctionTracedCalls), "ignore-function-traced-calls", "exclude this script name from --trace-calls (repeatable)")
	fs.Var((*stringList)(&cfg.TraceEvents), "trace-events", "trace event dispatch by name, or * for all (repeatable)")
	fs.Var((*stringList)(&cfg.TraceInstructions), "trace-instructions", "trace instruction execution by code entry name, or * for all (repeatable)")

	fs.Float64Var(&cfg.Speed, "speed", 1.0, "timestep multiplier (1.0 = room_speed frames/sec)")

	fs.StringVar(&cfg.RecordInputs, "record-inputs", "", "write an input recording to this path")
	fs.StringVar(&cfg.PlaybackInputs, "playback-inputs", "", "replay an input recording from this path")

	fs.BoolVar(&cfg.ShowHelp, "help", false, "show this help")
	fs.BoolVar(&cfg.ShowHelp, "h", false, "show this help (shorthand)")

	if err := fs.Parse(reordered); err != nil {
		return nil, err
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}
	if cfg.Speed <= 0 {
		return nil, fmt.Errorf("speed must be positive, got %v", cfg.Speed)
	}

	if fs.NArg() > 0 {
		cfg.DataPath = fs.Arg(0)
	}
	if cfg.DataPath == "" && !cfg.ShowHelp && !cfg.ListRooms {
		return nil, fmt.Errorf("missing data container path")
	}

	return cfg, nil
}

// Headless reports whether the run should skip opening a window:
// forced on once any --screenshot-at-frame is requested (spec §6).
func (c *Config) Headless() bool {
	return len(c.ScreenshotAtFrame) > 0
}

// boolFlags lists the flags that never take a following value, so
// reorderArgs knows not to swallow the next positional argument.
var boolFlags = map[string]bool{
	"-h": true, "--h": true, "-help": true, "--help": true,
	"-debug": true, "--debug": true,
	"-list-rooms": true, "--list-rooms": true,
}

// reorderArgs moves every flag (and its value, where it takes one) to
// the front, positional arguments to the back, so flag.FlagSet.Parse
// doesn't stop at the first positional argument it meets.
func reorderArgs(args []string) []string {
	var flags, positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 0 && arg[0] == '-' {
			flags = append(flags, arg)
			if i+1 < len(args) && len(args[i+1]) > 0 && args[i+1][0] != '-' && !boolFlags[arg] {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}
	return append(flags, positional...)
}

// PrintHelp prints the CLI's usage text to stdout.
func PrintHelp() {
	io.WriteString(os.Stdout, helpText)
}

const helpText = `gmcore - GameMaker: Studio 1.x (Bytecode 16) re-execution runtime

Usage:
  gmcore [options] <data-container-path>

Arguments:
  data-container-path   path to the title's data container (game.unx)

Options:
  --room <name|index>              start room (default: the container's own default room)
  --list-rooms                     print room names and exit
  --screenshot <pattern>            screenshot file pattern, %s replaced by frame number
  --screenshot-at-frame <n>         capture a screenshot at frame n (repeatable; forces headless mode)
  --debug                          enable verbose debug logging
  --debug-obj <name>                log extra per-instance detail for this object (repeatable)
  --trace-calls <name|*>            trace script calls by name, or * for all (repeatable)
  --ignore-function-traced-calls <name>   exclude a script name from --trace-calls (repeatable)
  --trace-events <name|*>           trace event dispatch (repeatable)
  --trace-instructions <name|*>     trace instruction execution (repeatable)
  --speed <multiplier>              timestep multiplier (default 1.0)
  --record-inputs <path>            write an input recording to path
  --playback-inputs <path>          replay an input recording from path
  --log-level <level>               debug, info, warn, error (default info)
  -h, --help                        show this help

Exit codes:
  0   normal exit
  1   fatal runtime error
  2   data-format error

Examples:
  gmcore undertale/game.unx
  gmcore --list-rooms undertale/game.unx
  gmcore --room room_introimage --screenshot-at-frame 1 --screenshot frame%s.png undertale/game.unx
  gmcore --record-inputs run1.json undertale/game.unx
  gmcore --playback-inputs run1.json undertale/game.unx
`
