// Package app wires the CLI surface (pkg/cli) to one run of the engine:
// load the container, resolve its asset graph, build the input/render
// surfaces the flags ask for, and drive either a headless fixed-frame
// run or a windowed ebiten.Game loop.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/cli"
	"github.com/zurustar/gmcore/pkg/fileutil"
	"github.com/zurustar/gmcore/pkg/format"
	"github.com/zurustar/gmcore/pkg/input"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/logger"
	"github.com/zurustar/gmcore/pkg/renderer"
	"github.com/zurustar/gmcore/pkg/runtime"
	"github.com/zurustar/gmcore/pkg/vm"
)

// Application owns one process invocation end to end: flag parsing,
// container loading, engine construction and the frame loop.
type Application struct{}

// New returns an Application ready to Run.
func New() *Application {
	return &Application{}
}

// Run parses args, loads the named data container and drives it to
// completion. The returned error's concrete type decides the process
// exit code the caller reports (§7): *format.LoadError and
// *assets.AssetRefError are data-format problems (exit 2), everything
// else — including *vm.VmError — is a fatal runtime error (exit 1).
func (a *Application) Run(args []string) error {
	cfg, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	if cfg.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	if err := logger.InitLogger(logLevelFor(cfg)); err != nil {
		return err
	}
	log := logger.GetLogger()

	path, err := fileutil.ResolveDataPath(cfg.DataPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	container, err := format.ReadBytes(data)
	if err != nil {
		return err
	}
	graph, err := assets.Resolve(container)
	if err != nil {
		return err
	}

	if cfg.ListRooms {
		for _, r := range graph.Container.Rooms {
			fmt.Println(r.Name)
		}
		return nil
	}

	roomIndex := graph.DefaultRoom
	if cfg.Room != "" {
		idx, ok := graph.ResolveRoom(cfg.Room)
		if !ok {
			return fmt.Errorf("unknown room: %s", cfg.Room)
		}
		roomIndex = idx
	}

	source, finishRecording, err := buildInputSource(cfg)
	if err != nil {
		return err
	}

	table := instance.NewTable()
	opts := vmOptions(cfg)

	var surface renderer.Surface
	var headless *renderer.Headless
	if cfg.Headless() {
		r := room(graph, roomIndex)
		headless = renderer.NewHeadless(int(r.Width), int(r.Height), container.Texture)
		surface = headless
	} else {
		surface = renderer.NewEbiten(container.Texture)
	}

	engine := runtime.New(graph, table, source, surface, opts...)
	if err := engine.Rooms.Goto(roomIndex); err != nil {
		return err
	}

	log.Info("loaded title", "path", path, "room", graph.Container.Rooms[roomIndex].Name, "speed", cfg.Speed)

	if cfg.Headless() {
		err = runHeadless(engine, headless, cfg)
	} else {
		err = runWindowed(engine, surface.(*renderer.Ebiten), graph, cfg)
	}

	if finishErr := finishRecording(); finishErr != nil && err == nil {
		err = finishErr
	}
	return err
}

func room(graph *assets.Graph, index int32) *format.Room {
	return &graph.Container.Rooms[index]
}

func logLevelFor(cfg *cli.Config) string {
	if cfg.Debug {
		return "debug"
	}
	return cfg.LogLevel
}

// buildInputSource constructs the live/playback input.Source the flags
// ask for, plus a finish func that saves a recording if one is in
// progress (a no-op otherwise). --record-inputs and --playback-inputs
// are mutually exclusive; a recording can wrap either a live source or
// a played-back one, but playback-while-recording has no sensible use.
func buildInputSource(cfg *cli.Config) (input.Source, func() error, error) {
	if cfg.RecordInputs != "" && cfg.PlaybackInputs != "" {
		return nil, nil, fmt.Errorf("--record-inputs and --playback-inputs are mutually exclusive")
	}

	var source input.Source = input.LiveSource{}
	if cfg.PlaybackInputs != "" {
		rec, err := input.LoadRecording(cfg.PlaybackInputs)
		if err != nil {
			return nil, nil, err
		}
		source = input.NewPlaybackSource(rec)
	}

	if cfg.RecordInputs == "" {
		return source, func() error { return nil }, nil
	}

	rs := input.NewRecordingSource(source)
	return rs, func() error { return rs.Recording().Save(cfg.RecordInputs) }, nil
}

// vmOptions turns the --trace-*/--ignore-function-traced-calls flags
// into vm.Options; --debug-obj is read directly off cfg by callers that
// log per-instance detail, not through the VM's own option set.
func vmOptions(cfg *cli.Config) []vm.Option {
	opts := []vm.Option{vm.WithLogger(logger.GetLogger())}
	if len(cfg.TraceCalls) > 0 {
		opts = append(opts, vm.WithTrace("calls", cfg.TraceCalls))
	}
	if len(cfg.IgnoreFunctionTracedCalls) > 0 {
		opts = append(opts, vm.WithIgnoreTracedCalls(cfg.IgnoreFunctionTracedCalls))
	}
	if len(cfg.TraceEvents) > 0 {
		opts = append(opts, vm.WithTrace("events", cfg.TraceEvents))
	}
	if len(cfg.TraceInstructions) > 0 {
		opts = append(opts, vm.WithTrace("instructions", cfg.TraceInstructions))
	}
	return opts
}

// runHeadless steps the engine frame by frame with no window, saving a
// screenshot at every frame number --screenshot-at-frame names. It
// stops once the highest requested frame has been captured, or sooner
// if the title calls game_end().
func runHeadless(engine *runtime.Engine, surface *renderer.Headless, cfg *cli.Config) error {
	wanted := make(map[int]bool, len(cfg.ScreenshotAtFrame))
	last := 0
	for _, n := range cfg.ScreenshotAtFrame {
		wanted[n] = true
		if n > last {
			last = n
		}
	}

	for engine.Frame() <= last {
		if engine.ExitRequested() {
			break
		}
		if err := engine.Step(); err != nil {
			return err
		}
		if wanted[engine.Frame()-1] {
			path := strings.Replace(cfg.Screenshot, "%s", fmt.Sprint(engine.Frame()-1), 1)
			if err := surface.SavePNG(path); err != nil {
				return err
			}
		}
	}
	return nil
}

// runWindowed opens an ebiten window and drives the engine at cfg.Speed
// times per displayed frame, honoring the §6 debug keys: PageUp/
// PageDown cycle rooms, P pauses, O single-steps while paused.
func runWindowed(engine *runtime.Engine, surface *renderer.Ebiten, graph *assets.Graph, cfg *cli.Config) error {
	game := &windowGame{engine: engine, surface: surface, graph: graph, speed: cfg.Speed}

	r := room(graph, engine.Rooms.Current())
	ebiten.SetWindowSize(int(r.Width), int(r.Height))
	ebiten.SetWindowTitle(graph.Container.Game.Name)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	return ebiten.RunGame(game)
}

// windowGame is the ebiten.Game adapter around one Engine. Update only
// latches debug-key state; the actual Step() call — which performs the
// §4.5 draw walk as part of the same tick — runs from Draw, once the
// frame's destination *ebiten.Image is known.
type windowGame struct {
	engine  *runtime.Engine
	surface *renderer.Ebiten
	graph   *assets.Graph
	speed   float64

	paused   bool
	stepOnce bool
}

func (g *windowGame) Update() error {
	if g.engine.ExitRequested() {
		return ebiten.Termination
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageUp) {
		g.cycleRoom(-1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyPageDown) {
		g.cycleRoom(1)
	}
	if g.paused && inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.stepOnce = true
	}
	return nil
}

func (g *windowGame) cycleRoom(delta int) {
	count := len(g.graph.Container.Rooms)
	next := (int(g.engine.Rooms.Current()) + delta + count) % count
	if err := g.engine.Rooms.Goto(int32(next)); err != nil {
		slog.Default().Error("room change failed", "error", err)
	}
}

func (g *windowGame) Draw(screen *ebiten.Image) {
	g.surface.SetTarget(screen)

	steps := 0
	switch {
	case g.paused && g.stepOnce:
		steps = 1
		g.stepOnce = false
	case !g.paused:
		steps = 1
		if g.speed > 1 {
			steps = int(g.speed)
		}
	}
	for i := 0; i < steps; i++ {
		if err := g.engine.Step(); err != nil {
			slog.Default().Error("step failed", "error", err)
			return
		}
	}
}

func (g *windowGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	r := room(g.graph, g.engine.Rooms.Current())
	return int(r.Width), int(r.Height)
}
