// Package runtime is the per-frame orchestrator (§4.5 "authoritative
// per-frame order", §4.6 draw walk): it owns the VM, the instance
// table, and the event/room/input/renderer subsystems, and wires every
// vm.Hooks field so none of those subsystems need to import one
// another. Step() runs exactly one fixed-timestep tick; the CLI/app
// layer calls it in a loop, either driven by the window's vsync or, in
// headless mode, as fast as possible (§5 Determinism).
package runtime

import (
	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/builtins"
	"github.com/zurustar/gmcore/pkg/events"
	"github.com/zurustar/gmcore/pkg/input"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/renderer"
	"github.com/zurustar/gmcore/pkg/rooms"
	"github.com/zurustar/gmcore/pkg/vm"
)

// Engine ties one loaded title (Graph) to one live run: the VM, the
// instance table it owns, and the event/room/input/draw subsystems
// built on top of it.
type Engine struct {
	Graph     *assets.Graph
	VM        *vm.VM
	Instances *instance.Table
	Events    *events.Dispatcher
	Rooms     *rooms.Manager
	Input     *input.State
	Walker    *renderer.Walker
	Surface   renderer.Surface

	drawColor uint32
	drawAlpha float64

	frame         int
	exitRequested bool
}

// New builds an Engine: constructs the VM over graph/table, registers
// every built-in, and wires all the cross-package hooks. surface is
// where the draw walk lands each frame — an *renderer.Ebiten for a
// windowed run, an *renderer.Headless for --screenshot-at-frame and
// tests.
func New(graph *assets.Graph, table *instance.Table, source input.Source, surface renderer.Surface, opts ...vm.Option) *Engine {
	m := vm.New(graph, table, opts...)
	builtins.Register(m)

	e := &Engine{
		Graph:     graph,
		VM:        m,
		Instances: table,
		Events:    events.New(graph, m),
		Input:     input.New(source, m),
		Walker:    renderer.New(graph),
		Surface:   surface,
		drawColor: 0xFFFFFFFF,
		drawAlpha: 1,
	}
	e.Rooms = rooms.New(graph, m, e.Events)
	m.Hooks.Draw = e.onDraw
	m.Hooks.RequestExit = func(*vm.VM) { e.exitRequested = true }
	return e
}

// ExitRequested reports whether game_end() has been called; the
// frame loop honors it at the next frame boundary (§4.5 Cancellation).
func (e *Engine) ExitRequested() bool { return e.exitRequested }

// Frame returns the number of Step() calls completed so far.
func (e *Engine) Frame() int { return e.frame }

// Start places the default room, running its instance creation code
// and Create events exactly as a room transition would (§4.5).
func (e *Engine) Start() error {
	return e.Rooms.Goto(e.Graph.DefaultRoom)
}

// Step runs one fixed-timestep tick end to end: input snapshot, Begin
// Step, alarms, keyboard events, Step plus motion integration,
// collision phase, End Step, flush boundary, image_index advance, and
// the draw walk — in that order, per §4.5's authoritative per-frame
// order.
func (e *Engine) Step() error {
	e.Input.Sample()

	if err := e.firePhase(events.KindStep, events.SubtypeBeginStep); err != nil {
		return err
	}
	if err := e.fireAlarms(); err != nil {
		return err
	}
	if err := e.fireKeyboard(); err != nil {
		return err
	}
	if err := e.stepAndIntegrate(); err != nil {
		return err
	}
	if err := e.collisionPhase(); err != nil {
		return err
	}
	if err := e.firePhase(events.KindStep, events.SubtypeEndStep); err != nil {
		return err
	}

	if err := e.Events.Flush(); err != nil {
		return err
	}
	if e.Rooms.HasPending() {
		if err := e.Rooms.FlushPending(); err != nil {
			return err
		}
	}

	e.advanceImageIndex()

	if err := e.drawFrame(); err != nil {
		return err
	}

	e.frame++
	return nil
}

// firePhase fires (kind, subtype) on every live instance in ascending
// id order, using the snapshot taken at phase entry (§4.5 "Ordering").
func (e *Engine) firePhase(kind, subtype int32) error {
	for _, inst := range e.Instances.Snapshot() {
		if err := e.Events.Fire(inst, kind, subtype, -1); err != nil {
			return err
		}
	}
	return nil
}

// fireAlarms decrements every active alarm counter once; a counter
// that reaches 0 fires Alarm(k) after being set to -1 (§3 invariant 6).
func (e *Engine) fireAlarms() error {
	for _, inst := range e.Instances.Snapshot() {
		for k := 0; k < instance.AlarmCount; k++ {
			if inst.Alarm[k] < 0 {
				continue
			}
			inst.Alarm[k]--
			if inst.Alarm[k] == 0 {
				inst.Alarm[k] = -1
				if err := e.Events.Fire(inst, events.KindAlarm, int32(k), -1); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// fireKeyboard fires KeyPress/Keyboard/KeyRelease for every key in the
// corresponding edge-triggered set this frame (§4.5 point 4).
func (e *Engine) fireKeyboard() error {
	if err := e.fireKeysOfKind(e.Input.PressedKeys(), events.KindKeyPress); err != nil {
		return err
	}
	if err := e.fireKeysOfKind(e.Input.DownKeys(), events.KindKeyboard); err != nil {
		return err
	}
	return e.fireKeysOfKind(e.Input.ReleasedKeys(), events.KindKeyRelease)
}

func (e *Engine) fireKeysOfKind(keys []int32, kind int32) error {
	if len(keys) == 0 {
		return nil
	}
	for _, inst := range e.Instances.Snapshot() {
		for _, key := range keys {
			if err := e.Events.Fire(inst, kind, key, -1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) advanceImageIndex() {
	for _, inst := range e.Instances.Snapshot() {
		if inst.SpriteIndex >= 0 {
			inst.ImageIndex += inst.ImageSpeed
		}
	}
}
