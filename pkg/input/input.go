// Package input is the deterministic, edge-triggered keyboard model
// (§4.7 Keyboard, §6 CLI surface): a down/pressed/released snapshot
// rebuilt once per frame, fed either from a live source or byte-for-byte
// from a recorded input file so replay reproduces the same sequence of
// keyboard events (§8 property 4).
package input

import "github.com/zurustar/gmcore/pkg/vm"

// Source supplies the set of GameMaker virtual key codes currently held
// down, sampled once per frame. A live source asks the window system; a
// Playback source replays a recording.
type Source interface {
	Sample(frame int) map[int32]bool
}

// State is the current frame's edge-triggered snapshot: which keys are
// down, which just transitioned down (pressed) or up (released) since
// the previous frame.
type State struct {
	down     map[int32]bool
	pressed  map[int32]bool
	released map[int32]bool
	source   Source
	frame    int
}

// New builds a State reading from source, and installs the VM's
// keyboard hooks so built-ins never need to import this package.
func New(source Source, m *vm.VM) *State {
	s := &State{
		down:     make(map[int32]bool),
		pressed:  make(map[int32]bool),
		released: make(map[int32]bool),
		source:   source,
	}
	m.Hooks.KeyboardCheck = func(v *vm.VM, keyCode int32) bool { return s.down[keyCode] }
	m.Hooks.KeyboardCheckPressed = func(v *vm.VM, keyCode int32) bool { return s.pressed[keyCode] }
	m.Hooks.KeyboardCheckReleased = func(v *vm.VM, keyCode int32) bool { return s.released[keyCode] }
	return s
}

// Sample latches this frame's transitions (§4.5 point 1, "input
// snapshot"). Must run exactly once at the start of each frame, before
// any Keyboard/KeyPress/KeyRelease event dispatch.
func (s *State) Sample() {
	next := s.source.Sample(s.frame)
	s.frame++

	pressed := make(map[int32]bool)
	released := make(map[int32]bool)
	for key := range next {
		if !s.down[key] {
			pressed[key] = true
		}
	}
	for key := range s.down {
		if !next[key] {
			released[key] = true
		}
	}
	s.down = next
	s.pressed = pressed
	s.released = released
}

// Down/Pressed/Released report the current snapshot directly, for the
// event dispatcher's Keyboard/KeyPress/KeyRelease phase (§4.5 point 4),
// which needs the full set rather than one key at a time.
func (s *State) Down(key int32) bool     { return s.down[key] }
func (s *State) Pressed(key int32) bool  { return s.pressed[key] }
func (s *State) Released(key int32) bool { return s.released[key] }

// PressedKeys/DownKeys/ReleasedKeys return the keys in each set, for
// iterating subscribers without probing every possible key code.
func (s *State) PressedKeys() []int32  { return keys(s.pressed) }
func (s *State) DownKeys() []int32     { return keys(s.down) }
func (s *State) ReleasedKeys() []int32 { return keys(s.released) }

// keys returns m's keys in ascending order: map iteration order is
// randomized, and fireKeysOfKind dispatches events in this order, so an
// unsorted result would make event ordering (and anything byte-for-byte
// replay depends on, §5 Determinism/§8 property 4) vary run to run.
func keys(m map[int32]bool) []int32 {
	out := make([]int32, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sortInt32(out)
	return out
}

func sortInt32(keys []int32) {
	// insertion sort: per-frame key-set sizes are tiny, and a stable
	// minimal sort keeps this package dependency-free.
	for i := 1; i < len(keys); i++ {
		v := keys[i]
		j := i - 1
		for j >= 0 && keys[j] > v {
			keys[j+1] = keys[j]
			j--
		}
		keys[j+1] = v
	}
}
