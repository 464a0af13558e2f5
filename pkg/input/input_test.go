package input

import (
	"testing"

	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/format"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/vm"
)

// scriptedSource replays a fixed sequence of down-sets, one per call to
// Sample, regardless of the frame argument — enough to drive State
// through a few frames deterministically in a test.
type scriptedSource struct {
	frames []map[int32]bool
	i      int
}

func (s *scriptedSource) Sample(frame int) map[int32]bool {
	if s.i >= len(s.frames) {
		return map[int32]bool{}
	}
	f := s.frames[s.i]
	s.i++
	return f
}

func newTestVM(t *testing.T) *vm.VM {
	t.Helper()
	c := &format.Container{Game: &format.GameInfo{BytecodeVersion: format.SupportedBytecodeVersion}}
	g, err := assets.Resolve(c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return vm.New(g, instance.NewTable())
}

func TestSampleLatchesPressedAndReleased(t *testing.T) {
	src := &scriptedSource{frames: []map[int32]bool{
		{13: true},
		{13: true},
		{},
	}}
	m := newTestVM(t)
	s := New(src, m)

	s.Sample()
	if !s.Pressed(13) || !s.Down(13) {
		t.Fatalf("frame 0: expected key 13 pressed and down")
	}

	s.Sample()
	if s.Pressed(13) {
		t.Fatalf("frame 1: key 13 held, should not report pressed again")
	}
	if !s.Down(13) {
		t.Fatalf("frame 1: key 13 should still be down")
	}

	s.Sample()
	if !s.Released(13) {
		t.Fatalf("frame 2: key 13 should be released")
	}
	if s.Down(13) {
		t.Fatalf("frame 2: key 13 should no longer be down")
	}
}

func TestHooksReflectState(t *testing.T) {
	src := &scriptedSource{frames: []map[int32]bool{{37: true}}}
	m := newTestVM(t)
	s := New(src, m)
	s.Sample()
	if !m.Hooks.KeyboardCheck(m, 37) {
		t.Fatalf("keyboard_check hook should report key 37 down")
	}
	if !m.Hooks.KeyboardCheckPressed(m, 37) {
		t.Fatalf("keyboard_check_pressed hook should report key 37 just pressed")
	}
	if m.Hooks.KeyboardCheckReleased(m, 37) {
		t.Fatalf("keyboard_check_released hook should not report key 37 released")
	}
}

func TestRecordingRoundTrip(t *testing.T) {
	src := &scriptedSource{frames: []map[int32]bool{
		{13: true},
		{},
		{37: true, 39: true},
	}}
	rs := NewRecordingSource(src)
	for frame := 0; frame < 3; frame++ {
		rs.Sample(frame)
	}
	rec := rs.Recording()
	if len(rec.Events["0"]) != 1 || rec.Events["0"][0] != 13 {
		t.Fatalf("frame 0 recording = %v", rec.Events["0"])
	}
	if _, ok := rec.Events["1"]; ok {
		t.Fatalf("frame 1 should not be recorded (no keys down)")
	}
	if len(rec.Events["2"]) != 2 {
		t.Fatalf("frame 2 recording = %v", rec.Events["2"])
	}

	playback := NewPlaybackSource(rec)
	if down := playback.Sample(0); !down[13] {
		t.Fatalf("playback frame 0 should replay key 13 down")
	}
	if down := playback.Sample(1); len(down) != 0 {
		t.Fatalf("playback frame 1 should have no keys down")
	}
}
