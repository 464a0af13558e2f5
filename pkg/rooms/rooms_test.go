package rooms

import (
	"testing"

	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/events"
	"github.com/zurustar/gmcore/pkg/format"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/vm"
)

func buildTwoRoomGraph(t *testing.T) *assets.Graph {
	t.Helper()
	c := &format.Container{
		Game: &format.GameInfo{BytecodeVersion: format.SupportedBytecodeVersion, RoomOrder: []int32{0, 1}},
		Objects: []format.Object{
			{Name: "obj", SpriteIndex: -1, ParentIndex: -1},
		},
		Rooms: []format.Room{
			{
				Name: "room_a", CreationCodeIndex: -1,
				Instances: []format.RoomInstance{
					{ID: 1, X: 10, Y: 20, ObjectIndex: 0, CreationCodeIndex: -1, ScaleX: 1, ScaleY: 1},
				},
			},
			{Name: "room_b", CreationCodeIndex: -1},
		},
	}
	g, err := assets.Resolve(c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g
}

func TestGotoPlacesInstancesAndFiresCreate(t *testing.T) {
	g := buildTwoRoomGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := events.New(g, m)
	mgr := New(g, m, d)

	if err := mgr.Goto(0); err != nil {
		t.Fatalf("Goto: %v", err)
	}
	placed := table.OfObject(0)
	if len(placed) != 1 {
		t.Fatalf("expected 1 placed instance, got %d", len(placed))
	}
	if placed[0].X != 10 || placed[0].Y != 20 {
		t.Fatalf("instance placed at wrong position: %+v", placed[0])
	}
}

func TestGotoRemovesNonPersistentOnTransition(t *testing.T) {
	g := buildTwoRoomGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := events.New(g, m)
	mgr := New(g, m, d)

	if err := mgr.Goto(0); err != nil {
		t.Fatalf("Goto(0): %v", err)
	}
	if err := mgr.Goto(1); err != nil {
		t.Fatalf("Goto(1): %v", err)
	}
	if len(table.OfObject(0)) != 0 {
		t.Fatalf("non-persistent instance should not survive a room transition")
	}
}

func TestGotoKeepsPersistentInstances(t *testing.T) {
	g := buildTwoRoomGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := events.New(g, m)
	mgr := New(g, m, d)

	if err := mgr.Goto(0); err != nil {
		t.Fatalf("Goto(0): %v", err)
	}
	for _, inst := range table.OfObject(0) {
		inst.Persistent = true
	}
	if err := mgr.Goto(1); err != nil {
		t.Fatalf("Goto(1): %v", err)
	}
	if len(table.OfObject(0)) != 1 {
		t.Fatalf("persistent instance should survive a room transition")
	}
}

func TestFlushPendingAppliesNextAndPreviousRelativeToCurrent(t *testing.T) {
	g := buildTwoRoomGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := events.New(g, m)
	mgr := New(g, m, d)

	if err := mgr.Goto(0); err != nil {
		t.Fatalf("Goto(0): %v", err)
	}
	m.Hooks.RoomGoto(m, vm.RoomNext)
	if !mgr.HasPending() {
		t.Fatalf("expected a pending transition after room_goto_next")
	}
	if err := mgr.FlushPending(); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}
	if mgr.Current() != 1 {
		t.Fatalf("room_goto_next should have advanced to room 1, got %d", mgr.Current())
	}
}

func TestList(t *testing.T) {
	g := buildTwoRoomGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := events.New(g, m)
	mgr := New(g, m, d)

	names := mgr.List()
	if len(names) != 2 || names[0] != "room_a" || names[1] != "room_b" {
		t.Fatalf("List() = %v", names)
	}
}
