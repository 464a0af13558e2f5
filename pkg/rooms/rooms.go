// Package rooms selects and loads ROOM assets, carrying persistent
// instances across a transition and running the room-entry event
// sequence in the order §4.5's room-transition paragraph specifies.
package rooms

import (
	"fmt"

	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/events"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/vm"
)

// Manager owns the currently-loaded room and the carry-over of
// persistent instances across a transition. It installs vm.Hooks.RoomGoto
// so built-ins (room_goto, room_goto_next, ...) can request a
// transition without package vm importing this package.
type Manager struct {
	Graph      *assets.Graph
	VM         *vm.VM
	Dispatcher *events.Dispatcher

	current int32
	pending int32 // -1 = no pending transition
}

// New builds a Manager defaulting to the GEN8 default room and wires
// the VM's RoomGoto hook.
func New(graph *assets.Graph, m *vm.VM, dispatcher *events.Dispatcher) *Manager {
	mgr := &Manager{Graph: graph, VM: m, Dispatcher: dispatcher, current: graph.DefaultRoom, pending: -1}
	m.Hooks.RoomGoto = mgr.requestGoto
	return mgr
}

// requestGoto backs room_goto/room_goto_next/room_goto_previous/room_restart,
// latching the request for FlushPending to apply at the frame boundary.
func (m *Manager) requestGoto(v *vm.VM, roomIndex int32) {
	m.pending = roomIndex
}

// Current returns the currently active room index.
func (m *Manager) Current() int32 { return m.current }

// List returns every room's name in GEN8/ROOM chunk order, for --list-rooms.
func (m *Manager) List() []string {
	names := make([]string, len(m.Graph.Container.Rooms))
	for i, r := range m.Graph.Container.Rooms {
		names[i] = r.Name
	}
	return names
}

// HasPending reports whether a transition was requested this frame.
func (m *Manager) HasPending() bool { return m.pending != -1 }

// FlushPending applies a latched room_goto* request, if any. Called once
// at the §4.5 point 8 flush boundary, never mid-event (§5).
func (m *Manager) FlushPending() error {
	if m.pending == -1 {
		return nil
	}
	target := m.pending
	m.pending = -1
	switch target {
	case vm.RoomNext:
		target = m.current + 1
	case vm.RoomPrevious:
		target = m.current - 1
	case vm.RoomRestart:
		target = m.current
	}
	return m.Goto(target)
}

// Goto tears down the current room (firing Room End on non-persistent
// instances, removing them) and loads target: places its static
// instances, runs per-instance creation code then Create in list
// order, runs room creation code, then fires Room Start on everyone.
func (m *Manager) Goto(target int32) error {
	if target < 0 || int(target) >= len(m.Graph.Container.Rooms) {
		return fmt.Errorf("rooms: room index %d out of range", target)
	}

	for _, inst := range m.VM.Instances.Snapshot() {
		if inst.Destroyed {
			continue
		}
		if inst.Persistent {
			continue
		}
		if err := m.fireRoomEnd(inst); err != nil {
			return err
		}
		m.VM.Instances.Remove(inst.ID)
	}

	room := m.Graph.Container.Rooms[target]
	m.current = target

	placed := make([]*instance.Instance, 0, len(room.Instances))
	for _, ri := range room.Instances {
		inst := m.VM.Instances.Create(ri.ObjectIndex, ri.X, ri.Y)
		inst.ImageXScale, inst.ImageYScale = ri.ScaleX, ri.ScaleY
		inst.ImageBlend = ri.Color
		inst.ImageAngle = ri.Rotation
		placed = append(placed, inst)
	}

	for i, ri := range room.Instances {
		if ri.CreationCodeIndex == -1 {
			continue
		}
		if _, err := m.VM.Call(ri.CreationCodeIndex, placed[i].ID, -1, nil); err != nil {
			return err
		}
	}
	for _, inst := range placed {
		if err := m.Dispatcher.Fire(inst, events.KindCreate, 0, -1); err != nil {
			return err
		}
	}

	if room.CreationCodeIndex != -1 {
		if _, err := m.VM.Call(room.CreationCodeIndex, -1, -1, nil); err != nil {
			return err
		}
	}

	for _, inst := range m.VM.Instances.Snapshot() {
		if inst.Destroyed {
			continue
		}
		if err := m.Dispatcher.Fire(inst, events.KindOther, subtypeRoomStart, -1); err != nil {
			return err
		}
	}
	return nil
}

// subtypeRoomStart/subtypeRoomEnd are Other-event subtypes the source
// runtime uses for room transition notifications.
const (
	subtypeRoomStart int32 = 4
	subtypeRoomEnd   int32 = 5
)

func (m *Manager) fireRoomEnd(inst *instance.Instance) error {
	return m.Dispatcher.Fire(inst, events.KindOther, subtypeRoomEnd, -1)
}
