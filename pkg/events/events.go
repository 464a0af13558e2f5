// Package events dispatches GameMaker event kinds against the object
// parent chain and owns the deferred instance create/destroy queues
// that flush at the frame boundary defined in the interpreter's
// per-frame order.
package events

import (
	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// Event kinds, matching the source runtime's numeric event_type values.
const (
	KindCreate      int32 = 0
	KindDestroy     int32 = 1
	KindAlarm       int32 = 2
	KindStep        int32 = 3
	KindCollision   int32 = 4
	KindKeyboard    int32 = 5
	KindMouse       int32 = 6
	KindOther       int32 = 7
	KindDraw        int32 = 8
	KindKeyPress    int32 = 9
	KindKeyRelease  int32 = 10
	KindTrigger     int32 = 11
	KindCleanUp     int32 = 12
	KindGesture     int32 = 13
)

// Step event subtypes.
const (
	SubtypeStep      int32 = 0
	SubtypeBeginStep int32 = 1
	SubtypeEndStep   int32 = 2
)

// Draw event subtypes.
const (
	SubtypeDraw    int32 = 0
	SubtypeDrawGUI int32 = 64
)

// Dispatcher resolves and runs event handlers through the object
// parent chain and owns the deferred create/destroy queues.
type Dispatcher struct {
	Graph *assets.Graph
	VM    *vm.VM

	pendingCreate  []pendingInstance
	pendingDestroy []int32
}

type pendingInstance struct {
	id          int32
	objectIndex int32
}

// New builds a Dispatcher and installs the VM hooks it services
// (event_inherited re-dispatch, deferred create/destroy) so package vm
// never needs to import this package.
func New(graph *assets.Graph, m *vm.VM) *Dispatcher {
	d := &Dispatcher{Graph: graph, VM: m}
	m.Hooks.EventInherited = d.eventInherited
	m.Hooks.DeferCreate = d.deferCreate
	m.Hooks.DeferDestroy = d.deferDestroy
	return d
}

// Fire runs the (kind, subtype) handler for inst, walking the object's
// parent chain until one defines it. A missing handler anywhere in the
// chain is not an error (§4.5): most (kind, subtype) pairs simply have
// no code.
func (d *Dispatcher) Fire(inst *instance.Instance, kind, subtype int32, otherID int32) error {
	chain := d.Graph.ObjectChain(inst.ObjectIndex)
	for _, objIndex := range chain {
		if codeIndex, ok := d.Graph.FindEvent(objIndex, kind, subtype); ok {
			_, err := d.VM.CallEvent(codeIndex, inst.ID, otherID, objIndex, kind, subtype, nil)
			return err
		}
	}
	return nil
}

// eventInherited backs event_inherited(): it resumes the parent-chain
// walk one link past eventObject, the object that owns the frame
// currently executing.
func (d *Dispatcher) eventInherited(m *vm.VM, selfID, eventObject, kind, subtype int32) (value.Value, error) {
	inst := m.Instances.Get(selfID)
	if inst == nil {
		return value.Undefined, nil
	}
	chain := d.Graph.ObjectChain(inst.ObjectIndex)
	start := -1
	for i, objIndex := range chain {
		if objIndex == eventObject {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return value.Undefined, nil
	}
	for _, objIndex := range chain[start:] {
		if codeIndex, ok := d.Graph.FindEvent(objIndex, kind, subtype); ok {
			return m.CallEvent(codeIndex, selfID, -1, objIndex, kind, subtype, nil)
		}
	}
	return value.Undefined, nil
}

// deferCreate queues instance_create() for the flush boundary and
// reserves its id immediately so scripts that stash the return value
// this frame see a stable handle.
func (d *Dispatcher) deferCreate(m *vm.VM, objectIndex int32, x, y float64) int32 {
	inst := m.Instances.Create(objectIndex, x, y)
	d.pendingCreate = append(d.pendingCreate, pendingInstance{id: inst.ID, objectIndex: objectIndex})
	return inst.ID
}

// deferDestroy marks an instance destroyed immediately (so
// instance_exists() reflects it within the same frame, per §3
// invariant 4) but defers the actual Destroy event/removal to Flush.
func (d *Dispatcher) deferDestroy(m *vm.VM, instanceID int32) {
	inst := m.Instances.Get(instanceID)
	if inst == nil || inst.Destroyed {
		return
	}
	inst.Destroyed = true
	d.pendingDestroy = append(d.pendingDestroy, instanceID)
}

// Flush runs the §4.5 point 8 boundary: fire Create on every instance
// created this frame (in creation order), then Destroy on every
// instance destroyed this frame, then actually remove them.
func (d *Dispatcher) Flush() error {
	creates := d.pendingCreate
	d.pendingCreate = nil
	for _, p := range creates {
		inst := d.VM.Instances.Get(p.id)
		if inst == nil || inst.Destroyed {
			continue
		}
		if err := d.Fire(inst, KindCreate, 0, -1); err != nil {
			return err
		}
	}

	destroys := d.pendingDestroy
	d.pendingDestroy = nil
	for _, id := range destroys {
		inst := d.VM.Instances.Get(id)
		if inst == nil {
			continue
		}
		if err := d.Fire(inst, KindDestroy, 0, -1); err != nil {
			return err
		}
		d.VM.Instances.Remove(id)
	}
	return nil
}
