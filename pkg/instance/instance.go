// Package instance implements the live entity table: the mutable,
// heap-owned Instance records a room's objects become once placed or
// created, their id allocation, and the built-in property dispatch
// table that intercepts reads/writes of the handful of variable slots
// GameMaker treats specially (x, y, sprite_index, and so on).
package instance

import "github.com/zurustar/gmcore/pkg/value"

// AlarmCount is the number of per-instance alarm down-counters (§3).
const AlarmCount = 12

// FirstInstanceID is the id the first instance created in a run
// receives; ids are assigned monotonically and never reused (§3
// invariant 3). Any Value at or above this threshold that the VM sees
// in a `with` target position is treated as an instance id rather than
// an object index (package vm).
const FirstInstanceID = 100001

// ObjectAll is the `with(all)` sentinel object index.
const ObjectAll = -3

// PathState is the path-follower state of an instance with an active
// path (§3, §4.5 point 5).
type PathState struct {
	PathIndex int32
	Position  float64 // 0..1
	Speed     float64
	EndAction int32
}

// Instance is one live entity. Only VM-visible handles to instances are
// ids (§9); this struct itself is never exposed to scripts by pointer.
type Instance struct {
	ID int32

	X, Y                       float64
	XPrevious, YPrevious       float64
	XStart, YStart             float64

	ObjectIndex int32

	SpriteIndex int32
	ImageIndex  float64
	ImageSpeed  float64
	ImageXScale float64
	ImageYScale float64
	ImageAngle  float64
	ImageBlend  uint32 // ARGB
	ImageAlpha  float64

	Depth float64

	Direction        float64
	Speed            float64
	HSpeed           float64
	VSpeed           float64
	Gravity          float64
	GravityDirection float64
	Friction         float64

	Solid      bool
	Visible    bool
	Persistent bool

	Alarm [AlarmCount]int32 // -1 = inactive

	Vars map[int32]value.Value // local variable bag, keyed by VARI slot id

	Path PathState

	Destroyed bool
}

// New returns a freshly initialized instance for the given object,
// positioned at (x, y), with every alarm inactive and default image/
// scale/alpha values matching the source runtime's creation defaults.
func New(id, objectIndex int32, x, y float64) *Instance {
	inst := &Instance{
		ID: id, ObjectIndex: objectIndex,
		X: x, Y: y, XPrevious: x, YPrevious: y, XStart: x, YStart: y,
		SpriteIndex: -1,
		ImageIndex:  0,
		ImageSpeed:  1,
		ImageXScale: 1,
		ImageYScale: 1,
		ImageBlend:  0xFFFFFFFF,
		ImageAlpha:  1,
		Visible:     true,
		Vars:        make(map[int32]value.Value),
	}
	for i := range inst.Alarm {
		inst.Alarm[i] = -1
	}
	return inst
}

// Table is the id-keyed instance arena. It owns id allocation and the
// per-frame iteration snapshot (§5: "iteration over instances is by
// ascending instance id, using a snapshot taken at phase entry").
type Table struct {
	byID   map[int32]*Instance
	nextID int32
}

// NewTable returns an empty instance table.
func NewTable() *Table {
	return &Table{byID: make(map[int32]*Instance), nextID: FirstInstanceID}
}

// Create allocates a new instance id and registers the instance.
func (t *Table) Create(objectIndex int32, x, y float64) *Instance {
	id := t.nextID
	t.nextID++
	inst := New(id, objectIndex, x, y)
	t.byID[id] = inst
	return inst
}

// Adopt registers an already-constructed instance (used when loading a
// room's static instance list, which carries its own saved id).
func (t *Table) Adopt(inst *Instance) {
	t.byID[inst.ID] = inst
	if inst.ID >= t.nextID {
		t.nextID = inst.ID + 1
	}
}

// Get returns the instance for id, or nil if it does not exist (already
// removed, or never created).
func (t *Table) Get(id int32) *Instance {
	return t.byID[id]
}

// Remove deletes an instance from the table outright — only called at
// the flush boundary after its Destroy event has fired (§3 invariant 4),
// or during non-persistent room teardown.
func (t *Table) Remove(id int32) {
	delete(t.byID, id)
}

// Snapshot returns every non-destroyed instance in ascending id order,
// the ordering §4.5/§5 require for each per-frame phase.
func (t *Table) Snapshot() []*Instance {
	ids := make([]int32, 0, len(t.byID))
	for id, inst := range t.byID {
		if !inst.Destroyed {
			ids = append(ids, id)
		}
	}
	sortInt32(ids)
	out := make([]*Instance, len(ids))
	for i, id := range ids {
		out[i] = t.byID[id]
	}
	return out
}

// OfObject returns every live instance of exactly the given object
// index, in ascending id order — the snapshot a `with(object_index)`
// iterates (§4.4).
func (t *Table) OfObject(objectIndex int32) []*Instance {
	var out []*Instance
	for _, inst := range t.Snapshot() {
		if inst.ObjectIndex == objectIndex {
			out = append(out, inst)
		}
	}
	return out
}

// All returns every live instance in ascending id order, the set
// `with(all)` iterates.
func (t *Table) All() []*Instance {
	return t.Snapshot()
}

func sortInt32(ids []int32) {
	// insertion sort: instance counts per frame are small, and a stable
	// minimal sort keeps this package dependency-free.
	for i := 1; i < len(ids); i++ {
		v := ids[i]
		j := i - 1
		for j >= 0 && ids[j] > v {
			ids[j+1] = ids[j]
			j--
		}
		ids[j+1] = v
	}
}
