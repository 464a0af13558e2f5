package events

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/format"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/opcode"
	"github.com/zurustar/gmcore/pkg/vm"
)

// codeBuilder mirrors pkg/vm's hand-assembly test helper, scoped down to
// what's needed here: writing a marker value into a global slot so a
// test can observe which handler in a parent chain actually ran.
type codeBuilder struct{ buf []byte }

func (b *codeBuilder) header(op opcode.Op, type1 opcode.ValueKind, operand16 int16) *codeBuilder {
	h := make([]byte, 4)
	h[0] = byte(op)
	h[1] = byte(type1)
	binary.LittleEndian.PutUint16(h[2:4], uint16(operand16))
	b.buf = append(b.buf, h...)
	return b
}

func (b *codeBuilder) i32(v int32) *codeBuilder {
	var w [4]byte
	binary.LittleEndian.PutUint32(w[:], uint32(v))
	b.buf = append(b.buf, w[:]...)
	return b
}

func (b *codeBuilder) f64(v float64) *codeBuilder {
	var w [8]byte
	binary.LittleEndian.PutUint64(w[:], math.Float64bits(v))
	b.buf = append(b.buf, w[:]...)
	return b
}

func (b *codeBuilder) pushConstReal(v float64) *codeBuilder {
	b.header(opcode.OpPushConst, opcode.KindDouble, 0)
	return b.f64(v)
}

func (b *codeBuilder) popGlobal(slot int32) *codeBuilder {
	b.header(opcode.OpPop, opcode.KindVar, int16(opcode.ScopeGlobal))
	return b.i32(slot)
}

func (b *codeBuilder) exit() *codeBuilder {
	return b.header(opcode.OpExit, 0, 0)
}

// markerCode writes marker into global slot 0, then exits.
func markerCode(marker float64) []byte {
	var b codeBuilder
	b.pushConstReal(marker).popGlobal(0).exit()
	return b.buf
}

func exitOnlyCode() []byte {
	var b codeBuilder
	b.exit()
	return b.buf
}

// buildParentChildGraph returns a graph with two objects: "parent" (no
// parent, Create handler sets global[0] = 1) and "child" (parent index
// 0, no handlers of its own) so event_inherited/chain-walk tests can
// exercise inheritance.
func buildParentChildGraph(t *testing.T) (g *assets.Graph, parentObj, childObj int32) {
	t.Helper()
	parentCreate := markerCode(1)
	filler := exitOnlyCode()

	blob := append(append([]byte{}, parentCreate...), filler...)
	c := &format.Container{
		Game: &format.GameInfo{BytecodeVersion: format.SupportedBytecodeVersion},
		Code: []format.CodeEntry{
			{Name: "parent_create", Offset: 0, Length: int32(len(parentCreate))},
			{Name: "filler", Offset: int32(len(parentCreate)), Length: int32(len(filler))},
		},
		CodeBlob: blob,
		Objects: []format.Object{
			{Name: "parent", SpriteIndex: -1, ParentIndex: -1, Events: []format.EventHandler{
				{Kind: KindCreate, Subtype: 0, CodeIndex: 0},
			}},
			{Name: "child", SpriteIndex: -1, ParentIndex: 0, Events: nil},
		},
	}
	g, err := assets.Resolve(c)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	return g, 0, 1
}

func TestFireWalksParentChain(t *testing.T) {
	g, _, childObj := buildParentChildGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := New(g, m)

	inst := table.Create(childObj, 0, 0)
	if err := d.Fire(inst, KindCreate, 0, -1); err != nil {
		t.Fatalf("Fire: %v", err)
	}
	if got := m.Globals[0].MustReal(); got != 1 {
		t.Fatalf("parent's Create handler did not run via inheritance: global[0] = %v", got)
	}
}

func TestDeferredDestroyFlushesAtBoundary(t *testing.T) {
	g, parentObj, _ := buildParentChildGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := New(g, m)

	inst := table.Create(parentObj, 0, 0)
	m.Hooks.DeferDestroy(m, inst.ID)

	if !table.Get(inst.ID).Destroyed {
		t.Fatalf("instance should be marked destroyed immediately")
	}

	if err := d.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if table.Get(inst.ID) != nil {
		t.Fatalf("instance should be removed after flush")
	}
}

func TestDeferredCreateAssignsIDBeforeFlush(t *testing.T) {
	g, parentObj, _ := buildParentChildGraph(t)
	table := instance.NewTable()
	m := vm.New(g, table)
	d := New(g, m)

	id := m.Hooks.DeferCreate(m, parentObj, 5, 6)
	if table.Get(id) == nil {
		t.Fatalf("deferCreate should register the instance immediately")
	}
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if m.Globals[0].MustReal() != 1 {
		t.Fatalf("Create event should have fired by flush time")
	}
}
