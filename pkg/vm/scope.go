package vm

import (
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/opcode"
	"github.com/zurustar/gmcore/pkg/value"
)

// readVar resolves a push.var read by scope code (§4.4). Stacktop scope
// pops its target off the value stack first (dot-access); every other
// scope is read directly.
func (vm *VM) readVar(frame *CallFrame, scope opcode.Scope, slot int32) (value.Value, error) {
	switch scope {
	case opcode.ScopeLocal:
		if slot < 0 || int(slot) >= len(frame.Locals) {
			return value.Undefined, vm.fault(frame, "local slot %d out of range", slot)
		}
		return frame.Locals[slot], nil
	case opcode.ScopeArgument:
		if slot < 0 || int(slot) >= len(frame.Args) {
			return value.Undefined, vm.fault(frame, "argument slot %d out of range", slot)
		}
		return frame.Args[slot], nil
	case opcode.ScopeGlobal, opcode.ScopeBuiltin:
		return vm.Globals[slot], nil
	case opcode.ScopeSelf:
		return vm.readInstanceVar(frame, frame.SelfID, slot)
	case opcode.ScopeOther:
		return vm.readInstanceVar(frame, frame.OtherID, slot)
	case opcode.ScopeStacktop:
		target, err := vm.pop(frame)
		if err != nil {
			return value.Undefined, err
		}
		return vm.readInstanceVar(frame, int32(target.MustReal()), slot)
	default:
		return value.Undefined, vm.fault(frame, "unknown variable scope %d", scope)
	}
}

// writeVar is the write-side mirror of readVar (§4.4: "write-back obeys
// the same rules").
func (vm *VM) writeVar(frame *CallFrame, scope opcode.Scope, slot int32, v value.Value) error {
	switch scope {
	case opcode.ScopeLocal:
		if slot < 0 || int(slot) >= len(frame.Locals) {
			return vm.fault(frame, "local slot %d out of range", slot)
		}
		frame.Locals[slot] = v
		return nil
	case opcode.ScopeArgument:
		if slot < 0 || int(slot) >= len(frame.Args) {
			return vm.fault(frame, "argument slot %d out of range", slot)
		}
		frame.Args[slot] = v
		return nil
	case opcode.ScopeGlobal, opcode.ScopeBuiltin:
		vm.Globals[slot] = v
		return nil
	case opcode.ScopeSelf:
		return vm.writeInstanceVar(frame, frame.SelfID, slot, v)
	case opcode.ScopeOther:
		return vm.writeInstanceVar(frame, frame.OtherID, slot, v)
	case opcode.ScopeStacktop:
		target, err := vm.pop(frame)
		if err != nil {
			return err
		}
		return vm.writeInstanceVar(frame, int32(target.MustReal()), slot, v)
	default:
		return vm.fault(frame, "unknown variable scope %d", scope)
	}
}

func (vm *VM) readInstanceVar(frame *CallFrame, instID, slot int32) (value.Value, error) {
	inst := vm.Instances.Get(instID)
	if inst == nil {
		return value.Undefined, vm.fault(frame, "read on nonexistent instance %d", instID)
	}
	if instance.IsBuiltinSlot(slot) {
		v, _ := inst.GetBuiltin(instance.BuiltinSlot(slot))
		return v, nil
	}
	return inst.Vars[slot], nil
}

func (vm *VM) writeInstanceVar(frame *CallFrame, instID, slot int32, v value.Value) error {
	inst := vm.Instances.Get(instID)
	if inst == nil {
		return vm.fault(frame, "write on nonexistent instance %d", instID)
	}
	if instance.IsBuiltinSlot(slot) {
		inst.SetBuiltin(instance.BuiltinSlot(slot), v)
		return nil
	}
	inst.Vars[slot] = v
	return nil
}

// withTargets resolves a `with(expr)` target value into the snapshot of
// instance ids it denotes (§4.4/§9). A value at or above
// instance.FirstInstanceID is a single instance id; instance.ObjectAll
// denotes every live instance; anything else is an object index,
// expanded to every live instance of that object, snapshotted now so
// instances destroyed mid-iteration are skipped and newly created ones
// are not visited (§8 property 5).
func (vm *VM) withTargets(target value.Value) []int32 {
	n := int32(target.MustReal())
	switch {
	case n == int32(instance.ObjectAll):
		ids := make([]int32, 0)
		for _, inst := range vm.Instances.All() {
			ids = append(ids, inst.ID)
		}
		return ids
	case n >= instance.FirstInstanceID:
		if vm.Instances.Get(n) != nil {
			return []int32{n}
		}
		return nil
	default:
		ids := make([]int32, 0)
		for _, inst := range vm.Instances.OfObject(n) {
			ids = append(ids, inst.ID)
		}
		return ids
	}
}
