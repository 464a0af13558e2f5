package builtins

import (
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// registerInstance installs the instance-management built-in family
// (§4.5, §4.7). instance_create/instance_destroy go through the VM's
// deferred-create/destroy hooks so the visible instance table only
// changes at the per-frame flush boundary; everything else reads the
// live table directly.
func registerInstance(m *vm.VM) {
	m.RegisterBuiltin("instance_create", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		x, y := argReal(args, 0, 0), argReal(args, 1, 0)
		objIndex := int32(argReal(args, 2, -1))
		if v.Hooks.DeferCreate != nil {
			return value.Real(float64(v.Hooks.DeferCreate(v, objIndex, x, y))), nil
		}
		return value.Real(float64(v.Instances.Create(objIndex, x, y).ID)), nil
	})

	m.RegisterBuiltin("instance_destroy", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		target := self
		if len(args) > 0 {
			target = int32(args[0].MustReal())
		}
		if v.Hooks.DeferDestroy != nil {
			v.Hooks.DeferDestroy(v, target)
		} else if inst := v.Instances.Get(target); inst != nil {
			inst.Destroyed = true
		}
		return value.Undefined, nil
	})

	m.RegisterBuiltin("instance_exists", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		n := int32(argReal(args, 0, -1))
		switch {
		case n >= instance.FirstInstanceID:
			inst := v.Instances.Get(n)
			return value.BoolValue(inst != nil && !inst.Destroyed), nil
		default:
			return value.BoolValue(len(v.Instances.OfObject(n)) > 0), nil
		}
	})

	m.RegisterBuiltin("instance_number", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		objIndex := int32(argReal(args, 0, -1))
		return value.Real(float64(len(v.Instances.OfObject(objIndex)))), nil
	})

	m.RegisterBuiltin("instance_find", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		objIndex := int32(argReal(args, 0, -1))
		n := int(argReal(args, 1, 0))
		list := v.Instances.OfObject(objIndex)
		if n < 0 || n >= len(list) {
			return value.Real(-4), nil // GM's noone sentinel
		}
		return value.Real(float64(list[n].ID)), nil
	})

	m.RegisterBuiltin("position_meeting", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		x, y := argReal(args, 0, 0), argReal(args, 1, 0)
		objIndex := int32(argReal(args, 2, -1))
		for _, inst := range v.Instances.OfObject(objIndex) {
			if boundsContain(v, inst, x, y) {
				return value.BoolValue(true), nil
			}
		}
		return value.BoolValue(false), nil
	})
}
