package builtins

import (
	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// registerMisc installs the built-ins that reach outside the VM proper:
// logging, room transitions, keyboard queries and draw commands. Each
// goes through a VM hook the owning runtime wires in, so this package
// never needs to import package runtime/renderer/rooms/input itself.
func registerMisc(m *vm.VM) {
	m.RegisterBuiltin("show_debug_message", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		s, _ := argValue(args, 0).ToStr()
		v.Logger().Info("debug_message", "text", s)
		return value.Undefined, nil
	})

	m.RegisterBuiltin("room_goto", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		if v.Hooks.RoomGoto == nil {
			return value.Undefined, nil
		}
		v.Hooks.RoomGoto(v, int32(argReal(args, 0, 0)))
		return value.Undefined, nil
	})
	for name, sentinel := range map[string]int32{
		"room_goto_next":     vm.RoomNext,
		"room_goto_previous": vm.RoomPrevious,
		"room_restart":       vm.RoomRestart,
	} {
		name, sentinel := name, sentinel
		m.RegisterBuiltin(name, func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
			if v.Hooks.RoomGoto == nil {
				return value.Undefined, nil
			}
			v.Hooks.RoomGoto(v, sentinel)
			return value.Undefined, nil
		})
	}

	m.RegisterBuiltin("keyboard_check", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		if v.Hooks.KeyboardCheck == nil {
			return value.BoolValue(false), nil
		}
		return value.BoolValue(v.Hooks.KeyboardCheck(v, int32(argReal(args, 0, 0)))), nil
	})
	m.RegisterBuiltin("keyboard_check_pressed", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		if v.Hooks.KeyboardCheckPressed == nil {
			return value.BoolValue(false), nil
		}
		return value.BoolValue(v.Hooks.KeyboardCheckPressed(v, int32(argReal(args, 0, 0)))), nil
	})
	m.RegisterBuiltin("keyboard_check_released", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		if v.Hooks.KeyboardCheckReleased == nil {
			return value.BoolValue(false), nil
		}
		return value.BoolValue(v.Hooks.KeyboardCheckReleased(v, int32(argReal(args, 0, 0)))), nil
	})

	m.RegisterBuiltin("game_end", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		if v.Hooks.RequestExit != nil {
			v.Hooks.RequestExit(v)
		}
		return value.Undefined, nil
	})

	for _, name := range []string{"draw_self", "draw_sprite", "draw_sprite_ext", "draw_text", "draw_rectangle", "draw_set_color", "draw_set_alpha"} {
		name := name
		m.RegisterBuiltin(name, func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
			if v.Hooks.Draw != nil {
				v.Hooks.Draw(v, name, self, args)
			}
			return value.Undefined, nil
		})
	}
}
