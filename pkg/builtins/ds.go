package builtins

import (
	"sync"

	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// dsStore owns the runtime's data structure arenas. GML ds_list/ds_map
// handles are opaque real-valued ids, exactly like instance ids, so the
// registry keeps its own id-keyed tables rather than exposing Go slices
// or maps to scripts directly.
type dsStore struct {
	mu      sync.Mutex
	nextID  int32
	lists   map[int32][]value.Value
	maps    map[int32]map[string]value.Value
}

var stores = &dsStore{nextID: 1, lists: make(map[int32][]value.Value), maps: make(map[int32]map[string]value.Value)}

func registerDsList(m *vm.VM) {
	m.RegisterBuiltin("ds_list_create", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		stores.mu.Lock()
		id := stores.nextID
		stores.nextID++
		stores.lists[id] = nil
		stores.mu.Unlock()
		return value.Real(float64(id)), nil
	})
	m.RegisterBuiltin("ds_list_destroy", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		stores.mu.Lock()
		delete(stores.lists, id)
		stores.mu.Unlock()
		return value.Undefined, nil
	})
	m.RegisterBuiltin("ds_list_add", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		stores.mu.Lock()
		defer stores.mu.Unlock()
		stores.lists[id] = append(stores.lists[id], args[1:]...)
		return value.Undefined, nil
	})
	m.RegisterBuiltin("ds_list_size", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		stores.mu.Lock()
		defer stores.mu.Unlock()
		return value.Real(float64(len(stores.lists[id]))), nil
	})
	m.RegisterBuiltin("ds_list_find_value", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		idx := int(argReal(args, 1, 0))
		stores.mu.Lock()
		defer stores.mu.Unlock()
		list := stores.lists[id]
		if idx < 0 || idx >= len(list) {
			return value.Undefined, nil
		}
		return list[idx], nil
	})
	m.RegisterBuiltin("ds_list_clear", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		stores.mu.Lock()
		stores.lists[id] = nil
		stores.mu.Unlock()
		return value.Undefined, nil
	})
}

func registerDsMap(m *vm.VM) {
	m.RegisterBuiltin("ds_map_create", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		stores.mu.Lock()
		id := stores.nextID
		stores.nextID++
		stores.maps[id] = make(map[string]value.Value)
		stores.mu.Unlock()
		return value.Real(float64(id)), nil
	})
	m.RegisterBuiltin("ds_map_destroy", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		stores.mu.Lock()
		delete(stores.maps, id)
		stores.mu.Unlock()
		return value.Undefined, nil
	})
	m.RegisterBuiltin("ds_map_add", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		key := argStr(args, 1, "")
		stores.mu.Lock()
		defer stores.mu.Unlock()
		if stores.maps[id] == nil {
			stores.maps[id] = make(map[string]value.Value)
		}
		stores.maps[id][key] = argValue(args, 2)
		return value.BoolValue(true), nil
	})
	m.RegisterBuiltin("ds_map_find_value", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		key := argStr(args, 1, "")
		stores.mu.Lock()
		defer stores.mu.Unlock()
		return stores.maps[id][key], nil
	})
	m.RegisterBuiltin("ds_map_exists", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		key := argStr(args, 1, "")
		stores.mu.Lock()
		defer stores.mu.Unlock()
		_, ok := stores.maps[id][key]
		return value.BoolValue(ok), nil
	})
	m.RegisterBuiltin("ds_map_size", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		id := int32(argReal(args, 0, 0))
		stores.mu.Lock()
		defer stores.mu.Unlock()
		return value.Real(float64(len(stores.maps[id]))), nil
	})
}
