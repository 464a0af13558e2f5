package vm

import "fmt"

// VmError reports a fatal interpreter fault: stack underflow, an unknown
// opcode, an unknown built-in, or a coercion type error (§7). Execution
// of the current event aborts; the diagnostic names the instance,
// object, event, code entry and instruction pointer in play so the
// caller can log exactly what the source spec calls for.
type VmError struct {
	Reason      string
	CodeName    string
	IP          int
	InstanceID  int32
	ObjectIndex int32
}

func (e *VmError) Error() string {
	return fmt.Sprintf("vm error in %s@%d (instance %d, object %d): %s",
		e.CodeName, e.IP, e.InstanceID, e.ObjectIndex, e.Reason)
}

func (vm *VM) fault(frame *CallFrame, format string, args ...any) error {
	name := "<none>"
	ip := 0
	if frame != nil {
		name = vm.codeName(frame.CodeIndex)
		ip = frame.IP
	}
	selfID := int32(-1)
	objIdx := int32(-1)
	if frame != nil {
		selfID = frame.SelfID
		if inst := vm.Instances.Get(frame.SelfID); inst != nil {
			objIdx = inst.ObjectIndex
		}
	}
	return &VmError{
		Reason:      fmt.Sprintf(format, args...),
		CodeName:    name,
		IP:          ip,
		InstanceID:  selfID,
		ObjectIndex: objIdx,
	}
}

func (vm *VM) codeName(codeIndex int32) string {
	if codeIndex < 0 || int(codeIndex) >= len(vm.Graph.Container.Code) {
		return "<invalid>"
	}
	return vm.Graph.Container.Code[codeIndex].Name
}
