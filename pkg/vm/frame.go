package vm

import "github.com/zurustar/gmcore/pkg/value"

// CallFrame is the interpreter's per-invocation state (§4.4): the
// currently executing code entry, instruction pointer, operand stack
// depth marker, and the self/other/locals/args a script or event body
// sees.
type CallFrame struct {
	CodeIndex int32
	IP        int
	SelfID    int32
	OtherID   int32
	Locals    []value.Value
	Args      []value.Value

	// EventKind/EventSubtype/EventObject are set only when this frame is
	// running an event handler body (as opposed to a plain script call):
	// which event fired, and which link of the instance's object parent
	// chain owns the handler currently running. event_inherited() uses
	// all three to resume the chain walk one link further up. -1 when
	// not applicable.
	EventKind    int32
	EventSubtype int32
	EventObject  int32
}

// EnvFrame is one level of the `with` iterator stack (§4.4/§9): a
// snapshot of target instance ids taken at pushenv time, the current
// iteration position, and the self/other pair pushenv interrupted so
// popenv can restore it once the snapshot is exhausted.
type EnvFrame struct {
	Targets    []int32
	Index      int
	PrevSelf   int32
	PrevOther  int32
	BodyStart  int // ip of the first instruction inside the with body
	AfterBody  int // ip to resume at once the snapshot is exhausted
}
