// Package builtins implements the name-keyed registry of built-in
// functions the bytecode interpreter's "call" instruction dispatches
// into when a callee name does not resolve to a user script (§4.7).
package builtins

import "github.com/zurustar/gmcore/pkg/vm"

// Register installs every built-in family into m. Called once after the
// VM and its owning runtime are constructed, mirroring the teacher's
// per-family registerXBuiltins() calls from its VM constructor.
func Register(m *vm.VM) {
	registerMath(m)
	registerString(m)
	registerInstance(m)
	registerDsList(m)
	registerDsMap(m)
	registerMisc(m)
}
