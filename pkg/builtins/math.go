package builtins

import (
	"math"

	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// registerMath installs the numeric built-in family (§4.7), grounded on
// the teacher's registerMathBuiltins but against the real-valued Value
// type instead of Go's any/int64.
func registerMath(m *vm.VM) {
	unary := func(name string, f func(float64) float64) {
		m.RegisterBuiltin(name, func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
			return value.Real(f(argReal(args, 0, 0))), nil
		})
	}
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("arcsin", math.Asin)
	unary("arccos", math.Acos)
	unary("round", math.Round)
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("ln", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return 0
		}
	})

	m.RegisterBuiltin("arctan2", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Real(math.Atan2(argReal(args, 0, 0), argReal(args, 1, 0))), nil
	})
	m.RegisterBuiltin("power", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Real(math.Pow(argReal(args, 0, 0), argReal(args, 1, 0))), nil
	})
	m.RegisterBuiltin("min", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		r := math.Inf(1)
		for _, a := range args {
			if f := a.MustReal(); f < r {
				r = f
			}
		}
		return value.Real(r), nil
	})
	m.RegisterBuiltin("max", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		r := math.Inf(-1)
		for _, a := range args {
			if f := a.MustReal(); f > r {
				r = f
			}
		}
		return value.Real(r), nil
	})
	m.RegisterBuiltin("clamp", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		x, lo, hi := argReal(args, 0, 0), argReal(args, 1, 0), argReal(args, 2, 0)
		if x < lo {
			x = lo
		}
		if x > hi {
			x = hi
		}
		return value.Real(x), nil
	})
	m.RegisterBuiltin("point_distance", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		dx := argReal(args, 2, 0) - argReal(args, 0, 0)
		dy := argReal(args, 3, 0) - argReal(args, 1, 0)
		return value.Real(math.Hypot(dx, dy)), nil
	})
	m.RegisterBuiltin("point_direction", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		dx := argReal(args, 2, 0) - argReal(args, 0, 0)
		dy := argReal(args, 1, 0) - argReal(args, 3, 0) // GM's y axis points down
		deg := math.Atan2(dy, dx) * 180 / math.Pi
		if deg < 0 {
			deg += 360
		}
		return value.Real(deg), nil
	})

	// random()/irandom() draw from the VM's seeded PRNG so a run stays
	// replayable under --record-inputs/--playback-inputs (§4.7, §5).
	m.RegisterBuiltin("random", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Real(v.Rand().Float64() * argReal(args, 0, 0)), nil
	})
	m.RegisterBuiltin("random_range", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		lo, hi := argReal(args, 0, 0), argReal(args, 1, 0)
		return value.Real(lo + v.Rand().Float64()*(hi-lo)), nil
	})
	m.RegisterBuiltin("irandom", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		n := int64(argReal(args, 0, 0))
		if n <= 0 {
			return value.Real(0), nil
		}
		return value.Real(float64(v.Rand().Int64N(n + 1))), nil
	})
	m.RegisterBuiltin("irandom_range", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		lo, hi := int64(argReal(args, 0, 0)), int64(argReal(args, 1, 0))
		if hi < lo {
			lo, hi = hi, lo
		}
		return value.Real(float64(lo + v.Rand().Int64N(hi-lo+1))), nil
	})
	m.RegisterBuiltin("choose", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		if len(args) == 0 {
			return value.Undefined, nil
		}
		return args[v.Rand().IntN(len(args))], nil
	})
}
