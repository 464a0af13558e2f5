package builtins

import (
	"strconv"
	"strings"

	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// registerString installs the string-manipulation built-in family (§4.7),
// grounded on the teacher's registerStringBuiltins pattern.
func registerString(m *vm.VM) {
	m.RegisterBuiltin("string", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		s, err := argValue(args, 0).ToStr()
		if err != nil {
			return value.Str(""), nil
		}
		return value.Str(s), nil
	})
	m.RegisterBuiltin("real", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Real(argReal(args, 0, 0)), nil
	})
	m.RegisterBuiltin("string_length", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Real(float64(len([]rune(argStr(args, 0, ""))))), nil
	})
	m.RegisterBuiltin("string_upper", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Str(strings.ToUpper(argStr(args, 0, ""))), nil
	})
	m.RegisterBuiltin("string_lower", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Str(strings.ToLower(argStr(args, 0, ""))), nil
	})
	m.RegisterBuiltin("string_char_at", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		r := []rune(argStr(args, 0, ""))
		idx := int(argReal(args, 1, 1)) - 1 // GML string indices are 1-based
		if idx < 0 || idx >= len(r) {
			return value.Str(""), nil
		}
		return value.Str(string(r[idx])), nil
	})
	m.RegisterBuiltin("string_copy", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		r := []rune(argStr(args, 0, ""))
		start := int(argReal(args, 1, 1)) - 1
		count := int(argReal(args, 2, 0))
		if start < 0 {
			start = 0
		}
		if start >= len(r) {
			return value.Str(""), nil
		}
		end := start + count
		if end > len(r) || count < 0 {
			end = len(r)
		}
		return value.Str(string(r[start:end])), nil
	})
	m.RegisterBuiltin("string_pos", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		needle := argStr(args, 0, "")
		haystack := argStr(args, 1, "")
		idx := strings.Index(haystack, needle)
		if idx < 0 {
			return value.Real(0), nil
		}
		return value.Real(float64(len([]rune(haystack[:idx])) + 1)), nil
	})
	m.RegisterBuiltin("string_replace", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		s, sub, rep := argStr(args, 0, ""), argStr(args, 1, ""), argStr(args, 2, "")
		return value.Str(strings.Replace(s, sub, rep, 1)), nil
	})
	m.RegisterBuiltin("string_replace_all", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		s, sub, rep := argStr(args, 0, ""), argStr(args, 1, ""), argStr(args, 2, "")
		return value.Str(strings.ReplaceAll(s, sub, rep)), nil
	})
	m.RegisterBuiltin("string_trim", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Str(strings.TrimSpace(argStr(args, 0, ""))), nil
	})
	m.RegisterBuiltin("string_repeat", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		n := int(argReal(args, 1, 0))
		if n < 0 {
			n = 0
		}
		return value.Str(strings.Repeat(argStr(args, 0, ""), n)), nil
	})
	m.RegisterBuiltin("string_digits", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, r := range argStr(args, 0, "") {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		return value.Str(b.String()), nil
	})
	m.RegisterBuiltin("string_format", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		// string_format(val, total, dec): fixed-point formatting the way
		// GML pads numbers for display, without a full printf surface.
		val := argReal(args, 0, 0)
		dec := int(argReal(args, 2, 0))
		s := strconv.FormatFloat(val, 'f', dec, 64)
		total := int(argReal(args, 1, 0))
		for len(s) < total {
			s = " " + s
		}
		return value.Str(s), nil
	})
	m.RegisterBuiltin("ord", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		r := []rune(argStr(args, 0, ""))
		if len(r) == 0 {
			return value.Real(0), nil
		}
		return value.Real(float64(r[0])), nil
	})
	m.RegisterBuiltin("chr", func(v *vm.VM, self, other int32, args []value.Value) (value.Value, error) {
		return value.Str(string(rune(int(argReal(args, 0, 0))))), nil
	})
}

func argValue(args []value.Value, i int) value.Value {
	if i >= len(args) {
		return value.Undefined
	}
	return args[i]
}
