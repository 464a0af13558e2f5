package builtins

import "github.com/zurustar/gmcore/pkg/value"

// argReal returns args[i] coerced to Real, or def if the argument is
// absent (GML built-ins commonly default trailing optional arguments).
func argReal(args []value.Value, i int, def float64) float64 {
	if i >= len(args) {
		return def
	}
	return args[i].MustReal()
}

// argStr returns args[i] coerced to Str, or def if absent.
func argStr(args []value.Value, i int, def string) string {
	if i >= len(args) {
		return def
	}
	s, err := args[i].ToStr()
	if err != nil {
		return def
	}
	return s
}
