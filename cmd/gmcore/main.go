package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/zurustar/gmcore/pkg/app"
	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/format"
)

func main() {
	if err := app.New().Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a failure to the process exit code §7 specifies:
// a data-format problem discovered while loading the container is 2,
// everything else (including a *vm.VmError surfaced mid-run) is 1.
func exitCodeFor(err error) int {
	var loadErr *format.LoadError
	var refErr *assets.AssetRefError
	if errors.As(err, &loadErr) || errors.As(err, &refErr) {
		return 2
	}
	return 1
}
