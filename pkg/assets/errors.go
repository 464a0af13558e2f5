package assets

import "fmt"

// AssetRefError reports a dangling cross-reference discovered while
// resolving the asset graph: a sprite pointing at a nonexistent TPAG
// region, an object naming a TXTR-less sprite, and so on. Fatal at
// startup, exit code 2 (§7).
type AssetRefError struct {
	From  string
	Index int32
	To    string
}

func (e *AssetRefError) Error() string {
	return fmt.Sprintf("%s index %d refers to nonexistent %s", e.From, e.Index, e.To)
}
