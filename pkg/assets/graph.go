// Package assets resolves the typed chunk tables package format decodes
// into a single cross-referenced graph: sprite to texture page, object to
// parent to event code, room to placed instances to object. Resolution
// runs once, after every chunk has been parsed, and turns any dangling
// index into a fatal AssetRefError (§7) rather than a nil-pointer panic
// at runtime.
package assets

import (
	"fmt"

	"github.com/zurustar/gmcore/pkg/format"
)

// Graph is the resolved, immutable view of one loaded data container.
// Every field that stored a raw chunk-table index in package format is
// validated here; code elsewhere in the runtime can dereference those
// indices without re-checking bounds.
type Graph struct {
	Container *format.Container

	RoomByName   map[string]int32
	ObjectByName map[string]int32
	ScriptByName map[string]int32

	// ObjectParent[i] is the parent object index of object i, or -1.
	ObjectParent []int32

	// DefaultRoom is the first entry of GEN8's room order, or 0 if the
	// order table is empty.
	DefaultRoom int32
}

// Resolve validates every cross-reference in c and builds the name
// indices other packages query by.
func Resolve(c *format.Container) (*Graph, error) {
	g := &Graph{
		Container:    c,
		RoomByName:   make(map[string]int32, len(c.Rooms)),
		ObjectByName: make(map[string]int32, len(c.Objects)),
		ScriptByName: make(map[string]int32, len(c.Scripts)),
		ObjectParent: make([]int32, len(c.Objects)),
	}

	for i, r := range c.Rooms {
		g.RoomByName[r.Name] = int32(i)
	}
	for i, s := range c.Scripts {
		g.ScriptByName[s.Name] = int32(i)
		if s.CodeIndex < 0 || int(s.CodeIndex) >= len(c.Code) {
			return nil, &AssetRefError{From: "SCPT", Index: s.CodeIndex, To: "CODE"}
		}
	}

	for i, o := range c.Objects {
		g.ObjectByName[o.Name] = int32(i)
		g.ObjectParent[i] = o.ParentIndex
		if o.ParentIndex != -1 && (o.ParentIndex < 0 || int(o.ParentIndex) >= len(c.Objects)) {
			return nil, &AssetRefError{From: "OBJT", Index: o.ParentIndex, To: "OBJT (parent)"}
		}
		if o.SpriteIndex != -1 && (o.SpriteIndex < 0 || int(o.SpriteIndex) >= len(c.Sprites)) {
			return nil, &AssetRefError{From: "OBJT", Index: o.SpriteIndex, To: "SPRT"}
		}
		for _, ev := range o.Events {
			if ev.CodeIndex != -1 && (ev.CodeIndex < 0 || int(ev.CodeIndex) >= len(c.Code)) {
				return nil, &AssetRefError{From: "OBJT event", Index: ev.CodeIndex, To: "CODE"}
			}
		}
	}
	if err := detectParentCycle(g.ObjectParent); err != nil {
		return nil, err
	}

	for _, s := range c.Sprites {
		for _, frame := range s.Frames {
			if frame < 0 || int(frame) >= len(c.Regions) {
				return nil, &AssetRefError{From: "SPRT frame", Index: frame, To: "TPAG"}
			}
		}
	}
	for i, r := range c.Regions {
		if r.TextureIndex < 0 || int(r.TextureIndex) >= len(c.Texture) {
			return nil, &AssetRefError{From: "TPAG", Index: int32(i), To: "TXTR"}
		}
	}
	for _, bg := range c.Backgrounds {
		if bg.TextureIndex != -1 && (bg.TextureIndex < 0 || int(bg.TextureIndex) >= len(c.Regions)) {
			return nil, &AssetRefError{From: "BGND", Index: bg.TextureIndex, To: "TPAG"}
		}
	}
	for _, fnt := range c.Fonts {
		if fnt.TextureIndex != -1 && (fnt.TextureIndex < 0 || int(fnt.TextureIndex) >= len(c.Regions)) {
			return nil, &AssetRefError{From: "FONT", Index: fnt.TextureIndex, To: "TPAG"}
		}
	}
	for ri, r := range c.Rooms {
		for _, inst := range r.Instances {
			if inst.ObjectIndex < 0 || int(inst.ObjectIndex) >= len(c.Objects) {
				return nil, &AssetRefError{From: "ROOM instance", Index: inst.ObjectIndex, To: "OBJT"}
			}
			if inst.CreationCodeIndex != -1 && (inst.CreationCodeIndex < 0 || int(inst.CreationCodeIndex) >= len(c.Code)) {
				return nil, &AssetRefError{From: "ROOM instance creation code", Index: inst.CreationCodeIndex, To: "CODE"}
			}
		}
		if r.CreationCodeIndex != -1 && (r.CreationCodeIndex < 0 || int(r.CreationCodeIndex) >= len(c.Code)) {
			return nil, &AssetRefError{From: "ROOM", Index: int32(ri), To: "CODE"}
		}
	}

	if c.Game != nil && len(c.Game.RoomOrder) > 0 {
		g.DefaultRoom = c.Game.RoomOrder[0]
	}

	return g, nil
}

// detectParentCycle guards EventHandler walks (§4.5) against a malformed
// container whose OBJT parent chain loops forever.
func detectParentCycle(parent []int32) error {
	for start := range parent {
		slow, fast := int32(start), int32(start)
		for {
			fast = step(parent, fast)
			if fast == -1 {
				break
			}
			fast = step(parent, fast)
			if fast == -1 {
				break
			}
			slow = step(parent, slow)
			if slow == fast {
				return &AssetRefError{From: "OBJT", Index: int32(start), To: "OBJT (cyclic parent chain)"}
			}
		}
	}
	return nil
}

func step(parent []int32, i int32) int32 {
	if i == -1 {
		return -1
	}
	return parent[i]
}

// ObjectChain returns object, its parent, its parent's parent, and so on,
// terminating at the root (parent == -1). Used by the event dispatcher's
// inheritance walk (§4.5) and by event_inherited().
func (g *Graph) ObjectChain(object int32) []int32 {
	var chain []int32
	for object != -1 {
		chain = append(chain, object)
		object = g.ObjectParent[object]
	}
	return chain
}

// FindEvent looks up a (kind, subtype) handler on exactly one object,
// without walking its parent chain.
func (g *Graph) FindEvent(object int32, kind, subtype int32) (codeIndex int32, ok bool) {
	for _, ev := range g.Container.Objects[object].Events {
		if ev.Kind == kind && ev.Subtype == subtype {
			return ev.CodeIndex, true
		}
	}
	return 0, false
}

// ResolveRoom returns a room index by name or by decimal index string,
// matching the --room CLI flag's documented forms (§6).
func (g *Graph) ResolveRoom(nameOrIndex string) (int32, bool) {
	if idx, ok := g.RoomByName[nameOrIndex]; ok {
		return idx, true
	}
	n, err := parseIndex(nameOrIndex)
	if err != nil || n < 0 || int(n) >= len(g.Container.Rooms) {
		return 0, false
	}
	return n, true
}

func parseIndex(s string) (int32, error) {
	var n int32
	var neg bool
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(s) {
		return 0, errNotANumber
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, errNotANumber
		}
		n = n*10 + int32(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

var errNotANumber = fmt.Errorf("not a decimal room index")
