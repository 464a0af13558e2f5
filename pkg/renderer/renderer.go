// Package renderer is the Renderer Contract: it walks the live instance
// table for the current room, depth-sorts what must be drawn, and feeds
// a small primitive surface (textured quad, rectangle, text) that either
// the real ebiten window or a headless in-memory framebuffer implements.
// Nothing upstream of this package ever touches an *ebiten.Image
// directly — the VM's draw_* built-ins and the per-frame draw walk both
// go through the Surface interface, matching the source runtime's split
// between game logic and the window/graphics layer (pkg/window,
// pkg/graphics in the source tool this engine was patterned on).
package renderer

import (
	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/format"
	"github.com/zurustar/gmcore/pkg/instance"
)

// Surface is the primitive drawing contract a render target implements.
// Coordinates are room space; an implementation is responsible for its
// own view/camera transform and for clipping to its output bounds.
type Surface interface {
	// Clear fills the frame with c, ARGB packed the way Instance.ImageBlend
	// and Room.BackgroundColor already are.
	Clear(c uint32)

	// DrawTexture draws the src rectangle of texture page pageIndex at
	// (x, y), scaled by xscale/yscale and rotated by angle degrees
	// counter-clockwise about its origin (originX, originY in texture
	// pixels), tinted by blend and ImageAlpha-style alpha in [0,1].
	DrawTexture(pageIndex int32, src format.TextureRegion, originX, originY int32, x, y, xscale, yscale, angle float64, blend uint32, alpha float64)

	// DrawRectangle draws an axis-aligned rectangle, outline-only when
	// outline is true (draw_rectangle's own "outline" argument).
	DrawRectangle(x0, y0, x1, y1 float64, c uint32, alpha float64, outline bool)

	// DrawText draws s at (x, y) in c, using whatever glyph source the
	// implementation has available (a loaded FONT page, or a fallback
	// fixed-width face for headless/test runs).
	DrawText(x, y float64, s string, c uint32, alpha float64)

	// Present finalizes the frame: swaps buffers for a windowed surface,
	// a no-op for a headless one.
	Present()
}

// Walker drives one frame's draw pass: the depth-sorted default sprite
// draw for every visible instance (§4.6 points 1-6), interleaved with
// whatever a Draw/DrawGUI event handler queues through DrawTexture/
// DrawRectangle/DrawText directly on the same Surface.
type Walker struct {
	Graph *assets.Graph
}

// New returns a Walker reading sprite/texture lookups from graph.
func New(graph *assets.Graph) *Walker {
	return &Walker{Graph: graph}
}

// DrawRoomBackground clears the surface to the room's background color,
// the first thing each frame's draw pass does (§4.6 point 1).
func (w *Walker) DrawRoomBackground(surface Surface, room *format.Room) {
	surface.Clear(room.BackgroundColor)
}

// DefaultDraw performs GameMaker's implicit "draw my sprite" behavior
// for one instance: the action every object with no Draw event handler
// gets for free, and the action a Draw event handler gets by calling
// draw_self(). Instances with no assigned sprite or SpriteIndex == -1
// draw nothing.
func (w *Walker) DefaultDraw(surface Surface, inst *instance.Instance) {
	if !inst.Visible || inst.SpriteIndex < 0 {
		return
	}
	c := w.Graph.Container
	if int(inst.SpriteIndex) >= len(c.Sprites) {
		return
	}
	sprite := c.Sprites[inst.SpriteIndex]
	if len(sprite.Frames) == 0 {
		return
	}
	frame := int(inst.ImageIndex) % len(sprite.Frames)
	if frame < 0 {
		frame += len(sprite.Frames)
	}
	regionIndex := sprite.Frames[frame]
	if regionIndex < 0 || int(regionIndex) >= len(c.Regions) {
		return
	}
	region := c.Regions[regionIndex]
	surface.DrawTexture(region.TextureIndex, region, sprite.OriginX, sprite.OriginY,
		inst.X, inst.Y, inst.ImageXScale, inst.ImageYScale, inst.ImageAngle,
		inst.ImageBlend, inst.ImageAlpha)
}

// DrawInstances depth-sorts snapshot (§4.6 point 3: back to front, by
// descending depth, ties broken by ascending instance id so draw order
// is deterministic — §8 property 3) and default-draws every one of
// them. The Draw event itself is fired by the caller (package runtime),
// once per instance at the point SortedForDraw yields it, so a Draw
// event handler's own draw_self()/draw_sprite calls land in the same
// relative position this function would have put the default draw.
func (w *Walker) DrawInstances(surface Surface, snapshot []*instance.Instance) {
	ordered := SortedForDraw(snapshot)
	for _, inst := range ordered {
		w.DefaultDraw(surface, inst)
	}
}

// SortedForDraw returns snapshot reordered back-to-front by depth
// (§4.6 point 3). snapshot is not modified; the returned slice is a new
// backing array copied from it.
func SortedForDraw(snapshot []*instance.Instance) []*instance.Instance {
	ordered := make([]*instance.Instance, len(snapshot))
	copy(ordered, snapshot)
	sortByDepth(ordered)
	return ordered
}

// sortByDepth is a plain insertion sort: per-room instance counts are
// small enough that this is both simpler and plenty fast, and it keeps
// the ordering stable without pulling in sort.Slice's interface-based
// comparator overhead for a few dozen elements.
func sortByDepth(instances []*instance.Instance) {
	for i := 1; i < len(instances); i++ {
		v := instances[i]
		j := i - 1
		for j >= 0 && less(v, instances[j]) {
			instances[j+1] = instances[j]
			j--
		}
		instances[j+1] = v
	}
}

// less reports whether a must be drawn before b: higher depth draws
// first (it is "further back"), ties broken by ascending instance id.
func less(a, b *instance.Instance) bool {
	if a.Depth != b.Depth {
		return a.Depth > b.Depth
	}
	return a.ID < b.ID
}
