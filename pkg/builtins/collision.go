package builtins

import (
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/vm"
)

// boundsContain reports whether (x, y) falls inside inst's sprite bounding
// box, translated to its current position and scaled by its image scale.
// §9 leaves collision shape as an open question beyond axis-aligned bbox
// overlap; this runtime resolves it to bbox-only, the simplest shape that
// still drives Undertale's room-transition and attack-avoidance logic.
func boundsContain(v *vm.VM, inst *instance.Instance, x, y float64) bool {
	left, top, right, bottom, ok := spriteBounds(v, inst)
	if !ok {
		return false
	}
	return x >= left && x <= right && y >= top && y <= bottom
}

// spriteBounds returns inst's world-space axis-aligned bounding box.
func spriteBounds(v *vm.VM, inst *instance.Instance) (left, top, right, bottom float64, ok bool) {
	sprIdx := inst.SpriteIndex
	if sprIdx < 0 || int(sprIdx) >= len(v.Graph.Container.Sprites) {
		return 0, 0, 0, 0, false
	}
	spr := v.Graph.Container.Sprites[sprIdx]
	sx, sy := inst.ImageXScale, inst.ImageYScale
	l := inst.X + (float64(spr.BBoxLeft)-float64(spr.OriginX))*sx
	t := inst.Y + (float64(spr.BBoxTop)-float64(spr.OriginY))*sy
	r := inst.X + (float64(spr.BBoxRight)-float64(spr.OriginX))*sx
	b := inst.Y + (float64(spr.BBoxBottom)-float64(spr.OriginY))*sy
	if l > r {
		l, r = r, l
	}
	if t > b {
		t, b = b, t
	}
	return l, t, r, b, true
}

// BoundsOverlap reports whether two instances' bounding boxes intersect,
// the test both place_meeting()/instance_place() and the runtime's own
// per-frame collision phase use.
func BoundsOverlap(v *vm.VM, a, b *instance.Instance) bool {
	al, at, ar, ab, ok1 := spriteBounds(v, a)
	bl, bt, br, bb, ok2 := spriteBounds(v, b)
	if !ok1 || !ok2 {
		return false
	}
	return al <= br && ar >= bl && at <= bb && ab >= bt
}
