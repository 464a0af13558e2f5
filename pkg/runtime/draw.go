package runtime

import (
	"github.com/zurustar/gmcore/pkg/events"
	"github.com/zurustar/gmcore/pkg/instance"
	"github.com/zurustar/gmcore/pkg/renderer"
	"github.com/zurustar/gmcore/pkg/value"
	"github.com/zurustar/gmcore/pkg/vm"
)

// drawFrame is §4.5 point 10 / §4.6: clear to the room's background
// color, then depth-sorted draw each instance — either its own Draw
// event handler (which issues draw_* built-ins that land back on
// onDraw) or, lacking one, the default sprite draw — and finally the
// DrawGUI pass.
func (e *Engine) drawFrame() error {
	room := e.Graph.Container.Rooms[e.Rooms.Current()]
	e.Walker.DrawRoomBackground(e.Surface, &room)

	ordered := renderer.SortedForDraw(e.Instances.Snapshot())
	for _, inst := range ordered {
		if err := e.drawOne(inst); err != nil {
			return err
		}
	}
	if err := e.drawGUI(); err != nil {
		return err
	}
	e.Surface.Present()
	return nil
}

func (e *Engine) drawOne(inst *instance.Instance) error {
	if !inst.Visible {
		return nil
	}
	if e.hasHandler(inst.ObjectIndex, events.KindDraw, events.SubtypeDraw) {
		return e.Events.Fire(inst, events.KindDraw, events.SubtypeDraw, -1)
	}
	e.Walker.DefaultDraw(e.Surface, inst)
	return nil
}

// drawGUI runs the DrawGUI event on every instance that defines one,
// after the room's own Draw pass (GameMaker draws GUI layers in screen
// space, unaffected by the room's view/depth sort).
func (e *Engine) drawGUI() error {
	for _, inst := range e.Instances.Snapshot() {
		if !inst.Visible {
			continue
		}
		if !e.hasHandler(inst.ObjectIndex, events.KindDraw, events.SubtypeDrawGUI) {
			continue
		}
		if err := e.Events.Fire(inst, events.KindDraw, events.SubtypeDrawGUI, -1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) hasHandler(objectIndex, kind, subtype int32) bool {
	for _, obj := range e.Graph.ObjectChain(objectIndex) {
		if _, ok := e.Graph.FindEvent(obj, kind, subtype); ok {
			return true
		}
	}
	return false
}

// onDraw interprets one draw_* built-in call recorded during a Draw/
// DrawGUI event handler (§4.6), translating GameMaker's call
// conventions onto the Surface primitives.
func (e *Engine) onDraw(v *vm.VM, kind string, selfID int32, args []value.Value) {
	switch kind {
	case "draw_self":
		if inst := v.Instances.Get(selfID); inst != nil {
			e.Walker.DefaultDraw(e.Surface, inst)
		}
	case "draw_sprite":
		inst := v.Instances.Get(selfID)
		e.drawSpriteFrame(
			int32(arg(args, 0)), arg(args, 1),
			arg(args, 2), arg(args, 3),
			1, 1, 0, e.drawColor, e.drawAlpha, inst)
	case "draw_sprite_ext":
		inst := v.Instances.Get(selfID)
		e.drawSpriteFrame(
			int32(arg(args, 0)), arg(args, 1),
			arg(args, 2), arg(args, 3),
			arg(args, 4), arg(args, 5), arg(args, 6),
			uint32(arg(args, 7)), arg(args, 8), inst)
	case "draw_text":
		s, _ := argValueAt(args, 2).ToStr()
		e.Surface.DrawText(arg(args, 0), arg(args, 1), s, e.drawColor, e.drawAlpha)
	case "draw_rectangle":
		outline := argValueAt(args, 4).ToBool()
		e.Surface.DrawRectangle(arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3), e.drawColor, e.drawAlpha, outline)
	case "draw_set_color":
		e.drawColor = (e.drawColor &^ 0x00FFFFFF) | (uint32(arg(args, 0)) & 0x00FFFFFF)
	case "draw_set_alpha":
		e.drawAlpha = arg(args, 0)
	}
}

// drawSpriteFrame resolves (spriteIndex, subimg) to a texture region
// and delegates to the Surface. subimg < 0 means "use the instance's
// own image_index" (draw_sprite's documented default), falling back to
// frame 0 when no instance is available (a direct draw_sprite_ext call
// has no implicit "self" to borrow image_index from).
func (e *Engine) drawSpriteFrame(spriteIndex int32, subimg, x, y, xscale, yscale, angle float64, blend uint32, alpha float64, inst *instance.Instance) {
	sprites := e.Graph.Container.Sprites
	if spriteIndex < 0 || int(spriteIndex) >= len(sprites) {
		return
	}
	sprite := sprites[spriteIndex]
	if len(sprite.Frames) == 0 {
		return
	}
	frame := int(subimg)
	if subimg < 0 {
		if inst != nil {
			frame = int(inst.ImageIndex)
		} else {
			frame = 0
		}
	}
	frame %= len(sprite.Frames)
	if frame < 0 {
		frame += len(sprite.Frames)
	}
	regionIndex := sprite.Frames[frame]
	regions := e.Graph.Container.Regions
	if regionIndex < 0 || int(regionIndex) >= len(regions) {
		return
	}
	region := regions[regionIndex]
	e.Surface.DrawTexture(region.TextureIndex, region, sprite.OriginX, sprite.OriginY, x, y, xscale, yscale, angle, blend, alpha)
}

func arg(args []value.Value, i int) float64 {
	return argValueAt(args, i).MustReal()
}

func argValueAt(args []value.Value, i int) value.Value {
	if i < 0 || i >= len(args) {
		return value.Undefined
	}
	return args[i]
}
