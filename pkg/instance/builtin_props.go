package instance

import "github.com/zurustar/gmcore/pkg/value"

// BuiltinSlot names the well-known instance variables the VM's variable
// ops must intercept before falling through to the instance's local
// variable bag (§9: "avoids special-casing in the VM's variable ops").
// Slot ids are negative so they never collide with a real VARI slot
// (VARI/FUNC tables assign non-negative ids).
type BuiltinSlot int32

const (
	SlotX BuiltinSlot = -(iota + 1)
	SlotY
	SlotXPrevious
	SlotYPrevious
	SlotXStart
	SlotYStart
	SlotSpriteIndex
	SlotImageIndex
	SlotImageSpeed
	SlotImageXScale
	SlotImageYScale
	SlotImageAngle
	SlotImageBlend
	SlotImageAlpha
	SlotDepth
	SlotDirection
	SlotSpeed
	SlotHSpeed
	SlotVSpeed
	SlotGravity
	SlotGravityDirection
	SlotFriction
	SlotSolid
	SlotVisible
	SlotPersistent
	SlotObjectIndex
	SlotPathPosition
	SlotPathSpeed
	SlotAlarm0 // Alarm1..11 follow at SlotAlarm0-1 ... SlotAlarm0-11
)

// AlarmSlot returns the built-in slot id for alarm[k], k in [0,12).
func AlarmSlot(k int) BuiltinSlot {
	return SlotAlarm0 - BuiltinSlot(k)
}

// IsBuiltinSlot reports whether slot names a built-in instance property
// rather than a VARI-assigned local variable slot.
func IsBuiltinSlot(slot int32) bool {
	return slot < 0
}

// GetBuiltin reads a built-in property, applying the read-side coercion
// every such slot uses (§3/§4.4: booleans surface as Real 0/1, ARGB as
// Real, and so on).
func (inst *Instance) GetBuiltin(slot BuiltinSlot) (value.Value, bool) {
	switch {
	case slot >= SlotAlarm0-AlarmCount+1 && slot <= SlotAlarm0:
		k := int(SlotAlarm0 - slot)
		return value.Real(float64(inst.Alarm[k])), true
	}
	switch slot {
	case SlotX:
		return value.Real(inst.X), true
	case SlotY:
		return value.Real(inst.Y), true
	case SlotXPrevious:
		return value.Real(inst.XPrevious), true
	case SlotYPrevious:
		return value.Real(inst.YPrevious), true
	case SlotXStart:
		return value.Real(inst.XStart), true
	case SlotYStart:
		return value.Real(inst.YStart), true
	case SlotSpriteIndex:
		return value.Real(float64(inst.SpriteIndex)), true
	case SlotImageIndex:
		return value.Real(inst.ImageIndex), true
	case SlotImageSpeed:
		return value.Real(inst.ImageSpeed), true
	case SlotImageXScale:
		return value.Real(inst.ImageXScale), true
	case SlotImageYScale:
		return value.Real(inst.ImageYScale), true
	case SlotImageAngle:
		return value.Real(inst.ImageAngle), true
	case SlotImageBlend:
		return value.Real(float64(inst.ImageBlend)), true
	case SlotImageAlpha:
		return value.Real(inst.ImageAlpha), true
	case SlotDepth:
		return value.Real(inst.Depth), true
	case SlotDirection:
		return value.Real(inst.Direction), true
	case SlotSpeed:
		return value.Real(inst.Speed), true
	case SlotHSpeed:
		return value.Real(inst.HSpeed), true
	case SlotVSpeed:
		return value.Real(inst.VSpeed), true
	case SlotGravity:
		return value.Real(inst.Gravity), true
	case SlotGravityDirection:
		return value.Real(inst.GravityDirection), true
	case SlotFriction:
		return value.Real(inst.Friction), true
	case SlotSolid:
		return value.BoolValue(inst.Solid), true
	case SlotVisible:
		return value.BoolValue(inst.Visible), true
	case SlotPersistent:
		return value.BoolValue(inst.Persistent), true
	case SlotObjectIndex:
		return value.Real(float64(inst.ObjectIndex)), true
	case SlotPathPosition:
		return value.Real(inst.Path.Position), true
	case SlotPathSpeed:
		return value.Real(inst.Path.Speed), true
	}
	return value.Undefined, false
}

// SetBuiltin writes a built-in property, applying the write-side
// coercion rule (§4.4: "write-back obeys the same rules").
func (inst *Instance) SetBuiltin(slot BuiltinSlot, v value.Value) bool {
	if slot >= SlotAlarm0-AlarmCount+1 && slot <= SlotAlarm0 {
		k := int(SlotAlarm0 - slot)
		inst.Alarm[k] = int32(v.MustReal())
		return true
	}
	switch slot {
	case SlotX:
		inst.X = v.MustReal()
	case SlotY:
		inst.Y = v.MustReal()
	case SlotXPrevious:
		inst.XPrevious = v.MustReal()
	case SlotYPrevious:
		inst.YPrevious = v.MustReal()
	case SlotXStart:
		inst.XStart = v.MustReal()
	case SlotYStart:
		inst.YStart = v.MustReal()
	case SlotSpriteIndex:
		inst.SpriteIndex = int32(v.MustReal())
	case SlotImageIndex:
		inst.ImageIndex = v.MustReal()
	case SlotImageSpeed:
		inst.ImageSpeed = v.MustReal()
	case SlotImageXScale:
		inst.ImageXScale = v.MustReal()
	case SlotImageYScale:
		inst.ImageYScale = v.MustReal()
	case SlotImageAngle:
		inst.ImageAngle = v.MustReal()
	case SlotImageBlend:
		inst.ImageBlend = uint32(v.MustReal())
	case SlotImageAlpha:
		inst.ImageAlpha = v.MustReal()
	case SlotDepth:
		inst.Depth = v.MustReal()
	case SlotDirection:
		inst.Direction = v.MustReal()
	case SlotSpeed:
		inst.Speed = v.MustReal()
	case SlotHSpeed:
		inst.HSpeed = v.MustReal()
	case SlotVSpeed:
		inst.VSpeed = v.MustReal()
	case SlotGravity:
		inst.Gravity = v.MustReal()
	case SlotGravityDirection:
		inst.GravityDirection = v.MustReal()
	case SlotFriction:
		inst.Friction = v.MustReal()
	case SlotSolid:
		inst.Solid = v.ToBool()
	case SlotVisible:
		inst.Visible = v.ToBool()
	case SlotPersistent:
		inst.Persistent = v.ToBool()
	case SlotObjectIndex:
		inst.ObjectIndex = int32(v.MustReal())
	case SlotPathPosition:
		inst.Path.Position = v.MustReal()
	case SlotPathSpeed:
		inst.Path.Speed = v.MustReal()
	default:
		return false
	}
	return true
}

// BuiltinSlotByName resolves a symbol name to its built-in slot, used to
// build the VARI-name → slot binding at load time.
var BuiltinSlotByName = map[string]BuiltinSlot{
	"x": SlotX, "y": SlotY,
	"xprevious": SlotXPrevious, "yprevious": SlotYPrevious,
	"xstart": SlotXStart, "ystart": SlotYStart,
	"sprite_index": SlotSpriteIndex,
	"image_index":  SlotImageIndex, "image_speed": SlotImageSpeed,
	"image_xscale": SlotImageXScale, "image_yscale": SlotImageYScale,
	"image_angle": SlotImageAngle, "image_blend": SlotImageBlend, "image_alpha": SlotImageAlpha,
	"depth":     SlotDepth,
	"direction": SlotDirection, "speed": SlotSpeed, "hspeed": SlotHSpeed, "vspeed": SlotVSpeed,
	"gravity": SlotGravity, "gravity_direction": SlotGravityDirection, "friction": SlotFriction,
	"solid": SlotSolid, "visible": SlotVisible, "persistent": SlotPersistent,
	"object_index": SlotObjectIndex,
	"path_position": SlotPathPosition, "path_speed": SlotPathSpeed,
}
