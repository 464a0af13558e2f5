package runtime

import (
	"math"

	"github.com/zurustar/gmcore/pkg/assets"
	"github.com/zurustar/gmcore/pkg/events"
	"github.com/zurustar/gmcore/pkg/format"
	"github.com/zurustar/gmcore/pkg/instance"
)

// stepAndIntegrate fires Step on every instance (§4.5 point 5) then
// applies motion integration and path advancement to it, matching the
// order the instance's own Step handler expects: the handler may set
// speed/direction/hspeed/vspeed this frame, and the resulting move
// happens immediately after, the same frame.
func (e *Engine) stepAndIntegrate() error {
	roomSpeed := e.currentRoomSpeed()
	for _, inst := range e.Instances.Snapshot() {
		if err := e.Events.Fire(inst, events.KindStep, events.SubtypeStep, -1); err != nil {
			return err
		}
		integrateMotion(inst)
		advancePath(e.Graph, inst, roomSpeed)
	}
	return nil
}

func (e *Engine) currentRoomSpeed() float64 {
	rooms := e.Graph.Container.Rooms
	idx := e.Rooms.Current()
	if idx < 0 || int(idx) >= len(rooms) {
		return 30
	}
	speed := rooms[idx].Speed
	if speed <= 0 {
		return 30
	}
	return float64(speed)
}

// integrateMotion applies one step of GameMaker's built-in motion
// model (§4.5 point 5): speed/direction drive hspeed/vspeed, position
// advances by them, then friction pulls speed toward 0 and gravity
// accelerates along gravity_direction.
func integrateMotion(inst *instance.Instance) {
	if inst.Speed != 0 {
		rad := inst.Direction * math.Pi / 180
		inst.HSpeed = inst.Speed * math.Cos(rad)
		inst.VSpeed = -inst.Speed * math.Sin(rad)
	}

	inst.XPrevious, inst.YPrevious = inst.X, inst.Y
	inst.X += inst.HSpeed
	inst.Y += inst.VSpeed

	if inst.Friction != 0 {
		inst.Speed = applyFriction(inst.Speed, inst.Friction)
	}

	if inst.Gravity != 0 {
		gRad := inst.GravityDirection * math.Pi / 180
		inst.HSpeed += inst.Gravity * math.Cos(gRad)
		inst.VSpeed += -inst.Gravity * math.Sin(gRad)
		inst.Speed = math.Hypot(inst.HSpeed, inst.VSpeed)
		if inst.HSpeed != 0 || inst.VSpeed != 0 {
			inst.Direction = math.Atan2(-inst.VSpeed, inst.HSpeed) * 180 / math.Pi
		}
	}
}

func applyFriction(speed, friction float64) float64 {
	switch {
	case speed > 0:
		speed -= friction
		if speed < 0 {
			speed = 0
		}
	case speed < 0:
		speed += friction
		if speed > 0 {
			speed = 0
		}
	}
	return speed
}

const (
	pathEndStop    int32 = 0
	pathEndLoop    int32 = 1
	pathEndReverse int32 = 2
	pathEndRestart int32 = 3
)

// advancePath advances inst's path follower by path_speed/room_speed
// (§4.5 point 5) and places it at the interpolated point, honoring
// path_end_action when the 0..1 position range is exceeded.
func advancePath(graph *assets.Graph, inst *instance.Instance, roomSpeed float64) {
	if inst.Path.PathIndex < 0 {
		return
	}
	paths := graph.Container.Paths
	if int(inst.Path.PathIndex) >= len(paths) {
		return
	}
	path := paths[inst.Path.PathIndex]
	if len(path.Points) == 0 || roomSpeed <= 0 {
		return
	}

	inst.Path.Position += inst.Path.Speed / roomSpeed

	switch {
	case inst.Path.Position < 0:
		inst.Path.Position = handleEnd(inst, 0)
	case inst.Path.Position > 1:
		inst.Path.Position = handleEnd(inst, 1)
	}
	if inst.Path.PathIndex < 0 {
		return // path was deactivated by handleEnd (pathEndStop)
	}

	x, y := samplePath(path.Points, path.Closed, inst.Path.Position)
	inst.X, inst.Y = x, y
}

// handleEnd applies path_end_action once Position has crossed 0 or 1
// (overshoot is the boundary just crossed: 0 or 1).
func handleEnd(inst *instance.Instance, overshoot float64) float64 {
	switch inst.Path.EndAction {
	case pathEndLoop:
		if overshoot == 1 {
			return inst.Path.Position - 1
		}
		return inst.Path.Position + 1
	case pathEndReverse:
		inst.Path.Speed = -inst.Path.Speed
		return overshoot
	case pathEndRestart:
		return 0
	default: // pathEndStop
		inst.Path.PathIndex = -1
		return overshoot
	}
}

// samplePath linearly interpolates (x, y) at normalized position t
// across path's control points, treating them as evenly spaced
// segments (§4.1's Path asset carries no per-segment length/precision
// the Form Reader resolves further, so the interpreter spaces all
// segments uniformly — a documented simplification of full path
// curvature).
func samplePath(points []format.PathPoint, closed bool, t float64) (x, y float64) {
	n := len(points)
	if n == 1 {
		return points[0].X, points[0].Y
	}
	segs := n - 1
	if closed {
		segs = n
	}
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	pos := t * float64(segs)
	i := int(pos)
	if i >= segs {
		i = segs - 1
	}
	frac := pos - float64(i)
	a := points[i%n]
	b := points[(i+1)%n]
	return a.X + (b.X-a.X)*frac, a.Y + (b.Y-a.Y)*frac
}
