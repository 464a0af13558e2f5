package runtime

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/zurustar/gmcore/pkg/instance"
)

// Property-based tests for integrateMotion, the built-in speed/
// direction/friction/gravity model every instance's Step runs through
// (§4.5 point 5).

// TestPropertyFrictionNeverOvershootsZero checks that one frame of
// friction never pushes speed past zero and out the other side,
// regardless of how large friction is relative to speed.
func TestPropertyFrictionNeverOvershootsZero(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("friction clamps to zero instead of overshooting", prop.ForAll(
		func(speed, friction float64) bool {
			before := speed
			after := applyFriction(speed, friction)
			if before >= 0 {
				return after >= 0 && after <= before
			}
			return after <= 0 && after >= before
		},
		gen.Float64Range(-1000, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestPropertyMotionPreservesSpeedDirectionDecomposition checks that,
// absent gravity, hspeed/vspeed stay the trigonometric decomposition
// of speed/direction integrateMotion derived them from.
func TestPropertyMotionPreservesSpeedDirectionDecomposition(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("hspeed/vspeed match speed/direction when gravity is zero", prop.ForAll(
		func(speed, direction float64) bool {
			inst := instance.New(1, -1, 0, 0)
			inst.Speed = speed
			inst.Direction = direction

			integrateMotion(inst)

			rad := direction * math.Pi / 180
			wantH := speed * math.Cos(rad)
			wantV := -speed * math.Sin(rad)
			return approxEqual(inst.HSpeed, wantH) && approxEqual(inst.VSpeed, wantV)
		},
		gen.Float64Range(-500, 500),
		gen.Float64Range(0, 360),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestPropertyGravityRecomputesConsistentSpeed checks that whenever
// gravity is applied, the resulting Speed field always matches the
// hypotenuse of the updated hspeed/vspeed, the invariant every other
// built-in (motion_set, speed reads) relies on holding every frame.
func TestPropertyGravityRecomputesConsistentSpeed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("speed is always hypot(hspeed, vspeed) after gravity", prop.ForAll(
		func(hspeed, vspeed, gravity, gravityDir float64) bool {
			inst := instance.New(1, -1, 0, 0)
			inst.HSpeed = hspeed
			inst.VSpeed = vspeed
			inst.Gravity = gravity
			inst.GravityDirection = gravityDir

			integrateMotion(inst)

			return approxEqual(inst.Speed, math.Hypot(inst.HSpeed, inst.VSpeed))
		},
		gen.Float64Range(-100, 100),
		gen.Float64Range(-100, 100),
		gen.Float64Range(0.01, 50),
		gen.Float64Range(0, 360),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
