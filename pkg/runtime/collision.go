package runtime

import (
	"github.com/zurustar/gmcore/pkg/builtins"
	"github.com/zurustar/gmcore/pkg/events"
)

// collisionPhase fires Collision on every ordered pair of overlapping
// instances (§4.5 point 6). Dispatcher.Fire is a no-op when neither
// instance (nor an ancestor) has a Collision(other.object_index)
// handler, so every overlapping pair is tried in both directions
// without a separate "does it subscribe" check here.
func (e *Engine) collisionPhase() error {
	snapshot := e.Instances.Snapshot()
	for i := 0; i < len(snapshot); i++ {
		a := snapshot[i]
		if a.Destroyed {
			continue
		}
		for j := i + 1; j < len(snapshot); j++ {
			b := snapshot[j]
			if b.Destroyed {
				continue
			}
			if !builtins.BoundsOverlap(e.VM, a, b) {
				continue
			}
			if err := e.Events.Fire(a, events.KindCollision, b.ObjectIndex, b.ID); err != nil {
				return err
			}
			if a.Destroyed || b.Destroyed {
				continue
			}
			if err := e.Events.Fire(b, events.KindCollision, a.ObjectIndex, a.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
