package playback

import (
	"context"
	"time"
)

// Tick is one evaluation of the clock by Run.
type Tick struct {
	Position    float64
	Highlighted string
	Changed     bool
}

type ender interface {
	Ended() bool
}

// Run polls clock every interval and feeds the synchronizer until ctx is
// done or a clock that can end has ended. onTick may be nil.
func Run(
	ctx context.Context,
	clock Clock,
	syncer *Synchronizer,
	interval time.Duration,
	onTick func(Tick),
) error {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	step := func() bool {
		pos := clock.Position()
		id, changed := syncer.Tick(pos)
		if onTick != nil {
			onTick(Tick{Position: pos, Highlighted: id, Changed: changed})
		}
		e, ok := clock.(ender)
		return ok && e.Ended()
	}

	if step() {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if step() {
				return nil
			}
		}
	}
}
