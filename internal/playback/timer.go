package playback

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler arms one-shot callbacks. Tests substitute a manual scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallScheduler struct{}

func (wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallScheduler runs callbacks on real time.
func WallScheduler() Scheduler {
	return wallScheduler{}
}

// debouncer owns at most one pending timer. Arming stops the previous one;
// a generation counter discards a callback that already started when it was
// replaced. The caller serialises access.
type debouncer struct {
	sched   Scheduler
	delay   time.Duration
	pending Timer
	gen     uint64
}

// arm replaces any pending timer. fire receives the generation it was armed
// with and must compare it against current() before acting.
func (d *debouncer) arm(fire func(gen uint64)) {
	d.stop()
	d.gen++
	gen := d.gen
	d.pending = d.sched.AfterFunc(d.delay, func() { fire(gen) })
}

func (d *debouncer) current() uint64 {
	return d.gen
}

func (d *debouncer) stop() {
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
	d.gen++
}

func (d *debouncer) armed() bool {
	return d.pending != nil
}

// done clears the slot after the armed callback ran.
func (d *debouncer) done(gen uint64) {
	if gen == d.gen {
		d.pending = nil
	}
}
