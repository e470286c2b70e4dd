// Package playback keeps a highlighted segment in step with a playback
// clock and scrolls it into view.
package playback

import (
	"sync"
	"time"

	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

// delay between a highlight change and the scroll it triggers
const DefaultScrollDelay = 300 * time.Millisecond

// CurrentIndex returns the first segment whose closed [start, end] interval
// contains t, or -1. Overlaps resolve to the earliest segment in the slice.
func CurrentIndex(segments []subtitle.Segment, t float64) int {
	for i := range segments {
		if segments[i].Contains(t) {
			return i
		}
	}
	return -1
}

// SegmentSource supplies the segment list on every tick.
type SegmentSource interface {
	Segments() []subtitle.Segment
}

// Synchronizer tracks the highlighted segment. Highlighting is sticky: a
// clock position that falls in a gap keeps the previous highlight until a
// different segment becomes current.
type Synchronizer struct {
	mu sync.Mutex

	source      SegmentSource
	viewport    Viewport
	scroll      debouncer
	highlighted string
	closed      bool

	onChange func(id string)
	logger   *logging.Logger
}

type SyncOption func(*Synchronizer)

func WithScheduler(s Scheduler) SyncOption {
	return func(sy *Synchronizer) {
		sy.scroll.sched = s
	}
}

func WithScrollDelay(d time.Duration) SyncOption {
	return func(sy *Synchronizer) {
		sy.scroll.delay = d
	}
}

// WithOnChange registers a callback invoked with the new id whenever the
// highlight moves. It runs with the synchronizer locked.
func WithOnChange(f func(id string)) SyncOption {
	return func(sy *Synchronizer) {
		sy.onChange = f
	}
}

func WithSyncLogger(l *logging.Logger) SyncOption {
	return func(sy *Synchronizer) {
		sy.logger = logging.OrNop(l)
	}
}

// NewSynchronizer creates a synchronizer. viewport may be nil when nothing
// scrolls.
func NewSynchronizer(
	source SegmentSource,
	viewport Viewport,
	opts ...SyncOption,
) *Synchronizer {
	s := &Synchronizer{
		source:   source,
		viewport: viewport,
		scroll: debouncer{
			sched: WallScheduler(),
			delay: DefaultScrollDelay,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tick re-evaluates the highlight at clock position t. It returns the
// highlighted id and whether it changed on this tick.
func (s *Synchronizer) Tick(t float64) (string, bool) {
	segments := s.source.Segments()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.highlighted, false
	}

	// a highlighted segment that was deleted no longer sticks
	if s.highlighted != "" && indexOf(segments, s.highlighted) < 0 {
		s.highlighted = ""
		s.scroll.stop()
	}

	i := CurrentIndex(segments, t)
	if i < 0 {
		return s.highlighted, false
	}

	id := segments[i].ID
	if id == s.highlighted {
		return id, false
	}

	s.highlighted = id
	s.logger.Debugw("Highlight moved", "id", id, "position", t)
	if s.onChange != nil {
		s.onChange(id)
	}
	if s.viewport != nil {
		s.scroll.arm(s.scrollIntoView)
	}
	return id, true
}

func (s *Synchronizer) Highlighted() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlighted
}

// ScrollPending reports whether a scroll is armed and has not fired.
func (s *Synchronizer) ScrollPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scroll.armed()
}

// Close cancels any pending scroll. No callback runs after Close returns.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.scroll.stop()
}

func (s *Synchronizer) scrollIntoView(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.scroll.current() {
		return
	}
	s.scroll.done(gen)

	row, ok := s.viewport.Bounds(s.highlighted)
	if !ok {
		return
	}
	scrollTop, height := s.viewport.Window()
	if top, needed := ScrollTarget(row, scrollTop, height); needed {
		s.viewport.ScrollTo(top, true)
	}
}

func indexOf(segments []subtitle.Segment, id string) int {
	for i := range segments {
		if segments[i].ID == id {
			return i
		}
	}
	return -1
}
