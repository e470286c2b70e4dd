package playback

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

// ListView is a line-oriented viewport: one row per segment, a fixed number
// of visible rows.
type ListView struct {
	mu        sync.Mutex
	segments  []subtitle.Segment
	rows      map[string]int
	scrollTop float64
	height    float64
}

func NewListView(height int) *ListView {
	return &ListView{
		rows:   map[string]int{},
		height: float64(max(height, 1)),
	}
}

// SetSegments replaces the rows shown by the view.
func (v *ListView) SetSegments(segments []subtitle.Segment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.segments = subtitle.Clone(segments)
	v.rows = make(map[string]int, len(segments))
	for i, seg := range segments {
		if _, ok := v.rows[seg.ID]; !ok {
			v.rows[seg.ID] = i
		}
	}
	v.scrollTop = min(v.scrollTop, v.maxScroll())
}

func (v *ListView) Bounds(id string) (Rect, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	row, ok := v.rows[id]
	if !ok {
		return Rect{}, false
	}
	return Rect{Top: float64(row), Height: 1}, true
}

func (v *ListView) Window() (float64, float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scrollTop, v.height
}

// ScrollTo snaps to whole rows; a terminal has no easing.
func (v *ListView) ScrollTo(top float64, _ bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	top = float64(int(top))
	v.scrollTop = max(min(top, v.maxScroll()), 0)
}

// caller holds mu
func (v *ListView) maxScroll() float64 {
	return max(float64(len(v.segments))-v.height, 0)
}

// Render writes the visible rows, marking the highlighted one.
func (v *ListView) Render(w io.Writer, highlighted string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	first := int(v.scrollTop)
	last := min(first+int(v.height), len(v.segments))
	for i := first; i < last; i++ {
		seg := v.segments[i]
		marker := "  "
		if seg.ID == highlighted {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s[%s-%s] %s\n",
			marker,
			subtitle.FormatClock(seg.Start),
			subtitle.FormatClock(seg.End),
			strings.ReplaceAll(seg.Text, "\n", " "),
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
