package playback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

func manySegments(n int) []subtitle.Segment {
	segs := make([]subtitle.Segment, n)
	for i := range segs {
		segs[i] = subtitle.Segment{
			ID:    string(rune('a' + i)),
			Start: float64(i * 10),
			End:   float64(i*10 + 9),
			Text:  "line " + string(rune('a'+i)),
		}
	}
	return segs
}

func TestListViewBoundsAndScroll(t *testing.T) {
	v := NewListView(3)
	v.SetSegments(manySegments(10))

	r, ok := v.Bounds("e")
	require.True(t, ok)
	assert.Equal(t, Rect{Top: 4, Height: 1}, r)

	_, ok = v.Bounds("zz")
	assert.False(t, ok)

	v.ScrollTo(5.7, true)
	top, height := v.Window()
	assert.Equal(t, 5.0, top)
	assert.Equal(t, 3.0, height)

	v.ScrollTo(100, true)
	top, _ = v.Window()
	assert.Equal(t, 7.0, top)

	v.ScrollTo(-4, true)
	top, _ = v.Window()
	assert.Equal(t, 0.0, top)
}

func TestListViewRender(t *testing.T) {
	v := NewListView(2)
	v.SetSegments(manySegments(4))
	v.ScrollTo(1, false)

	var b strings.Builder
	require.NoError(t, v.Render(&b, "c"))

	assert.Equal(t,
		"  [00:10-00:19] line b\n> [00:20-00:29] line c\n",
		b.String(),
	)
}

func TestListViewDrivesSynchronizer(t *testing.T) {
	sched := &manualScheduler{}
	segs := manySegments(10)
	v := NewListView(3)
	v.SetSegments(segs)
	s := NewSynchronizer(staticSource(segs), v, WithScheduler(sched))

	s.Tick(85) // row 8, outside rows 0..2
	sched.Advance(DefaultScrollDelay)

	top, _ := v.Window()
	assert.Equal(t, 7.0, top)
}
