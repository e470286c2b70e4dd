package transcript

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcribe"
)

func counterIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("seg-%d", n)
	}
}

type fakePlayer struct {
	seeks   []float64
	playing bool
}

func (p *fakePlayer) Seek(seconds float64) { p.seeks = append(p.seeks, seconds) }
func (p *fakePlayer) Play()                { p.playing = true }
func (p *fakePlayer) Pause()               { p.playing = false }

func seeded(t *testing.T) *Session {
	t.Helper()
	s := New(WithIDGenerator(counterIDs()))
	s.Replace([]subtitle.Segment{
		{ID: "1", Start: 0, End: 2, Text: "a"},
		{ID: "2", Start: 2, End: 5, Text: "b"},
	})
	return s
}

func TestInsertIntoEmpty(t *testing.T) {
	s := New(WithIDGenerator(counterIDs()))

	seg := s.Insert()

	assert.Equal(t, subtitle.Segment{ID: "seg-1", Start: 0, End: 5, Text: PlaceholderText}, seg)
	assert.Equal(t, []subtitle.Segment{seg}, s.Segments())
}

func TestInsertAfterLast(t *testing.T) {
	s := seeded(t)

	seg := s.Insert()

	assert.InDelta(t, 5.1, seg.Start, 1e-9)
	assert.InDelta(t, 10.0, seg.End, 1e-9)
	require.Equal(t, 3, s.Len())
	assert.Equal(t, seg, s.Segments()[2])
}

func TestInsertSkipsCollidingIDs(t *testing.T) {
	ids := []string{"1", "2", "fresh"}
	i := 0
	s := seeded(t)
	WithIDGenerator(func() string {
		id := ids[i]
		i++
		return id
	})(s)

	seg := s.Insert()
	assert.Equal(t, "fresh", seg.ID)
}

func TestDefaultIDsAreUnique(t *testing.T) {
	s := New()
	seen := map[string]bool{}
	for range 100 {
		id := s.Insert().ID
		assert.True(t, strings.HasPrefix(id, "seg-"))
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestRemove(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.SetCurrentEdit("1"))

	assert.True(t, s.Remove("1"))
	assert.False(t, s.Remove("1"))
	assert.False(t, s.Remove("missing"))

	assert.Equal(t, []subtitle.Segment{{ID: "2", Start: 2, End: 5, Text: "b"}}, s.Segments())
	assert.Empty(t, s.CurrentEdit())
}

func TestEditText(t *testing.T) {
	s := seeded(t)

	require.NoError(t, s.EditText("2", "  spaced  "))
	seg, ok := s.Segment("2")
	require.True(t, ok)
	assert.Equal(t, "  spaced  ", seg.Text)

	require.NoError(t, s.EditText("2", ""))
	seg, _ = s.Segment("2")
	assert.Equal(t, "", seg.Text)

	err := s.EditText("nope", "x")
	assert.ErrorIs(t, err, ErrSegmentNotFound)
}

func TestEditTiming(t *testing.T) {
	s := seeded(t)

	require.NoError(t, s.EditTiming("1", 1, 3))
	seg, _ := s.Segment("1")
	assert.Equal(t, 1.0, seg.Start)
	assert.Equal(t, 3.0, seg.End)

	// overlapping the next segment is allowed
	require.NoError(t, s.EditTiming("1", 1, 4))
	// zero-length is allowed
	require.NoError(t, s.EditTiming("2", 4, 4))
}

func TestEditTimingRejectsInvalid(t *testing.T) {
	tests := []struct {
		name       string
		start, end float64
	}{
		{"start after end", 5, 2},
		{"negative start", -1, 2},
		{"nan", math.NaN(), 2},
		{"infinite end", 0, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded(t)

			err := s.EditTiming("1", tt.start, tt.end)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, "1", verr.ID)
			seg, _ := s.Segment("1")
			assert.Equal(t, 0.0, seg.Start)
			assert.Equal(t, 2.0, seg.End)
		})
	}
}

func TestEditTimingMissing(t *testing.T) {
	s := seeded(t)
	assert.ErrorIs(t, s.EditTiming("x", 0, 1), ErrSegmentNotFound)
}

func TestApplyTranslation(t *testing.T) {
	s := seeded(t)

	n := s.ApplyTranslation([]subtitle.Segment{
		{ID: "1", Text: "A"},
		{ID: "ghost", Text: "dropped"},
	})

	assert.Equal(t, 1, n)
	segs := s.Segments()
	assert.Equal(t, "A", segs[0].Text)
	assert.Equal(t, "b", segs[1].Text)
	// timing never changes on merge
	assert.Equal(t, 2.0, segs[0].End)
}

func TestApplyTranslationFirstDuplicateWins(t *testing.T) {
	s := seeded(t)
	s.ApplyTranslation([]subtitle.Segment{
		{ID: "2", Text: "first"},
		{ID: "2", Text: "second"},
	})
	seg, _ := s.Segment("2")
	assert.Equal(t, "first", seg.Text)
}

func TestSegmentsReturnsCopy(t *testing.T) {
	s := seeded(t)
	segs := s.Segments()
	segs[0].Text = "mutated"

	seg, _ := s.Segment("1")
	assert.Equal(t, "a", seg.Text)

	input := []subtitle.Segment{{ID: "x", Text: "orig"}}
	s.Replace(input)
	input[0].Text = "changed"
	seg, _ = s.Segment("x")
	assert.Equal(t, "orig", seg.Text)
}

func TestReplaceNilIsEmpty(t *testing.T) {
	s := seeded(t)
	s.Replace(nil)
	assert.NotNil(t, s.Segments())
	assert.Equal(t, 0, s.Len())
}

func TestSeekTo(t *testing.T) {
	s := seeded(t)
	assert.ErrorIs(t, s.SeekTo("2"), ErrNoPlayer)

	p := &fakePlayer{}
	s.SetPlayer(p)

	require.NoError(t, s.SeekTo("2"))
	assert.Equal(t, []float64{2}, p.seeks)
	assert.True(t, p.playing)

	assert.ErrorIs(t, s.SeekTo("missing"), ErrSegmentNotFound)
	assert.Len(t, p.seeks, 1)
}

func TestReset(t *testing.T) {
	s := seeded(t)
	s.SetLanguage("en")
	s.SetAudioPath("a.mp3")
	opts := transcribe.DefaultOptions()
	opts.Task = transcribe.TaskTranslate
	opts.VADFilter = true
	require.NoError(t, s.SetOptions(opts))
	require.NoError(t, s.SetCurrentEdit("2"))

	s.Reset()

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, StatusIdle, s.Status())
	assert.Empty(t, s.Language())
	assert.Empty(t, s.AudioPath())
	assert.Empty(t, s.CurrentEdit())
	assert.Equal(t, transcribe.DefaultOptions(), s.Options())
}

func TestSetOptionsValidates(t *testing.T) {
	s := New()
	opts := transcribe.DefaultOptions()
	opts.Output = "ass"
	assert.Error(t, s.SetOptions(opts))
	assert.Equal(t, transcribe.DefaultOptions(), s.Options())
}

func TestSetCurrentEditUnknown(t *testing.T) {
	s := seeded(t)
	assert.ErrorIs(t, s.SetCurrentEdit("zzz"), ErrSegmentNotFound)
	require.NoError(t, s.SetCurrentEdit(""))
}

func TestConcurrentEdits(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				seg := s.Insert()
				_ = s.EditText(seg.ID, "x")
				_ = s.Segments()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, s.Len())
}
