package transcript

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcribe"
)

type fakeASR struct {
	detected  string
	detectErr error
	err       error
	gotOpts   transcribe.Options
	calls     []string
}

func (f *fakeASR) Transcribe(_ context.Context, _ string, opts transcribe.Options) (*transcribe.Result, error) {
	f.calls = append(f.calls, "transcribe")
	f.gotOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &transcribe.Result{
		Segments: []subtitle.Segment{{ID: "1", Start: 0, End: 1, Text: "hola"}},
		Language: opts.Language,
	}, nil
}

func (f *fakeASR) DetectLanguage(_ context.Context, _ string, _ bool) (*transcribe.LanguageDetection, error) {
	f.calls = append(f.calls, "detect")
	if f.detectErr != nil {
		return nil, f.detectErr
	}
	return &transcribe.LanguageDetection{DetectedLanguage: "spanish", LanguageCode: f.detected, Confidence: 0.9}, nil
}

// transcriber without language detection
type plainASR struct{ inner fakeASR }

func (p *plainASR) Transcribe(ctx context.Context, path string, opts transcribe.Options) (*transcribe.Result, error) {
	return p.inner.Transcribe(ctx, path, opts)
}

func TestTranscribeDetectsLanguageFirst(t *testing.T) {
	s := New()
	asr := &fakeASR{detected: "es"}

	_, err := s.Transcribe(context.Background(), asr, "a.mp3")
	require.NoError(t, err)

	assert.Equal(t, []string{"detect", "transcribe"}, asr.calls)
	assert.Equal(t, "es", asr.gotOpts.Language)
	assert.Equal(t, "es", s.Language())
	assert.Equal(t, StatusCompleted, s.Status())
	assert.Equal(t, "a.mp3", s.AudioPath())
	assert.Equal(t, 1, s.Len())
	// session options keep the user's choice
	assert.Empty(t, s.Options().Language)
}

func TestTranscribeSkipsDetection(t *testing.T) {
	t.Run("language set", func(t *testing.T) {
		s := New()
		opts := transcribe.DefaultOptions()
		opts.Language = "fr"
		require.NoError(t, s.SetOptions(opts))
		asr := &fakeASR{detected: "es"}

		_, err := s.Transcribe(context.Background(), asr, "a.mp3")
		require.NoError(t, err)
		assert.Equal(t, []string{"transcribe"}, asr.calls)
		assert.Equal(t, "fr", asr.gotOpts.Language)
	})

	t.Run("translate task", func(t *testing.T) {
		s := New()
		opts := transcribe.DefaultOptions()
		opts.Task = transcribe.TaskTranslate
		require.NoError(t, s.SetOptions(opts))
		asr := &fakeASR{}

		_, err := s.Transcribe(context.Background(), asr, "a.mp3")
		require.NoError(t, err)
		assert.Equal(t, []string{"transcribe"}, asr.calls)
	})

	t.Run("no detector", func(t *testing.T) {
		s := New()
		asr := &plainASR{}
		var tr transcribe.Transcriber = asr
		_, isDetector := tr.(transcribe.LanguageDetector)
		require.False(t, isDetector)

		_, err := s.Transcribe(context.Background(), tr, "a.mp3")
		require.NoError(t, err)
		assert.Equal(t, []string{"transcribe"}, asr.inner.calls)
	})
}

func TestTranscribeFailureKeepsSegments(t *testing.T) {
	s := seeded(t)
	boom := errors.New("boom")

	_, err := s.Transcribe(context.Background(), &fakeASR{err: boom}, "a.mp3")
	require.ErrorIs(t, err, boom)

	assert.Equal(t, StatusError, s.Status())
	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, 2, s.Len())
}

func TestTranscribeDetectionFailure(t *testing.T) {
	s := New()
	asr := &fakeASR{detectErr: errors.New("no speech")}

	_, err := s.Transcribe(context.Background(), asr, "a.mp3")
	require.Error(t, err)
	assert.Equal(t, StatusError, s.Status())
	assert.Equal(t, []string{"detect"}, asr.calls)
}
