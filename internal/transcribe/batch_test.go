package transcribe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

type fakeTranscriber struct {
	mu       sync.Mutex
	calls    []string
	active   atomic.Int32
	maxSeen  atomic.Int32
	failPath string
}

func (f *fakeTranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
	opts Options,
) (*Result, error) {
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, audioPath)
	f.mu.Unlock()

	if audioPath == f.failPath {
		return nil, errors.New("boom")
	}
	return &Result{
		Segments: []subtitle.Segment{{ID: "1", Text: audioPath}},
		Output:   opts.Output,
	}, nil
}

func TestTranscribeAllKeepsOrder(t *testing.T) {
	fake := &fakeTranscriber{}
	paths := []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3"}

	results, err := TranscribeAll(
		context.Background(),
		fake,
		paths,
		DefaultOptions(),
		BatchOptions{Concurrency: 2},
	)
	if err != nil {
		t.Fatalf("TranscribeAll() error = %v", err)
	}
	if len(results) != len(paths) {
		t.Fatalf("got %d results, want %d", len(results), len(paths))
	}

	for i, res := range results {
		if res.Segments[0].Text != paths[i] {
			t.Errorf("result %d is for %q, want %q", i, res.Segments[0].Text, paths[i])
		}
	}
	if peak := fake.maxSeen.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
	if len(fake.calls) != len(paths) {
		t.Errorf("got %d calls, want %d", len(fake.calls), len(paths))
	}
}

func TestTranscribeAllPropagatesFailure(t *testing.T) {
	fake := &fakeTranscriber{failPath: "bad.mp3"}

	_, err := TranscribeAll(
		context.Background(),
		fake,
		[]string{"ok.mp3", "bad.mp3"},
		DefaultOptions(),
		BatchOptions{Concurrency: 1, RateLimitPerMin: 6000},
	)
	if err == nil {
		t.Fatal("expected error but got none")
	}
	if !strings.Contains(err.Error(), "bad.mp3") {
		t.Errorf("error = %v, want it to name bad.mp3", err)
	}
}

func TestTranscribeAllEmpty(t *testing.T) {
	results, err := TranscribeAll(context.Background(), &fakeTranscriber{}, nil, DefaultOptions(), BatchOptions{})
	if err != nil {
		t.Fatalf("TranscribeAll() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}
