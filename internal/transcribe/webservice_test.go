package transcribe

import (
	"context"
	"errors"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp3")
	if err := os.WriteFile(path, []byte("ID3 fake audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestClientTranscribeSRT(t *testing.T) {
	var gotQuery map[string]string
	var gotFile, gotName string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/asr" {
			t.Errorf("request = %s %s, want POST /asr", r.Method, r.URL.Path)
		}

		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}

		file, header, err := r.FormFile("audio_file")
		if err != nil {
			t.Errorf("FormFile(audio_file) error = %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotFile = string(data)
		gotName = header.Filename

		_, _ = io.WriteString(w, "1\n00:00:00,000 --> 00:00:02,500\n Hello there\n\n2\n00:00:02,500 --> 00:00:04,000\nGeneral Kenobi\n")
	}))
	defer srv.Close()

	client := NewClient(srv.URL + "/")
	opts := DefaultOptions()
	opts.Language = "en"

	res, err := client.Transcribe(context.Background(), writeAudio(t), opts)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	wantQuery := map[string]string{
		"encode":          "true",
		"task":            "transcribe",
		"language":        "en",
		"vad_filter":      "false",
		"word_timestamps": "false",
		"output":          "srt",
	}
	if !maps.Equal(gotQuery, wantQuery) {
		t.Errorf("query = %v, want %v", gotQuery, wantQuery)
	}
	if gotFile != "ID3 fake audio" || gotName != "clip.mp3" {
		t.Errorf("uploaded %q as %q", gotFile, gotName)
	}

	if len(res.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(res.Segments))
	}
	want := subtitle.Segment{ID: "1", Start: 0, End: 2.5, Text: "Hello there"}
	if res.Segments[0] != want {
		t.Errorf("segment 0 = %+v, want %+v", res.Segments[0], want)
	}
	if res.Output != subtitle.FormatSRT {
		t.Errorf("output = %s, want srt", res.Output)
	}
	if !strings.Contains(string(res.Raw), "General Kenobi") {
		t.Errorf("raw body not kept: %q", res.Raw)
	}
}

func TestClientTranscribeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("output") != "json" || q.Get("initial_prompt") != "prompt words" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"language":"en","text":"hi","segments":[{"id":0,"start":0.5,"end":1.25,"text":" hi"}]}`)
	}))
	defer srv.Close()

	opts := DefaultOptions()
	opts.Output = subtitle.FormatJSON
	opts.InitialPrompt = "prompt words"

	res, err := NewClient(srv.URL).Transcribe(context.Background(), writeAudio(t), opts)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	want := []subtitle.Segment{{ID: "1", Start: 0.5, End: 1.25, Text: "hi"}}
	if len(res.Segments) != 1 || res.Segments[0] != want[0] {
		t.Errorf("segments = %+v, want %+v", res.Segments, want)
	}
}

func TestClientTranscribeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"detail string", http.StatusBadRequest, `{"detail":"bad audio"}`, "bad audio"},
		{"detail list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"bad task"}]}`, "field required; bad task"},
		{"message", http.StatusInternalServerError, `{"message":"model not loaded"}`, "model not loaded"},
		{"status text", http.StatusBadGateway, `<html>oops</html>`, "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Transcribe(context.Background(), writeAudio(t), DefaultOptions())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %v, want *APIError", err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClientTranscribeValidatesOptions(t *testing.T) {
	client := NewClient("http://127.0.0.1:1")

	opts := DefaultOptions()
	opts.Output = subtitle.Format("ass")
	if _, err := client.Transcribe(context.Background(), writeAudio(t), opts); err == nil {
		t.Error("expected error for ass output")
	}

	opts = DefaultOptions()
	opts.Task = Task("summarize")
	if _, err := client.Transcribe(context.Background(), writeAudio(t), opts); err == nil {
		t.Error("expected error for unknown task")
	}
}

func TestClientTranscribeMissingFile(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").Transcribe(
		context.Background(),
		filepath.Join(t.TempDir(), "missing.mp3"),
		DefaultOptions(),
	)
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestClientDetectLanguage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/detect-language" {
			t.Errorf("path = %s, want /detect-language", r.URL.Path)
		}
		if got := r.URL.Query().Get("encode"); got != "false" {
			t.Errorf("encode = %q, want false", got)
		}
		if _, _, err := r.FormFile("audio_file"); err != nil {
			t.Errorf("FormFile(audio_file) error = %v", err)
		}
		_, _ = io.WriteString(w, `{"detected_language":"japanese","language_code":"ja","confidence":0.97}`)
	}))
	defer srv.Close()

	det, err := NewClient(srv.URL).DetectLanguage(context.Background(), writeAudio(t), false)
	if err != nil {
		t.Fatalf("DetectLanguage() error = %v", err)
	}
	want := LanguageDetection{
		DetectedLanguage: "japanese",
		LanguageCode:     "ja",
		Confidence:       0.97,
	}
	if *det != want {
		t.Errorf("DetectLanguage() = %+v, want %+v", *det, want)
	}
}

func TestClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL).Transcribe(ctx, writeAudio(t), DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
