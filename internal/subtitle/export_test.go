package subtitle

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

var sampleSegments = []Segment{
	{ID: "1", Start: 1.23, End: 4.56, Text: "Hello world"},
	{ID: "2", Start: 5.0, End: 7.89, Text: "Testing export"},
}

func TestRenderSRT(t *testing.T) {
	got := RenderSRT(sampleSegments)

	if !strings.Contains(got, "00:00:01,230 --> 00:00:04,560") {
		t.Errorf("missing first timing line in:\n%s", got)
	}
	if !strings.Contains(got, "Hello world") {
		t.Errorf("missing first text in:\n%s", got)
	}

	want := "1\n00:00:01,230 --> 00:00:04,560\nHello world\n" +
		"\n" +
		"2\n00:00:05,000 --> 00:00:07,890\nTesting export\n"
	if got != want {
		t.Errorf("RenderSRT() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderSRTRenumbers(t *testing.T) {
	segs := []Segment{
		{ID: "seg-9", Start: 0, End: 1, Text: "a"},
		{ID: "seg-2", Start: 1, End: 2, Text: "b"},
	}
	got := RenderSRT(segs)
	if !strings.HasPrefix(got, "1\n") || !strings.Contains(got, "\n2\n") {
		t.Errorf("blocks should be numbered by position:\n%s", got)
	}
}

func TestRenderVTT(t *testing.T) {
	got := RenderVTT(sampleSegments)

	if !strings.HasPrefix(got, "WEBVTT") {
		t.Errorf("missing header in:\n%s", got)
	}
	if !strings.Contains(got, "00:00:05.000 --> 00:00:07.890") {
		t.Errorf("missing second timing line in:\n%s", got)
	}

	want := "WEBVTT\n\n" +
		"00:00:01.230 --> 00:00:04.560\nHello world\n\n" +
		"00:00:05.000 --> 00:00:07.890\nTesting export"
	if got != want {
		t.Errorf("RenderVTT() = %q, want %q", got, want)
	}
}

func TestRenderTXT(t *testing.T) {
	if got := RenderTXT(sampleSegments); got != "Hello world\nTesting export" {
		t.Errorf("RenderTXT() = %q", got)
	}
}

func TestRenderEmpty(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatSRT, ""},
		{FormatTXT, ""},
		{FormatVTT, "WEBVTT\n\n"},
		{FormatJSON, "[]"},
	}

	for _, tt := range tests {
		for _, in := range [][]Segment{nil, {}} {
			got, err := Render(tt.format, in)
			if err != nil {
				t.Fatalf("Render(%s) error: %v", tt.format, err)
			}
			if got != tt.want {
				t.Errorf("Render(%s, empty) = %q, want %q", tt.format, got, tt.want)
			}
		}
	}
}

func TestRenderJSONRoundTrip(t *testing.T) {
	segs := []Segment{
		{ID: "seg-1", Start: 0.1, End: 2.345, Text: "multi\nline \"quoted\""},
		{ID: "x", Start: 3, End: 3, Text: ""},
	}

	out := RenderJSON(segs)
	if !strings.Contains(out, "\n  {\n    \"id\": \"seg-1\",") {
		t.Errorf("expected two space indentation, got:\n%s", out)
	}

	back, err := ParseJSON([]byte(out))
	if err != nil {
		t.Fatalf("ParseJSON error: %v", err)
	}
	if !reflect.DeepEqual(back, segs) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, segs)
	}
}

func TestRenderDoesNotMutate(t *testing.T) {
	in := Clone(sampleSegments)
	for _, f := range ExportFormats() {
		if _, err := Render(f, in); err != nil {
			t.Fatalf("Render(%s) error: %v", f, err)
		}
	}
	if !reflect.DeepEqual(in, sampleSegments) {
		t.Errorf("input mutated: %+v", in)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(FormatTSV, sampleSegments); err == nil {
		t.Error("expected error for tsv export")
	}
}

func TestSRTExportParsesBack(t *testing.T) {
	back := ParseSRT(RenderSRT(sampleSegments), ParseOptions{})
	if len(back) != len(sampleSegments) {
		t.Fatalf("expected %d segments, got %d", len(sampleSegments), len(back))
	}
	for i := range back {
		if back[i].Text != sampleSegments[i].Text ||
			back[i].Start != sampleSegments[i].Start ||
			back[i].End != sampleSegments[i].End {
			t.Errorf("segment %d: got %+v, want %+v", i, back[i], sampleSegments[i])
		}
	}

	vtt := ParseVTT(RenderVTT(sampleSegments), ParseOptions{})
	if len(vtt) != len(sampleSegments) || vtt[1].Text != "Testing export" {
		t.Errorf("VTT round trip = %+v", vtt)
	}
}

func TestExportFileName(t *testing.T) {
	if got := ExportFileName(FormatVTT); got != "transcript.vtt" {
		t.Errorf("ExportFileName() = %q", got)
	}
}

func TestOpenAndWriteFile(t *testing.T) {
	tmpDir := t.TempDir()

	for _, format := range ExportFormats() {
		if format == FormatTXT {
			continue
		}
		path := filepath.Join(tmpDir, "nested", "out"+ExtensionForFormat(format))
		if err := WriteFile(path, format, sampleSegments); err != nil {
			t.Fatalf("WriteFile(%s) error: %v", format, err)
		}

		segs, got, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%s) error: %v", path, err)
		}
		if got != format {
			t.Errorf("Open(%s) format = %s", path, got)
		}
		if len(segs) != 2 || segs[0].Text != "Hello world" {
			t.Errorf("Open(%s) segments = %+v", path, segs)
		}
	}
}

func TestOpenUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movie.ass")
	if err := os.WriteFile(path, []byte("[Script Info]"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, _, err := Open(path); err == nil {
		t.Error("expected error for .ass file")
	}
	if _, _, err := Open(filepath.Join(t.TempDir(), "missing.srt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"srt", ".SRT", " vtt ", "json", "txt", "tsv"} {
		if _, ok := ParseFormat(name); !ok {
			t.Errorf("ParseFormat(%q) not recognised", name)
		}
	}
	if _, ok := ParseFormat("ass"); ok {
		t.Error("ParseFormat(ass) should fail")
	}
}
