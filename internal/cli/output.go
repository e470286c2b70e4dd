package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

// exportFormat validates a --format value against the exportable formats.
func exportFormat(name string) (subtitle.Format, error) {
	f, ok := subtitle.ParseFormat(name)
	if ok {
		for _, exp := range subtitle.ExportFormats() {
			if f == exp {
				return f, nil
			}
		}
	}
	return "", fmt.Errorf("unsupported format %q: use srt, vtt, txt, or json", name)
}

// exportableOr keeps f when it can be written, otherwise falls back.
func exportableOr(f, fallback subtitle.Format) subtitle.Format {
	if _, err := subtitle.ExporterFor(f); err == nil {
		return f
	}
	return fallback
}

// siblingPath swaps the extension of input, inserting an optional infix:
// talk.mp3 + ("ja", srt) -> talk.ja.srt
func siblingPath(input, infix string, format subtitle.Format) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if infix != "" {
		base += "." + infix
	}
	return base + subtitle.ExtensionForFormat(format)
}

// writeSegments writes to path, or to stdout when path is "-". An existing
// directory receives transcript.<format>.
func writeSegments(path string, format subtitle.Format, segs []subtitle.Segment) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, subtitle.ExportFileName(format))
	}
	if path == "-" {
		content, err := subtitle.Render(format, segs)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(os.Stdout, content)
		return err
	}
	if err := subtitle.WriteFile(path, format, segs); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func absPath(path string) string {
	if path == "-" {
		return "stdout"
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
