package subtitle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open reads a subtitle or transcript file, choosing the parser from its
// extension.
func Open(path string) ([]Segment, Format, error) {
	format, ok := FormatFromExtension(path)
	if !ok {
		return nil, "", fmt.Errorf(
			"unsupported subtitle format: %s",
			filepath.Ext(path),
		)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s file: %w", format, err)
	}

	segments, err := ParseTranscript(data, format)
	if err != nil {
		return nil, "", err
	}
	return segments, format, nil
}

// WriteFile exports segs to path, creating parent directories.
func WriteFile(path string, format Format, segs []Segment) error {
	content, err := Render(format, segs)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// subtitle format based on file extension
func FormatFromExtension(path string) (Format, bool) {
	return ParseFormat(strings.ToLower(filepath.Ext(path)))
}

// file extension for a format
func ExtensionForFormat(format Format) string {
	return "." + string(format)
}

func ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}

func trimDot(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
}
