package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrNotFound means neither an override nor PATH yielded the binary.
var ErrNotFound = errors.New("binary not found")

// FFmpegPath resolves ffmpeg. A non-empty override must point at an
// existing file; an empty one falls back to a PATH lookup.
func FFmpegPath(override string) (string, error) {
	return resolve("ffmpeg", override)
}

// FFprobePath resolves ffprobe the same way.
func FFprobePath(override string) (string, error) {
	return resolve("ffprobe", override)
}

func resolve(name, override string) (string, error) {
	if override != "" {
		if !fileExists(override) {
			return "", fmt.Errorf("%s %w at %s", name, ErrNotFound, override)
		}
		return override, nil
	}

	found, err := exec.LookPath(name + executableSuffix())
	if err != nil {
		return "", fmt.Errorf(
			"%s %w in PATH: install it or set SUBTIDE_%s_PATH",
			name,
			ErrNotFound,
			strings.ToUpper(name),
		)
	}
	return found, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}

func executableSuffix() string {
	if runtime.GOOS == "windows" {
		return ".exe"
	}
	return ""
}
