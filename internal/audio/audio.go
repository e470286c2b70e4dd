package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrTooLarge          = errors.New("audio file too large")
)

// extensions accepted by the ASR service and their upload content types
var uploadTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
}

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
}

// content type sent with the multipart upload
func MIMEType(path string) string {
	if t, ok := uploadTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return t
	}
	return "application/octet-stream"
}

// checks if the ASR service accepts the file as is
func IsSupported(path string) bool {
	_, ok := uploadTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// checks if the file is a video based on extension
func IsVideoFile(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// ValidateUpload checks extension and size before a file is sent to the
// ASR service. maxBytes <= 0 disables the size check.
func ValidateUpload(path string, maxBytes int64) error {
	if !IsSupported(path) {
		return fmt.Errorf(
			"%w %q: use mp3, wav, flac, m4a, or ogg",
			ErrUnsupportedFormat,
			filepath.Ext(path),
		)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("audio file not found: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return fmt.Errorf(
			"%w: %d bytes exceeds limit of %d",
			ErrTooLarge,
			info.Size(),
			maxBytes,
		)
	}
	return nil
}

// settings for audio compression
type CompressionOptions struct {
	SampleRate int    // Hz
	Channels   int    // 1=mono, 2=stereo
	Bitrate    string // e.g. "64k"
}

// mono 16 kHz mp3, which is what whisper resamples to anyway
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

func compressArgs(opts CompressionOptions) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"vn":     "",
		"acodec": "libmp3lame",
	}
	if opts.SampleRate > 0 {
		kwargs["ar"] = opts.SampleRate
	}
	if opts.Channels > 0 {
		kwargs["ac"] = opts.Channels
	}
	if opts.Bitrate != "" {
		kwargs["b:a"] = opts.Bitrate
	}
	return kwargs
}

// Compress re-encodes any audio or video input to an mp3 at outputPath.
func Compress(
	ctx context.Context,
	ffmpegPath, inputPath, outputPath string,
	opts CompressionOptions,
) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := ffmpeg.Input(inputPath).
		Output(outputPath, compressArgs(opts)).
		OverWriteOutput().
		SetFfmpegPath(ffmpegPath).
		Run()
	if err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	return nil
}

// Prepare returns a path the ASR service will accept. Supported files under
// the limit are returned unchanged unless force is set; anything else is
// compressed into dir.
func Prepare(
	ctx context.Context,
	ffmpegPath, inputPath, dir string,
	maxBytes int64,
	force bool,
) (string, error) {
	if !force {
		err := ValidateUpload(inputPath, maxBytes)
		if err == nil {
			return inputPath, nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) && !errors.Is(err, ErrTooLarge) {
			return "", err
		}
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputPath := filepath.Join(dir, base+".mp3")
	if err := Compress(ctx, ffmpegPath, inputPath, outputPath, DefaultCompressionOptions()); err != nil {
		return "", err
	}
	if err := ValidateUpload(outputPath, maxBytes); err != nil {
		return "", err
	}
	return outputPath, nil
}

// JSON output from ffprobe
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reports the duration of a media file.
func Probe(ctx context.Context, ffprobePath, filePath string) (time.Duration, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return 0, fmt.Errorf("file not found: %s", filePath)
	}

	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		filePath,
	)

	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbe(out.Bytes())
}

func parseProbe(data []byte) (time.Duration, error) {
	var probe ffprobeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	var seconds float64
	if _, err := fmt.Sscanf(probe.Format.Duration, "%f", &seconds); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
