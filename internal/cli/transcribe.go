package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lloyd42/whisper-asr-client/internal/audio"
	"github.com/lloyd42/whisper-asr-client/internal/ffmpeg"
	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcribe"
	"github.com/lloyd42/whisper-asr-client/internal/transcript"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [audio_file]...",
	Short: "Transcribe audio files into subtitles",
	Long: `Upload one or more audio files to the ASR service and write the
resulting segments as subtitles.

The service is a whisper-asr-webservice instance at SUBTIDE_ASR_URL
(default http://localhost:9000), OpenAI Whisper with --provider openai, or
Gemini with --provider gemini.
When no language is given the spoken language is detected first.

Files the service does not accept (video, other codecs, or over 100 MiB)
are re-encoded to a 16 kHz mono mp3 with ffmpeg; --compress forces this.

Examples:
  subtide transcribe talk.mp3
  subtide transcribe talk.mp3 -f vtt -l en --vad-filter
  subtide transcribe interview.mp4 --export json -o interview.json
  subtide transcribe *.wav --concurrency 4 -o subs/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)

	transcribeCmd.Flags().
		StringP("format", "f", "srt", "ASR output format (srt, vtt, txt, tsv, json)")
	transcribeCmd.Flags().
		String("export", "", "Written subtitle format (srt, vtt, txt, json); defaults to --format")
	transcribeCmd.Flags().
		String("task", "transcribe", "ASR task (transcribe, translate to English)")
	transcribeCmd.Flags().
		String("initial-prompt", "", "Prompt to bias the recogniser's vocabulary")
	transcribeCmd.Flags().
		Bool("vad-filter", false, "Drop non-speech with voice activity detection")
	transcribeCmd.Flags().
		Bool("word-timestamps", false, "Request word level timestamps")
	transcribeCmd.Flags().
		Bool("no-encode", false, "Send audio without ffmpeg encoding on the server")
	transcribeCmd.Flags().
		String("provider", "webservice", "Transcription provider (webservice, openai, gemini)")
	transcribeCmd.Flags().
		Bool("compress", false, "Always re-encode audio before upload")
	transcribeCmd.Flags().
		Int("max-chars", 0, "Split segments into cues of at most this many characters per line (0 keeps ASR segments)")
	transcribeCmd.Flags().
		Int("concurrency", 1, "Number of files transcribed in parallel")
	transcribeCmd.Flags().
		Int("rate-limit", 0, "Maximum requests per minute (0 for no limit)")
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	formatStr, _ := cmd.Flags().GetString("format")
	exportStr, _ := cmd.Flags().GetString("export")
	task, _ := cmd.Flags().GetString("task")
	initialPrompt, _ := cmd.Flags().GetString("initial-prompt")
	vadFilter, _ := cmd.Flags().GetBool("vad-filter")
	wordTimestamps, _ := cmd.Flags().GetBool("word-timestamps")
	noEncode, _ := cmd.Flags().GetBool("no-encode")
	providerStr, _ := cmd.Flags().GetString("provider")
	compress, _ := cmd.Flags().GetBool("compress")
	maxChars, _ := cmd.Flags().GetInt("max-chars")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	rateLimit, _ := cmd.Flags().GetInt("rate-limit")
	outputPath, _ := cmd.Flags().GetString("output")
	language, _ := cmd.Flags().GetString("language")

	output, ok := subtitle.ParseFormat(formatStr)
	if !ok {
		return fmt.Errorf("unsupported format %q: use srt, vtt, txt, tsv, or json", formatStr)
	}
	export := exportableOr(output, subtitle.FormatSRT)
	if exportStr != "" {
		var err error
		if export, err = exportFormat(exportStr); err != nil {
			return err
		}
	}

	opts := transcribe.Options{
		Encode:         !noEncode,
		Task:           transcribe.Task(strings.ToLower(task)),
		Language:       language,
		InitialPrompt:  initialPrompt,
		VADFilter:      vadFilter,
		WordTimestamps: wordTimestamps,
		Output:         output,
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	if concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", concurrency)
	}

	for _, path := range args {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("file not found: %s", path)
		}
	}

	outputs, err := transcriptPaths(args, outputPath, export)
	if err != nil {
		return err
	}

	asr, err := transcribe.Factory(ctx, transcribe.Provider(providerStr), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "subtide-*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	runner := &fileRunner{
		asr:      asr,
		compress: compress,
		tempDir:  tempDir,
		logger:   logger,
	}

	logger.Infow("Starting transcription",
		"files", len(args),
		"provider", providerStr,
		"url", cfg.ASRURL,
		"task", opts.Task,
		"output", opts.Output,
		"export", export,
	)

	results, err := transcribe.TranscribeAll(ctx, runner, args, opts, transcribe.BatchOptions{
		Concurrency:     concurrency,
		RateLimitPerMin: rateLimit,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	splitter := subtitle.NewSplitter(maxChars)
	for i, res := range results {
		segments := splitter.Split(res.Segments)
		if err := writeSegments(outputs[i], export, segments); err != nil {
			return err
		}
		fmt.Printf("Transcribed %s: %s\n", args[i], absPath(outputs[i]))
		fmt.Printf("  Segments: %d\n", len(segments))
		if res.Language != "" {
			fmt.Printf("  Language: %s\n", res.Language)
		}
	}
	return nil
}

// transcriptPaths picks one output per input. With several inputs -o names
// a directory.
func transcriptPaths(inputs []string, output string, format subtitle.Format) ([]string, error) {
	paths := make([]string, len(inputs))
	if len(inputs) == 1 && output != "" {
		paths[0] = output
		return paths, nil
	}
	if output == "-" {
		return nil, fmt.Errorf("cannot write %d transcripts to stdout", len(inputs))
	}
	for i, in := range inputs {
		path := siblingPath(in, "", format)
		if output != "" {
			path = filepath.Join(output, filepath.Base(path))
		}
		paths[i] = path
	}
	return paths, nil
}

// fileRunner prepares each file for upload and runs it through its own
// editing session, so language detection and status tracking apply per file.
type fileRunner struct {
	asr      transcribe.Transcriber
	compress bool
	tempDir  string
	logger   *logging.Logger
}

func (r *fileRunner) Transcribe(
	ctx context.Context,
	path string,
	opts transcribe.Options,
) (*transcribe.Result, error) {
	upload, err := r.prepare(ctx, path)
	if err != nil {
		return nil, err
	}

	session := transcript.New(transcript.WithLogger(r.logger))
	if err := session.SetOptions(opts); err != nil {
		return nil, err
	}
	return session.Transcribe(ctx, r.asr, upload)
}

func (r *fileRunner) prepare(ctx context.Context, path string) (string, error) {
	err := audio.ValidateUpload(path, cfg.MaxUploadBytes)
	needsEncode := r.compress ||
		errors.Is(err, audio.ErrUnsupportedFormat) ||
		errors.Is(err, audio.ErrTooLarge)
	if err != nil && !needsEncode {
		return "", err
	}
	if !needsEncode {
		return path, nil
	}

	ffmpegPath, err := ffmpeg.FFmpegPath(cfg.FFmpegPath)
	if err != nil {
		return "", fmt.Errorf("%s must be re-encoded before upload: %w", path, err)
	}

	// distinct directory per input so equal base names do not collide
	dir, err := os.MkdirTemp(r.tempDir, "audio-*")
	if err != nil {
		return "", err
	}

	if audio.IsVideoFile(path) {
		r.logger.Infow("Extracting audio track for upload", "input", path)
	} else {
		r.logger.Infow("Re-encoding audio for upload", "input", path)
	}
	return audio.Prepare(ctx, ffmpegPath, path, dir, cfg.MaxUploadBytes, r.compress)
}
