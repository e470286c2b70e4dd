package transcribe

import (
	"context"
	"fmt"

	"github.com/lloyd42/whisper-asr-client/internal/config"
	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

// what the ASR service does with the audio
type Task string

const (
	TaskTranscribe Task = "transcribe"
	// translate speech to English while transcribing
	TaskTranslate Task = "translate"
)

// request options understood by the ASR service
type Options struct {
	Encode         bool
	Task           Task
	Language       string
	InitialPrompt  string
	VADFilter      bool
	WordTimestamps bool
	Output         subtitle.Format
}

// defaults used for a fresh session
func DefaultOptions() Options {
	return Options{
		Encode: true,
		Task:   TaskTranscribe,
		Output: subtitle.FormatSRT,
	}
}

func (o Options) Validate() error {
	switch o.Task {
	case TaskTranscribe, TaskTranslate:
	default:
		return fmt.Errorf("unsupported task %q: use transcribe or translate", o.Task)
	}
	switch o.Output {
	case subtitle.FormatTXT, subtitle.FormatVTT, subtitle.FormatSRT,
		subtitle.FormatTSV, subtitle.FormatJSON:
	default:
		return fmt.Errorf(
			"unsupported output %q: use txt, vtt, srt, tsv, or json",
			o.Output,
		)
	}
	return nil
}

// transcription result
type Result struct {
	Segments []subtitle.Segment
	// response body exactly as returned by the service
	Raw      []byte
	Output   subtitle.Format
	Language string
}

// result of the language detection endpoint
type LanguageDetection struct {
	DetectedLanguage string  `json:"detected_language"`
	LanguageCode     string  `json:"language_code"`
	Confidence       float64 `json:"confidence"`
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(
		ctx context.Context,
		audioPath string,
		opts Options,
	) (*Result, error)
}

// optional interface for services that can identify the spoken language
type LanguageDetector interface {
	DetectLanguage(
		ctx context.Context,
		audioPath string,
		encode bool,
	) (*LanguageDetection, error)
}

// transcription service provider
type Provider string

const (
	// self-hosted whisper-asr-webservice
	ProviderWebservice Provider = "webservice"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
)

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	cfg *config.Config,
	logger *logging.Logger,
) (Transcriber, error) {
	switch provider {
	case ProviderWebservice:
		return NewClient(cfg.ASRURL,
			WithTimeout(cfg.ASRTimeout),
			WithLogger(logger),
		), nil
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, cfg.OpenAIAPIKey, "")
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, cfg.GeminiAPIKey, "")
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
