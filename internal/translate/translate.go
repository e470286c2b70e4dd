package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
)

// single text item sent to the model, keyed by segment id
type TranslationItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// rewritten text for one segment id
type TranslationResult struct {
	ID   segmentID `json:"id"`
	Text string    `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// optional interface for translators that support concurrent batch processing
type ConcurrentTranslator interface {
	Translator
	TranslateWithConcurrency(
		ctx context.Context,
		items []TranslationItem,
		concurrency int,
	) ([]TranslationResult, error)
}

// Completer sends one prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// what the model is asked to do with each text
type Task string

const (
	TaskTranslate Task = "translate"
	// fix grammar and punctuation without changing language or meaning
	TaskPolish Task = "polish"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

type Options struct {
	Task           Task
	InputLanguage  string
	TargetLanguage string
	Model          string
	Prompt         string
	BatchSize      int // items per API request (default 50)
	MaxBatchChars  int // text characters per request, 0 for no limit
	Logger         *logging.Logger
}

func (o Options) task() Task {
	if o.Task == "" {
		return TaskTranslate
	}
	return o.Task
}

func (o Options) validate() error {
	switch o.task() {
	case TaskTranslate:
		if o.TargetLanguage == "" {
			return fmt.Errorf("target language is required")
		}
	case TaskPolish:
	default:
		return fmt.Errorf("unsupported task %q: use translate or polish", o.Task)
	}
	return nil
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (ConcurrentTranslator, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// Items builds one item per segment.
func Items(segments []subtitle.Segment) []TranslationItem {
	items := make([]TranslationItem, len(segments))
	for i, seg := range segments {
		items[i] = TranslationItem{ID: seg.ID, Text: seg.Text}
	}
	return items
}

// Segments turns results into id/text pairs suitable for a left merge
// into the session.
func Segments(results []TranslationResult) []subtitle.Segment {
	segs := make([]subtitle.Segment, len(results))
	for i, r := range results {
		segs[i] = subtitle.Segment{ID: string(r.ID), Text: r.Text}
	}
	return segs
}

// BuildPrompt creates the prompt for LLM providers
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	switch opts.task() {
	case TaskPolish:
		if opts.InputLanguage != "" {
			fmt.Fprintf(&sb,
				"Polish the following %s subtitle texts.\n\n",
				opts.InputLanguage,
			)
		} else {
			sb.WriteString("Polish the following subtitle texts.\n\n")
		}
	default:
		if opts.InputLanguage != "" {
			fmt.Fprintf(&sb,
				"Translate the following %s subtitle texts to %s.\n\n",
				opts.InputLanguage,
				opts.TargetLanguage,
			)
		} else {
			fmt.Fprintf(&sb,
				"Translate the following subtitle texts to %s.\n\n",
				opts.TargetLanguage,
			)
		}
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	if opts.task() == TaskPolish {
		sb.WriteString(
			"1. Fix grammar, punctuation and obvious recognition errors. Keep the language and meaning.\n",
		)
	} else {
		sb.WriteString(
			"1. Translate ONLY the text content, preserving the meaning.\n",
		)
	}
	sb.WriteString("2. Preserve line breaks in the same positions.\n")
	sb.WriteString("3. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("4. Each object must have 'id' and 'text' fields.\n")
	sb.WriteString(
		"5. The 'id' values must match the input ids exactly.\n",
	)
	sb.WriteString("6. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		fmt.Fprintf(&sb, "Additional instructions: %s\n\n", opts.Prompt)
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the JSON array only:")

	return sb.String()
}
