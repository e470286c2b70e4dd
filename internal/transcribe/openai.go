package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Transcriber using the OpenAI audio API
type OpenAITranscriber struct {
	client openai.Client
	model  string
}

// segment from OpenAI Whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	model string,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if model == "" {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Transcribe always requests verbose_json so segment timing is available;
// opts.Output only affects the Result's declared format.
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
	opts Options,
) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	if opts.Task == TaskTranslate {
		params := openai.AudioTranslationNewParams{
			File:           file,
			Model:          openai.AudioModel(t.model),
			ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
		}
		if opts.InitialPrompt != "" {
			params.Prompt = openai.String(opts.InitialPrompt)
		}

		resp, err := t.client.Audio.Translations.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		return t.result(resp.RawJSON(), resp.Text, "en"), nil
	}

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}
	if opts.Language != "" {
		params.Language = openai.String(opts.Language)
	}
	if opts.InitialPrompt != "" {
		params.Prompt = openai.String(opts.InitialPrompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}
	return t.result(resp.RawJSON(), resp.Text, opts.Language), nil
}

func (t *OpenAITranscriber) result(rawJSON, text, language string) *Result {
	segments, detected, err := parseVerboseJSONResponse(rawJSON)
	if err != nil {
		segments = []subtitle.Segment{{ID: "1", Text: strings.TrimSpace(text)}}
	}
	if language == "" {
		language = detected
	}
	return &Result{
		Segments: segments,
		Raw:      []byte(rawJSON),
		Output:   subtitle.FormatJSON,
		Language: language,
	}
}

func parseVerboseJSONResponse(rawJSON string) ([]subtitle.Segment, string, error) {
	if rawJSON == "" {
		return nil, "", fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, "", fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	if len(verboseResp.Segments) == 0 {
		if verboseResp.Text == "" {
			return nil, "", fmt.Errorf("no segments or text in response")
		}
		return []subtitle.Segment{{
			ID:    "1",
			Start: 0,
			End:   verboseResp.Duration,
			Text:  strings.TrimSpace(verboseResp.Text),
		}}, verboseResp.Language, nil
	}

	segments := make([]subtitle.Segment, 0, len(verboseResp.Segments))
	for _, seg := range verboseResp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		segments = append(segments, subtitle.Segment{
			ID:    strconv.Itoa(len(segments) + 1),
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}

	return segments, verboseResp.Language, nil
}
