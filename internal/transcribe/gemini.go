package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"google.golang.org/genai"

	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/translate"
)

// implements Transcriber using Google Gemini
type GeminiTranscriber struct {
	client *genai.Client
	model  string
}

// segment from Gemini's JSON reply
type geminiSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewGeminiTranscriber(
	ctx context.Context,
	apiKey string,
	model string,
) (*GeminiTranscriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client: client,
		model:  model,
	}, nil
}

// Transcribe uploads the audio, asks for timed JSON segments and parses
// the reply. The uploaded file is deleted afterwards.
func (t *GeminiTranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
	opts Options,
) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	uploaded, err := t.client.Files.UploadFromPath(ctx, audioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	defer func() {
		_, _ = t.client.Files.Delete(context.WithoutCancel(ctx), uploaded.Name, nil)
	}()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildGeminiPrompt(opts)),
			genai.NewPartFromURI(uploaded.URI, uploaded.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	reply := geminiReplyText(resp)
	segments, err := parseGeminiSegments(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transcription: %w", err)
	}

	language := opts.Language
	if opts.Task == TaskTranslate {
		language = "en"
	}
	return &Result{
		Segments: segments,
		Raw:      []byte(reply),
		Output:   subtitle.FormatJSON,
		Language: language,
	}, nil
}

func buildGeminiPrompt(opts Options) string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if opts.Language != "" {
		fmt.Fprintf(&sb, "The audio is in %s. ", opts.Language)
	}
	if opts.Task == TaskTranslate {
		sb.WriteString("Output the transcript in English. ")
	}
	if opts.InitialPrompt != "" {
		fmt.Fprintf(&sb, "Vocabulary and context: %s ", opts.InitialPrompt)
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")
	return sb.String()
}

// concatenated text of the first candidate that has any
func geminiReplyText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		var text string
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
		if text != "" {
			return text
		}
	}
	return ""
}

// parseGeminiSegments numbers segments 1..N in reply order, drops empty
// text and pulls an end before its start up to the start.
func parseGeminiSegments(reply string) ([]subtitle.Segment, error) {
	text := translate.CleanJSON(reply)
	if text == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}
	if i, j := strings.Index(text, "["), strings.LastIndex(text, "]"); i >= 0 && j > i {
		text = text[i : j+1]
	}

	var raw []geminiSegment
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)",
			err, truncate(text, 200))
	}

	segments := make([]subtitle.Segment, 0, len(raw))
	for _, seg := range raw {
		body := strings.TrimSpace(seg.Text)
		if body == "" {
			continue
		}
		start := max(seg.Start, 0)
		segments = append(segments, subtitle.Segment{
			ID:    strconv.Itoa(len(segments) + 1),
			Start: start,
			End:   max(seg.End, start),
			Text:  body,
		})
	}
	return segments, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
