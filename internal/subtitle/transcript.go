package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// segment entry in an ASR service JSON transcription result
type asrSegment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// JSON transcription result returned by the ASR service
type asrResult struct {
	Language string       `json:"language"`
	Text     string       `json:"text"`
	Segments []asrSegment `json:"segments"`
}

// ParseTranscript turns a raw ASR response into segments. Malformed blocks
// are skipped; only undecodable JSON is reported as an error.
func ParseTranscript(data []byte, output Format) ([]Segment, error) {
	text := string(data)

	switch output {
	case FormatSRT:
		return ParseSRT(text, ParseOptions{IDs: IDFromIndex}), nil
	case FormatVTT:
		return ParseVTT(text, ParseOptions{IDs: IDFromIndex, MultiLine: true}), nil
	case FormatJSON:
		return ParseJSON(data)
	case FormatTSV:
		if looksLikeTSV(text) {
			return ParseTSV(text), nil
		}
		return singleSegment(text), nil
	case FormatTXT:
		return singleSegment(text), nil
	default:
		return nil, fmt.Errorf("unsupported transcript format: %s", output)
	}
}

// ParseJSON accepts either a segment array as written by the JSON exporter
// or an ASR result object with a segments list.
func ParseJSON(data []byte) ([]Segment, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []Segment{}, nil
	}

	if trimmed[0] == '[' {
		var segments []Segment
		if err := json.Unmarshal(trimmed, &segments); err != nil {
			return nil, fmt.Errorf("failed to parse segment JSON: %w", err)
		}
		if segments == nil {
			segments = []Segment{}
		}
		return segments, nil
	}

	var result asrResult
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return nil, fmt.Errorf("failed to parse transcription JSON: %w", err)
	}

	segments := make([]Segment, 0, len(result.Segments))
	for i, seg := range result.Segments {
		segments = append(segments, Segment{
			ID:    strconv.Itoa(i + 1),
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}

// untimed output becomes one segment holding the whole text
func singleSegment(text string) []Segment {
	if strings.TrimSpace(text) == "" {
		return []Segment{}
	}
	return []Segment{{ID: "1", Start: 0, End: 0, Text: text}}
}
