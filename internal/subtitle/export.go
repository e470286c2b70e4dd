package subtitle

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// renders a segment sequence as text; never mutates its input
type Exporter func(segs []Segment) string

var exporters = map[Format]Exporter{
	FormatSRT:  RenderSRT,
	FormatVTT:  RenderVTT,
	FormatTXT:  RenderTXT,
	FormatJSON: RenderJSON,
}

// formats that can be exported, in menu order
func ExportFormats() []Format {
	return []Format{FormatSRT, FormatVTT, FormatTXT, FormatJSON}
}

func ExporterFor(format Format) (Exporter, error) {
	exp, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
	return exp, nil
}

// Render exports segs in the given format.
func Render(format Format, segs []Segment) (string, error) {
	exp, err := ExporterFor(format)
	if err != nil {
		return "", err
	}
	return exp(segs), nil
}

// RenderSRT numbers blocks by position, not by stored id.
func RenderSRT(segs []Segment) string {
	blocks := make([]string, len(segs))
	for i, seg := range segs {
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteByte('\n')
		sb.WriteString(FormatRange(seg.Start, seg.End, StyleSRT))
		sb.WriteByte('\n')
		sb.WriteString(seg.Text)
		sb.WriteByte('\n')
		blocks[i] = sb.String()
	}
	return strings.Join(blocks, "\n")
}

func RenderVTT(segs []Segment) string {
	blocks := make([]string, len(segs))
	for i, seg := range segs {
		blocks[i] = FormatRange(seg.Start, seg.End, StyleVTT) + "\n" + seg.Text
	}
	return "WEBVTT\n\n" + strings.Join(blocks, "\n\n")
}

func RenderTXT(segs []Segment) string {
	texts := make([]string, len(segs))
	for i, seg := range segs {
		texts[i] = seg.Text
	}
	return strings.Join(texts, "\n")
}

// RenderJSON dumps segs with two space indentation; empty input gives "[]".
func RenderJSON(segs []Segment) string {
	if len(segs) == 0 {
		return "[]"
	}
	out := make([]Segment, len(segs))
	for i, seg := range segs {
		seg.Start = finite(seg.Start)
		seg.End = finite(seg.End)
		out[i] = seg
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

// encoding/json rejects NaN and Inf
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// download name used by the export boundary
func ExportFileName(format Format) string {
	return "transcript." + string(format)
}
