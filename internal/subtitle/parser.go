package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// how parsed segments are identified
type IDScheme int

const (
	// block index line for SRT, cue identifier (or position) for VTT
	IDFromIndex IDScheme = iota
	// "seg-N", N being the 1-based block position in the document
	IDSequential
)

type ParseOptions struct {
	IDs IDScheme
	// keep line breaks inside a cue instead of joining lines with a space
	MultiLine bool
}

var blankLineRegex = regexp.MustCompile(`\n\s*\n`)

// ParseSRT splits doc into blank-line separated blocks and returns one
// segment per well-formed block, in document order. Blocks with fewer than
// three lines, a non-integer index, or a bad timing line are skipped.
func ParseSRT(doc string, opts ParseOptions) []Segment {
	segments := []Segment{}
	ids := newIDSet()

	for n, block := range splitBlocks(doc) {
		lines := strings.Split(block, "\n")
		if len(lines) < 3 {
			continue
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}

		start, end, ok := ParseRange(lines[1], StyleSRT)
		if !ok {
			continue
		}

		id := strconv.Itoa(index)
		if opts.IDs == IDSequential {
			id = fmt.Sprintf("seg-%d", n+1)
		}

		segments = append(segments, Segment{
			ID:    ids.claim(id),
			Start: start,
			End:   end,
			Text:  joinText(lines[2:], opts.MultiLine),
		})
	}

	return segments
}

// ParseVTT handles WebVTT documents: the WEBVTT header and NOTE, STYLE and
// REGION blocks are ignored, and the cue identifier line is optional.
func ParseVTT(doc string, opts ParseOptions) []Segment {
	segments := []Segment{}
	ids := newIDSet()

	for n, block := range splitBlocks(doc) {
		lines := strings.Split(block, "\n")
		head := strings.TrimSpace(lines[0])
		if n == 0 && strings.HasPrefix(head, "WEBVTT") {
			continue
		}
		if isVTTMetadataBlock(head) {
			continue
		}

		timing := 0
		if !strings.Contains(lines[0], "-->") {
			timing = 1
		}
		if len(lines) < timing+2 {
			continue
		}

		start, end, ok := ParseRange(lines[timing], StyleVTT)
		if !ok {
			continue
		}

		id := strconv.Itoa(len(segments) + 1)
		switch {
		case opts.IDs == IDSequential:
			id = fmt.Sprintf("seg-%d", n+1)
		case timing == 1 && head != "":
			id = head
		}

		segments = append(segments, Segment{
			ID:    ids.claim(id),
			Start: start,
			End:   end,
			Text:  joinText(lines[timing+1:], opts.MultiLine),
		})
	}

	return segments
}

// ParseTSV reads whisper's tab separated output: an optional
// "start\tend\ttext" header followed by rows with millisecond integers.
// Malformed rows are skipped.
func ParseTSV(doc string) []Segment {
	segments := []Segment{}

	for _, line := range strings.Split(normalizeNewlines(doc), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			continue
		}
		startMS, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64)
		if err != nil || startMS < 0 {
			continue
		}
		endMS, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
		if err != nil || endMS < startMS {
			continue
		}

		segments = append(segments, Segment{
			ID:    strconv.Itoa(len(segments) + 1),
			Start: float64(startMS) / 1000,
			End:   float64(endMS) / 1000,
			Text:  strings.TrimSpace(fields[2]),
		})
	}

	return segments
}

// looksLikeTSV reports whether doc starts with whisper's TSV header.
func looksLikeTSV(doc string) bool {
	first, _, _ := strings.Cut(strings.TrimLeft(normalizeNewlines(doc), "\n"), "\n")
	return strings.TrimSpace(first) == "start\tend\ttext"
}

func splitBlocks(doc string) []string {
	doc = strings.TrimSpace(normalizeNewlines(doc))
	if doc == "" {
		return nil
	}
	blocks := blankLineRegex.Split(doc, -1)
	for i, b := range blocks {
		blocks[i] = strings.TrimSpace(b)
	}
	return blocks
}

func normalizeNewlines(doc string) string {
	doc = strings.TrimPrefix(doc, "\ufeff")
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return strings.ReplaceAll(doc, "\r", "\n")
}

func joinText(lines []string, multiLine bool) string {
	if multiLine {
		return strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

func isVTTMetadataBlock(head string) bool {
	for _, kw := range []string{"NOTE", "STYLE", "REGION"} {
		if head == kw || strings.HasPrefix(head, kw+" ") || strings.HasPrefix(head, kw+"\t") {
			return true
		}
	}
	return false
}

// keeps ids unique when a document repeats an index
type idSet map[string]int

func newIDSet() idSet {
	return idSet{}
}

func (s idSet) claim(id string) string {
	candidate := id
	for s[candidate] > 0 {
		s[id]++
		candidate = fmt.Sprintf("%s-%d", id, s[id])
	}
	s[candidate]++
	return candidate
}
