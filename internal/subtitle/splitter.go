package subtitle

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Splitter breaks long ASR segments into display sized cues and wraps
// their text onto at most two lines.
type Splitter struct {
	MaxCharsPerLine int
	MaxLinesPerSub  int
	MaxDuration     float64
}

func NewSplitter(maxCharsPerLine int) *Splitter {
	return &Splitter{
		MaxCharsPerLine: maxCharsPerLine,
		MaxLinesPerSub:  2, // most players support 2 lines
		MaxDuration:     7,
	}
}

// Split returns a new sequence; segments that fit are copied unchanged and
// split pieces get ids of the form "<id>.<n>".
func (s *Splitter) Split(segs []Segment) []Segment {
	out := make([]Segment, 0, len(segs))
	if s.MaxCharsPerLine <= 0 {
		return append(out, segs...)
	}

	for _, seg := range segs {
		text := strings.TrimSpace(seg.Text)
		if text == "" || !s.needsSplit(text, seg.Duration()) {
			seg.Text = s.wrap(text)
			out = append(out, seg)
			continue
		}
		out = append(out, s.splitSegment(seg)...)
	}
	return out
}

func (s *Splitter) maxChars() int {
	lines := s.MaxLinesPerSub
	if lines <= 0 {
		lines = 1
	}
	return s.MaxCharsPerLine * lines
}

func (s *Splitter) needsSplit(text string, duration float64) bool {
	if utf8.RuneCountInString(text) > s.maxChars() {
		return true
	}
	return s.MaxDuration > 0 && duration > s.MaxDuration
}

func (s *Splitter) splitSegment(seg Segment) []Segment {
	words := strings.Fields(seg.Text)
	if len(words) < 2 {
		seg.Text = strings.TrimSpace(seg.Text)
		return []Segment{seg}
	}

	total := seg.Duration()
	chars := utf8.RuneCountInString(strings.TrimSpace(seg.Text))

	pieces := (chars + s.maxChars() - 1) / s.maxChars()
	if s.MaxDuration > 0 {
		if byDuration := int(total/s.MaxDuration) + 1; byDuration > pieces {
			pieces = byDuration
		}
	}
	if pieces > len(words) {
		pieces = len(words)
	}
	if pieces < 1 {
		pieces = 1
	}

	wordsPerPiece := (len(words) + pieces - 1) / pieces
	step := total / float64(pieces)

	var out []Segment
	start := seg.Start
	for i := 0; len(words) > 0; i++ {
		n := wordsPerPiece
		if n > len(words) {
			n = len(words)
		}
		text := strings.Join(words[:n], " ")
		words = words[n:]

		end := start + step
		// last piece ends exactly where the original did
		if len(words) == 0 {
			end = seg.End
		}

		out = append(out, Segment{
			ID:    fmt.Sprintf("%s.%d", seg.ID, i+1),
			Start: start,
			End:   end,
			Text:  s.wrap(text),
		})
		start = end
	}
	return out
}

// wrap breaks text into two lines at the word boundary nearest the middle
func (s *Splitter) wrap(text string) string {
	runeCount := utf8.RuneCountInString(text)
	if s.MaxLinesPerSub < 2 || runeCount <= s.MaxCharsPerLine {
		return text
	}

	words := strings.Fields(text)
	if len(words) < 2 {
		return text
	}

	middle := runeCount / 2
	bestSplit := 0
	bestDiff := runeCount

	currentLen := 0
	for i, word := range words[:len(words)-1] {
		currentLen += utf8.RuneCountInString(word)
		if i > 0 {
			currentLen++ // space
		}
		if diff := abs(currentLen - middle); diff < bestDiff {
			bestDiff = diff
			bestSplit = i + 1
		}
	}

	if bestSplit > 0 && bestSplit < len(words) {
		return strings.Join(words[:bestSplit], " ") + "\n" +
			strings.Join(words[bestSplit:], " ")
	}
	return text
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
