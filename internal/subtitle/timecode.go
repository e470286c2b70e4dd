package subtitle

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// timestamp flavour, differing only in the millisecond separator
type Style int

const (
	StyleSRT Style = iota
	StyleVTT
)

func (s Style) Separator() byte {
	if s == StyleVTT {
		return '.'
	}
	return ','
}

func (s Style) String() string {
	if s == StyleVTT {
		return "VTT"
	}
	return "SRT"
}

// FormatError reports timestamp text that does not match HH:MM:SS[,.]mmm.
type FormatError struct {
	Text   string
	Style  Style
	Reason string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid %s timestamp %q: %s", e.Style, e.Text, e.Reason)
	}
	return fmt.Sprintf("invalid %s timestamp %q", e.Style, e.Text)
}

// Relative slack absorbing binary float error, so 4.56s formats as 560ms
// rather than 559ms. A value counts as on a millisecond boundary only when
// it sits within one part in 1e12 below it; anything further down truncates.
const truncationSlack = 1e-12

var timestampRegex = regexp.MustCompile(`^(\d{2,}):(\d{2}):(\d{2})[,.](\d{3})$`)

var (
	srtRangeRegex = regexp.MustCompile(
		`(\d{2,}:\d{2}:\d{2},\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2},\d{3})`,
	)
	vttRangeRegex = regexp.MustCompile(
		`((?:\d{2,}:)?\d{2}:\d{2}[.,]\d{3})\s*-->\s*((?:\d{2,}:)?\d{2}:\d{2}[.,]\d{3})`,
	)
)

// FormatTimestamp renders seconds as zero padded HH:MM:SS<sep>mmm.
// Milliseconds are truncated and hours are not wrapped at 24.
func FormatTimestamp(seconds float64, style Style) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds * 1000 * (1 + truncationSlack)))

	hours := total / 3_600_000
	minutes := total / 60_000 % 60
	secs := total / 1000 % 60
	millis := total % 1000

	return fmt.Sprintf("%02d:%02d:%02d%c%03d",
		hours, minutes, secs, style.Separator(), millis)
}

// ParseTimestamp is the inverse of FormatTimestamp. Either separator is
// accepted regardless of style.
func ParseTimestamp(text string, style Style) (float64, error) {
	trimmed := strings.TrimSpace(text)
	m := timestampRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return 0, &FormatError{Text: text, Style: style}
	}

	h, _ := strconv.ParseInt(m[1], 10, 64)
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])

	if mins > 59 {
		return 0, &FormatError{Text: text, Style: style, Reason: "minutes out of range"}
	}
	if secs > 59 {
		return 0, &FormatError{Text: text, Style: style, Reason: "seconds out of range"}
	}

	return float64(h)*3600 + float64(mins)*60 + float64(secs) + float64(ms)/1000, nil
}

// ParseRange extracts "start --> end" from a cue timing line. SRT requires
// full comma separated timestamps; VTT also takes the short MM:SS.mmm form
// and ignores trailing cue settings.
func ParseRange(line string, style Style) (start, end float64, ok bool) {
	re := srtRangeRegex
	if style == StyleVTT {
		re = vttRangeRegex
	}
	m := re.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}

	start, err := ParseTimestamp(padHours(m[1]), style)
	if err != nil {
		return 0, 0, false
	}
	end, err = ParseTimestamp(padHours(m[2]), style)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// FormatRange renders a cue timing line.
func FormatRange(start, end float64, style Style) string {
	return FormatTimestamp(start, style) + " --> " + FormatTimestamp(end, style)
}

// FormatClock renders seconds as MM:SS for compact display.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	mins := int64(seconds) / 60
	secs := int64(seconds) % 60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

// ParseSeconds accepts a plain decimal number of seconds or a timestamp.
func ParseSeconds(text string) (float64, error) {
	trimmed := strings.TrimSpace(text)
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("invalid time %q: must be a finite, non-negative number", text)
		}
		return v, nil
	}
	return ParseTimestamp(trimmed, StyleSRT)
}

// short VTT timestamps omit the hours field
func padHours(ts string) string {
	if strings.Count(ts, ":") == 1 {
		return "00:" + ts
	}
	return ts
}
