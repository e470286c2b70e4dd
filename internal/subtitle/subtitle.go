package subtitle

// single timed unit of subtitle text, times in seconds
type Segment struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns End - Start in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Contains reports whether t falls inside the closed interval [Start, End].
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t <= s.End
}

// represents supported transcript and subtitle formats
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatTXT  Format = "txt"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
)

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(name string) (Format, bool) {
	switch Format(trimDot(name)) {
	case FormatSRT:
		return FormatSRT, true
	case FormatVTT:
		return FormatVTT, true
	case FormatTXT:
		return FormatTXT, true
	case FormatTSV:
		return FormatTSV, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return "", false
	}
}

// Clone returns a deep copy of segs.
func Clone(segs []Segment) []Segment {
	if segs == nil {
		return nil
	}
	out := make([]Segment, len(segs))
	copy(out, segs)
	return out
}
