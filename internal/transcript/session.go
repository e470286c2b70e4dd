// Package transcript holds the editable segment list of one editing session
// together with its transcription state.
package transcript

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/lloyd42/whisper-asr-client/internal/logging"
	"github.com/lloyd42/whisper-asr-client/internal/subtitle"
	"github.com/lloyd42/whisper-asr-client/internal/transcribe"
)

// text given to freshly inserted segments
const PlaceholderText = "New subtitle"

const (
	insertGap      = 0.1
	insertDuration = 5.0
)

var (
	ErrSegmentNotFound = errors.New("segment not found")
	ErrNoPlayer        = errors.New("no player attached")
)

// ValidationError rejects a timing edit. The segment is left unchanged.
type ValidationError struct {
	ID     string
	Start  float64
	End    float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf(
		"invalid timing for segment %s (%g -> %g): %s",
		e.ID, e.Start, e.End, e.Reason,
	)
}

// IDGenerator returns ids for inserted segments.
type IDGenerator func() string

// NewID returns a collision-free segment id.
func NewID() string {
	return "seg-" + uuid.NewString()
}

// Player is the playback port the session drives when seeking to a segment.
type Player interface {
	Seek(seconds float64)
	Play()
	Pause()
}

type Status string

const (
	StatusIdle              Status = "idle"
	StatusLanguageDetecting Status = "language_detecting"
	StatusProcessing        Status = "processing"
	StatusCompleted         Status = "completed"
	StatusError             Status = "error"
)

// Session owns one ordered segment collection. It is safe for concurrent
// use; every accessor returns copies.
type Session struct {
	mu sync.RWMutex

	segments    []subtitle.Segment
	status      Status
	language    string
	err         error
	currentEdit string
	audioPath   string
	options     transcribe.Options

	newID  IDGenerator
	player Player
	logger *logging.Logger
}

type Option func(*Session)

func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Session) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func WithPlayer(p Player) Option {
	return func(s *Session) {
		s.player = p
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.logger = logging.OrNop(l)
	}
}

func New(opts ...Option) *Session {
	s := &Session{
		segments: []subtitle.Segment{},
		status:   StatusIdle,
		options:  transcribe.DefaultOptions(),
		newID:    NewID,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Segments() []subtitle.Segment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return subtitle.Clone(s.segments)
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.segments)
}

func (s *Session) Segment(id string) (subtitle.Segment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.segments[i], true
	}
	return subtitle.Segment{}, false
}

// Replace swaps in a whole new collection, as after a transcription.
func (s *Session) Replace(segments []subtitle.Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = subtitle.Clone(segments)
	if s.segments == nil {
		s.segments = []subtitle.Segment{}
	}
	if s.currentEdit != "" && s.indexOf(s.currentEdit) < 0 {
		s.currentEdit = ""
	}
}

// Insert appends a placeholder segment starting just after the last one,
// or spanning [0, 5] on an empty collection.
func (s *Session) Insert() subtitle.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	seg := subtitle.Segment{Start: 0, End: insertDuration, Text: PlaceholderText}
	if n := len(s.segments); n > 0 {
		lastEnd := s.segments[n-1].End
		seg.Start = lastEnd + insertGap
		seg.End = lastEnd + insertDuration
	}

	seg.ID = s.newID()
	for s.indexOf(seg.ID) >= 0 {
		seg.ID = s.newID()
	}

	s.segments = append(s.segments, seg)
	s.logger.Debugw("Inserted segment", "id", seg.ID, "start", seg.Start)
	return seg
}

// Remove deletes the segment with id and reports whether it existed.
func (s *Session) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.segments = append(s.segments[:i], s.segments[i+1:]...)
	if s.currentEdit == id {
		s.currentEdit = ""
	}
	return true
}

// EditText stores text verbatim; empty text is allowed.
func (s *Session) EditText(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("edit text %s: %w", id, ErrSegmentNotFound)
	}
	s.segments[i].Text = text
	return nil
}

// EditTiming overwrites start and end. Overlap with neighbours is allowed.
func (s *Session) EditTiming(id string, start, end float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("edit timing %s: %w", id, ErrSegmentNotFound)
	}
	if err := validateTiming(id, start, end); err != nil {
		return err
	}
	s.segments[i].Start = start
	s.segments[i].End = end
	return nil
}

func validateTiming(id string, start, end float64) error {
	invalid := func(reason string) error {
		return &ValidationError{ID: id, Start: start, End: end, Reason: reason}
	}
	switch {
	case math.IsNaN(start) || math.IsNaN(end):
		return invalid("timing is not a number")
	case math.IsInf(start, 0) || math.IsInf(end, 0):
		return invalid("timing is infinite")
	case start < 0:
		return invalid("start is negative")
	case start > end:
		return invalid("start is after end")
	}
	return nil
}

// ApplyTranslation replaces the text of every segment that has a same-id
// entry in translated. Unmatched segments keep their text and translated
// entries with unknown ids are dropped. Returns the number of segments
// updated.
func (s *Session) ApplyTranslation(translated []subtitle.Segment) int {
	byID := make(map[string]string, len(translated))
	for _, t := range translated {
		if _, seen := byID[t.ID]; !seen {
			byID[t.ID] = t.Text
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	applied := 0
	for i := range s.segments {
		if text, ok := byID[s.segments[i].ID]; ok {
			s.segments[i].Text = text
			applied++
		}
	}
	if dropped := len(byID) - applied; dropped > 0 {
		s.logger.Warnw("Dropped translations without a matching segment",
			"dropped", dropped,
		)
	}
	return applied
}

// SeekTo moves the attached player to the start of segment id and plays.
func (s *Session) SeekTo(id string) error {
	s.mu.RLock()
	player := s.player
	i := s.indexOf(id)
	var start float64
	if i >= 0 {
		start = s.segments[i].Start
	}
	s.mu.RUnlock()

	if i < 0 {
		return fmt.Errorf("seek to %s: %w", id, ErrSegmentNotFound)
	}
	if player == nil {
		return ErrNoPlayer
	}
	player.Seek(start)
	player.Play()
	return nil
}

func (s *Session) SetPlayer(p Player) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player = p
}

// Reset clears segments and state and restores the default ASR options.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.segments = []subtitle.Segment{}
	s.status = StatusIdle
	s.language = ""
	s.err = nil
	s.currentEdit = ""
	s.audioPath = ""
	s.options = transcribe.DefaultOptions()
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	if status != StatusError {
		s.err = nil
	}
}

// Err is the last processing error, nil unless Status is StatusError.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusError
	s.err = err
	return err
}

func (s *Session) Language() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language
}

func (s *Session) SetLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.language = lang
}

// CurrentEdit is the id of the segment being edited, or "".
func (s *Session) CurrentEdit() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentEdit
}

func (s *Session) SetCurrentEdit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" && s.indexOf(id) < 0 {
		return fmt.Errorf("select %s: %w", id, ErrSegmentNotFound)
	}
	s.currentEdit = id
	return nil
}

func (s *Session) AudioPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audioPath
}

func (s *Session) SetAudioPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioPath = path
}

func (s *Session) Options() transcribe.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

func (s *Session) SetOptions(opts transcribe.Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts
	return nil
}

// caller holds mu
func (s *Session) indexOf(id string) int {
	for i := range s.segments {
		if s.segments[i].ID == id {
			return i
		}
	}
	return -1
}
