package transcript

import (
	"context"
	"fmt"

	"github.com/lloyd42/whisper-asr-client/internal/transcribe"
)

// Transcribe runs one transcription of audioPath with the session's ASR
// options and replaces the segment collection with the result.
//
// When no language is set, the task is transcribe and t can detect
// languages, detection runs first and its code is used for the request.
// The status moves idle -> language_detecting -> processing -> completed,
// or to error on failure, leaving the previous segments untouched.
func (s *Session) Transcribe(
	ctx context.Context,
	t transcribe.Transcriber,
	audioPath string,
) (*transcribe.Result, error) {
	s.SetAudioPath(audioPath)
	opts := s.Options()

	if detector, ok := t.(transcribe.LanguageDetector); ok &&
		opts.Language == "" && opts.Task == transcribe.TaskTranscribe {
		s.setStatus(StatusLanguageDetecting)

		detection, err := detector.DetectLanguage(ctx, audioPath, opts.Encode)
		if err != nil {
			return nil, s.fail(fmt.Errorf("detect language: %w", err))
		}
		s.logger.Infow("Detected language",
			"language", detection.DetectedLanguage,
			"code", detection.LanguageCode,
			"confidence", detection.Confidence,
		)
		opts.Language = detection.LanguageCode
		s.SetLanguage(detection.LanguageCode)
	}

	s.setStatus(StatusProcessing)

	result, err := t.Transcribe(ctx, audioPath, opts)
	if err != nil {
		return nil, s.fail(err)
	}

	s.Replace(result.Segments)
	if result.Language != "" {
		s.SetLanguage(result.Language)
	}
	s.setStatus(StatusCompleted)

	s.logger.Infow("Transcription complete",
		"segments", len(result.Segments),
		"language", s.Language(),
	)
	return result, nil
}
