package pipeline

import (
	"errors"
	"fmt"
)

// The pipeline error taxonomy. Synthesis and transcription failures are
// non-fatal to a lesson: the record keeps its draft timeline and stays
// playable in simulated-clock mode. A topic failure inside a batch is caught
// at the topic level and never aborts the remaining topics.

// SynthesisError marks a TTS upstream failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("audio synthesis: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }

// TranscriptionError marks an ASR upstream failure or an unreadable/empty
// audio asset.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string { return fmt.Sprintf("transcription: %v", e.Err) }
func (e *TranscriptionError) Unwrap() error { return e.Err }

// TopicGenerationError wraps any stage failure during one topic's pipeline
// inside a batch.
type TopicGenerationError struct {
	Topic string
	Err   error
}

func (e *TopicGenerationError) Error() string {
	return fmt.Sprintf("topic %q: %v", e.Topic, e.Err)
}
func (e *TopicGenerationError) Unwrap() error { return e.Err }

func IsSynthesisError(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se)
}

func IsTranscriptionError(err error) bool {
	var te *TranscriptionError
	return errors.As(err, &te)
}
