package speech

import (
	"context"

	"github.com/prepify/backend/internal/session"
)

// NoopSynthesizer is the unsupported-environment synthesizer: text still
// flows through the sink, vocalization windows complete immediately.
type NoopSynthesizer struct{}

func (NoopSynthesizer) Speak(_ context.Context, _ string, cb session.SpeakCallbacks) error {
	if cb.OnEnd != nil {
		cb.OnEnd()
	}
	return nil
}

func (NoopSynthesizer) Stop()           {}
func (NoopSynthesizer) Supported() bool { return false }

// NoopRecognizer is the unsupported-environment recognizer: the voice path
// is unavailable and text input is the only way to answer.
type NoopRecognizer struct{}

func (NoopRecognizer) Listen(_ context.Context, _ session.ListenCallbacks) error {
	return session.ErrRecognitionUnavailable
}

func (NoopRecognizer) Stop()           {}
func (NoopRecognizer) Supported() bool { return false }
