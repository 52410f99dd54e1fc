package session

import "context"

// SpeakCallbacks receive vocalization lifecycle from a Synthesizer.
type SpeakCallbacks struct {
	// OnStart fires when audio is ready and playback begins.
	OnStart func(audioURL string)
	// OnEnd fires when vocalization completes.
	OnEnd func()
	// OnError fires on synthesis failure. Progression must not block on it.
	OnError func(err error)
}

// Synthesizer vocalizes interviewer text. Implementations must invoke at
// most one of OnEnd/OnError per Speak call.
type Synthesizer interface {
	Speak(ctx context.Context, text string, cb SpeakCallbacks) error
	// Stop cancels any in-flight vocalization. Idempotent.
	Stop()
	// Supported reports the capability, probed once at construction.
	Supported() bool
}

// ListenCallbacks receive capture lifecycle from a Recognizer.
type ListenCallbacks struct {
	// OnResult delivers the single final transcript of the utterance.
	OnResult func(transcript string)
	// OnError signals that capture failed and no transcript will arrive.
	OnError func(err error)
}

// Recognizer performs single-shot voice capture: one utterance, one
// transcript, auto-stop.
type Recognizer interface {
	Listen(ctx context.Context, cb ListenCallbacks) error
	// Stop cancels any in-flight capture. Idempotent.
	Stop()
	// Supported reports the capability, probed once at construction.
	Supported() bool
}

// SubmitRequest is one question/answer pair sent for evaluation.
type SubmitRequest struct {
	InterviewID   string
	UserID        string
	QuestionIndex int
	Question      string
	Answer        string
}

// SubmitResult is a successful evaluation. The scoring service is
// authoritative on IsLastQuestion.
type SubmitResult struct {
	Score               float64
	Feedback            string
	Strengths           []string
	Improvements        []string
	InterviewerResponse string
	IsLastQuestion      bool
}

// Evaluator scores answers and finalizes sessions against the scoring
// endpoints. Both calls are all-or-nothing: an error means nothing was
// recorded remotely that the caller should act on.
type Evaluator interface {
	SubmitResponse(ctx context.Context, req SubmitRequest) (SubmitResult, error)
	FinishInterview(ctx context.Context, interviewID, userID string, durationMinutes int) error
}

// EventSink delivers session output to whatever is rendering it (the
// WebSocket client in production, a fake in tests). Implementations must
// not block.
type EventSink interface {
	StateChanged(status Status, reason Reason)
	QuestionAnnounced(index int, question string)
	Speak(text string, audioURL string)
	EvaluationReceived(index int, result SubmitResult)
	SessionError(code ErrorCode, detail string)
	Navigate(route string)
}
