package session

import (
	"errors"
	"fmt"
)

// Status models the interview session lifecycle.
type Status string

const (
	StatusInactive   Status = "INACTIVE"
	StatusConnecting Status = "CONNECTING"
	StatusActive     Status = "ACTIVE"
	StatusListening  Status = "LISTENING"
	StatusProcessing Status = "PROCESSING"
	StatusSpeaking   Status = "SPEAKING"
	StatusFinished   Status = "FINISHED"
)

// Reason provides a structured reason for state transitions.
type Reason string

const (
	ReasonStartRequested    Reason = "start_requested"
	ReasonConnected         Reason = "connected"
	ReasonSpeechStarted     Reason = "speech_started"
	ReasonSpeechEnded       Reason = "speech_ended"
	ReasonListenStarted     Reason = "listen_started"
	ReasonTranscriptReady   Reason = "transcript_ready"
	ReasonCaptureFailed     Reason = "capture_failed"
	ReasonAnswerSubmitted   Reason = "answer_submitted"
	ReasonEvaluationStored  Reason = "evaluation_stored"
	ReasonEvaluationFailed  Reason = "evaluation_failed"
	ReasonQuestionAdvanced  Reason = "question_advanced"
	ReasonFinalizing        Reason = "finalizing"
	ReasonFinalized         Reason = "finalized"
	ReasonFinalizeFailed    Reason = "finalize_failed"
	ReasonStopped           Reason = "stopped"
)

// ErrorCode identifies user-visible session errors.
type ErrorCode string

const (
	ErrorCodeSetup      ErrorCode = "setup"
	ErrorCodeCapture    ErrorCode = "capture"
	ErrorCodeSynthesis  ErrorCode = "synthesis"
	ErrorCodeEvaluation ErrorCode = "evaluation"
	ErrorCodeFinalize   ErrorCode = "finalize"
)

var (
	// ErrNoQuestions is returned when a session is started with an empty
	// question list. The session stays INACTIVE.
	ErrNoQuestions = errors.New("interview has no questions")
	// ErrEmptyAnswer is returned for empty or whitespace-only submissions.
	// No network call is made and the state does not change.
	ErrEmptyAnswer = errors.New("answer is empty")
	// ErrSessionFinished is returned for any action after FINISHED.
	ErrSessionFinished = errors.New("session is finished")
	// ErrInvalidTransition is returned when an event is not valid in the
	// current status.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrRecognitionUnavailable is returned when voice capture is requested
	// in an environment without a speech recognizer.
	ErrRecognitionUnavailable = errors.New("speech recognition unavailable")
)

// State is the machine-visible part of a session: status plus the counters
// the invariants are written against.
type State struct {
	Status        Status
	QuestionIndex int
	QuestionCount int
	ResponseCount int
	Err           string // last user-visible error, cleared on the next successful action
}

// Event drives the state machine. Exactly one concrete event type applies
// per transition; Reduce rejects everything else.
type Event interface {
	isEvent()
	Reason() Reason
}

// EventStart begins a session (INACTIVE -> CONNECTING).
type EventStart struct{}

// EventConnected marks the first question as announced (CONNECTING -> ACTIVE).
type EventConnected struct{}

// EventSpeechStarted marks an interim vocalization (ACTIVE -> SPEAKING).
type EventSpeechStarted struct{}

// EventSpeechEnded ends an interim vocalization (SPEAKING -> ACTIVE).
type EventSpeechEnded struct{}

// EventListenStarted begins voice capture (ACTIVE -> LISTENING).
type EventListenStarted struct{}

// EventTranscript delivers a captured transcript (LISTENING -> PROCESSING).
type EventTranscript struct{}

// EventCaptureFailed abandons voice capture with no response (LISTENING -> ACTIVE).
type EventCaptureFailed struct{ Detail string }

// EventAnswerSubmitted submits a typed answer (ACTIVE -> PROCESSING).
type EventAnswerSubmitted struct{}

// EventEvaluationStored records a successful evaluation. The response count
// increments; for a non-final question the machine enters SPEAKING (the
// interviewer's reply and next question are vocalized), for the final
// question it stays PROCESSING while finalization runs.
type EventEvaluationStored struct{ IsLast bool }

// EventEvaluationFailed reverts a failed evaluation (PROCESSING -> ACTIVE).
type EventEvaluationFailed struct{ Detail string }

// EventAdvance announces the next question (SPEAKING -> ACTIVE, index+1).
type EventAdvance struct{}

// EventStopRequested stops the session. With no recorded responses the
// machine goes straight to FINISHED; otherwise it enters PROCESSING so
// finalization can run.
type EventStopRequested struct{}

// EventFinalized completes finalization (PROCESSING -> FINISHED).
type EventFinalized struct{}

// EventFinalizeFailed reverts a failed finalization (PROCESSING -> ACTIVE)
// so the user can retry stopping instead of being stranded.
type EventFinalizeFailed struct{ Detail string }

func (EventStart) isEvent()             {}
func (EventConnected) isEvent()         {}
func (EventSpeechStarted) isEvent()     {}
func (EventSpeechEnded) isEvent()       {}
func (EventListenStarted) isEvent()     {}
func (EventTranscript) isEvent()        {}
func (EventCaptureFailed) isEvent()     {}
func (EventAnswerSubmitted) isEvent()   {}
func (EventEvaluationStored) isEvent()  {}
func (EventEvaluationFailed) isEvent()  {}
func (EventAdvance) isEvent()           {}
func (EventStopRequested) isEvent()     {}
func (EventFinalized) isEvent()         {}
func (EventFinalizeFailed) isEvent()    {}

func (EventStart) Reason() Reason            { return ReasonStartRequested }
func (EventConnected) Reason() Reason        { return ReasonConnected }
func (EventSpeechStarted) Reason() Reason    { return ReasonSpeechStarted }
func (EventSpeechEnded) Reason() Reason      { return ReasonSpeechEnded }
func (EventListenStarted) Reason() Reason    { return ReasonListenStarted }
func (EventTranscript) Reason() Reason       { return ReasonTranscriptReady }
func (EventCaptureFailed) Reason() Reason    { return ReasonCaptureFailed }
func (EventAnswerSubmitted) Reason() Reason  { return ReasonAnswerSubmitted }
func (EventEvaluationStored) Reason() Reason { return ReasonEvaluationStored }
func (EventEvaluationFailed) Reason() Reason { return ReasonEvaluationFailed }
func (EventAdvance) Reason() Reason          { return ReasonQuestionAdvanced }
func (EventStopRequested) Reason() Reason    { return ReasonStopped }
func (EventFinalized) Reason() Reason        { return ReasonFinalized }
func (EventFinalizeFailed) Reason() Reason   { return ReasonFinalizeFailed }

// Reduce applies one event to a state and returns the next state. It is a
// pure function: no I/O, no clocks, no side effects, so the whole transition
// table can be tested headlessly.
func Reduce(s State, ev Event) (State, error) {
	if s.Status == StatusFinished {
		return s, ErrSessionFinished
	}

	switch e := ev.(type) {
	case EventStart:
		if s.Status != StatusInactive {
			return s, invalid(s.Status, ev)
		}
		if s.QuestionCount == 0 {
			return s, ErrNoQuestions
		}
		s.Status = StatusConnecting
		s.Err = ""

	case EventConnected:
		if s.Status != StatusConnecting {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusActive

	case EventSpeechStarted:
		if s.Status != StatusActive {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusSpeaking

	case EventSpeechEnded:
		if s.Status != StatusSpeaking {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusActive

	case EventListenStarted:
		if s.Status != StatusActive {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusListening

	case EventTranscript:
		if s.Status != StatusListening {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusProcessing

	case EventCaptureFailed:
		if s.Status != StatusListening {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusActive
		s.Err = e.Detail

	case EventAnswerSubmitted:
		if s.Status != StatusActive {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusProcessing
		s.Err = ""

	case EventEvaluationStored:
		if s.Status != StatusProcessing {
			return s, invalid(s.Status, ev)
		}
		if s.ResponseCount >= s.QuestionIndex+1 {
			return s, fmt.Errorf("%w: response already recorded for question %d", ErrInvalidTransition, s.QuestionIndex)
		}
		s.ResponseCount++
		s.Err = ""
		if !e.IsLast {
			s.Status = StatusSpeaking
		}

	case EventEvaluationFailed:
		if s.Status != StatusProcessing {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusActive
		s.Err = e.Detail

	case EventAdvance:
		if s.Status != StatusSpeaking {
			return s, invalid(s.Status, ev)
		}
		if s.QuestionIndex+1 >= s.QuestionCount {
			return s, fmt.Errorf("%w: no question after index %d", ErrInvalidTransition, s.QuestionIndex)
		}
		s.QuestionIndex++
		s.Status = StatusActive

	case EventStopRequested:
		if s.ResponseCount == 0 {
			s.Status = StatusFinished
		} else {
			s.Status = StatusProcessing
		}

	case EventFinalized:
		if s.Status != StatusProcessing {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusFinished

	case EventFinalizeFailed:
		if s.Status != StatusProcessing {
			return s, invalid(s.Status, ev)
		}
		s.Status = StatusActive
		s.Err = e.Detail

	default:
		return s, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
	}

	return s, nil
}

func invalid(status Status, ev Event) error {
	return fmt.Errorf("%w: %T in %s", ErrInvalidTransition, ev, status)
}
