package session

import (
	"errors"
	"testing"
)

func TestReduceStartRequiresQuestions(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusInactive, QuestionCount: 0}
	next, err := Reduce(s, EventStart{})
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions, got %v", err)
	}
	if next.Status != StatusInactive {
		t.Fatalf("status changed on rejected start: %s", next.Status)
	}

	s.QuestionCount = 2
	next, err = Reduce(s, EventStart{})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if next.Status != StatusConnecting {
		t.Fatalf("expected CONNECTING, got %s", next.Status)
	}
}

func TestReduceHappyPathTransitions(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusInactive, QuestionCount: 2}
	steps := []struct {
		ev   Event
		want Status
	}{
		{EventStart{}, StatusConnecting},
		{EventConnected{}, StatusActive},
		{EventAnswerSubmitted{}, StatusProcessing},
		{EventEvaluationStored{IsLast: false}, StatusSpeaking},
		{EventAdvance{}, StatusActive},
		{EventAnswerSubmitted{}, StatusProcessing},
		{EventEvaluationStored{IsLast: true}, StatusProcessing},
		{EventFinalized{}, StatusFinished},
	}
	for i, step := range steps {
		var err error
		s, err = Reduce(s, step.ev)
		if err != nil {
			t.Fatalf("step %d (%T): %v", i, step.ev, err)
		}
		if s.Status != step.want {
			t.Fatalf("step %d (%T): status %s, want %s", i, step.ev, s.Status, step.want)
		}
	}
	if s.ResponseCount != 2 || s.QuestionIndex != 1 {
		t.Fatalf("unexpected counters: responses=%d index=%d", s.ResponseCount, s.QuestionIndex)
	}
}

func TestReduceVoicePath(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusActive, QuestionCount: 3}
	s, err := Reduce(s, EventListenStarted{})
	if err != nil || s.Status != StatusListening {
		t.Fatalf("listen: %v status=%s", err, s.Status)
	}
	s, err = Reduce(s, EventTranscript{})
	if err != nil || s.Status != StatusProcessing {
		t.Fatalf("transcript: %v status=%s", err, s.Status)
	}

	// Capture failure reverts to ACTIVE with no response recorded.
	s2 := State{Status: StatusListening, QuestionCount: 3}
	s2, err = Reduce(s2, EventCaptureFailed{Detail: "mic error"})
	if err != nil || s2.Status != StatusActive {
		t.Fatalf("capture failure: %v status=%s", err, s2.Status)
	}
	if s2.ResponseCount != 0 {
		t.Fatalf("capture failure recorded a response")
	}
	if s2.Err == "" {
		t.Fatalf("capture failure left no error detail")
	}
}

func TestReduceFinishedIsTerminal(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusFinished, QuestionCount: 1, ResponseCount: 1}
	events := []Event{
		EventStart{}, EventAnswerSubmitted{}, EventListenStarted{},
		EventSpeechStarted{}, EventStopRequested{}, EventAdvance{},
	}
	for _, ev := range events {
		next, err := Reduce(s, ev)
		if !errors.Is(err, ErrSessionFinished) {
			t.Fatalf("%T: expected ErrSessionFinished, got %v", ev, err)
		}
		if next.Status != StatusFinished {
			t.Fatalf("%T: escaped FINISHED to %s", ev, next.Status)
		}
	}
}

func TestReduceStopRouting(t *testing.T) {
	t.Parallel()

	// Zero responses: straight to FINISHED, no finalization pass.
	s := State{Status: StatusActive, QuestionCount: 3}
	s, err := Reduce(s, EventStopRequested{})
	if err != nil || s.Status != StatusFinished {
		t.Fatalf("stop with no responses: %v status=%s", err, s.Status)
	}

	// With responses: PROCESSING first so the finalizer runs.
	s = State{Status: StatusActive, QuestionCount: 3, QuestionIndex: 1, ResponseCount: 1}
	s, err = Reduce(s, EventStopRequested{})
	if err != nil || s.Status != StatusProcessing {
		t.Fatalf("stop with responses: %v status=%s", err, s.Status)
	}
	s, err = Reduce(s, EventFinalized{})
	if err != nil || s.Status != StatusFinished {
		t.Fatalf("finalize after stop: %v status=%s", err, s.Status)
	}
}

func TestReduceFinalizeFailureRevertsToActive(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusProcessing, QuestionCount: 2, QuestionIndex: 1, ResponseCount: 2}
	s, err := Reduce(s, EventFinalizeFailed{Detail: "summary endpoint down"})
	if err != nil {
		t.Fatalf("finalize failure: %v", err)
	}
	if s.Status != StatusActive {
		t.Fatalf("expected ACTIVE after finalize failure, got %s", s.Status)
	}
	if s.Err == "" {
		t.Fatalf("finalize failure left no error detail")
	}
}

func TestReduceRejectsDoubleEvaluation(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusProcessing, QuestionCount: 2, QuestionIndex: 0, ResponseCount: 1}
	_, err := Reduce(s, EventEvaluationStored{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReduceRejectsAdvancePastLastQuestion(t *testing.T) {
	t.Parallel()

	s := State{Status: StatusSpeaking, QuestionCount: 2, QuestionIndex: 1, ResponseCount: 2}
	_, err := Reduce(s, EventAdvance{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReduceInvalidTransitions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status Status
		ev     Event
	}{
		{StatusInactive, EventAnswerSubmitted{}},
		{StatusConnecting, EventAnswerSubmitted{}},
		{StatusProcessing, EventAnswerSubmitted{}}, // PROCESSING is the submission mutex
		{StatusListening, EventAnswerSubmitted{}},
		{StatusActive, EventTranscript{}}, // transcripts only arrive while LISTENING
		{StatusActive, EventFinalized{}},
		{StatusSpeaking, EventListenStarted{}},
	}
	for _, tc := range cases {
		s := State{Status: tc.status, QuestionCount: 3}
		next, err := Reduce(s, tc.ev)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%T in %s: expected ErrInvalidTransition, got %v", tc.ev, tc.status, err)
		}
		if next.Status != tc.status {
			t.Fatalf("%T in %s: status changed to %s", tc.ev, tc.status, next.Status)
		}
	}
}
