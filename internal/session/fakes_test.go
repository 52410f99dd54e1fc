package session

import (
	"context"
	"sync"
)

type stateChange struct {
	status Status
	reason Reason
}

type announcedQuestion struct {
	index    int
	question string
}

type sinkError struct {
	code   ErrorCode
	detail string
}

type fakeSink struct {
	mu        sync.Mutex
	states    []stateChange
	questions []announcedQuestion
	speaks    []string
	evals     []int
	errs      []sinkError
	navs      []string
}

func (s *fakeSink) StateChanged(status Status, reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, stateChange{status, reason})
}

func (s *fakeSink) QuestionAnnounced(index int, question string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = append(s.questions, announcedQuestion{index, question})
}

func (s *fakeSink) Speak(text, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speaks = append(s.speaks, text)
}

func (s *fakeSink) EvaluationReceived(index int, _ SubmitResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evals = append(s.evals, index)
}

func (s *fakeSink) SessionError(code ErrorCode, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, sinkError{code, detail})
}

func (s *fakeSink) Navigate(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navs = append(s.navs, route)
}

func (s *fakeSink) snapshotStates() []stateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]stateChange, len(s.states))
	copy(out, s.states)
	return out
}

func (s *fakeSink) lastStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.states) == 0 {
		return ""
	}
	return s.states[len(s.states)-1].status
}

type evalOutcome struct {
	res SubmitResult
	err error
}

type fakeEvaluator struct {
	mu          sync.Mutex
	outcomes    []evalOutcome
	submits     []SubmitRequest
	finishErr   error
	finishCalls int
	durations   []int
}

func (e *fakeEvaluator) SubmitResponse(_ context.Context, req SubmitRequest) (SubmitResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submits = append(e.submits, req)
	if len(e.outcomes) == 0 {
		return SubmitResult{}, nil
	}
	out := e.outcomes[0]
	e.outcomes = e.outcomes[1:]
	return out.res, out.err
}

func (e *fakeEvaluator) FinishInterview(_ context.Context, _, _ string, durationMinutes int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishCalls = e.finishCalls + 1
	e.durations = append(e.durations, durationMinutes)
	return e.finishErr
}

func (e *fakeEvaluator) submitCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.submits)
}

func (e *fakeEvaluator) finished() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finishCalls
}

// fakeSynth completes windows immediately unless manual is set, in which
// case the test drives completion through the orchestrator (playback ack
// or mute).
type fakeSynth struct {
	mu        sync.Mutex
	supported bool
	manual    bool
	speakErr  error
	spoken    []string
	stops     int
}

func (s *fakeSynth) Speak(_ context.Context, text string, cb SpeakCallbacks) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	manual := s.manual
	err := s.speakErr
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if cb.OnStart != nil {
		cb.OnStart("audio://" + text)
	}
	if !manual && cb.OnEnd != nil {
		cb.OnEnd()
	}
	return nil
}

func (s *fakeSynth) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops = s.stops + 1
}

func (s *fakeSynth) Supported() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.supported
}

type fakeRecog struct {
	mu        sync.Mutex
	supported bool
	listenErr error
	cb        ListenCallbacks
	listens   int
	stops     int
}

func (r *fakeRecog) Listen(_ context.Context, cb ListenCallbacks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listens = r.listens + 1
	if r.listenErr != nil {
		return r.listenErr
	}
	r.cb = cb
	return nil
}

func (r *fakeRecog) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = r.stops + 1
}

func (r *fakeRecog) Supported() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.supported
}

func (r *fakeRecog) result(transcript string) {
	r.mu.Lock()
	cb := r.cb
	r.mu.Unlock()
	if cb.OnResult != nil {
		cb.OnResult(transcript)
	}
}

func (r *fakeRecog) fail(err error) {
	r.mu.Lock()
	cb := r.cb
	r.mu.Unlock()
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
