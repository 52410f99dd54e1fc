package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Orchestrator drives one interview session: it owns the session value and
// its state, sequences questions through the speech ports, submits answers
// to the Evaluator, and finalizes on the last question or an explicit stop.
//
// At most one evaluation and one finalization call is ever in flight; the
// PROCESSING status is the mutual exclusion for answer submission. Entry
// points may be called from the transport read loop and from speech
// callbacks; a mutex serializes them.
type Orchestrator struct {
	synth  Synthesizer
	recog  Recognizer
	scorer Evaluator
	events EventSink
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	sess      *Session
	state     State
	muted     bool
	speakSeq  int
	speakDone func()
}

// NewOrchestrator creates an orchestrator over a session. The session must
// not be shared with another orchestrator.
func NewOrchestrator(sess *Session, synth Synthesizer, recog Recognizer, scorer Evaluator, events EventSink, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		synth:  synth,
		recog:  recog,
		scorer: scorer,
		events: events,
		logger: logger,
		now:    time.Now,
		sess:   sess,
		state: State{
			Status:        StatusInactive,
			QuestionCount: len(sess.Questions),
		},
	}
}

// Snapshot returns a copy of the current machine state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Responses returns a copy of the recorded responses.
func (o *Orchestrator) Responses() []Response {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Response, len(o.sess.Responses))
	copy(out, o.sess.Responses)
	return out
}

// Start begins the session: INACTIVE -> CONNECTING, announce the first
// question, then ACTIVE. Fails with ErrNoQuestions on an empty question
// list, leaving the session INACTIVE.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if err := o.applyLocked(EventStart{}); err != nil {
		o.mu.Unlock()
		return err
	}
	o.sess.StartedAt = o.now()
	first := o.sess.Questions[0]
	o.mu.Unlock()

	o.events.QuestionAnnounced(0, first)
	o.speakWindow(ctx, openingFor(first), func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.applyLocked(EventConnected{}); err != nil {
			o.logger.Debug("connect transition skipped", zap.Error(err))
		}
	})
	return nil
}

// SubmitAnswer submits a typed answer for the current question. Empty or
// whitespace-only answers are rejected locally: no network call, no state
// change, no user-visible error.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, answer string) error {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return ErrEmptyAnswer
	}

	o.mu.Lock()
	if err := o.applyLocked(EventAnswerSubmitted{}); err != nil {
		o.mu.Unlock()
		return err
	}
	req := SubmitRequest{
		InterviewID:   o.sess.InterviewID,
		UserID:        o.sess.UserID,
		QuestionIndex: o.state.QuestionIndex,
		Question:      o.sess.Questions[o.state.QuestionIndex],
		Answer:        trimmed,
	}
	o.mu.Unlock()

	o.evaluate(ctx, req)
	return nil
}

// BeginListening opens a single-shot voice capture for the current
// question. In environments without a recognizer the voice path is simply
// unavailable; the machine never waits for input that cannot arrive.
func (o *Orchestrator) BeginListening(ctx context.Context) error {
	if o.recog == nil || !o.recog.Supported() {
		return ErrRecognitionUnavailable
	}

	o.mu.Lock()
	if err := o.applyLocked(EventListenStarted{}); err != nil {
		o.mu.Unlock()
		return err
	}
	req := SubmitRequest{
		InterviewID:   o.sess.InterviewID,
		UserID:        o.sess.UserID,
		QuestionIndex: o.state.QuestionIndex,
		Question:      o.sess.Questions[o.state.QuestionIndex],
	}
	o.mu.Unlock()

	err := o.recog.Listen(ctx, ListenCallbacks{
		OnResult: func(transcript string) {
			o.acceptTranscript(ctx, req, transcript)
		},
		OnError: func(err error) {
			o.mu.Lock()
			if aErr := o.applyLocked(EventCaptureFailed{Detail: "voice capture failed"}); aErr != nil {
				o.logger.Debug("capture failure ignored", zap.Error(aErr))
			}
			o.mu.Unlock()
			o.events.SessionError(ErrorCodeCapture, err.Error())
		},
	})
	if err != nil {
		o.mu.Lock()
		if aErr := o.applyLocked(EventCaptureFailed{Detail: "voice capture failed"}); aErr != nil {
			o.logger.Debug("capture failure ignored", zap.Error(aErr))
		}
		o.mu.Unlock()
		o.events.SessionError(ErrorCodeCapture, err.Error())
		return err
	}
	return nil
}

// RepeatQuestion vocalizes the current question again as an interim
// message: ACTIVE -> SPEAKING -> ACTIVE.
func (o *Orchestrator) RepeatQuestion(ctx context.Context) error {
	o.mu.Lock()
	if err := o.applyLocked(EventSpeechStarted{}); err != nil {
		o.mu.Unlock()
		return err
	}
	q := o.sess.Questions[o.state.QuestionIndex]
	o.mu.Unlock()

	o.speakWindow(ctx, q, func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.applyLocked(EventSpeechEnded{}); err != nil {
			o.logger.Debug("speech end transition skipped", zap.Error(err))
		}
	})
	return nil
}

// SetMuted toggles audio output. Muting never blocks progression: a mute
// during SPEAKING cancels the vocalization and completes its window
// immediately, so the machine returns to ACTIVE without waiting for any
// audio callback.
func (o *Orchestrator) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	var done func()
	if muted && o.speakDone != nil {
		done = o.speakDone
		o.speakDone = nil
	}
	o.mu.Unlock()

	if done != nil {
		o.synth.Stop()
		done()
	}
}

// PlaybackDone acknowledges that the client finished playing the current
// vocalization, completing the SPEAKING window.
func (o *Orchestrator) PlaybackDone() {
	o.mu.Lock()
	done := o.speakDone
	o.speakDone = nil
	o.mu.Unlock()

	if done != nil {
		done()
	}
}

// Stop ends the session from any state. Both speech subsystems are stopped
// first (idempotent no-ops when idle). With at least one recorded response
// the summary finalizer runs before the session settles into FINISHED; with
// none, the user is routed straight back to the interview list.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.synth.Stop()
	if o.recog != nil {
		o.recog.Stop()
	}

	o.mu.Lock()
	if o.state.Status == StatusFinished {
		o.mu.Unlock()
		return nil
	}
	o.speakDone = nil // a cancelled vocalization must not complete after stop
	hasResponses := o.state.ResponseCount > 0
	if err := o.applyLocked(EventStopRequested{}); err != nil {
		o.mu.Unlock()
		return err
	}
	o.mu.Unlock()

	if !hasResponses {
		o.events.Navigate("/interviews")
		return nil
	}
	o.finalize(ctx, "")
	return nil
}

// evaluate runs the all-or-nothing evaluation of one answer. The caller
// must have transitioned the machine to PROCESSING.
func (o *Orchestrator) evaluate(ctx context.Context, req SubmitRequest) {
	res, err := o.scorer.SubmitResponse(ctx, req)
	if err != nil {
		o.logger.Warn("evaluation failed",
			zap.String("interview_id", req.InterviewID),
			zap.Int("question_index", req.QuestionIndex),
			zap.Error(err))
		o.mu.Lock()
		if aErr := o.applyLocked(EventEvaluationFailed{Detail: "evaluation failed, please resubmit your answer"}); aErr != nil {
			o.logger.Debug("evaluation failure transition skipped", zap.Error(aErr))
		}
		o.mu.Unlock()
		o.events.SessionError(ErrorCodeEvaluation, err.Error())
		return
	}

	o.mu.Lock()
	resp := Response{
		QuestionIndex: req.QuestionIndex,
		Question:      req.Question,
		Answer:        req.Answer,
		Score:         res.Score,
		Feedback:      res.Feedback,
		Strengths:     res.Strengths,
		Improvements:  res.Improvements,
		Timestamp:     o.now(),
	}
	if err := o.sess.Append(resp); err != nil {
		if aErr := o.applyLocked(EventEvaluationFailed{Detail: err.Error()}); aErr != nil {
			o.logger.Debug("append failure transition skipped", zap.Error(aErr))
		}
		o.mu.Unlock()
		o.events.SessionError(ErrorCodeEvaluation, err.Error())
		return
	}
	isLast := res.IsLastQuestion
	if !isLast && o.state.QuestionIndex+1 >= o.state.QuestionCount {
		// The evaluator claims more questions remain past the final index.
		// The fixed question list is the hard bound, so finish instead of
		// announcing a question that does not exist.
		o.logger.Warn("evaluator reported a question past the end of the list",
			zap.String("interview_id", req.InterviewID),
			zap.Int("question_index", req.QuestionIndex),
			zap.Int("question_count", o.state.QuestionCount))
		isLast = true
		res.IsLastQuestion = true
	}
	if err := o.applyLocked(EventEvaluationStored{IsLast: isLast}); err != nil {
		o.mu.Unlock()
		o.logger.Error("evaluation stored but transition rejected", zap.Error(err))
		return
	}
	o.mu.Unlock()
	o.events.EvaluationReceived(req.QuestionIndex, res)

	if isLast {
		o.finalize(ctx, res.InterviewerResponse)
		return
	}

	o.mu.Lock()
	nextIdx := o.state.QuestionIndex + 1
	next := o.sess.Questions[nextIdx]
	o.mu.Unlock()

	o.events.QuestionAnnounced(nextIdx, next)
	o.speakWindow(ctx, joinSpeech(res.InterviewerResponse, next), func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if err := o.applyLocked(EventAdvance{}); err != nil {
			o.logger.Debug("advance transition skipped", zap.Error(err))
		}
	})
}

// finalize posts the session summary. On failure the machine reverts to
// ACTIVE with the error surfaced, so the user can retry stopping rather
// than being stranded mid-finalization.
func (o *Orchestrator) finalize(ctx context.Context, closing string) {
	o.mu.Lock()
	interviewID := o.sess.InterviewID
	userID := o.sess.UserID
	duration := o.sess.DurationMinutes(o.now())
	o.mu.Unlock()

	if err := o.scorer.FinishInterview(ctx, interviewID, userID, duration); err != nil {
		o.logger.Warn("finalize failed", zap.String("interview_id", interviewID), zap.Error(err))
		o.mu.Lock()
		if aErr := o.applyLocked(EventFinalizeFailed{Detail: "could not finish the interview, please try again"}); aErr != nil {
			o.logger.Debug("finalize failure transition skipped", zap.Error(aErr))
		}
		o.mu.Unlock()
		o.events.SessionError(ErrorCodeFinalize, err.Error())
		return
	}

	o.mu.Lock()
	if err := o.applyLocked(EventFinalized{}); err != nil {
		o.mu.Unlock()
		o.logger.Error("finalized remotely but transition rejected", zap.Error(err))
		return
	}
	o.mu.Unlock()

	if closing == "" {
		closing = "That concludes your interview. Thank you for your time, and good luck!"
	}
	o.speakWindow(ctx, closing, func() {
		o.events.Navigate("/interviews/" + interviewID + "/feedback")
	})
}

// acceptTranscript converts a capture result into an evaluation. Blank
// transcripts are treated as a failed capture: back to ACTIVE, no response.
func (o *Orchestrator) acceptTranscript(ctx context.Context, req SubmitRequest, transcript string) {
	trimmed := strings.TrimSpace(transcript)

	o.mu.Lock()
	if trimmed == "" {
		if err := o.applyLocked(EventCaptureFailed{Detail: "no speech detected"}); err != nil {
			o.logger.Debug("blank transcript ignored", zap.Error(err))
		}
		o.mu.Unlock()
		return
	}
	if err := o.applyLocked(EventTranscript{}); err != nil {
		o.mu.Unlock()
		o.logger.Debug("late transcript ignored", zap.Error(err))
		return
	}
	o.mu.Unlock()

	req.Answer = trimmed
	o.evaluate(ctx, req)
}

// speakWindow runs one vocalization. When muted or unsupported the text is
// still delivered through the sink and the window completes immediately, so
// the SPEAKING state is never observably stuck. Completion fires exactly
// once per window.
func (o *Orchestrator) speakWindow(ctx context.Context, text string, done func()) {
	o.mu.Lock()
	o.speakSeq++
	seq := o.speakSeq
	o.speakDone = done
	muted := o.muted
	supported := o.synth != nil && o.synth.Supported()
	o.mu.Unlock()

	if muted || !supported {
		o.events.Speak(text, "")
		o.completeSpeak(seq)
		return
	}

	err := o.synth.Speak(ctx, text, SpeakCallbacks{
		OnStart: func(audioURL string) {
			o.events.Speak(text, audioURL)
		},
		OnEnd: func() {
			o.completeSpeak(seq)
		},
		OnError: func(err error) {
			// Synthesis failure degrades to text only; progression continues.
			o.events.Speak(text, "")
			o.events.SessionError(ErrorCodeSynthesis, err.Error())
			o.completeSpeak(seq)
		},
	})
	if err != nil {
		o.events.Speak(text, "")
		o.events.SessionError(ErrorCodeSynthesis, err.Error())
		o.completeSpeak(seq)
	}
}

func (o *Orchestrator) completeSpeak(seq int) {
	o.mu.Lock()
	if seq != o.speakSeq || o.speakDone == nil {
		o.mu.Unlock()
		return
	}
	done := o.speakDone
	o.speakDone = nil
	o.mu.Unlock()
	done()
}

// applyLocked reduces one event and publishes the status change. The
// caller must hold o.mu; sinks are non-blocking by contract.
func (o *Orchestrator) applyLocked(ev Event) error {
	next, err := Reduce(o.state, ev)
	if err != nil {
		return err
	}
	changed := next.Status != o.state.Status
	o.state = next
	if changed {
		o.events.StateChanged(next.Status, ev.Reason())
	}
	return nil
}

func openingFor(first string) string {
	return "Hello, and welcome to your mock interview. Let's begin with the first question. " + first
}

func joinSpeech(reply, next string) string {
	if strings.TrimSpace(reply) == "" {
		return next
	}
	return strings.TrimSpace(reply) + " " + next
}
