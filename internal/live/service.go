// Package live wires WebSocket connections to interview session
// orchestrators: inbound client commands drive the session, outbound events
// fan out through the realtime hub.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prepify/backend/config"
	"github.com/prepify/backend/internal/history"
	"github.com/prepify/backend/internal/interviews"
	"github.com/prepify/backend/internal/realtime"
	"github.com/prepify/backend/internal/session"
	"github.com/prepify/backend/internal/speech"
)

// activeSession is one running orchestrator with its capture stream.
type activeSession struct {
	orc    *session.Orchestrator
	recog  *speech.StreamRecognizer // nil in text-only mode
	cancel context.CancelFunc
	ctx    context.Context
	userID uuid.UUID
}

// Service owns the running sessions and implements realtime.CommandHandler.
type Service struct {
	cfg           *config.Config
	hub           *realtime.Hub
	interviewRepo *interviews.Repository
	historyRepo   *history.Repository
	scorer        session.Evaluator
	logger        *zap.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*activeSession
}

// NewService creates the live session service.
func NewService(
	cfg *config.Config,
	hub *realtime.Hub,
	interviewRepo *interviews.Repository,
	historyRepo *history.Repository,
	scorer session.Evaluator,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:           cfg,
		hub:           hub,
		interviewRepo: interviewRepo,
		historyRepo:   historyRepo,
		scorer:        scorer,
		logger:        logger,
		sessions:      make(map[uuid.UUID]*activeSession),
	}
}

// HandleCommand dispatches one inbound client message.
func (s *Service) HandleCommand(c *realtime.Client, event string, data json.RawMessage) {
	switch event {
	case "start":
		s.start(c)
	case "submit_answer":
		var payload struct {
			Answer string `json:"answer"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			s.sendError(c, "invalid submit_answer payload")
			return
		}
		s.withSession(c, func(as *activeSession) {
			if err := as.orc.SubmitAnswer(as.ctx, payload.Answer); err != nil {
				if !errors.Is(err, session.ErrEmptyAnswer) {
					s.sendError(c, err.Error())
				}
			}
		})
	case "begin_listening":
		s.withSession(c, func(as *activeSession) {
			if err := as.orc.BeginListening(as.ctx); err != nil {
				s.sendError(c, err.Error())
			}
		})
	case "end_audio":
		s.withSession(c, func(as *activeSession) {
			if as.recog != nil {
				as.recog.EndAudio()
			}
		})
	case "mute":
		var payload struct {
			Muted bool `json:"muted"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			s.sendError(c, "invalid mute payload")
			return
		}
		s.withSession(c, func(as *activeSession) {
			as.orc.SetMuted(payload.Muted)
		})
	case "playback_done":
		s.withSession(c, func(as *activeSession) {
			as.orc.PlaybackDone()
		})
	case "repeat_question":
		s.withSession(c, func(as *activeSession) {
			if err := as.orc.RepeatQuestion(as.ctx); err != nil {
				s.sendError(c, err.Error())
			}
		})
	case "stop":
		s.stop(c)
	default:
		s.logger.Debug("unknown session command", zap.String("event", event))
	}
}

// HandleBinary feeds an audio chunk into the active capture.
func (s *Service) HandleBinary(c *realtime.Client, data []byte) {
	s.withSession(c, func(as *activeSession) {
		if as.recog == nil {
			return
		}
		if err := as.recog.SendAudio(data); err != nil {
			s.logger.Debug("audio chunk dropped", zap.String("interview_id", c.InterviewID.String()), zap.Error(err))
		}
	})
}

// ClientClosed tears the session down when its last connection drops. A
// session that never finalized is logged as abandoned.
func (s *Service) ClientClosed(c *realtime.Client) {
	if s.hub.ConnectionCount(c.InterviewID) > 1 {
		return // another tab or observer still attached
	}

	s.mu.Lock()
	as, ok := s.sessions[c.InterviewID]
	if ok {
		delete(s.sessions, c.InterviewID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	finished := as.orc.Snapshot().Status == session.StatusFinished
	if err := as.orc.Stop(context.Background()); err != nil {
		s.logger.Debug("stop on disconnect failed", zap.String("interview_id", c.InterviewID.String()), zap.Error(err))
	}
	as.cancel()

	if !finished {
		if err := s.historyRepo.LogFinish(context.Background(), c.InterviewID, as.userID, history.OutcomeAbandoned); err != nil {
			s.logger.Warn("abandoned session log failed", zap.String("interview_id", c.InterviewID.String()), zap.Error(err))
		}
	}
}

func (s *Service) start(c *realtime.Client) {
	s.mu.Lock()
	if _, running := s.sessions[c.InterviewID]; running {
		s.mu.Unlock()
		s.sendError(c, "session already running for this interview")
		return
	}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	itv, err := s.interviewRepo.GetByID(ctx, c.InterviewID)
	if err != nil {
		cancel()
		s.sendError(c, "interview not found")
		return
	}
	if itv.UserID != c.UserID {
		cancel()
		s.sendError(c, "not your interview")
		return
	}
	if itv.Finalized {
		cancel()
		s.sendError(c, "interview already finalized")
		return
	}

	sess := session.NewSession(itv.ID.String(), itv.UserID.String(), itv.Questions)
	synth, recog := s.buildSpeech()
	var recogPort session.Recognizer = speech.NoopRecognizer{}
	if recog != nil {
		recogPort = recog
	}
	sink := newHubSink(s.hub, itv.ID)
	orc := session.NewOrchestrator(sess, synth, recogPort, s.scorer, sink, s.logger)

	as := &activeSession{orc: orc, recog: recog, cancel: cancel, ctx: ctx, userID: itv.UserID}
	// Re-check at insert: a second start command from another tab may have
	// won the slot while the orchestrator was being built.
	if !s.register(itv.ID, as) {
		cancel()
		s.sendError(c, "session already running for this interview")
		return
	}

	if err := s.historyRepo.LogStart(ctx, itv.ID, itv.UserID); err != nil {
		s.logger.Warn("session log insert failed", zap.String("interview_id", itv.ID.String()), zap.Error(err))
	}
	if err := orc.Start(ctx); err != nil {
		s.mu.Lock()
		delete(s.sessions, itv.ID)
		s.mu.Unlock()
		cancel()
		s.sendError(c, err.Error())
	}
}

func (s *Service) stop(c *realtime.Client) {
	s.mu.Lock()
	as, ok := s.sessions[c.InterviewID]
	s.mu.Unlock()
	if !ok {
		s.sendError(c, "no running session")
		return
	}
	if err := as.orc.Stop(as.ctx); err != nil {
		s.sendError(c, err.Error())
		return
	}
	// A failed finalization keeps the session alive for a retry; only a
	// FINISHED session is dismantled.
	if as.orc.Snapshot().Status == session.StatusFinished {
		s.mu.Lock()
		delete(s.sessions, c.InterviewID)
		s.mu.Unlock()
		as.cancel()
	}
}

// buildSpeech constructs the speech ports from config. Unconfigured
// providers degrade to text-only mode rather than failing the session.
func (s *Service) buildSpeech() (session.Synthesizer, *speech.StreamRecognizer) {
	var synth session.Synthesizer = speech.NoopSynthesizer{}
	if s.cfg.Speech.TTSBaseURL != "" {
		synth = speech.NewHTTPSynthesizer(speech.SynthesizerConfig{
			BaseURL:  s.cfg.Speech.TTSBaseURL,
			APIKey:   s.cfg.Speech.TTSAPIKey,
			Voice:    s.cfg.Speech.TTSVoice,
			Fallback: s.cfg.Session.SpeakFallback,
		}, s.logger)
	}
	var recog *speech.StreamRecognizer
	if s.cfg.Speech.STTStreamURL != "" {
		recog = speech.NewStreamRecognizer(speech.RecognizerConfig{
			StreamURL:    s.cfg.Speech.STTStreamURL,
			APIKey:       s.cfg.Speech.STTAPIKey,
			Model:        s.cfg.Speech.STTModel,
			SampleRate:   s.cfg.Speech.SampleRate,
			ListenWindow: s.cfg.Session.ListenWindow,
		}, s.logger)
	}
	return synth, recog
}

// register claims the session slot for an interview. Exactly one concurrent
// caller wins; the rest must discard their orchestrator.
func (s *Service) register(interviewID uuid.UUID, as *activeSession) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.sessions[interviewID]; running {
		return false
	}
	s.sessions[interviewID] = as
	return true
}

func (s *Service) withSession(c *realtime.Client, fn func(*activeSession)) {
	s.mu.Lock()
	as, ok := s.sessions[c.InterviewID]
	s.mu.Unlock()
	if !ok {
		s.sendError(c, "no running session")
		return
	}
	fn(as)
}

func (s *Service) sendError(c *realtime.Client, detail string) {
	c.Send("session_error", map[string]string{"detail": detail})
}
