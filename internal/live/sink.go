package live

import (
	"github.com/google/uuid"

	"github.com/prepify/backend/internal/realtime"
	"github.com/prepify/backend/internal/session"
)

// hubSink delivers session output to the interview's WebSocket room through
// the hub's Redis publish path, so observers on other instances receive the
// same events as the socket that owns the session. Hub sends drop on a full
// client buffer instead of blocking, which satisfies the EventSink contract.
type hubSink struct {
	hub         *realtime.Hub
	interviewID uuid.UUID
}

func newHubSink(hub *realtime.Hub, interviewID uuid.UUID) *hubSink {
	return &hubSink{hub: hub, interviewID: interviewID}
}

func (s *hubSink) StateChanged(status session.Status, reason session.Reason) {
	s.hub.PublishToInterviewOnly(s.interviewID, "state", map[string]interface{}{
		"status": status,
		"reason": reason,
	})
}

func (s *hubSink) QuestionAnnounced(index int, question string) {
	s.hub.PublishToInterviewOnly(s.interviewID, "question", map[string]interface{}{
		"index": index,
		"text":  question,
	})
}

func (s *hubSink) Speak(text, audioURL string) {
	s.hub.PublishToInterviewOnly(s.interviewID, "speak", map[string]interface{}{
		"text":      text,
		"audio_url": audioURL,
	})
}

func (s *hubSink) EvaluationReceived(index int, result session.SubmitResult) {
	s.hub.PublishToInterviewOnly(s.interviewID, "evaluation_result", map[string]interface{}{
		"index":                index,
		"score":                result.Score,
		"feedback":             result.Feedback,
		"strengths":            result.Strengths,
		"improvements":         result.Improvements,
		"interviewer_response": result.InterviewerResponse,
		"is_last_question":     result.IsLastQuestion,
	})
}

func (s *hubSink) SessionError(code session.ErrorCode, detail string) {
	s.hub.PublishToInterviewOnly(s.interviewID, "session_error", map[string]interface{}{
		"code":   code,
		"detail": detail,
	})
}

func (s *hubSink) Navigate(route string) {
	s.hub.PublishToInterviewOnly(s.interviewID, "navigate", map[string]interface{}{
		"route": route,
	})
}
