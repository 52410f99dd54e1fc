package live

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prepify/backend/internal/realtime"
	"github.com/prepify/backend/internal/session"
)

type publishedEvent struct {
	interviewID uuid.UUID
	event       string
	payload     []byte
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishSessionEvent(interviewID uuid.UUID, event string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{interviewID, event, payload})
	return nil
}

func (p *fakePublisher) snapshot() []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

func TestRegisterAdmitsOneSessionPerInterview(t *testing.T) {
	t.Parallel()

	s := NewService(nil, nil, nil, nil, nil, zap.NewNop())
	interviewID := uuid.New()

	// Two tabs can issue start concurrently; exactly one may claim the slot.
	const racers = 8
	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- s.register(interviewID, &activeSession{})
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly 1 winner, got %d", won)
	}

	s.mu.Lock()
	delete(s.sessions, interviewID)
	s.mu.Unlock()
	if !s.register(interviewID, &activeSession{}) {
		t.Fatalf("slot not reclaimable after the session was removed")
	}
}

func TestHubSinkPublishesSessionEventsToRedis(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	hub := realtime.NewHub(zap.NewNop(), pub, nil)
	interviewID := uuid.New()
	sink := newHubSink(hub, interviewID)

	sink.StateChanged(session.StatusActive, session.ReasonConnected)
	sink.QuestionAnnounced(0, "Tell me about yourself.")
	sink.Navigate("/interviews")

	events := pub.snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 published events, got %d", len(events))
	}
	for _, e := range events {
		if e.interviewID != interviewID {
			t.Fatalf("event %q published for interview %s", e.event, e.interviewID)
		}
	}
	if events[0].event != "state" || events[1].event != "question" || events[2].event != "navigate" {
		t.Fatalf("unexpected event order: %s, %s, %s", events[0].event, events[1].event, events[2].event)
	}

	var state struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(events[0].payload, &state); err != nil {
		t.Fatalf("state payload not JSON: %v", err)
	}
	if state.Status != string(session.StatusActive) {
		t.Fatalf("expected status ACTIVE in payload, got %q", state.Status)
	}
}
