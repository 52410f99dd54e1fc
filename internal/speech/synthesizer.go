// Package speech provides the speech I/O adapters behind the session
// orchestrator's Synthesizer and Recognizer ports: an HTTP text-to-speech
// provider, a websocket streaming speech-to-text provider, and null
// adapters for environments without either capability.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/prepify/backend/internal/session"
)

// SynthesizerConfig holds the external TTS provider settings.
type SynthesizerConfig struct {
	BaseURL string
	APIKey  string
	Voice   string
	// Fallback bounds the vocalization window when the client never acks
	// playback and the provider reports no duration.
	Fallback time.Duration
}

// HTTPSynthesizer converts text to audio through an external TTS HTTP API.
// The synthesized audio URL is handed to OnStart for client playback;
// OnEnd fires after the reported audio duration (or the fallback) unless
// the orchestrator completes the window earlier via a playback ack.
type HTTPSynthesizer struct {
	cfg    SynthesizerConfig
	http   *http.Client
	logger *zap.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// NewHTTPSynthesizer creates a synthesizer. Capability is probed once: an
// empty base URL means synthesis is unsupported.
func NewHTTPSynthesizer(cfg SynthesizerConfig, logger *zap.Logger) *HTTPSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Fallback <= 0 {
		cfg.Fallback = 30 * time.Second
	}
	return &HTTPSynthesizer{
		cfg:    cfg,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// Supported reports whether a TTS provider is configured.
func (s *HTTPSynthesizer) Supported() bool {
	return strings.TrimSpace(s.cfg.BaseURL) != ""
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type synthesizeResponse struct {
	AudioURL   string `json:"audio_url"`
	DurationMS int    `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Speak synthesizes text and schedules window completion.
func (s *HTTPSynthesizer) Speak(ctx context.Context, text string, cb session.SpeakCallbacks) error {
	body, err := json.Marshal(synthesizeRequest{Text: text, Voice: s.cfg.Voice})
	if err != nil {
		return fmt.Errorf("marshal synthesize request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(s.cfg.BaseURL, "/")+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create synthesize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read synthesize response: %w", err)
	}
	var out synthesizeResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("synthesize status %d: decode: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		if out.Error == "" {
			out.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("synthesize: %s", out.Error)
	}

	if cb.OnStart != nil {
		cb.OnStart(out.AudioURL)
	}

	window := s.cfg.Fallback
	if out.DurationMS > 0 {
		window = time.Duration(out.DurationMS) * time.Millisecond
	}

	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(window, func() {
		if cb.OnEnd != nil {
			cb.OnEnd()
		}
	})
	s.mu.Unlock()
	return nil
}

// Stop cancels the pending completion timer. Idempotent.
func (s *HTTPSynthesizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
