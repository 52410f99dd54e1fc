package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/prepify/backend/internal/session"
)

// RecognizerConfig holds the streaming STT provider settings.
type RecognizerConfig struct {
	StreamURL  string // websocket endpoint, e.g. wss://api.deepgram.com/v1/listen
	APIKey     string
	Model      string
	SampleRate int
	// ListenWindow bounds a single capture; on expiry the accumulated
	// transcript (if any) is delivered, otherwise the capture fails.
	ListenWindow time.Duration
}

// StreamRecognizer performs single-shot voice capture against a streaming
// STT provider websocket: one utterance in, one final transcript out,
// auto-stop. Audio chunks are fed by the session transport via SendAudio.
type StreamRecognizer struct {
	cfg    RecognizerConfig
	logger *zap.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
}

// NewStreamRecognizer creates a recognizer. Capability is probed once: an
// empty stream URL means recognition is unsupported.
func NewStreamRecognizer(cfg RecognizerConfig, logger *zap.Logger) *StreamRecognizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.ListenWindow <= 0 {
		cfg.ListenWindow = 2 * time.Minute
	}
	return &StreamRecognizer{cfg: cfg, logger: logger}
}

// Supported reports whether an STT provider is configured.
func (r *StreamRecognizer) Supported() bool {
	return strings.TrimSpace(r.cfg.StreamURL) != ""
}

type transcriptResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	// SpeechFinal marks the provider-detected end of the utterance.
	SpeechFinal bool `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Listen opens a provider stream and waits for one utterance. Exactly one
// of OnResult/OnError is invoked per call.
func (r *StreamRecognizer) Listen(ctx context.Context, cb session.ListenCallbacks) error {
	if !r.Supported() {
		return session.ErrRecognitionUnavailable
	}

	streamURL, err := r.buildURL()
	if err != nil {
		return err
	}

	listenCtx, cancel := context.WithTimeout(ctx, r.cfg.ListenWindow)

	headers := http.Header{}
	if r.cfg.APIKey != "" {
		headers.Set("Authorization", "Token "+r.cfg.APIKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(listenCtx, streamURL, headers)
	if err != nil {
		cancel()
		return fmt.Errorf("connect stt stream: %w", err)
	}

	r.mu.Lock()
	if r.conn != nil {
		r.mu.Unlock()
		cancel()
		_ = conn.Close()
		return errors.New("capture already in progress")
	}
	r.conn = conn
	r.cancel = cancel
	r.mu.Unlock()

	go func() {
		<-listenCtx.Done()
		_ = conn.Close()
	}()
	go r.readLoop(conn, cancel, cb)
	return nil
}

func (r *StreamRecognizer) readLoop(conn *websocket.Conn, cancel context.CancelFunc, cb session.ListenCallbacks) {
	var segments []string
	finish := func(err error) {
		r.mu.Lock()
		if r.conn == conn {
			r.conn = nil
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()
		_ = conn.Close()

		transcript := strings.TrimSpace(strings.Join(segments, " "))
		if transcript != "" {
			if cb.OnResult != nil {
				cb.OnResult(transcript)
			}
			return
		}
		if err == nil {
			err = errors.New("no transcript captured")
		}
		if cb.OnError != nil {
			cb.OnError(err)
		}
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			finish(err)
			return
		}
		var res transcriptResult
		if err := json.Unmarshal(raw, &res); err != nil {
			r.logger.Debug("unparseable stt message", zap.Error(err))
			continue
		}
		if res.Type != "" && res.Type != "Results" {
			continue
		}
		if !res.IsFinal || len(res.Channel.Alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(res.Channel.Alternatives[0].Transcript); text != "" {
			segments = append(segments, text)
		}
		if res.SpeechFinal {
			finish(nil)
			return
		}
	}
}

// SendAudio forwards one PCM chunk from the client to the provider.
// A no-op when no capture is in progress (late chunks after stop).
func (r *StreamRecognizer) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, chunk)
}

// EndAudio tells the provider no more audio is coming for this utterance.
func (r *StreamRecognizer) EndAudio() {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return
	}
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
}

// Stop cancels any in-flight capture. Idempotent.
func (r *StreamRecognizer) Stop() {
	r.mu.Lock()
	conn := r.conn
	cancel := r.cancel
	r.conn = nil
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func (r *StreamRecognizer) buildURL() (string, error) {
	u, err := url.Parse(r.cfg.StreamURL)
	if err != nil {
		return "", fmt.Errorf("parse stt stream url: %w", err)
	}
	q := u.Query()
	if r.cfg.Model != "" {
		q.Set("model", r.cfg.Model)
	}
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(r.cfg.SampleRate))
	q.Set("channels", "1")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
