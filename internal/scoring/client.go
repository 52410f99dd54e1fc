// Package scoring is the HTTP client for the evaluation and summary
// endpoints consumed by the session orchestrator. The endpoints may be
// served by this process or by a remote deployment; the client only knows
// the wire contract.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prepify/backend/internal/session"
)

// Client calls the scoring endpoints. It implements session.Evaluator.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a scoring client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	InterviewID   string `json:"interviewId"`
	QuestionIndex int    `json:"questionIndex"`
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	UserID        string `json:"userId"`
}

type evaluationBody struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
}

type submitResponse struct {
	Success             bool            `json:"success"`
	Evaluation          *evaluationBody `json:"evaluation,omitempty"`
	InterviewerResponse string          `json:"interviewerResponse,omitempty"`
	IsLastQuestion      bool            `json:"isLastQuestion"`
	Error               string          `json:"error,omitempty"`
}

type finishRequest struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
	Duration    int    `json:"duration"`
}

type finishResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SubmitResponse sends one question/answer pair for evaluation. The result
// is all-or-nothing: any transport failure or non-success envelope is an
// error and nothing should be appended by the caller.
func (c *Client) SubmitResponse(ctx context.Context, req session.SubmitRequest) (session.SubmitResult, error) {
	body := submitRequest{
		InterviewID:   req.InterviewID,
		QuestionIndex: req.QuestionIndex,
		Question:      req.Question,
		Answer:        req.Answer,
		UserID:        req.UserID,
	}
	var out submitResponse
	url := fmt.Sprintf("%s/interviews/%s/evaluate-response", c.baseURL, req.InterviewID)
	if err := c.post(ctx, url, body, &out); err != nil {
		return session.SubmitResult{}, err
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "evaluation rejected"
		}
		return session.SubmitResult{}, fmt.Errorf("evaluate response: %s", out.Error)
	}
	if out.Evaluation == nil {
		return session.SubmitResult{}, fmt.Errorf("evaluate response: success without evaluation")
	}
	return session.SubmitResult{
		Score:               out.Evaluation.Score,
		Feedback:            out.Evaluation.Feedback,
		Strengths:           out.Evaluation.Strengths,
		Improvements:        out.Evaluation.Improvements,
		InterviewerResponse: out.InterviewerResponse,
		IsLastQuestion:      out.IsLastQuestion,
	}, nil
}

// FinishInterview posts the session summary request.
func (c *Client) FinishInterview(ctx context.Context, interviewID, userID string, durationMinutes int) error {
	body := finishRequest{InterviewID: interviewID, UserID: userID, Duration: durationMinutes}
	var out finishResponse
	url := fmt.Sprintf("%s/interviews/%s/finish", c.baseURL, interviewID)
	if err := c.post(ctx, url, body, &out); err != nil {
		return err
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "finish rejected"
		}
		return fmt.Errorf("finish interview: %s", out.Error)
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, body, out interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scoring request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("scoring status %d: decode: %w", resp.StatusCode, err)
	}
	return nil
}
