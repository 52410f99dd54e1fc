package evaluations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/prepify/backend/config"
	"github.com/prepify/backend/internal/models"
)

// Grader grades answers and writes closing assessments through an
// OpenAI-compatible chat completions API.
type Grader struct {
	cfg    config.GraderConfig
	http   *http.Client
	logger *zap.Logger
}

// NewGrader creates a grader from config.
func NewGrader(cfg config.GraderConfig, logger *zap.Logger) *Grader {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Grader{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// GradeInput is one answer in its interview context.
type GradeInput struct {
	Role           string
	Level          string
	Question       string
	Answer         string
	QuestionIndex  int
	TotalQuestions int
}

// GradeResult is the structured evaluation plus the interviewer's spoken
// reply to the candidate.
type GradeResult struct {
	Evaluation          models.Evaluation
	InterviewerResponse string
}

const gradeSystemPrompt = `You are an experienced technical interviewer grading a candidate's answer.
Respond with a single JSON object, no prose, matching exactly:
{"score": <0-100>, "feedback": "<2-3 sentences>", "strengths": ["..."], "improvements": ["..."], "interviewerResponse": "<one short spoken sentence acknowledging the answer>"}`

// EvaluateAnswer grades a single question/answer pair.
func (g *Grader) EvaluateAnswer(ctx context.Context, in GradeInput) (GradeResult, error) {
	user := fmt.Sprintf(
		"Position: %s (%s level). Question %d of %d.\n\nQuestion: %s\n\nCandidate's answer: %s",
		in.Role, in.Level, in.QuestionIndex+1, in.TotalQuestions, in.Question, in.Answer,
	)

	raw, err := g.complete(ctx, gradeSystemPrompt, user)
	if err != nil {
		return GradeResult{}, err
	}

	var parsed struct {
		Score               float64  `json:"score"`
		Feedback            string   `json:"feedback"`
		Strengths           []string `json:"strengths"`
		Improvements        []string `json:"improvements"`
		InterviewerResponse string   `json:"interviewerResponse"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		g.logger.Warn("grader returned unparseable evaluation", zap.String("raw", raw))
		return GradeResult{}, fmt.Errorf("parse evaluation: %w", err)
	}

	return GradeResult{
		Evaluation: models.Evaluation{
			Score:        clampScore(parsed.Score),
			Feedback:     parsed.Feedback,
			Strengths:    parsed.Strengths,
			Improvements: parsed.Improvements,
		},
		InterviewerResponse: parsed.InterviewerResponse,
	}, nil
}

const summarySystemPrompt = `You are an experienced technical interviewer writing a final assessment of a completed mock interview.
Respond with a single JSON object, no prose, matching exactly:
{"assessment": "<3-5 sentence overall assessment>", "strengths": ["..."], "improvements": ["..."]}`

// SummaryResult is the grader's closing assessment of a whole interview.
type SummaryResult struct {
	Assessment   string
	Strengths    []string
	Improvements []string
}

// Summarize writes the closing assessment over all graded responses.
func (g *Grader) Summarize(ctx context.Context, itv *models.Interview, responses []models.InterviewResponse) (SummaryResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Position: %s (%s level). %d of %d questions answered.\n",
		itv.Role, itv.Level, len(responses), itv.QuestionCount())
	for _, r := range responses {
		fmt.Fprintf(&b, "\nQ%d: %s\nAnswer: %s\nScore: %.0f\nFeedback: %s\n",
			r.QuestionIndex+1, r.Question, r.Answer, r.Score, r.Feedback)
	}

	raw, err := g.complete(ctx, summarySystemPrompt, b.String())
	if err != nil {
		return SummaryResult{}, err
	}

	var parsed struct {
		Assessment   string   `json:"assessment"`
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		g.logger.Warn("grader returned unparseable summary", zap.String("raw", raw))
		return SummaryResult{}, fmt.Errorf("parse summary: %w", err)
	}
	return SummaryResult(parsed), nil
}

func (g *Grader) complete(ctx context.Context, system, user string) (string, error) {
	body := chatRequest{
		Model: g.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxTokens,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	url := strings.TrimRight(g.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat API status %d: %s", resp.StatusCode, string(data))
	}

	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat API error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("chat API returned no choices")
	}
	return stripCodeFences(out.Choices[0].Message.Content), nil
}

// stripCodeFences removes markdown fencing some models wrap JSON output in.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
