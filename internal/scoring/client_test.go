package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prepify/backend/internal/session"
)

func TestSubmitResponseSuccess(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"evaluation": map[string]interface{}{
				"score":        78.5,
				"feedback":     "clear structure",
				"strengths":    []string{"examples"},
				"improvements": []string{"pacing"},
			},
			"interviewerResponse": "Good, let's move on.",
			"isLastQuestion":      true,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	res, err := c.SubmitResponse(context.Background(), session.SubmitRequest{
		InterviewID:   "itv-9",
		UserID:        "user-3",
		QuestionIndex: 2,
		Question:      "Describe a hard bug.",
		Answer:        "A race in a cache layer.",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if gotPath != "/interviews/itv-9/evaluate-response" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	for key, want := range map[string]interface{}{
		"interviewId":   "itv-9",
		"userId":        "user-3",
		"questionIndex": float64(2),
		"question":      "Describe a hard bug.",
		"answer":        "A race in a cache layer.",
	} {
		if gotBody[key] != want {
			t.Errorf("request field %s: got %v, want %v", key, gotBody[key], want)
		}
	}

	if res.Score != 78.5 || res.Feedback != "clear structure" {
		t.Fatalf("unexpected evaluation: %+v", res)
	}
	if !res.IsLastQuestion || res.InterviewerResponse != "Good, let's move on." {
		t.Fatalf("unexpected envelope fields: %+v", res)
	}
	if len(res.Strengths) != 1 || len(res.Improvements) != 1 {
		t.Fatalf("unexpected lists: %+v", res)
	}
}

func TestSubmitResponseRejectedEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "interview not found",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.SubmitResponse(context.Background(), session.SubmitRequest{InterviewID: "missing"})
	if err == nil || !strings.Contains(err.Error(), "interview not found") {
		t.Fatalf("expected envelope error, got %v", err)
	}
}

func TestSubmitResponseSuccessWithoutEvaluation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.SubmitResponse(context.Background(), session.SubmitRequest{InterviewID: "itv-1"})
	if err == nil {
		t.Fatalf("expected error for missing evaluation body")
	}
}

func TestSubmitResponseTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, time.Second)
	_, err := c.SubmitResponse(context.Background(), session.SubmitRequest{InterviewID: "itv-1"})
	if err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestFinishInterview(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if err := c.FinishInterview(context.Background(), "itv-9", "user-3", 14); err != nil {
		t.Fatalf("finish failed: %v", err)
	}
	if gotPath != "/interviews/itv-9/finish" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody["interviewId"] != "itv-9" || gotBody["userId"] != "user-3" || gotBody["duration"] != float64(14) {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
}

func TestFinishInterviewRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"error":   "summary generation failed",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	err := c.FinishInterview(context.Background(), "itv-9", "user-3", 14)
	if err == nil || !strings.Contains(err.Error(), "summary generation failed") {
		t.Fatalf("expected envelope error, got %v", err)
	}
}
