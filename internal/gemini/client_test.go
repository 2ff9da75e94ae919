package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// newTestClient returns a client pointed at url with instant backoff sleeps,
// recording each induced delay into the returned slice pointer.
func newTestClient(url string) (*Client, *[]time.Duration) {
	delays := &[]time.Duration{}
	c := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           url,
		Model:             "test-model",
		MaxOutputTokens:   1024,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, withSleep(func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}))
	return c, delays
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{
				"content":      map[string]any{"parts": []map[string]any{{"text": text}}, "role": "model"},
				"finishReason": "STOP",
			},
		},
	})
	return string(b)
}

func TestCompleteText_returnsRawText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(candidateBody("plain answer")))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	got, err := c.CompleteText(context.Background(), "instr", "user", GenOptions{Temperature: 0.4})
	if err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	if got != "plain answer" {
		t.Errorf("got %q", got)
	}
}

func TestCompleteText_sendsTemperatureZero(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(candidateBody("ok")))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	if _, err := c.CompleteText(context.Background(), "i", "u", GenOptions{Temperature: 0}); err != nil {
		t.Fatalf("CompleteText: %v", err)
	}
	gen, ok := body["generationConfig"].(map[string]any)
	if !ok {
		t.Fatalf("generationConfig missing: %v", body)
	}
	temp, present := gen["temperature"]
	if !present {
		t.Fatal("temperature 0 was dropped from the request")
	}
	if temp.(float64) != 0 {
		t.Errorf("temperature: got %v", temp)
	}
}

func TestCompleteStructured_parsesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		gen := req["generationConfig"].(map[string]any)
		if gen["responseMimeType"] != "application/json" {
			t.Errorf("responseMimeType: got %v", gen["responseMimeType"])
		}
		if _, ok := gen["responseSchema"]; !ok {
			t.Error("responseSchema missing")
		}
		w.Write([]byte(candidateBody(`{"title":"Plan"}`)))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	schema := map[string]any{"type": "object"}
	raw, err := c.CompleteStructured(context.Background(), "i", "u", schema, GenOptions{})
	if err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	var out struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Title != "Plan" {
		t.Errorf("title: got %q", out.Title)
	}
}

func TestCompleteStructured_retriesOnTransientThenSucceeds(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(candidateBody(`{"ok":true}`)))
	}))
	defer srv.Close()
	c, delays := newTestClient(srv.URL)
	if _, err := c.CompleteStructured(context.Background(), "i", "u", map[string]any{"type": "object"}, GenOptions{}); err != nil {
		t.Fatalf("CompleteStructured: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts: got %d, want 3", attempts)
	}
	if len(*delays) != 2 || (*delays)[0] != time.Second || (*delays)[1] != 2*time.Second {
		t.Errorf("delays: got %v, want [1s 2s]", *delays)
	}
}

func TestCompleteStructured_malformedJSONConsumesAttempts(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(candidateBody("this is not json")))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	_, err := c.CompleteStructured(context.Background(), "i", "u", map[string]any{"type": "object"}, GenOptions{})
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if attempts != maxAttempts {
		t.Errorf("attempts: got %d, want %d", attempts, maxAttempts)
	}
}

func TestCompleteText_blockedRatingFailsAttempt(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		b, _ := json.Marshal(map[string]any{
			"candidates": []map[string]any{
				{
					"content":      map[string]any{"parts": []map[string]any{{"text": "redacted"}}},
					"finishReason": "STOP",
					"safetyRatings": []map[string]any{
						{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "probability": "HIGH", "blocked": true},
					},
				},
			},
		})
		w.Write(b)
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	_, err := c.CompleteText(context.Background(), "i", "u", GenOptions{})
	if !errors.Is(err, ErrBlocked) {
		t.Errorf("got %v, want ErrBlocked", err)
	}
	if attempts != maxAttempts {
		t.Errorf("attempts: got %d, want %d (blocked still consumes retry budget)", attempts, maxAttempts)
	}
}

func TestCompleteText_promptFeedbackBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	_, err := c.CompleteText(context.Background(), "i", "u", GenOptions{})
	if !errors.Is(err, ErrBlocked) {
		t.Errorf("got %v, want ErrBlocked", err)
	}
}

func TestCompleteText_noCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	if _, err := c.CompleteText(context.Background(), "i", "u", GenOptions{}); err == nil {
		t.Error("expected error for empty candidates")
	}
}

func TestCompleteText_apiErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()
	c, _ := newTestClient(srv.URL)
	_, err := c.CompleteText(context.Background(), "i", "u", GenOptions{})
	if err == nil || !strings.Contains(err.Error(), "bad request") {
		t.Errorf("got %v, want API error message attached", err)
	}
}
