package ai

import (
	"VoiceGuide/internal/config"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	MaxTokens   int64   `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newTestClient(t *testing.T, h http.HandlerFunc) *TextClient {
	t.Helper()
	return newTestClientWith(t, config.Defaults().LLM, h)
}

func newTestClientWith(t *testing.T, cfg config.LLMConfig, h http.HandlerFunc) *TextClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	cfg.Timeout = 2 * time.Second
	return NewTextClient(NewOpenAIClient(cfg), cfg, zaptest.NewLogger(t).Sugar())
}

const okCompletion = `{"id":"1","object":"chat.completion","created":1,"model":"m",
	"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Tamam."}}]}`

func TestTextClient_SendsHistoryAndSampling(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("authorization = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"  Ayasofya 537 yılında tamamlandı.  "}}]}`))
	})

	history := []Message{
		{Role: RoleUser, Content: "Merhaba"},
		{Role: RoleAssistant, Content: "Hoş geldiniz"},
		{Role: RoleUser, Content: "Ayasofya hakkında bilgi verir misiniz?"},
	}
	out, err := c.Complete(context.Background(), "sistem", history)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Ayasofya 537 yılında tamamlandı." {
		t.Fatalf("content not trimmed: %q", out)
	}
	if got.Temperature != 0.7 || got.TopP != 0.9 || got.MaxTokens != 50 {
		t.Fatalf("sampling = %v/%v/%v", got.Temperature, got.TopP, got.MaxTokens)
	}
	if len(got.Messages) != 4 {
		t.Fatalf("messages = %d, want 4", len(got.Messages))
	}
	wantRoles := []string{"system", "user", "assistant", "user"}
	for i, m := range got.Messages {
		if m.Role != wantRoles[i] {
			t.Fatalf("message %d role = %s, want %s", i, m.Role, wantRoles[i])
		}
	}
}

func TestTextClient_ZeroSamplingIsSent(t *testing.T) {
	var raw map[string]any
	cfg := config.Defaults().LLM
	cfg.Temperature = 0
	cfg.TopP = 0
	c := newTestClientWith(t, cfg, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okCompletion))
	})

	if _, err := c.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "Merhaba"}}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	for _, key := range []string{"temperature", "top_p"} {
		v, ok := raw[key]
		if !ok {
			t.Fatalf("%s missing from request: %v", key, raw)
		}
		if f, _ := v.(float64); f != 0 {
			t.Fatalf("%s = %v, want 0", key, v)
		}
	}
}

func TestTextClient_Failures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		empty   bool
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"oops"}}`))
		}, false},
		{"empty_choices", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"m","choices":[]}`))
		}, true},
		{"blank_content", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"m",
				"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"   "}}]}`))
		}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, tc.handler)
			_, err := c.Complete(context.Background(), "", []Message{{Role: RoleUser, Content: "hi"}})
			if err == nil {
				t.Fatalf("expected error; got nil")
			}
			if tc.empty && !errors.Is(err, ErrEmptyCompletion) {
				t.Fatalf("error = %v, want ErrEmptyCompletion", err)
			}
		})
	}
}
