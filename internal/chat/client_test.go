package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func fakeProvider(t *testing.T, status int, body string, seen *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "You've got this."}, "finish_reason": "stop"}]
}`

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestReply(t *testing.T) {
	var seen capturedRequest
	srv := fakeProvider(t, http.StatusOK, okBody, &seen)
	c := newTestClient(t, srv)

	got, err := c.Reply(context.Background(), "I feel stuck at work")
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if got != "You've got this." {
		t.Errorf("Reply() = %q", got)
	}

	if seen.Model != DefaultModel {
		t.Errorf("model = %q, want %q", seen.Model, DefaultModel)
	}
	if len(seen.Messages) != 2 {
		t.Fatalf("messages = %+v", seen.Messages)
	}
	if seen.Messages[0].Role != "system" || seen.Messages[0].Content != SystemPrompt {
		t.Errorf("system message = %+v", seen.Messages[0])
	}
	if seen.Messages[1].Role != "user" || seen.Messages[1].Content != "I feel stuck at work" {
		t.Errorf("user message = %+v", seen.Messages[1])
	}
}

func TestReply_NoChoices(t *testing.T) {
	srv := fakeProvider(t, http.StatusOK, `{"id":"x","object":"chat.completion","choices":[]}`, nil)

	_, err := newTestClient(t, srv).Reply(context.Background(), "hello")
	if !errors.Is(err, ErrNoReply) {
		t.Errorf("Reply() error = %v, want ErrNoReply", err)
	}
}

func TestReply_UpstreamError(t *testing.T) {
	srv := fakeProvider(t, http.StatusInternalServerError,
		`{"error":{"message":"overloaded","type":"server_error"}}`, nil)

	_, err := newTestClient(t, srv).Reply(context.Background(), "hello")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Reply() error = %v, want ErrUpstream", err)
	}
}

func TestReply_RejectsBadMessages(t *testing.T) {
	c := &Client{model: DefaultModel} // never reaches the API

	if _, err := c.Reply(context.Background(), "   \n"); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("blank message error = %v", err)
	}
	if _, err := c.Reply(context.Background(), strings.Repeat("a", MaxMessageLength+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("long message error = %v", err)
	}
}

func TestValidateMessage_CountsCharacters(t *testing.T) {
	// Multi-byte characters count once each.
	if err := ValidateMessage(strings.Repeat("🌸", MaxMessageLength)); err != nil {
		t.Errorf("ValidateMessage() error = %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("New() error = %v, want ErrNotConfigured", err)
	}
}
