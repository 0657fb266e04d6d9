package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Fatalf("missing auth header")
		}

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("request decode: %v", err)
		}
		if req.Model != "gpt-4o-mini" || len(req.Messages) != 1 {
			t.Fatalf("unexpected request %+v", req)
		}

		w.Write([]byte(`{"choices": [{"message": {"content": "{\"classification\": \"human\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "")
	out, err := c.Generate(context.Background(), "classify this")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != `{"classification": "human"}` {
		t.Fatalf("unexpected completion %q", out)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-test", "")
	if _, err := c.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestGenerateNotConfigured(t *testing.T) {
	c := NewClient("", "", "")
	if _, err := c.Generate(context.Background(), "hi"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestHealthCheckStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk-bad", "")
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Fatalf("expected health check failure")
	}
}
