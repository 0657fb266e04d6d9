package mlinference

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status": "healthy", "model_loaded": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy, got %v", err)
	}
}

func TestHealthCheckUnhealthyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "loading", "model_loaded": false}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}
}

func TestHealthCheckNotConfigured(t *testing.T) {
	c := NewClient("")
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}
}

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Fatalf("expected file part: %v", err)
		}
		w.Write([]byte(`{"label": "voicemail", "confidence": 0.93}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	p, err := c.Predict(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p.Label != "voicemail" || p.Confidence != 0.93 {
		t.Fatalf("unexpected prediction %+v", p)
	}
}

func TestPredictMissingLabel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"confidence": 0.5}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Predict(context.Background(), []byte("audio")); err == nil {
		t.Fatalf("expected error for missing label")
	}
}
