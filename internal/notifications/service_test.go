package notifications_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"toonvault/internal/config"
	"toonvault/internal/notifications"
)

func TestNewServiceReturnsNoopWithoutTopic(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyIngestCompleted(context.Background(), "Naruto", 1, 2, 4); err != nil {
		t.Fatalf("noop service returned error: %v", err)
	}
}

func TestNtfyServicePublishes(t *testing.T) {
	var gotTitle, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyIngestFailed(context.Background(), "Naruto", 1, 2, errors.New("segment 3 upload failed")); err != nil {
		t.Fatalf("NotifyIngestFailed: %v", err)
	}
	if gotTitle != "Toonvault - Ingest Failed" {
		t.Errorf("unexpected title %q", gotTitle)
	}
	if gotBody == "" || gotBody[:6] != "Naruto" {
		t.Errorf("unexpected body %q", gotBody)
	}
}

func TestNtfyServiceReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
