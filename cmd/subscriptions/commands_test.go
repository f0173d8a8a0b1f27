// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/loyaltylite/internal/config"
	"github.com/tomtom215/loyaltylite/internal/workfront"
)

// fakeSubscriptionAPI keeps subscriptions in memory.
type fakeSubscriptionAPI struct {
	mu   sync.Mutex
	subs []workfront.Subscription
	next int
}

func (f *fakeSubscriptionAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/subs/list":
		_ = json.NewEncoder(w).Encode(f.subs)
	case r.Method == http.MethodPost && r.URL.Path == "/subs":
		var req workfront.SubscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.next++
		f.subs = append(f.subs, workfront.Subscription{
			ID:        fmt.Sprintf("sub-%d", f.next),
			ObjCode:   req.ObjCode,
			EventType: req.EventType,
			URL:       req.URL,
		})
		w.WriteHeader(http.StatusCreated)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/subs/"):
		id := strings.TrimPrefix(r.URL.Path, "/subs/")
		for i, s := range f.subs {
			if s.ID == id {
				f.subs = append(f.subs[:i], f.subs[i+1:]...)
				w.WriteHeader(http.StatusOK)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func testConfig(subscriptionsURL, serviceEndpoint string) *config.Config {
	return &config.Config{
		Workfront: config.WorkfrontConfig{
			APIKey:           "api-key",
			SubscriptionsURL: subscriptionsURL,
			Pairs:            "TASK-CREATE|PROJ-UPDATE",
			ServiceEndpoint:  serviceEndpoint,
			AuthToken:        "static-token",
			Source:           "workfront",
			SchemaVendor:     "com.nordstrom",
			MaxConcurrency:   2,
			RequestTimeout:   time.Second,
		},
	}
}

func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(func() (*config.Config, error) { return cfg, nil }, &out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSubscribeListUnsubscribe(t *testing.T) {
	t.Parallel()

	api := &fakeSubscriptionAPI{}
	server := httptest.NewServer(api)
	defer server.Close()
	cfg := testConfig(server.URL+"/subs", "https://svc.example.com")

	out, err := execute(t, cfg, "subscribe")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	var report workfront.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report %q: %v", out, err)
	}
	if len(report.Succeeded) != 2 || len(report.Failed) != 0 {
		t.Errorf("unexpected report %+v", report)
	}
	if report.URL != "https://svc.example.com/eventHandler" {
		t.Errorf("report URL = %q", report.URL)
	}

	// A second run finds both pairs registered.
	out, err = execute(t, cfg, "subscribe")
	if err != nil {
		t.Fatalf("second subscribe: %v", err)
	}
	report = workfront.Report{}
	_ = json.Unmarshal([]byte(out), &report)
	if len(report.Skipped) != 2 || report.Attempted() != 0 {
		t.Errorf("expected both pairs skipped, got %+v", report)
	}

	out, err = execute(t, cfg, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var subs []workfront.Subscription
	if err := json.Unmarshal([]byte(out), &subs); err != nil {
		t.Fatalf("decode list %q: %v", out, err)
	}
	if len(subs) != 2 {
		t.Errorf("list returned %d subscriptions, want 2", len(subs))
	}

	if _, err := execute(t, cfg, "unsubscribe"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	api.mu.Lock()
	remaining := len(api.subs)
	api.mu.Unlock()
	if remaining != 0 {
		t.Errorf("%d subscriptions remain after unsubscribe", remaining)
	}
}

func TestURLFlagOverridesCallback(t *testing.T) {
	t.Parallel()

	api := &fakeSubscriptionAPI{subs: []workfront.Subscription{
		{ID: "a", ObjCode: "TASK", EventType: "CREATE", URL: "https://other.example.com/hook"},
		{ID: "b", ObjCode: "TASK", EventType: "CREATE", URL: "https://svc.example.com/eventHandler"},
	}}
	server := httptest.NewServer(api)
	defer server.Close()

	out, err := execute(t, testConfig(server.URL+"/subs", "https://svc.example.com"),
		"list", "--url", "https://other.example.com/hook", "--pretty")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "\n  ") {
		t.Errorf("expected indented output, got %q", out)
	}
	var subs []workfront.Subscription
	if err := json.Unmarshal([]byte(out), &subs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != "a" {
		t.Errorf("unexpected subscriptions %+v", subs)
	}
}

func TestNoEndpointIsNotAnError(t *testing.T) {
	t.Parallel()

	for _, sub := range []string{"subscribe", "unsubscribe", "list"} {
		out, err := execute(t, testConfig("", ""), sub)
		if err != nil {
			t.Errorf("%s: unexpected error %v", sub, err)
		}
		if out != "" {
			t.Errorf("%s: expected no output, got %q", sub, out)
		}
	}
}

func TestListFailureIsAnError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := execute(t, testConfig(server.URL, "https://svc.example.com"), "subscribe"); err == nil {
		t.Error("expected subscribe to fail when listing fails")
	}
}

func TestUnknownArgsRejected(t *testing.T) {
	t.Parallel()

	if _, err := execute(t, testConfig("", ""), "list", "extra"); err == nil {
		t.Error("expected error for positional argument")
	}
}
