// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

package workfront

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestClientSubscribe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/subscriptions" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "api-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		want := map[string]any{
			"objCode":   "TASK",
			"eventType": "CREATE",
			"url":       "https://svc.example.com/eventHandler",
			"authToken": "tok",
		}
		if len(got) != len(want) {
			t.Errorf("body = %s, want exactly %v", body, want)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("body[%s] = %v, want %v", k, got[k], v)
			}
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL+"/subscriptions/", "api-key", time.Second)
	status, err := client.Subscribe(context.Background(), SubscribeRequest{
		ObjCode:   "TASK",
		EventType: "CREATE",
		URL:       "https://svc.example.com/eventHandler",
		AuthToken: "tok",
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if status != http.StatusCreated {
		t.Errorf("status = %d", status)
	}
}

func TestClientSubscribeValidatesRequest(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", "k", time.Second)
	_, err := client.Subscribe(context.Background(), SubscribeRequest{ObjCode: "TASK", EventType: "SHARE", URL: "not a url"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "invalid subscribe request") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClientUnsubscribe(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/subs/abc-123" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	status, err := NewClient(server.URL+"/subs", "k", 0).Unsubscribe(context.Background(), "abc-123")
	if err != nil || status != http.StatusNoContent {
		t.Fatalf("Unsubscribe = %d, %v", status, err)
	}

	if _, err := NewClient(server.URL, "k", 0).Unsubscribe(context.Background(), ""); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestClientList(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subs/list" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1","objCode":"TASK","eventType":"CREATE","url":"https://a/eventHandler"},
			{"id":"2","objCode":"PROJ","eventType":"DELETE","url":"https://b/eventHandler","objId":"p-9"}]`))
	}))
	defer server.Close()

	subs, err := NewClient(server.URL+"/subs", "k", 0).List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions", len(subs))
	}
	if subs[1].ObjID != "p-9" || subs[1].Pair() != (Pair{"PROJ", "DELETE"}) {
		t.Errorf("unexpected second subscription %+v", subs[1])
	}
}

func TestClientListErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "k", 0).List(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected status error, got %v", err)
	}
}
