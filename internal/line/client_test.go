package line

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scamguard/scamguard/internal/detect"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClientWithEndpoint("test-token", srv.URL+"/", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestReplyMessage(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/reply" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
	})

	if err := c.ReplyMessage(t.Context(), "tok-1", "第一則", "第二則"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["replyToken"] != "tok-1" {
		t.Errorf("replyToken = %v", got["replyToken"])
	}
	msgs, ok := got["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("messages = %v", got["messages"])
	}
}

func TestReplyMessage_MessageCount(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	if err := c.ReplyMessage(t.Context(), "tok"); err == nil {
		t.Error("expected error for zero messages")
	}
	if err := c.ReplyMessage(t.Context(), "tok", "1", "2", "3", "4", "5", "6"); err == nil {
		t.Error("expected error for six messages")
	}
}

func TestReplyMessage_APIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Invalid reply token"}`, http.StatusBadRequest)
	})

	if err := c.ReplyMessage(t.Context(), "expired", "hi"); err == nil {
		t.Fatal("expected error for rejected reply")
	}
}

func TestPushMessage(t *testing.T) {
	var got map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/message/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
	})

	if err := c.PushMessage(t.Context(), "U1234", "提醒"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["to"] != "U1234" {
		t.Errorf("to = %v", got["to"])
	}
}

func TestGetProfile(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/profile/U1234" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"displayName": "小美",
			"pictureUrl":  "https://example.com/p.jpg",
			"language":    "zh-TW",
		})
	})

	p := c.GetProfile(t.Context(), "U1234")
	if p.DisplayName != "小美" || p.Language != "zh-TW" {
		t.Errorf("profile = %+v", p)
	}
}

func TestGetProfile_LookupFailureIsZero(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	if p := c.GetProfile(t.Context(), "U-unknown"); p != (detect.Profile{}) {
		t.Errorf("expected zero profile, got %+v", p)
	}
}
