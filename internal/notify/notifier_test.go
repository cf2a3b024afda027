package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/sony/gobreaker/v2"

	"oliver-admin/internal/auth"
)

func TestWebhookNotifierPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(server.URL, 3, time.Minute)
	if err != nil {
		t.Fatalf("new webhook notifier: %v", err)
	}
	msg := ExportCompleted{ExportID: "exp-1", ActorID: "admin-1", Type: "payouts", Format: "csv", FileURL: "https://files/x", FileSize: 10, RowCount: 2}
	if err := notifier.Notify(context.Background(), msg); err != nil {
		t.Fatalf("notify: %v", err)
	}

	select {
	case payload := <-payloadCh:
		if payload.Event != EventExportComplete {
			t.Fatalf("unexpected event %q", payload.Event)
		}
		if payload.Data != msg {
			t.Fatalf("unexpected data %+v", payload.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for webhook")
	}
}

func TestWebhookNotifierBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier, err := NewWebhookNotifier(server.URL, 2, time.Minute)
	if err != nil {
		t.Fatalf("new webhook notifier: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := notifier.Notify(ctx, ExportCompleted{ExportID: "e"}); err == nil {
			t.Fatalf("expected failure on call %d", i)
		}
	}
	err = notifier.Notify(ctx, ExportCompleted{ExportID: "e"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", calls.Load())
	}
}

type recordingNotifier struct {
	got []ExportCompleted
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, msg ExportCompleted) error {
	r.got = append(r.got, msg)
	return r.err
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	bad := &recordingNotifier{err: errors.New("down")}
	multi := NewMultiNotifier(ok, nil, bad)
	err := multi.Notify(context.Background(), ExportCompleted{ExportID: "e1"})
	if err == nil || !strings.Contains(err.Error(), "down") {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Fatalf("expected both notifiers called")
	}
}

func TestHubDeliversToActor(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := r.URL.Query().Get("actor")
		r = r.WithContext(auth.WithIdentity(r.Context(), auth.RoleAdmin, actor))
		hub.ServeWS(w, r)
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	mine, _, err := websocket.DefaultDialer.Dial(wsURL+"?actor=admin-1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer mine.Close()
	other, _, err := websocket.DefaultDialer.Dial(wsURL+"?actor=admin-2", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer other.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("clients did not register")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := hub.Notify(ctx, ExportCompleted{ExportID: "exp-9", ActorID: "admin-1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}

	_ = mine.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string          `json:"type"`
		Data ExportCompleted `json:"data"`
	}
	if err := mine.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != EventExportComplete || msg.Data.ExportID != "exp-9" {
		t.Fatalf("unexpected message %+v", msg)
	}

	_ = other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, _, err := other.ReadMessage(); err == nil {
		t.Fatalf("other admin received a message")
	}
}
