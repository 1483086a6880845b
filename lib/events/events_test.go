package events

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(_ context.Context, event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func TestFanoutDeliversToAllSinks(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{}
	sink := Fanout{a, b, Discard{}}

	event := Event{
		JobID:     "job-1",
		Tenant:    "stanford health",
		Kind:      KindStatus,
		Payload:   map[string]any{"status": "EXTRACTING"},
		Timestamp: time.Now(),
	}
	sink.Publish(context.Background(), event)

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Equal(t, "job-1", a.events[0].JobID)
	require.Equal(t, KindStatus, b.events[0].Kind)
}

func TestHubStreamsEventsToWebsocketClients(t *testing.T) {
	hub := NewHub()
	server := httptest.NewServer(hub)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// the upgrade response races the client registration
	require.Eventually(t, func() bool {
		hub.mu.Lock()
		defer hub.mu.Unlock()
		return len(hub.clients) == 1
	}, time.Second*5, time.Millisecond*10)

	hub.Publish(context.Background(), Event{
		JobID: "job-1",
		Kind:  KindIngest,
		Payload: map[string]any{
			"unit":    "u-100",
			"outcome": "new",
		},
	})

	var got Event
	err = conn.ReadJSON(&got)
	require.NoError(t, err)
	require.Equal(t, "job-1", got.JobID)
	require.Equal(t, KindIngest, got.Kind)
	require.Equal(t, "u-100", got.Payload["unit"])
}

func TestHubPublishWithNoClientsDoesNotBlock(t *testing.T) {
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		hub.Publish(context.Background(), Event{JobID: "job-1", Kind: KindStatus})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked with no clients connected")
	}
}

func TestWebhookSinkDeliversEvents(t *testing.T) {
	received := make(chan Event, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event Event
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
	}))
	defer server.Close()

	sink := NewWebhookSink(WebhookConfig{Url: server.URL})
	sink.Publish(context.Background(), Event{JobID: "job-1", Kind: KindStatus})
	require.NoError(t, sink.Close())

	select {
	case event := <-received:
		require.Equal(t, "job-1", event.JobID)
	default:
		t.Fatal("webhook endpoint never received the event")
	}
}

func TestWebhookSinkDoesNotBlockOnSlowEndpoint(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()

	sink := NewWebhookSink(WebhookConfig{Url: server.URL})

	start := time.Now()
	for i := 0; i < 10; i++ {
		sink.Publish(context.Background(), Event{JobID: "job-1", Kind: KindStatus})
	}
	require.Less(t, time.Since(start), time.Second,
		"publish must return immediately while the endpoint hangs")

	close(release)
	require.NoError(t, sink.Close())
}
