package sse

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
)

func testHub() *Hub {
	return NewHub(&logger.Logger{SugaredLogger: zap.NewNop().Sugar()})
}

func TestBroadcastReachesSubscribedClient(t *testing.T) {
	hub := testHub()
	client := hub.NewClient(uuid.Nil)
	ch := BatchChannel(uuid.New())
	hub.AddChannel(client, ch)

	hub.Broadcast(Message{Channel: ch, Event: "lesson", Data: map[string]int{"index": 0}})

	select {
	case msg := <-client.Outbound:
		if msg.Event != "lesson" {
			t.Fatalf("event=%q, want lesson", msg.Event)
		}
	default:
		t.Fatalf("no message delivered")
	}
}

func TestBroadcastSkipsOtherChannels(t *testing.T) {
	hub := testHub()
	client := hub.NewClient(uuid.Nil)
	hub.AddChannel(client, BatchChannel(uuid.New()))

	hub.Broadcast(Message{Channel: BatchChannel(uuid.New()), Event: "lesson"})

	if len(client.Outbound) != 0 {
		t.Fatalf("message delivered to wrong channel")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := testHub()
	client := hub.NewClient(uuid.Nil)
	ch := "batch:full"
	hub.AddChannel(client, ch)

	for i := 0; i < cap(client.Outbound)+5; i++ {
		hub.Broadcast(Message{Channel: ch, Event: "lesson"})
	}
	if len(client.Outbound) != cap(client.Outbound) {
		t.Fatalf("buffered=%d, want %d", len(client.Outbound), cap(client.Outbound))
	}
}

func TestRemoveClientUnsubscribes(t *testing.T) {
	hub := testHub()
	client := hub.NewClient(uuid.Nil)
	ch := "batch:gone"
	hub.AddChannel(client, ch)
	hub.RemoveClient(client)

	hub.Broadcast(Message{Channel: ch, Event: "lesson"})
	if len(client.Outbound) != 0 {
		t.Fatalf("removed client still receives messages")
	}
}

func TestWriteEventFrame(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteEvent(rec, Message{Event: "complete", Data: map[string]int{"succeeded": 2}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	body := rec.Body.String()
	if !strings.HasPrefix(body, "event: complete\n") {
		t.Fatalf("missing event line: %q", body)
	}
	if !strings.Contains(body, `data: {"succeeded":2}`) {
		t.Fatalf("missing data line: %q", body)
	}
	if !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("frame not terminated: %q", body)
	}
}
