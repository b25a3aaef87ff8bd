package batch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/services"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// stubGenerator fails any topic whose name contains "fail" and records the
// order topics were attempted in.
type stubGenerator struct {
	attempted []string
	resyncErr error
}

func (g *stubGenerator) Generate(ctx context.Context, req services.GenerateLessonRequest) (*types.Lesson, error) {
	g.attempted = append(g.attempted, req.Topic)
	if strings.Contains(req.Topic, "fail") {
		return nil, fmt.Errorf("llm rejected topic %q", req.Topic)
	}
	return &types.Lesson{
		ID:         uuid.New(),
		Topic:      req.Topic,
		Title:      "About " + req.Topic,
		BatchID:    req.BatchID,
		BatchIndex: req.BatchIndex,
		BatchTotal: req.BatchTotal,
	}, nil
}

func (g *stubGenerator) ExtractAndResync(ctx context.Context, lessonID uuid.UUID) (*types.Lesson, error) {
	if g.resyncErr != nil {
		return nil, g.resyncErr
	}
	return nil, nil
}

type stubAudio struct {
	err error
}

func (a *stubAudio) EnsureChunkedAudio(ctx context.Context, lessonID uuid.UUID) (*types.AudioPlaylistManifest, error) {
	if a.err != nil {
		return nil, a.err
	}
	m := types.BuildManifest(lessonID, []string{"chunk_0.mp3"}, []float64{12}, 0.7)
	return &m, nil
}

func collect(ch <-chan Event) []Event {
	var out []Event
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestBatchFailureIsolation(t *testing.T) {
	gen := &stubGenerator{}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{}, NewSessionStore())

	events := collect(o.Run(context.Background(), Request{
		Topics: []string{"algebra", "fail-topic", "geometry"},
	}))

	wantTypes := []EventType{EventLesson, EventError, EventLesson, EventComplete}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d: %#v", len(events), len(wantTypes), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Fatalf("event %d type=%s, want %s", i, events[i].Type, want)
		}
	}

	complete := events[3]
	if complete.Succeeded != 2 || complete.Requested != 3 {
		t.Fatalf("complete %d/%d, want 2/3", complete.Succeeded, complete.Requested)
	}
	if complete.BatchID == nil {
		t.Fatalf("batch complete missing batch id")
	}
	if events[1].Topic != "fail-topic" || events[1].Message == "" {
		t.Fatalf("error event=%+v, want failing topic and message", events[1])
	}
	if events[0].Lesson.Topic != "algebra" || events[2].Lesson.Topic != "geometry" {
		t.Fatalf("lesson order wrong: %s then %s", events[0].Lesson.Topic, events[2].Lesson.Topic)
	}
	if events[0].Index != 0 || events[2].Index != 2 {
		t.Fatalf("batch indexes %d,%d; want 0,2", events[0].Index, events[2].Index)
	}
}

func TestBatchSingleTopicBypass(t *testing.T) {
	gen := &stubGenerator{}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{}, NewSessionStore())

	events := collect(o.Run(context.Background(), Request{Topics: []string{"photosynthesis"}}))

	if len(events) != 2 {
		t.Fatalf("got %d events, want lesson + complete: %#v", len(events), events)
	}
	if events[0].Type != EventLesson || events[1].Type != EventComplete {
		t.Fatalf("event types %s,%s", events[0].Type, events[1].Type)
	}
	if events[0].BatchID != nil || events[0].Lesson.BatchID != nil {
		t.Fatalf("single topic must not carry a batch id")
	}
	if events[1].Succeeded != 1 || events[1].Requested != 1 {
		t.Fatalf("complete %d/%d, want 1/1", events[1].Succeeded, events[1].Requested)
	}
}

func TestBatchSingleTopicFailure(t *testing.T) {
	gen := &stubGenerator{}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{}, NewSessionStore())

	events := collect(o.Run(context.Background(), Request{Topics: []string{"fail-topic"}}))
	if len(events) != 2 || events[0].Type != EventError || events[1].Type != EventComplete {
		t.Fatalf("events=%#v, want error + complete", events)
	}
	if events[1].Succeeded != 0 || events[1].Requested != 1 {
		t.Fatalf("complete %d/%d, want 0/1", events[1].Succeeded, events[1].Requested)
	}
}

func TestBatchExactlyOneComplete(t *testing.T) {
	gen := &stubGenerator{}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{}, NewSessionStore())

	events := collect(o.Run(context.Background(), Request{
		Topics: []string{"fail-a", "fail-b", "fail-c"},
	}))

	completes := 0
	for _, ev := range events {
		if ev.Type == EventComplete {
			completes++
		}
	}
	if completes != 1 {
		t.Fatalf("got %d complete events, want exactly 1", completes)
	}
	last := events[len(events)-1]
	if last.Type != EventComplete || last.Succeeded != 0 || last.Requested != 3 {
		t.Fatalf("final event=%+v, want complete 0/3", last)
	}
}

func TestBatchCancellationStopsNewTopics(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &stubGenerator{}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{}, NewSessionStore())
	events := collect(o.Run(ctx, Request{Topics: []string{"a", "b", "c"}}))

	if len(gen.attempted) != 0 {
		t.Fatalf("canceled batch attempted topics: %v", gen.attempted)
	}
	if len(events) != 1 || events[0].Type != EventComplete {
		t.Fatalf("events=%#v, want complete only", events)
	}
}

// cancelingGenerator cancels the caller's context while the first topic is
// in flight, mimicking a client disconnect mid-generation.
type cancelingGenerator struct {
	stubGenerator
	cancel  context.CancelFunc
	ctxErrs []error
}

func (g *cancelingGenerator) Generate(ctx context.Context, req services.GenerateLessonRequest) (*types.Lesson, error) {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.ctxErrs = append(g.ctxErrs, ctx.Err())
	return g.stubGenerator.Generate(ctx, req)
}

func TestBatchInFlightTopicSurvivesDisconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gen := &cancelingGenerator{cancel: cancel}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{}, NewSessionStore())

	events := collect(o.Run(ctx, Request{Topics: []string{"a", "b", "c"}}))

	// The topic that was mid-flight when the client went away finishes with a
	// live context; no later topic starts.
	if len(gen.attempted) != 1 || gen.attempted[0] != "a" {
		t.Fatalf("attempted=%v, want only the in-flight topic", gen.attempted)
	}
	if gen.ctxErrs[0] != nil {
		t.Fatalf("in-flight topic saw cancellation: %v", gen.ctxErrs[0])
	}
	if events[0].Type != EventLesson || events[0].Lesson.Topic != "a" {
		t.Fatalf("first event=%+v, want the finished lesson", events[0])
	}
	last := events[len(events)-1]
	if last.Type != EventComplete || last.Succeeded != 1 || last.Requested != 3 {
		t.Fatalf("final event=%+v, want complete 1/3", last)
	}
}

func TestBatchSessionDiscardedAfterComplete(t *testing.T) {
	st := NewSessionStore()
	o := NewOrchestrator(testLogger(), &stubGenerator{}, &stubAudio{}, st)

	events := collect(o.Run(context.Background(), Request{Topics: []string{"a", "b"}}))

	last := events[len(events)-1]
	if last.Type != EventComplete || last.BatchID == nil {
		t.Fatalf("final event=%+v, want complete with batch id", last)
	}
	if _, ok := st.Get(*last.BatchID); ok {
		t.Fatalf("session retained after the terminal event")
	}
}

func TestBatchAudioFailureNonFatal(t *testing.T) {
	gen := &stubGenerator{}
	o := NewOrchestrator(testLogger(), gen, &stubAudio{err: fmt.Errorf("tts down")}, NewSessionStore())

	events := collect(o.Run(context.Background(), Request{Topics: []string{"a", "b"}}))

	lessons := 0
	for _, ev := range events {
		if ev.Type == EventLesson {
			lessons++
		}
	}
	if lessons != 2 {
		t.Fatalf("audio failure dropped lessons: got %d lesson events", lessons)
	}
	final := events[len(events)-1]
	if final.Succeeded != 2 {
		t.Fatalf("complete succeeded=%d, want 2 despite audio failure", final.Succeeded)
	}
}

func TestSessionStoreLifecycle(t *testing.T) {
	st := NewSessionStore()
	id := uuid.New()
	s := st.Start(id, []string{"a", "b"})
	s.TopicDone("a")
	s.TopicFailed("b")
	s.Finish(1)

	got, ok := st.Get(id)
	if !ok {
		t.Fatalf("session missing")
	}
	snap := got.Snapshot()
	if snap.State != SessionDone || snap.Succeeded != 1 || len(snap.Failed) != 1 {
		t.Fatalf("snapshot=%+v", snap)
	}
	st.Delete(id)
	if _, ok := st.Get(id); ok {
		t.Fatalf("session not deleted")
	}
}
