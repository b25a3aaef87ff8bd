package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// manualClock lets tests drive ticks deterministically.
type manualClock struct {
	mu   sync.Mutex
	pos  float64
	tick func(pos float64)
}

func (c *manualClock) Start(tick func(pos float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = tick
}

func (c *manualClock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick = nil
}

func (c *manualClock) Seek(pos float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
}

func (c *manualClock) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *manualClock) advance(pos float64) {
	c.mu.Lock()
	c.pos = pos
	tick := c.tick
	c.mu.Unlock()
	if tick != nil {
		tick(pos)
	}
}

// clockRecorder hands out manual clocks and remembers them in creation order.
type clockRecorder struct {
	mu     sync.Mutex
	clocks []*manualClock
}

func (r *clockRecorder) factory(LessonMedia) Clock {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &manualClock{}
	r.clocks = append(r.clocks, c)
	return c
}

// waitForClock polls until the nth clock exists (pause timers fire async).
func (r *clockRecorder) waitForClock(t *testing.T, n int) *manualClock {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		r.mu.Lock()
		if len(r.clocks) > n {
			c := r.clocks[n]
			r.mu.Unlock()
			return c
		}
		r.mu.Unlock()
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("clock %d was never created", n)
	return nil
}

func chunkedLesson(durations ...float64) LessonMedia {
	id := uuid.New()
	url := "https://example.test/audio/" + id.String() + "_0.mp3"
	files := make([]string, len(durations))
	for i := range durations {
		files[i] = url
	}
	m := types.BuildManifest(id, files, durations, 0.7)
	return LessonMedia{
		Lesson:   &types.Lesson{ID: id, AudioURL: &url, Duration: m.TotalDuration},
		Manifest: &m,
	}
}

func TestPlayerLifecycle(t *testing.T) {
	rec := &clockRecorder{}
	p := NewPlayer(testLogger(), WithClockFactory(rec.factory))

	if p.State() != StateIdle {
		t.Fatalf("initial state=%v, want idle", p.State())
	}
	p.Load([]LessonMedia{chunkedLesson(10)})
	if p.State() != StateReady {
		t.Fatalf("state after load=%v, want ready", p.State())
	}
	p.Play()
	if p.State() != StatePlaying {
		t.Fatalf("state after play=%v, want playing", p.State())
	}
	p.Pause()
	if p.State() != StatePaused {
		t.Fatalf("state after pause=%v, want paused", p.State())
	}
	p.Play()
	if p.State() != StatePlaying {
		t.Fatalf("state after resume=%v, want playing", p.State())
	}
	p.Reset()
	if p.State() != StateIdle {
		t.Fatalf("state after reset=%v, want idle", p.State())
	}
	if p.CurrentTime() != 0 {
		t.Fatalf("time after reset=%v, want 0", p.CurrentTime())
	}
}

func TestPlayerChunkAutoAdvance(t *testing.T) {
	rec := &clockRecorder{}
	p := NewPlayer(testLogger(),
		WithClockFactory(rec.factory),
		WithPauses(time.Millisecond, time.Millisecond),
	)
	p.Load([]LessonMedia{chunkedLesson(10, 8, 5)})
	p.Play()

	c0 := rec.waitForClock(t, 0)
	c0.advance(4)
	if got := p.CurrentTime(); got != 4 {
		t.Fatalf("time=%v, want 4", got)
	}

	// First chunk ends; position jumps to the second chunk's start offset.
	c0.advance(10)
	c1 := rec.waitForClock(t, 1)
	c1.advance(3)
	if got := p.CurrentTime(); got != 13 {
		t.Fatalf("time=%v, want 13 (chunk start 10 + local 3)", got)
	}

	c1.advance(8)
	c2 := rec.waitForClock(t, 2)
	c2.advance(2)
	if got := p.CurrentTime(); got != 20 {
		t.Fatalf("time=%v, want 20 (chunk start 18 + local 2)", got)
	}
	if p.State() != StatePlaying {
		t.Fatalf("state=%v, want playing across chunk boundaries", p.State())
	}
}

func TestPlayerLessonAutoAdvance(t *testing.T) {
	rec := &clockRecorder{}
	states := make(chan State, 16)
	p := NewPlayer(testLogger(),
		WithClockFactory(rec.factory),
		WithPauses(time.Millisecond, time.Millisecond),
		WithStateFunc(func(s State) { states <- s }),
	)
	p.Load([]LessonMedia{chunkedLesson(5), chunkedLesson(3)})
	p.Play()

	c0 := rec.waitForClock(t, 0)
	c0.advance(5)

	c1 := rec.waitForClock(t, 1)
	if got := p.LessonIndex(); got != 1 {
		t.Fatalf("lesson index=%d, want 1", got)
	}
	c1.advance(1)
	if got := p.CurrentTime(); got != 1 {
		t.Fatalf("time=%v, want 1 (second lesson restarts at zero)", got)
	}

	// Final lesson ends: terminal idle, no further clock.
	c1.advance(3)
	deadline := time.Now().Add(time.Second)
	for p.State() != StateIdle && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if p.State() != StateIdle {
		t.Fatalf("state=%v, want terminal idle", p.State())
	}

	sawEnded := false
	close(states)
	for s := range states {
		if s == StateEnded {
			sawEnded = true
		}
	}
	if !sawEnded {
		t.Fatalf("never observed ended state")
	}
}

func TestPlayerPauseCancelsPendingAdvance(t *testing.T) {
	rec := &clockRecorder{}
	p := NewPlayer(testLogger(),
		WithClockFactory(rec.factory),
		WithPauses(20*time.Millisecond, 20*time.Millisecond),
	)
	p.Load([]LessonMedia{chunkedLesson(5, 5)})
	p.Play()

	c0 := rec.waitForClock(t, 0)
	c0.advance(5)

	// Pause during the inter-chunk gap: the scheduled advance must not fire.
	p.Pause()
	time.Sleep(60 * time.Millisecond)
	rec.mu.Lock()
	n := len(rec.clocks)
	rec.mu.Unlock()
	if n != 1 {
		t.Fatalf("paused player spawned clock %d", n)
	}
	if p.State() != StatePaused {
		t.Fatalf("state=%v, want paused", p.State())
	}
}

func TestPlayerSeekAcrossChunks(t *testing.T) {
	rec := &clockRecorder{}
	p := NewPlayer(testLogger(), WithClockFactory(rec.factory))
	p.Load([]LessonMedia{chunkedLesson(10, 8, 5)})
	p.Play()
	c0 := rec.waitForClock(t, 0)

	p.Seek(13)
	if got := p.CurrentTime(); got != 13 {
		t.Fatalf("time=%v, want 13", got)
	}
	// The running clock is re-seeked to the chunk-local offset.
	if got := c0.Position(); got != 3 {
		t.Fatalf("clock local position=%v, want 3", got)
	}
}

func TestPlayerSeekDuringChunkGapRestartsClock(t *testing.T) {
	rec := &clockRecorder{}
	p := NewPlayer(testLogger(),
		WithClockFactory(rec.factory),
		WithPauses(time.Hour, time.Hour),
	)
	p.Load([]LessonMedia{chunkedLesson(10, 8)})
	p.Play()

	c0 := rec.waitForClock(t, 0)
	// First chunk ends; the advance timer is pending and no clock runs.
	c0.advance(10)

	p.Seek(2)
	c1 := rec.waitForClock(t, 1)
	if p.State() != StatePlaying {
		t.Fatalf("state=%v, want playing after seek", p.State())
	}
	if got := c1.Position(); got != 2 {
		t.Fatalf("clock local position=%v, want 2", got)
	}
	c1.advance(3)
	if got := p.CurrentTime(); got != 3 {
		t.Fatalf("time=%v, want 3 after the restarted clock ticks", got)
	}
}

func TestPlayerSeekDuringLessonGapResumes(t *testing.T) {
	rec := &clockRecorder{}
	p := NewPlayer(testLogger(),
		WithClockFactory(rec.factory),
		WithPauses(time.Hour, time.Hour),
	)
	p.Load([]LessonMedia{chunkedLesson(5), chunkedLesson(4)})
	p.Play()

	c0 := rec.waitForClock(t, 0)
	// Lesson ends; player sits in the inter-lesson gap on the next lesson.
	c0.advance(5)

	p.Seek(1)
	c1 := rec.waitForClock(t, 1)
	if p.State() != StatePlaying {
		t.Fatalf("state=%v, want playing after seek", p.State())
	}
	if got := p.LessonIndex(); got != 1 {
		t.Fatalf("lesson index=%d, want 1", got)
	}
	c1.advance(2)
	if got := p.CurrentTime(); got != 2 {
		t.Fatalf("time=%v, want 2", got)
	}
}

func TestPlayerVisibleFollowsPosition(t *testing.T) {
	rec := &clockRecorder{}
	media := chunkedLesson(10)
	media.Lesson.BoardActions = types.BoardActionList{
		text(0, "a"), clear(5), text(6, "b"),
	}
	p := NewPlayer(testLogger(), WithClockFactory(rec.factory))
	p.Load([]LessonMedia{media})
	p.Play()
	c0 := rec.waitForClock(t, 0)

	c0.advance(4)
	if got := contents(p.Visible()); len(got) != 1 || got[0] != "a" {
		t.Fatalf("visible at 4 = %v, want [a]", got)
	}
	c0.advance(7)
	if got := contents(p.Visible()); len(got) != 1 || got[0] != "b" {
		t.Fatalf("visible at 7 = %v, want [b]", got)
	}
}

func TestPlayerSyncedTimelinePreferred(t *testing.T) {
	media := chunkedLesson(10)
	media.Lesson.BoardActions = types.BoardActionList{text(2, "draft")}
	media.Lesson.BoardActionsSynced = types.BoardActionList{text(2, "synced")}
	p := NewPlayer(testLogger())
	p.Load([]LessonMedia{media})
	p.Seek(3)
	if got := contents(p.Visible()); len(got) != 1 || got[0] != "synced" {
		t.Fatalf("visible=%v, want the corrected timeline", got)
	}
}

func TestSimulatedClockStopsCleanly(t *testing.T) {
	c := NewSimulatedClock(time.Millisecond)
	var mu sync.Mutex
	var last float64
	c.Start(func(pos float64) {
		mu.Lock()
		last = pos
		mu.Unlock()
	})
	time.Sleep(20 * time.Millisecond)
	c.Stop()
	mu.Lock()
	stopped := last
	mu.Unlock()
	if stopped == 0 {
		t.Fatalf("simulated clock never ticked")
	}
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	after := last
	mu.Unlock()
	if after != stopped {
		t.Fatalf("clock ticked after Stop: %v then %v", stopped, after)
	}
	// Stop twice is safe.
	c.Stop()
}

func TestMediaClockDropsAfterStop(t *testing.T) {
	c := NewMediaClock()
	var got []float64
	c.Start(func(pos float64) { got = append(got, pos) })
	c.Advance(1.5)
	c.Stop()
	c.Advance(9.9)
	if len(got) != 1 || got[0] != 1.5 {
		t.Fatalf("ticks=%v, want only the pre-stop position", got)
	}
}
