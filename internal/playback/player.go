package playback

import (
	"sync"
	"time"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/logger"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/types"
)

// State names one phase of the playback machine.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
)

const (
	// DefaultChunkPause separates sequential audio chunks of one lesson.
	DefaultChunkPause = 700 * time.Millisecond
	// DefaultLessonPause separates lessons in a playlist.
	DefaultLessonPause = 1500 * time.Millisecond
)

// LessonMedia bundles what the player needs for one lesson: the record (for
// its action timelines) and, when audio was delivered chunked, the manifest.
type LessonMedia struct {
	Lesson   *types.Lesson
	Manifest *types.AudioPlaylistManifest
}

// Timeline picks the corrected action sequence when re-sync produced one,
// falling back to the draft sequence otherwise.
func (m LessonMedia) Timeline() []types.BoardAction {
	if len(m.Lesson.BoardActionsSynced) > 0 {
		return m.Lesson.BoardActionsSynced
	}
	return m.Lesson.BoardActions
}

// ClockFactory builds the position source for one lesson. The default uses a
// MediaClock when the lesson has real audio and a SimulatedClock otherwise,
// so a lesson whose synthesis failed still previews its visuals.
type ClockFactory func(media LessonMedia) Clock

func defaultClockFactory(media LessonMedia) Clock {
	if media.Lesson != nil && media.Lesson.AudioURL != nil {
		return NewMediaClock()
	}
	return NewSimulatedClock(DefaultTickInterval)
}

// Player drives visual state from audio position for a playlist of lessons.
// All state is owned here and reachable only through methods; there is no
// ambient global store. Reset returns the player to idle and is the only way
// state is cleared.
type Player struct {
	mu  sync.Mutex
	log *logger.Logger

	state      State
	lessons    []LessonMedia
	lessonIdx  int
	chunkIdx   int
	lessonTime float64

	clock      Clock
	newClock   ClockFactory
	generation int

	chunkPause  time.Duration
	lessonPause time.Duration
	pauseTimer  *time.Timer

	// onRender receives the visible action set after every position change;
	// onState receives state transitions. Both may be nil.
	onRender func(visible []types.BoardAction)
	onState  func(s State)
}

type PlayerOption func(*Player)

func WithClockFactory(f ClockFactory) PlayerOption {
	return func(p *Player) { p.newClock = f }
}

func WithPauses(chunkPause, lessonPause time.Duration) PlayerOption {
	return func(p *Player) {
		p.chunkPause = chunkPause
		p.lessonPause = lessonPause
	}
}

func WithRenderFunc(f func(visible []types.BoardAction)) PlayerOption {
	return func(p *Player) { p.onRender = f }
}

func WithStateFunc(f func(s State)) PlayerOption {
	return func(p *Player) { p.onState = f }
}

func NewPlayer(baseLog *logger.Logger, opts ...PlayerOption) *Player {
	p := &Player{
		log:         baseLog.With("component", "Player"),
		state:       StateIdle,
		newClock:    defaultClockFactory,
		chunkPause:  DefaultChunkPause,
		lessonPause: DefaultLessonPause,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Load replaces the playlist. Any running clock or pending pause timer from
// a previous playlist is stopped first.
func (p *Player) Load(lessons []LessonMedia) {
	p.mu.Lock()
	p.stopLocked()
	p.lessons = lessons
	p.lessonIdx = 0
	p.chunkIdx = 0
	p.lessonTime = 0
	if len(lessons) == 0 {
		p.setStateLocked(StateIdle)
		p.mu.Unlock()
		return
	}
	p.setStateLocked(StateLoading)
	p.setStateLocked(StateReady)
	p.mu.Unlock()
}

// Play starts or resumes playback of the current lesson.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady && p.state != StatePaused {
		return
	}
	p.startClockLocked()
	p.setStateLocked(StatePlaying)
}

// Pause halts the clock and any pending chunk/lesson advance.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePlaying {
		return
	}
	p.stopLocked()
	p.setStateLocked(StatePaused)
}

// Seek moves within the current lesson's timeline, picking the chunk that
// contains the target position when audio is chunked.
func (p *Player) Seek(pos float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lessons) == 0 {
		return
	}
	p.cancelPauseTimerLocked()
	if pos < 0 {
		pos = 0
	}
	p.lessonTime = pos
	media := p.lessons[p.lessonIdx]
	local := pos
	if media.Manifest != nil && len(media.Manifest.Chunks) > 0 {
		p.chunkIdx = chunkIndexAt(media.Manifest, pos)
		local = pos - media.Manifest.Chunks[p.chunkIdx].StartTime
	}
	if p.clock != nil {
		p.clock.Seek(local)
	} else if p.state == StatePlaying || p.state == StateEnded {
		// The seek cancelled a pending chunk/lesson advance; without a
		// restart the player would have no position source left.
		p.startClockLocked()
		p.setStateLocked(StatePlaying)
	}
	p.renderLocked()
}

// Reset stops everything and returns to idle, dropping the playlist.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.lessons = nil
	p.lessonIdx = 0
	p.chunkIdx = 0
	p.lessonTime = 0
	p.setStateLocked(StateIdle)
}

// MediaAdvance forwards a real audio element position into the running
// MediaClock, if that is the active clock kind.
func (p *Player) MediaAdvance(pos float64) {
	p.mu.Lock()
	mc, ok := p.clock.(*MediaClock)
	p.mu.Unlock()
	if ok {
		mc.Advance(pos)
	}
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// CurrentTime is the position on the current lesson's unified timeline
// (chunk start offset plus chunk-local position).
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lessonTime
}

func (p *Player) LessonIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lessonIdx
}

// Visible returns the action set drawn at the current position.
func (p *Player) Visible() []types.BoardAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.lessons) == 0 {
		return nil
	}
	return VisibleActions(p.lessons[p.lessonIdx].Timeline(), p.lessonTime)
}

func (p *Player) setStateLocked(s State) {
	if p.state == s {
		return
	}
	p.state = s
	if p.onState != nil {
		p.onState(s)
	}
}

func (p *Player) renderLocked() {
	if p.onRender == nil || len(p.lessons) == 0 {
		return
	}
	p.onRender(VisibleActions(p.lessons[p.lessonIdx].Timeline(), p.lessonTime))
}

// startClockLocked builds and starts the clock for the current lesson. The
// generation counter fences late ticks from a clock that has since been
// stopped (e.g. a stale simulated interval after a lesson switch).
func (p *Player) startClockLocked() {
	if p.clock != nil {
		return
	}
	media := p.lessons[p.lessonIdx]
	p.clock = p.newClock(media)
	p.generation++
	gen := p.generation
	local := p.lessonTime
	if media.Manifest != nil && len(media.Manifest.Chunks) > p.chunkIdx {
		local = p.lessonTime - media.Manifest.Chunks[p.chunkIdx].StartTime
	}
	p.clock.Seek(local)
	p.clock.Start(func(pos float64) {
		p.onTick(gen, pos)
	})
}

// stopLocked halts the active clock and cancels any pending advance timer.
func (p *Player) stopLocked() {
	if p.clock != nil {
		p.clock.Stop()
		p.clock = nil
	}
	p.cancelPauseTimerLocked()
}

func (p *Player) cancelPauseTimerLocked() {
	if p.pauseTimer != nil {
		p.pauseTimer.Stop()
		p.pauseTimer = nil
	}
}

// onTick maps a chunk-local position onto the lesson timeline and handles
// chunk and lesson boundaries.
func (p *Player) onTick(gen int, chunkPos float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation || p.state != StatePlaying || len(p.lessons) == 0 {
		return
	}

	media := p.lessons[p.lessonIdx]

	chunkStart := 0.0
	chunkEnd := lessonDuration(media)
	if media.Manifest != nil && p.chunkIdx < len(media.Manifest.Chunks) {
		c := media.Manifest.Chunks[p.chunkIdx]
		chunkStart = c.StartTime
		chunkEnd = c.Duration
	}

	p.lessonTime = chunkStart + chunkPos
	p.renderLocked()

	if chunkEnd > 0 && chunkPos >= chunkEnd {
		p.finishChunkLocked(media)
	}
}

// finishChunkLocked handles the end of the current chunk: advance to the
// next chunk after a short pause, to the next lesson after a longer one, or
// end playback.
func (p *Player) finishChunkLocked(media LessonMedia) {
	p.stopLocked()

	hasMoreChunks := media.Manifest != nil && p.chunkIdx+1 < len(media.Manifest.Chunks)
	if hasMoreChunks {
		p.chunkIdx++
		p.lessonTime = media.Manifest.Chunks[p.chunkIdx].StartTime
		p.scheduleResumeLocked(p.chunkPause)
		return
	}

	if p.lessonIdx+1 < len(p.lessons) {
		p.setStateLocked(StateEnded)
		p.lessonIdx++
		p.chunkIdx = 0
		p.lessonTime = 0
		p.scheduleResumeLocked(p.lessonPause)
		return
	}

	p.setStateLocked(StateEnded)
	p.setStateLocked(StateIdle)
}

// scheduleResumeLocked restarts playback after the configured gap. The timer
// is tracked so Pause/Seek/Reset can cancel the pending advance.
func (p *Player) scheduleResumeLocked(delay time.Duration) {
	gen := p.generation
	p.pauseTimer = time.AfterFunc(delay, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if gen != p.generation || p.state != StatePlaying && p.state != StateEnded {
			return
		}
		p.pauseTimer = nil
		p.startClockLocked()
		p.setStateLocked(StatePlaying)
	})
}

func lessonDuration(media LessonMedia) float64 {
	if media.Manifest != nil {
		return media.Manifest.TotalDuration
	}
	if media.Lesson != nil {
		return media.Lesson.Duration
	}
	return 0
}

// chunkIndexAt locates the chunk containing a lesson-timeline position.
func chunkIndexAt(m *types.AudioPlaylistManifest, pos float64) int {
	idx := 0
	for i, c := range m.Chunks {
		if pos >= c.StartTime {
			idx = i
		}
	}
	return idx
}
