// Package engine executes a workout plan in real time. One Engine owns the
// execution state; every tick and every user operation runs under its lock,
// and the resulting snapshot and cues are published after the lock is
// released, in the order the operations ran.
package engine

import (
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lowaak/workout-runtime/internal/clock"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/events"
	"github.com/lowaak/workout-runtime/internal/format"
	"github.com/lowaak/workout-runtime/internal/plan"
	"github.com/lowaak/workout-runtime/internal/tracking"
)

// Engine runs one workout. It takes ownership of the layout it is given and
// writes the actual fields of its segments.
type Engine struct {
	layout        *plan.Layout
	clock         clock.Clock
	shim          *tracking.Shim
	cues          *cue.Dispatcher
	snapshotEvent *events.ChannelEvent[Snapshot]
	logger        *log.Logger
	id            uuid.UUID

	// publishMu is taken before mu and held until an operation's cues and
	// snapshot are out
	publishMu sync.Mutex

	// Execution state (protected by mu)
	mu               sync.Mutex
	phase            Phase
	paused           bool
	current          int
	pendingSection   int // -1 when the gate has no section to move on to
	completed        map[int]bool
	skipped          map[int]bool
	startedAt        time.Time
	endedAt          time.Time
	sectionStartedAt time.Time
	total            stopwatch
	section          stopwatch
	segment          stopwatch
	finalElapsed     time.Duration
	format           format.State
	sections         []SectionResult
	routes           []plan.RouteSummary
	classification   Classification
	endedEarly       bool
	version          uint64
}

// New creates an Engine for layout. tracker may be nil when no location
// service exists.
func New(layout *plan.Layout, clk clock.Clock, tracker tracking.Tracker, logger *log.Logger) *Engine {
	if layout == nil {
		panic("Engine: layout cannot be nil")
	}
	if clk == nil {
		panic("Engine: clock cannot be nil")
	}
	if logger == nil {
		panic("Engine: logger cannot be nil")
	}
	return &Engine{
		layout:         layout,
		clock:          clk,
		shim:           tracking.NewShim(tracker, logger),
		cues:           cue.NewDispatcher(logger),
		snapshotEvent:  events.NewChannelEvent[Snapshot](true),
		logger:         logger,
		id:             uuid.New(),
		pendingSection: -1,
		completed:      make(map[int]bool),
		skipped:        make(map[int]bool),
	}
}

// apply runs op under the lock. When op reports a change, the new snapshot
// and op's cues are published once the lock is released.
func (e *Engine) apply(op func(now time.Time) ([]cue.Cue, bool)) bool {
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	e.mu.Lock()
	now := e.clock.Now()
	cues, changed := op(now)
	var snap Snapshot
	if changed {
		snap = e.buildSnapshot(now)
	}
	e.mu.Unlock()

	if !changed {
		return false
	}
	e.cues.Dispatch(cues...)
	e.snapshotEvent.Notify(snap)
	return true
}

// --- Operations ---

// Start begins the first segment and its section
func (e *Engine) Start() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if e.phase != PhaseNotStarted {
			e.logger.Printf("Engine: Start ignored in phase %v", e.phase)
			return nil, false
		}
		e.logger.Printf("Engine: starting %q (%d segments, %d sections)",
			e.layout.Name(), e.layout.SegmentCount(), e.layout.SectionCount())
		e.phase = PhaseRunning
		e.startedAt = now
		e.total = newStopwatch(now)
		return e.enterSection(0, now), true
	})
}

// Tick re-evaluates the clock. It only has an effect while running and not
// paused; each call publishes a fresh snapshot.
func (e *Engine) Tick() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if e.phase != PhaseRunning || e.paused {
			return nil, false
		}
		return e.advanceFormat(now), true
	})
}

// Pause freezes every elapsed-time accumulator
func (e *Engine) Pause() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if e.phase != PhaseRunning || e.paused {
			return nil, false
		}
		e.paused = true
		e.total.hold(now)
		e.section.hold(now)
		e.segment.hold(now)
		e.logger.Println("Engine: paused")
		return []cue.Cue{cue.Paused}, true
	})
}

// Resume continues accumulation. The paused span never counts as elapsed time.
func (e *Engine) Resume() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if !e.paused {
			return nil, false
		}
		e.paused = false
		e.total.release(now)
		e.section.release(now)
		e.segment.release(now)
		e.logger.Println("Engine: resumed")
		return []cue.Cue{cue.Resumed}, true
	})
}

// CompleteCurrentSegment completes the current segment. In AMRAP, Rounds and
// round-based For-Time sections it completes a round instead.
func (e *Engine) CompleteCurrentSegment() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if !e.canProgress("CompleteCurrentSegment") {
			return nil, false
		}
		if e.format != nil {
			next, cues, outcome, handled := e.format.CompleteRound()
			if handled {
				e.format = next
				if outcome == format.Finished {
					return append(cues, e.finishSection(now, true)...), true
				}
				e.moveTo(e.layout.SectionOf(e.current).Start, now)
				return cues, true
			}
		}

		idx := e.current
		e.leaveRun()
		e.stamp(idx, e.segment.elapsed(now), now)
		e.logger.Printf("Engine: segment %d %q complete", idx, e.layout.Segment(idx).Name)
		return append([]cue.Cue{cue.SegmentComplete}, e.advancePast(idx, now)...), true
	})
}

// SkipCurrentSegment advances without marking the segment complete
func (e *Engine) SkipCurrentSegment() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if !e.canProgress("SkipCurrentSegment") {
			return nil, false
		}
		idx := e.current
		e.leaveRun()
		// movements come round again in a cycling section; the format finish
		// stamps them
		if (e.format == nil || !e.format.CyclesMovements()) && !e.completed[idx] {
			e.skipped[idx] = true
		}
		e.logger.Printf("Engine: segment %d %q skipped", idx, e.layout.Segment(idx).Name)
		return append([]cue.Cue{cue.Skipped}, e.advancePast(idx, now)...), true
	})
}

// AdvanceMovement moves to the next movement of the current round, wrapping
// to the first. Only round-based sections have movements.
func (e *Engine) AdvanceMovement() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if !e.canProgress("AdvanceMovement") {
			return nil, false
		}
		if e.format == nil || !e.format.CyclesMovements() {
			e.logger.Println("Engine: AdvanceMovement ignored, section has no movement cycle")
			return nil, false
		}
		sec := e.layout.SectionOf(e.current)
		next := e.current + 1
		if next >= sec.End {
			next = sec.Start
		}
		e.moveTo(next, now)
		return []cue.Cue{cue.NextMovement}, true
	})
}

// CompleteSection ends the current formatted section now, as if its format
// had run out
func (e *Engine) CompleteSection() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if !e.canProgress("CompleteSection") {
			return nil, false
		}
		if e.format == nil {
			e.logger.Println("Engine: CompleteSection ignored, section has no format")
			return nil, false
		}
		return append([]cue.Cue{cue.SectionComplete}, e.finishSection(now, false)...), true
	})
}

// ConfirmReadyForNextSection leaves the section gate. Calls outside the gate
// are ignored.
func (e *Engine) ConfirmReadyForNextSection() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if e.phase != PhaseAwaitingReady {
			e.logger.Printf("Engine: ConfirmReadyForNextSection ignored in phase %v", e.phase)
			return nil, false
		}
		if e.pendingSection < 0 {
			return e.complete(now, false), true
		}
		next := e.layout.Section(e.pendingSection)
		e.pendingSection = -1
		e.phase = PhaseRunning
		e.total.release(now)
		e.logger.Printf("Engine: ready for section %q", next.Label)
		return e.enterSection(next.Index, now), true
	})
}

// EndWorkout finalizes the workout from any state. It is only ignored once
// the workout is already complete.
func (e *Engine) EndWorkout() bool {
	return e.apply(func(now time.Time) ([]cue.Cue, bool) {
		if e.phase == PhaseComplete {
			return nil, false
		}
		if e.phase == PhaseNotStarted {
			e.startedAt = now
			e.total = newStopwatch(now)
			e.section = newStopwatch(now)
			e.segment = newStopwatch(now)
		}
		if len(e.sections) > 0 {
			e.closeSection(now, false)
		}
		return e.complete(now, true), true
	})
}

// --- Queries ---

// Snapshot returns the current read-model
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildSnapshot(e.clock.Now())
}

// Record returns the completed workout record. ok is false until the
// workout is complete.
func (e *Engine) Record() (Record, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseComplete {
		return Record{}, false
	}

	completedMain, totalMain, pct := e.mainCompletion()
	r := Record{
		ID:                e.id,
		PlanName:          e.layout.Name(),
		StartedAt:         e.startedAt,
		EndedAt:           e.endedAt,
		TotalElapsed:      e.finalElapsed,
		Segments:          e.layout.Segments(),
		Completed:         sortedKeys(e.completed),
		Skipped:           sortedKeys(e.skipped),
		Sections:          slices.Clone(e.sections),
		CompletedMain:     completedMain,
		TotalMain:         totalMain,
		MainCompletionPct: pct,
		Classification:    e.classification,
		EndedEarly:        e.endedEarly,
		Routes:            slices.Clone(e.routes),
	}
	return r, true
}

// Sections lists the plan's sections
func (e *Engine) Sections() []plan.SectionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]plan.SectionInfo, e.layout.SectionCount())
	for i := range out {
		out[i] = e.layout.Section(i)
	}
	return out
}

// EstimatedDuration returns the planned duration of the workout
func (e *Engine) EstimatedDuration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout.EstimatedDuration()
}

// ListenToSnapshot registers a channel to receive snapshots. The latest
// snapshot is sent on registration. Returns a deregistration function.
func (e *Engine) ListenToSnapshot(ch chan<- Snapshot) func() {
	return e.snapshotEvent.Listen(ch)
}

// ListenToCues registers a channel to receive cues. Cue batches arrive in
// the order their operations ran.
func (e *Engine) ListenToCues(ch chan<- cue.Cue) func() {
	return e.cues.ListenToCues(ch)
}

// OnCue registers a callback for cues. Callbacks run on the goroutine that
// triggered the cue, after the state lock is released but before the next
// operation publishes. They may query Snapshot but must not run operations
// synchronously.
func (e *Engine) OnCue(callback func(cue.Cue)) func() {
	return e.cues.OnCue(callback)
}

// --- Private methods (caller must hold mu) ---

func (e *Engine) canProgress(op string) bool {
	if e.phase != PhaseRunning || e.paused {
		e.logger.Printf("Engine: %s ignored in phase %v (paused=%v)", op, e.phase, e.paused)
		return false
	}
	return true
}

// enterSection starts section index at its first segment
func (e *Engine) enterSection(index int, now time.Time) []cue.Cue {
	sec := e.layout.Section(index)
	e.leaveRun()
	e.section.restart(now, false)
	e.sectionStartedAt = now
	e.format = format.New(sec.Format, sec.Params)
	e.sections = append(e.sections, SectionResult{
		Index:  sec.Index,
		Label:  sec.Label,
		Kind:   sec.Kind,
		Format: sec.Format,
	})
	e.enterSegment(sec.Start, now)
	if sec.HasFormat() {
		e.logger.Printf("Engine: section %q (%s)", sec.Label, sec.Format.DisplayName())
	} else {
		e.logger.Printf("Engine: section %q", sec.Label)
	}

	cues := []cue.Cue{cue.SectionStarted}
	return append(cues, e.advanceFormat(now)...)
}

// enterSegment makes index the current segment. The previous segment's run,
// if any, must already be closed.
func (e *Engine) enterSegment(index int, now time.Time) {
	seg := e.layout.Segment(index)
	e.current = index
	e.segment.restart(now, e.paused)
	if seg.StartedAt == nil {
		t := now
		seg.StartedAt = &t
	}
	if seg.IsRun() {
		seg.RouteSource = e.shim.EnterRun()
	}
}

// moveTo changes the movement cursor within the current section
func (e *Engine) moveTo(index int, now time.Time) {
	if index == e.current {
		e.segment.restart(now, e.paused)
		return
	}
	e.leaveRun()
	e.enterSegment(index, now)
}

// leaveRun closes the shim's run for the current segment and attaches the
// route it produced
func (e *Engine) leaveRun() {
	if !e.shim.InRun() {
		return
	}
	summary, source := e.shim.LeaveRun()
	seg := e.layout.Segment(e.current)
	seg.RouteSource = source
	if summary == nil {
		return
	}
	seg.Route = mergeRoute(seg.Route, *summary)
	e.routes = append(e.routes, *summary)
}

func mergeRoute(existing *plan.RouteSummary, add plan.RouteSummary) *plan.RouteSummary {
	if existing == nil {
		return &add
	}
	merged := *existing
	merged.DistanceMeters += add.DistanceMeters
	merged.Duration += add.Duration
	merged.ElevationGainMeters += add.ElevationGainMeters
	merged.Points += add.Points
	return &merged
}

// stamp marks index complete with the given actual duration
func (e *Engine) stamp(index int, actual time.Duration, now time.Time) {
	seg := e.layout.Segment(index)
	d := actual.Truncate(time.Second)
	seg.ActualDuration = &d
	if seg.StartedAt == nil {
		t := e.sectionStartedAt
		seg.StartedAt = &t
	}
	end := now
	seg.EndedAt = &end
	e.completed[index] = true
	delete(e.skipped, index)
}

// advancePast moves on from a segment that was completed or skipped. A
// bounded format keeps the cursor in its section: past the last segment it
// wraps to the first, and only the format or CompleteSection ends the section.
func (e *Engine) advancePast(index int, now time.Time) []cue.Cue {
	if e.format != nil && e.format.Bounded() {
		sec := e.layout.SectionOf(index)
		next := index + 1
		if !sec.Contains(next) {
			next = sec.Start
		}
		e.enterSegment(next, now)
		return nil
	}
	if e.layout.IsLast(index) {
		e.closeSection(now, false)
		return e.complete(now, false)
	}
	sec := e.layout.SectionOf(index)
	next := index + 1
	if !sec.Contains(next) {
		e.closeSection(now, false)
		e.enterGate(sec.Index+1, now)
		return nil
	}
	e.enterSegment(next, now)
	return nil
}

// advanceFormat feeds the section clock to the active format
func (e *Engine) advanceFormat(now time.Time) []cue.Cue {
	if e.format == nil {
		return nil
	}
	next, cues, outcome := e.format.Advance(wholeSeconds(e.section.elapsed(now)))
	e.format = next
	if outcome == format.Finished {
		cues = append(cues, e.finishSection(now, true)...)
	}
	return cues
}

// finishSection ends the current formatted section: every segment not yet
// completed or skipped is stamped, then the gate is entered
func (e *Engine) finishSection(now time.Time, byFormat bool) []cue.Cue {
	sec := e.layout.SectionOf(e.current)
	elapsed := e.section.elapsed(now)
	e.leaveRun()
	for i := sec.Start; i < sec.End; i++ {
		if e.completed[i] || e.skipped[i] {
			continue
		}
		e.stamp(i, elapsed, now)
	}
	e.closeSection(now, byFormat)
	e.logger.Printf("Engine: section %q finished after %v", sec.Label, elapsed.Truncate(time.Second))

	next := sec.Index + 1
	if next >= e.layout.SectionCount() {
		next = -1
	}
	e.enterGate(next, now)
	return nil
}

func (e *Engine) closeSection(now time.Time, byFormat bool) {
	if len(e.sections) == 0 {
		return
	}
	r := &e.sections[len(e.sections)-1]
	if r.closed {
		return
	}
	r.closed = true
	r.Elapsed = e.section.elapsed(now).Truncate(time.Second)
	r.FinishedByFormat = byFormat
	if e.format != nil {
		d := e.format.Display()
		r.RoundsCompleted = d.RoundsCompleted
		r.CapReached = d.CapReached
	}
}

// enterGate suspends progression until ConfirmReadyForNextSection. The wait
// does not count as elapsed time.
func (e *Engine) enterGate(pendingSection int, now time.Time) {
	e.phase = PhaseAwaitingReady
	e.pendingSection = pendingSection
	e.paused = false
	e.total.hold(now)
	e.section.hold(now)
	e.segment.hold(now)
	if pendingSection >= 0 {
		e.logger.Printf("Engine: awaiting ready for section %q", e.layout.Section(pendingSection).Label)
	} else {
		e.logger.Println("Engine: awaiting ready, no sections left")
	}
}

// complete finalizes the workout
func (e *Engine) complete(now time.Time, early bool) []cue.Cue {
	e.leaveRun()
	e.total.hold(now)
	e.section.hold(now)
	e.segment.hold(now)
	e.phase = PhaseComplete
	e.paused = false
	e.pendingSection = -1
	e.endedAt = now
	e.finalElapsed = e.total.elapsed(now).Truncate(time.Second)
	e.endedEarly = early

	_, _, pct := e.mainCompletion()
	if early || pct < 100 {
		e.classification = Classify(pct, e.finalElapsed)
	} else {
		e.classification = ClassificationFull
	}
	e.logger.Printf("Engine: workout complete after %v, main completion %.0f%%, %s",
		e.finalElapsed, pct, e.classification)
	return []cue.Cue{cue.WorkoutComplete}
}

func (e *Engine) mainCompletion() (completed, total int, pct float64) {
	total = e.layout.MainCount()
	for i := range e.completed {
		if e.layout.Segment(i).Kind.IsMain() {
			completed++
		}
	}
	if total == 0 {
		return completed, total, 100
	}
	return completed, total, 100 * float64(completed) / float64(total)
}

func (e *Engine) buildSnapshot(now time.Time) Snapshot {
	e.version++
	s := Snapshot{
		Version:        e.version,
		Phase:          e.phase,
		Paused:         e.paused,
		PlanName:       e.layout.Name(),
		SegmentIndex:   e.current,
		SegmentCount:   e.layout.SegmentCount(),
		Segment:        e.layout.Segment(e.current).Clone(),
		Section:        e.layout.SectionOf(e.current),
		SectionCount:   e.layout.SectionCount(),
		Classification: e.classification,
	}
	if e.phase != PhaseNotStarted {
		s.TotalElapsed = e.total.elapsed(now).Truncate(time.Second)
		s.SectionElapsed = e.section.elapsed(now).Truncate(time.Second)
		s.SegmentElapsed = e.segment.elapsed(now).Truncate(time.Second)
	}
	if e.phase == PhaseComplete {
		s.TotalElapsed = e.finalElapsed
	}
	if e.phase == PhaseAwaitingReady && e.pendingSection >= 0 {
		next := e.layout.Section(e.pendingSection)
		s.NextSection = &next
	}
	if e.format != nil {
		d := e.format.Display()
		s.Format = &d
	}
	if n := len(e.routes); n > 0 {
		last := e.routes[n-1]
		s.LastRoute = &last
	}
	s.CompletedMain, s.TotalMain, s.MainCompletionPct = e.mainCompletion()
	return s
}

func sortedKeys(m map[int]bool) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
