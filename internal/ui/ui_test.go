package ui

import (
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowaak/workout-runtime/internal/clock"
	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/engine"
	"github.com/lowaak/workout-runtime/internal/format"
	"github.com/lowaak/workout-runtime/internal/plan"
	"github.com/lowaak/workout-runtime/internal/tracking"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testPlan() *plan.WorkoutPlan {
	return &plan.WorkoutPlan{
		Name: "Test day",
		Sections: []plan.Section{
			{
				Label:    "EMOM 4",
				Kind:     plan.SectionMainSet,
				Format:   plan.FormatEMOM,
				Params:   plan.FormatParameters{TotalMinutes: plan.Int(4)},
				Segments: []plan.Segment{{Name: "Burpees", Kind: plan.SegmentStation, TargetReps: plan.Int(10)}},
			},
			{
				Label:    "Finisher",
				Kind:     plan.SectionFinisher,
				Segments: []plan.Segment{{Name: "1 km run", Kind: plan.SegmentRun, TargetDistanceMeters: plan.Float(1000)}},
			},
		},
	}
}

func newTestEngine(t *testing.T) (*engine.Engine, *clock.FakeClock) {
	t.Helper()
	layout, err := plan.NewLayout(testPlan())
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))
	return engine.New(layout, clk, nil, testLogger()), clk
}

// startFunc adapts a function to Starter
type startFunc func()

func (f startFunc) Start() { f() }

func TestGetActionByKey(t *testing.T) {
	tests := []struct {
		key  rune
		want Action
	}{
		{' ', ActionTogglePause},
		{'n', ActionComplete},
		{'s', ActionSkip},
		{'m', ActionNextMovement},
		{'f', ActionFinishSection},
		{'r', ActionReady},
		{'e', ActionEnd},
		{'q', ActionQuit},
	}
	for _, tt := range tests {
		got, ok := GetActionByKey(tt.key)
		require.True(t, ok, "key %q", tt.key)
		assert.Equal(t, tt.want, got)
	}
	_, ok := GetActionByKey('z')
	assert.False(t, ok)

	info, ok := GetActionInfo(ActionReady)
	require.True(t, ok)
	assert.Equal(t, "Ready", info.DisplayName)
}

func TestUIModel_TracksSnapshotsCuesAndLogs(t *testing.T) {
	e, clk := newTestEngine(t)
	logChan := make(chan string, 4)
	model := NewUIModel(e, testLogger(), logChan)
	defer model.Shutdown()

	require.True(t, e.Start())
	assert.Eventually(t, func() bool {
		return model.GetSnapshot().Phase == engine.PhaseRunning
	}, time.Second, 5*time.Millisecond)

	clk.Advance(50 * time.Second)
	require.True(t, e.Tick())
	assert.Eventually(t, func() bool {
		info, ok := model.GetLastCue()
		return ok && info.Cue == cue.TenSecondsWarning
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return model.GetSnapshot().TotalElapsed == 50*time.Second
	}, time.Second, 5*time.Millisecond)

	logChan <- "one\n"
	logChan <- "two\n"
	logChan <- "three\n"
	assert.Eventually(t, func() bool {
		return len(model.GetLogTail(10)) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"two\n", "three\n"}, model.GetLogTail(2))
	assert.Empty(t, model.GetLogTail(0))
}

// fakeSensor hands the registered channel back to the test
type fakeSensor struct {
	ch chan<- companion.RSCMeasurement
}

func (s *fakeSensor) ListenToMeasurements(ch chan<- companion.RSCMeasurement) func() {
	s.ch = ch
	return func() {}
}

func TestUIModel_FollowsSensor(t *testing.T) {
	e, _ := newTestEngine(t)
	model := NewUIModel(e, testLogger(), make(chan string))
	defer model.Shutdown()

	_, ok := model.GetSensorReading()
	assert.False(t, ok)

	readings := make(chan companion.RSCMeasurement, 1)
	model.ListenToSensor(readings)

	sensor := &fakeSensor{}
	model.AttachSensor(sensor)
	require.NotNil(t, sensor.ch)
	sensor.ch <- companion.RSCMeasurement{SpeedMetersPerSecond: 4, CadenceStepsPerMin: 172, Running: true}

	assert.Eventually(t, func() bool {
		reading, ok := model.GetSensorReading()
		return ok && reading.CadenceStepsPerMin == 172
	}, time.Second, 5*time.Millisecond)
	select {
	case reading := <-readings:
		assert.True(t, reading.Running)
	case <-time.After(time.Second):
		t.Fatal("reading not forwarded")
	}
	assert.Panics(t, func() { model.AttachSensor(nil) })
}

func TestUIModel_CloseApplication(t *testing.T) {
	e, _ := newTestEngine(t)
	model := NewUIModel(e, testLogger(), make(chan string))
	defer model.Shutdown()

	ch := make(chan struct{}, 1)
	model.ListenToCloseApplication(ch)
	model.RequestCloseApplication()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("close not signalled")
	}
}

func TestNewUIModel_NilArgumentsPanic(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Panics(t, func() { NewUIModel(nil, testLogger(), make(chan string)) })
	assert.Panics(t, func() { NewUIModel(e, nil, make(chan string)) })
	assert.Panics(t, func() { NewUIModel(e, testLogger(), nil) })
}

func TestUIController_DrivesEngine(t *testing.T) {
	e, clk := newTestEngine(t)
	model := NewUIModel(e, testLogger(), make(chan string))
	defer model.Shutdown()

	starts := 0
	c := NewUIController(model, e, startFunc(func() {
		starts++
		e.Start()
	}), testLogger())

	c.Perform(ActionTogglePause)
	assert.Equal(t, 1, starts)
	assert.Equal(t, engine.PhaseRunning, e.Snapshot().Phase)

	c.Perform(ActionTogglePause)
	assert.True(t, e.Snapshot().Paused)
	c.Perform(ActionTogglePause)
	assert.False(t, e.Snapshot().Paused)

	clk.Advance(30 * time.Second)
	c.Perform(ActionFinishSection)
	assert.Equal(t, engine.PhaseAwaitingReady, e.Snapshot().Phase)

	c.Perform(ActionTogglePause)
	assert.Equal(t, engine.PhaseRunning, e.Snapshot().Phase, "space confirms at the gate")
	assert.Equal(t, "Finisher", e.Snapshot().Section.Label)

	c.Perform(ActionNextMovement)
	c.Perform(ActionComplete)
	assert.Equal(t, engine.PhaseComplete, e.Snapshot().Phase)
	assert.Equal(t, 1, starts)
}

func TestUIController_EscapeEndsThenCloses(t *testing.T) {
	e, _ := newTestEngine(t)
	model := NewUIModel(e, testLogger(), make(chan string))
	defer model.Shutdown()
	closeChan := make(chan struct{}, 1)
	model.ListenToCloseApplication(closeChan)

	c := NewUIController(model, e, startFunc(func() { e.Start() }), testLogger())
	c.Perform(ActionTogglePause)
	c.OnEscapeKey()
	assert.Equal(t, engine.PhaseComplete, e.Snapshot().Phase)
	assert.Len(t, closeChan, 0)

	c.OnEscapeKey()
	assert.Len(t, closeChan, 1)
}

func TestUIController_QuitEndsWorkout(t *testing.T) {
	e, _ := newTestEngine(t)
	model := NewUIModel(e, testLogger(), make(chan string))
	defer model.Shutdown()
	closeChan := make(chan struct{}, 1)
	model.ListenToCloseApplication(closeChan)

	c := NewUIController(model, e, startFunc(func() { e.Start() }), testLogger())
	c.Perform(ActionQuit)
	assert.Equal(t, engine.PhaseComplete, e.Snapshot().Phase)
	assert.Len(t, closeChan, 1)
	record, ok := e.Record()
	require.True(t, ok)
	assert.True(t, record.EndedEarly)
}

func TestNewUIController_NilArgumentsPanic(t *testing.T) {
	e, _ := newTestEngine(t)
	model := NewUIModel(e, testLogger(), make(chan string))
	defer model.Shutdown()
	s := startFunc(func() {})
	assert.Panics(t, func() { NewUIController(nil, e, s, testLogger()) })
	assert.Panics(t, func() { NewUIController(model, nil, s, testLogger()) })
	assert.Panics(t, func() { NewUIController(model, e, nil, testLogger()) })
	assert.Panics(t, func() { NewUIController(model, e, s, nil) })
}

// fakeView records what BaseUIView asks it to render
type fakeView struct {
	mu        sync.Mutex
	overview  PlanOverview
	snapshots []engine.Snapshot
	cues      []cue.Info
	sensors   []companion.RSCMeasurement
	lines     []string
	stopped   bool
}

func (v *fakeView) Initialize(*UIController)            {}
func (v *fakeView) SetupKeyboardHandlers(*UIController) {}
func (v *fakeView) Run() error                          { return nil }
func (v *fakeView) Draw() error                         { return nil }
func (v *fakeView) GetLogViewHeight() int               { return 5 }
func (v *fakeView) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopped = true
}
func (v *fakeView) ClearLogView() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = nil
}
func (v *fakeView) WriteLogLine(line string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lines = append(v.lines, line)
	return nil
}
func (v *fakeView) SetOverview(o PlanOverview) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overview = o
}
func (v *fakeView) UpdateSnapshot(s engine.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshots = append(v.snapshots, s)
}
func (v *fakeView) ShowCue(info cue.Info) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cues = append(v.cues, info)
}
func (v *fakeView) UpdateSensor(reading companion.RSCMeasurement) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sensors = append(v.sensors, reading)
}
func (v *fakeView) lastSnapshot() (engine.Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.snapshots) == 0 {
		return engine.Snapshot{}, false
	}
	return v.snapshots[len(v.snapshots)-1], true
}

func TestBaseUIView_ForwardsModelEvents(t *testing.T) {
	e, _ := newTestEngine(t)
	logChan := make(chan string, 1)
	model := NewUIModel(e, testLogger(), logChan)
	defer model.Shutdown()
	c := NewUIController(model, e, startFunc(func() { e.Start() }), testLogger())

	view := &fakeView{}
	base := NewBaseUIView(NewBaseUIViewArg{
		UIViewImpl:   view,
		UIModel:      model,
		UIController: c,
		Overview:     PlanOverview{Name: "Test day", Sections: e.Sections(), EstimatedDuration: e.EstimatedDuration()},
		Logger:       testLogger(),
	})
	defer base.Shutdown()
	assert.Equal(t, "Test day", view.overview.Name)
	assert.Len(t, view.overview.Sections, 2)

	c.Perform(ActionTogglePause)
	assert.Eventually(t, func() bool {
		snap, ok := view.lastSnapshot()
		return ok && snap.Phase == engine.PhaseRunning
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.cues) > 0
	}, time.Second, 5*time.Millisecond)

	sensor := &fakeSensor{}
	model.AttachSensor(sensor)
	sensor.ch <- companion.RSCMeasurement{SpeedMetersPerSecond: 3, CadenceStepsPerMin: 160}
	assert.Eventually(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.sensors) == 1 && view.sensors[0].CadenceStepsPerMin == 160
	}, time.Second, 5*time.Millisecond)

	logChan <- "Engine: starting\n"
	assert.Eventually(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return len(view.lines) == 1
	}, time.Second, 5*time.Millisecond)

	model.RequestCloseApplication()
	assert.Eventually(t, func() bool {
		view.mu.Lock()
		defer view.mu.Unlock()
		return view.stopped
	}, time.Second, 5*time.Millisecond)
}

func TestFormatDurations(t *testing.T) {
	assert.Equal(t, "05:07", formatDurationMMSS(307*time.Second))
	assert.Equal(t, "62:00", formatDurationMMSS(62*time.Minute))
	assert.Equal(t, "45 min", formatDuration(45*time.Minute))
	assert.Equal(t, "1h", formatDuration(time.Hour))
	assert.Equal(t, "1h 30m", formatDuration(90*time.Minute))
}

func TestFormatSegmentTargets(t *testing.T) {
	seg := plan.Segment{Name: "Run", Kind: plan.SegmentRun, TargetDistanceMeters: plan.Float(1000)}
	assert.Equal(t, "1.00 km", formatSegmentTargets(seg))

	seg = plan.Segment{Name: "Wall balls", TargetReps: plan.Int(100), TargetWeightKg: plan.Float(6)}
	assert.Equal(t, "100 reps / 6.0 kg", formatSegmentTargets(seg))
	assert.Empty(t, formatSegmentTargets(plan.Segment{Name: "Rest"}))
}

func TestFormatWorkoutPanel(t *testing.T) {
	e, clk := newTestEngine(t)
	assert.Contains(t, formatWorkoutPanel(e.Snapshot()), "Ready to start")

	require.True(t, e.Start())
	clk.Advance(75 * time.Second)
	text := formatWorkoutPanel(e.Snapshot())
	assert.Contains(t, text, "Test day")
	assert.Contains(t, text, "EMOM 4 (EMOM)")
	assert.Contains(t, text, "Minute 1 / 4")
	assert.Contains(t, text, "Burpees")
	assert.Contains(t, text, "10 reps")

	require.True(t, e.CompleteSection())
	text = formatWorkoutPanel(e.Snapshot())
	assert.Contains(t, text, "Up next:[white] Finisher")

	require.True(t, e.ConfirmReadyForNextSection())
	require.True(t, e.Pause())
	assert.Contains(t, formatWorkoutPanel(e.Snapshot()), "(PAUSED)")

	require.True(t, e.EndWorkout())
	text = formatWorkoutPanel(e.Snapshot())
	assert.Contains(t, text, "complete")
	assert.Contains(t, text, "partial")
}

func TestFormatFormatDisplay(t *testing.T) {
	text := formatFormatDisplay(format.Display{Format: plan.FormatTabata, IsWorkPhase: true, PhaseSecondsRemaining: 12, Round: 3, TotalRounds: 8})
	assert.Contains(t, text, "WORK")
	assert.Contains(t, text, "00:12")
	assert.Contains(t, text, "round 3 / 8")

	text = formatFormatDisplay(format.Display{Format: plan.FormatAMRAP, HasCountdown: true, SecondsRemaining: 90, RoundsCompleted: 4})
	assert.Contains(t, text, "Rounds done: 4")
	assert.Contains(t, text, "01:30")

	text = formatFormatDisplay(format.Display{Format: plan.FormatForTime, Elapsed: 61})
	assert.Contains(t, text, "Clock:[white] 01:01")

	text = formatFormatDisplay(format.Display{Format: plan.FormatForTime, HasCountdown: true, CapReached: true, Finished: true})
	assert.Contains(t, text, "Time cap reached")
	assert.NotContains(t, text, "Remaining")
}

func TestFormatPaceRouteAndSensor(t *testing.T) {
	assert.Equal(t, "4:10 /km", formatPace(250))
	assert.Equal(t, "--:-- /km", formatPace(0))

	route := plan.RouteSummary{DistanceMeters: 2000, Duration: 10 * time.Minute, Source: plan.RouteSourceLocal}
	assert.Equal(t, "2.00 km in 10:00, 5:00 /km [gray](local)[white]", formatRoute(route))

	assert.Equal(t, "[gray]No running sensor[white]", formatSensor(nil))
	text := formatSensor(&companion.RSCMeasurement{SpeedMetersPerSecond: 4, CadenceStepsPerMin: 176, Running: true})
	assert.Contains(t, text, "4:10 /km")
	assert.Contains(t, text, "176 spm")
	assert.Contains(t, text, "running")
	assert.Contains(t, formatSensor(&companion.RSCMeasurement{}), "--:-- /km")
}

func TestFormatWorkoutPanel_LastRun(t *testing.T) {
	layout, err := plan.NewLayout(testPlan())
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC))
	tracker := tracking.NewSimulatedTracker(testLogger(), clk, tracking.SimulatedTrackerConfig{SpeedMetersPerSecond: 4})
	e := engine.New(layout, clk, tracker, testLogger())

	require.True(t, e.Start())
	require.True(t, e.CompleteSection())
	require.True(t, e.ConfirmReadyForNextSection())
	assert.NotContains(t, formatWorkoutPanel(e.Snapshot()), "Last run")

	clk.Advance(250 * time.Second)
	require.True(t, e.CompleteCurrentSegment())
	text := formatWorkoutPanel(e.Snapshot())
	assert.Contains(t, text, "complete")
	assert.Contains(t, text, "Last run:[white]   1.00 km in 04:10, 4:10 /km")
}

func TestFormatSectionList(t *testing.T) {
	e, _ := newTestEngine(t)
	sections := e.Sections()

	text := formatSectionList(sections, 1, engine.PhaseRunning)
	assert.Contains(t, text, "✓[white] EMOM 4 (EMOM)")
	assert.Contains(t, text, "▶ Finisher")

	text = formatSectionList(sections, 1, engine.PhaseComplete)
	assert.NotContains(t, text, "▶")
}

func TestFormatCueAndKeyHelp(t *testing.T) {
	info, ok := cue.GetInfo(cue.TimeCapReached)
	require.True(t, ok)
	assert.Equal(t, "[red::b]Time cap[-:-:-]", formatCue(info))

	help := formatKeyHelp()
	for _, a := range AllActions {
		assert.Contains(t, help, a.DisplayName)
	}
}
