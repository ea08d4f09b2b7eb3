package plan

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hybridPlanYAML = `
name: Hybrid Engine
sections:
  - label: Warm-up
    kind: warmup
    segments:
      - name: Easy jog
        kind: warmup
        target_duration_seconds: 300
  - label: EMOM 16
    kind: main_set
    format: emom
    params:
      total_minutes: 16
    segments:
      - name: Wall balls
        kind: station
        target_reps: 15
      - name: Burpees
        kind: station
        target_reps: 10
  - label: Run finish
    kind: finisher
    segments:
      - name: 1k run
        kind: run
        target_distance_meters: 1000
        target_duration_seconds: 270
      - name: Stretch
        kind: cooldown
        target_duration_seconds: 120
`

func TestParse_Sections(t *testing.T) {
	p, err := Parse([]byte(hybridPlanYAML))
	require.NoError(t, err)

	assert.Equal(t, "Hybrid Engine", p.Name)
	require.Len(t, p.Sections, 3)
	assert.Equal(t, FormatEMOM, p.Sections[1].Format)
	require.NotNil(t, p.Sections[1].Params.TotalMinutes)
	assert.Equal(t, 16, *p.Sections[1].Params.TotalMinutes)
	assert.Equal(t, SegmentRun, p.Sections[2].Segments[0].Kind)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(hybridPlanYAML), 0644))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Hybrid Engine", p.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		plan WorkoutPlan
		want error
	}{
		{
			name: "empty",
			plan: WorkoutPlan{Name: "nothing"},
			want: ErrEmptyPlan,
		},
		{
			name: "empty section",
			plan: WorkoutPlan{Sections: []Section{{Label: "a", Kind: SectionMainSet}}},
			want: ErrEmptySection,
		},
		{
			name: "unknown format",
			plan: WorkoutPlan{Sections: []Section{{Label: "a", Kind: SectionMainSet, Format: "ladder",
				Segments: []Segment{{Name: "x", Kind: SegmentStation}}}}},
			want: ErrUnknownFormat,
		},
		{
			name: "unknown segment kind",
			plan: WorkoutPlan{Segments: []Segment{{Name: "x", Kind: "swim"}}},
			want: ErrUnknownSegmentKind,
		},
		{
			name: "format on warmup",
			plan: WorkoutPlan{Sections: []Section{{Label: "a", Kind: SectionWarmup, Format: FormatEMOM,
				Segments: []Segment{{Name: "x", Kind: SegmentWarmup}}}}},
			want: ErrFormatNotAllowed,
		},
		{
			name: "sections disagree with flat list",
			plan: WorkoutPlan{
				Sections: []Section{{Label: "a", Kind: SectionMainSet, Segments: []Segment{{Name: "x", Kind: SegmentStation}}}},
				Segments: []Segment{{Name: "y", Kind: SegmentStation}},
			},
			want: ErrSectionMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.plan.Validate(), tt.want)
		})
	}
}

func TestNewLayout_FlatPlanBecomesOneSection(t *testing.T) {
	p := &WorkoutPlan{
		Name: "Intervals",
		Segments: []Segment{
			{Name: "Run", Kind: SegmentRun},
			{Name: "Rest", Kind: SegmentRest},
		},
	}
	l, err := NewLayout(p)
	require.NoError(t, err)

	assert.Equal(t, 1, l.SectionCount())
	assert.Equal(t, 2, l.SegmentCount())
	assert.Equal(t, "Intervals", l.Section(0).Label)
	assert.False(t, l.Section(0).HasFormat())
	assert.Equal(t, 1, l.MainCount())
}

func TestNewLayout_SectionBoundaries(t *testing.T) {
	p, err := Parse([]byte(hybridPlanYAML))
	require.NoError(t, err)
	l, err := NewLayout(p)
	require.NoError(t, err)

	require.Equal(t, 5, l.SegmentCount())
	assert.Equal(t, 0, l.SectionOf(0).Index)
	assert.Equal(t, 1, l.SectionOf(1).Index)
	assert.Equal(t, 1, l.SectionOf(2).Index)
	assert.Equal(t, 2, l.SectionOf(3).Index)

	emom := l.Section(1)
	assert.Equal(t, 1, emom.Start)
	assert.Equal(t, 3, emom.End)
	assert.Equal(t, 2, emom.Len())
	assert.True(t, emom.Contains(2))
	assert.False(t, emom.Contains(3))

	assert.True(t, l.IsLast(4))
	assert.False(t, l.IsLast(3))
	assert.Equal(t, 3, l.MainCount())
}

func TestLayout_PanicsOutOfRange(t *testing.T) {
	l, err := NewLayout(&WorkoutPlan{Segments: []Segment{{Name: "x", Kind: SegmentStation}}})
	require.NoError(t, err)

	assert.Panics(t, func() { l.Segment(1) })
	assert.Panics(t, func() { l.SectionOf(-1) })
	assert.Panics(t, func() { l.Section(1) })
}

func TestLayout_CopiesPlan(t *testing.T) {
	p := &WorkoutPlan{Segments: []Segment{{Name: "x", Kind: SegmentStation, TargetReps: Int(10)}}}
	l, err := NewLayout(p)
	require.NoError(t, err)

	d := 42 * time.Second
	l.Segment(0).ActualDuration = &d
	*l.Segment(0).TargetReps = 99

	assert.Nil(t, p.Segments[0].ActualDuration)
	assert.Equal(t, 10, *p.Segments[0].TargetReps)

	copies := l.Segments()
	copies[0].Name = "changed"
	assert.Equal(t, "x", l.Segment(0).Name)
}

func TestLayout_EstimatedDuration(t *testing.T) {
	p, err := Parse([]byte(hybridPlanYAML))
	require.NoError(t, err)
	l, err := NewLayout(p)
	require.NoError(t, err)

	// 300s warm-up + 16 min EMOM + 270s run + 120s stretch
	assert.Equal(t, 300*time.Second+16*time.Minute+390*time.Second, l.EstimatedDuration())

	tabata, err := NewLayout(&WorkoutPlan{Sections: []Section{{
		Label: "Tabata", Kind: SectionFinisher, Format: FormatTabata,
		Segments: []Segment{{Name: "Squats", Kind: SegmentFinisher}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, 240*time.Second, tabata.EstimatedDuration())
}

func TestFormatParameters_Tabata(t *testing.T) {
	work, rest, rounds := FormatParameters{}.Tabata()
	assert.Equal(t, []int{20, 10, 8}, []int{work, rest, rounds})

	work, rest, rounds = FormatParameters{WorkSeconds: Int(40), Rounds: Int(6)}.Tabata()
	assert.Equal(t, []int{40, 10, 6}, []int{work, rest, rounds})

	_, ok := FormatParameters{TotalMinutes: Int(0)}.TotalSeconds()
	assert.False(t, ok)
	secs, ok := FormatParameters{TimeCapMinutes: Int(12)}.CapSeconds()
	assert.True(t, ok)
	assert.Equal(t, 720, secs)
}

func TestRouteSummary_Pace(t *testing.T) {
	r := RouteSummary{DistanceMeters: 1000, Duration: 4*time.Minute + 30*time.Second}
	assert.InDelta(t, 270, r.PaceSecondsPerKm(), 0.001)
	assert.Zero(t, RouteSummary{}.PaceSecondsPerKm())
}

func TestLoad_SamplePlans(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "plans", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			p, err := Load(path)
			require.NoError(t, err)
			layout, err := NewLayout(p)
			require.NoError(t, err)
			assert.NotEmpty(t, layout.Name())
			assert.Positive(t, layout.SegmentCount())
			assert.Positive(t, layout.EstimatedDuration())
		})
	}
}
