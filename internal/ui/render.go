package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/lowaak/workout-runtime/internal/companion"
	"github.com/lowaak/workout-runtime/internal/cue"
	"github.com/lowaak/workout-runtime/internal/engine"
	"github.com/lowaak/workout-runtime/internal/format"
	"github.com/lowaak/workout-runtime/internal/plan"
)

// feedbackColors maps cue feedback to a tview color tag
var feedbackColors = map[cue.Feedback]string{
	cue.FeedbackLight:   "white",
	cue.FeedbackMedium:  "yellow",
	cue.FeedbackHeavy:   "aqua",
	cue.FeedbackSuccess: "green",
	cue.FeedbackWarning: "red",
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%d min", minutes)
}

// formatDurationMMSS formats a duration as MM:SS
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func formatSeconds(s int) string {
	return formatDurationMMSS(time.Duration(s) * time.Second)
}

func sectionTitle(sec plan.SectionInfo) string {
	if sec.HasFormat() {
		return fmt.Sprintf("%s (%s)", sec.Label, sec.Format.DisplayName())
	}
	return sec.Label
}

// formatSegmentTargets lists the planned targets of a segment
func formatSegmentTargets(seg plan.Segment) string {
	var parts []string
	if seg.TargetDistanceMeters != nil {
		if *seg.TargetDistanceMeters >= 1000 {
			parts = append(parts, fmt.Sprintf("%.2f km", *seg.TargetDistanceMeters/1000))
		} else {
			parts = append(parts, fmt.Sprintf("%.0f m", *seg.TargetDistanceMeters))
		}
	}
	if seg.TargetReps != nil {
		parts = append(parts, fmt.Sprintf("%d reps", *seg.TargetReps))
	}
	if seg.TargetWeightKg != nil {
		parts = append(parts, fmt.Sprintf("%.1f kg", *seg.TargetWeightKg))
	}
	if seg.TargetDurationSeconds != nil {
		parts = append(parts, formatSeconds(*seg.TargetDurationSeconds))
	}
	return strings.Join(parts, " / ")
}

// formatOverview renders the plan before it starts
func formatOverview(o PlanOverview) string {
	text := "\n"
	text += fmt.Sprintf("  [yellow]%s[white]\n\n", o.Name)
	text += fmt.Sprintf("  [gray]Estimated:[white] %s\n", formatDuration(o.EstimatedDuration))
	text += fmt.Sprintf("  [gray]Sections:[white]  %d\n\n", len(o.Sections))
	for i, sec := range o.Sections {
		text += fmt.Sprintf("    %d. %s [gray](%d segments)[white]\n", i+1, sectionTitle(sec), sec.Len())
	}
	return text
}

// formatSectionList renders the section list with the current one marked
func formatSectionList(sections []plan.SectionInfo, current int, phase engine.Phase) string {
	text := "\n"
	for _, sec := range sections {
		switch {
		case phase == engine.PhaseComplete || sec.Index < current:
			text += fmt.Sprintf("  [green]✓[white] %s\n", sectionTitle(sec))
		case sec.Index == current && phase != engine.PhaseNotStarted:
			text += fmt.Sprintf("  [yellow]▶ %s[white]\n", sectionTitle(sec))
		default:
			text += fmt.Sprintf("  [gray]  %s[white]\n", sectionTitle(sec))
		}
	}
	return text
}

// formatFormatDisplay renders the clock of a formatted section
func formatFormatDisplay(d format.Display) string {
	var text string
	switch d.Format {
	case plan.FormatEMOM:
		if d.TotalMinutes > 0 {
			text += fmt.Sprintf("  [aqua]Minute %d / %d[white]\n", d.CurrentMinute, d.TotalMinutes)
		} else {
			text += fmt.Sprintf("  [aqua]Minute %d[white]\n", d.CurrentMinute)
		}
		text += fmt.Sprintf("  [gray]Next minute in:[white] [yellow]%s[white]\n", formatSeconds(d.SecondsRemaining))
	case plan.FormatTabata:
		if d.Finished {
			text += "  [green]Tabata done[white]\n"
		} else if d.IsWorkPhase {
			text += fmt.Sprintf("  [red]WORK[white]  %s  [gray]round %d / %d[white]\n", formatSeconds(d.PhaseSecondsRemaining), d.Round, d.TotalRounds)
		} else {
			text += fmt.Sprintf("  [green]REST[white]  %s  [gray]round %d / %d[white]\n", formatSeconds(d.PhaseSecondsRemaining), d.Round, d.TotalRounds)
		}
	default:
		if d.TotalRounds > 0 {
			text += fmt.Sprintf("  [aqua]Round %d / %d[white]\n", d.Round, d.TotalRounds)
		} else if d.Format == plan.FormatAMRAP || d.Round > 0 {
			text += fmt.Sprintf("  [aqua]Rounds done: %d[white]\n", d.RoundsCompleted)
		}
		if d.CapReached {
			text += "  [red]Time cap reached[white]\n"
		} else if d.HasCountdown {
			text += fmt.Sprintf("  [gray]Remaining:[white] [yellow]%s[white]\n", formatSeconds(d.SecondsRemaining))
		} else {
			text += fmt.Sprintf("  [gray]Clock:[white] %s\n", formatSeconds(d.Elapsed))
		}
	}
	return text
}

// formatWorkoutPanel renders the current state of the workout
func formatWorkoutPanel(snap engine.Snapshot) string {
	if snap.Phase == engine.PhaseNotStarted {
		return "\n  [green]Ready to start[white]\n\n  [gray]Press[white] [yellow]Space[white] [gray]to start[white]\n"
	}
	if snap.Phase == engine.PhaseComplete {
		return formatSummary(snap)
	}

	text := "\n"
	if snap.Paused {
		text += fmt.Sprintf("  [yellow]%s[white] [gray](PAUSED)[white]\n\n", snap.PlanName)
	} else {
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", snap.PlanName)
	}

	text += fmt.Sprintf("  [gray]Total:[white]   %s\n", formatDurationMMSS(snap.TotalElapsed))
	text += fmt.Sprintf("  [gray]Section:[white] %s\n", formatDurationMMSS(snap.SectionElapsed))
	text += fmt.Sprintf("  [gray]Main:[white]    %d / %d (%.0f%%)\n\n", snap.CompletedMain, snap.TotalMain, snap.MainCompletionPct)

	text += fmt.Sprintf("  [cyan]%s[white] (%d/%d)\n", sectionTitle(snap.Section), snap.Section.Index+1, snap.SectionCount)
	if snap.Format != nil {
		text += formatFormatDisplay(*snap.Format)
	}
	text += "\n"

	if snap.Phase == engine.PhaseAwaitingReady {
		if snap.NextSection != nil {
			text += "  [green]Section finished[white]\n"
			text += fmt.Sprintf("  [gray]Up next:[white] %s\n\n", sectionTitle(*snap.NextSection))
		} else {
			text += "  [green]Last section finished[white]\n\n"
		}
		text += "  [gray]Press[white] [yellow]R[white] [gray]when ready[white]\n"
		return text
	}

	seg := snap.Segment
	text += fmt.Sprintf("  [white]%s[white] [gray](%s, %d/%d)[white]\n", seg.Name, seg.Kind.DisplayName(), snap.SegmentIndex+1, snap.SegmentCount)
	if targets := formatSegmentTargets(seg); targets != "" {
		text += fmt.Sprintf("  [gray]Target:[white] %s\n", targets)
	}
	text += fmt.Sprintf("  [gray]Segment:[white] %s\n", formatDurationMMSS(snap.SegmentElapsed))
	if seg.IsRun() && seg.RouteSource != plan.RouteSourceNone {
		text += fmt.Sprintf("  [gray]Tracking:[white] %s\n", seg.RouteSource)
	}
	if seg.Notes != "" {
		text += fmt.Sprintf("  [gray]%s[white]\n", seg.Notes)
	}
	if snap.LastRoute != nil {
		text += fmt.Sprintf("\n  [gray]Last run:[white] %s\n", formatRoute(*snap.LastRoute))
	}
	return text
}

// formatSummary renders the finished workout
func formatSummary(snap engine.Snapshot) string {
	text := "\n"
	text += fmt.Sprintf("  [yellow]%s[white] [green]complete[white]\n\n", snap.PlanName)
	text += fmt.Sprintf("  [gray]Total time:[white] %s\n", formatDurationMMSS(snap.TotalElapsed))
	text += fmt.Sprintf("  [gray]Main work:[white]  %d / %d (%.0f%%)\n", snap.CompletedMain, snap.TotalMain, snap.MainCompletionPct)
	text += fmt.Sprintf("  [gray]Counts as:[white]  %s\n", snap.Classification)
	if snap.LastRoute != nil {
		text += fmt.Sprintf("  [gray]Last run:[white]   %s\n", formatRoute(*snap.LastRoute))
	}
	text += "\n"
	text += "  [gray]Press[white] [yellow]Q[white] [gray]to quit[white]\n"
	return text
}

// formatPace formats seconds per kilometre as m:ss /km
func formatPace(secondsPerKm float64) string {
	if secondsPerKm <= 0 {
		return "--:-- /km"
	}
	s := int(secondsPerKm + 0.5)
	return fmt.Sprintf("%d:%02d /km", s/60, s%60)
}

// formatRoute renders a finished run's distance and average pace
func formatRoute(r plan.RouteSummary) string {
	text := fmt.Sprintf("%.2f km in %s, %s", r.DistanceMeters/1000, formatDurationMMSS(r.Duration), formatPace(r.PaceSecondsPerKm()))
	if r.Source != plan.RouteSourceNone {
		text += fmt.Sprintf(" [gray](%s)[white]", r.Source)
	}
	return text
}

// formatSensor renders the live running sensor line
func formatSensor(reading *companion.RSCMeasurement) string {
	if reading == nil {
		return "[gray]No running sensor[white]"
	}
	pace := 0.0
	if reading.SpeedMetersPerSecond > 0 {
		pace = 1000 / reading.SpeedMetersPerSecond
	}
	gait := "walking"
	if reading.Running {
		gait = "running"
	}
	return fmt.Sprintf("[gray]Sensor:[white] %s  %d spm  [gray]%s[white]", formatPace(pace), reading.CadenceStepsPerMin, gait)
}

// formatCue renders a fired cue for the banner
func formatCue(info cue.Info) string {
	color, ok := feedbackColors[info.Feedback]
	if !ok {
		color = "white"
	}
	return fmt.Sprintf("[%s::b]%s[-:-:-]", color, info.DisplayName)
}

// formatKeyHelp renders the key bindings line
func formatKeyHelp() string {
	parts := make([]string, 0, len(AllActions))
	for _, info := range AllActions {
		parts = append(parts, fmt.Sprintf("[yellow]%s[white] %s", info.KeyLabel, info.DisplayName))
	}
	return strings.Join(parts, "  |  ")
}
