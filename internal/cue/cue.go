// Package cue defines the transient, payload-free events the engine emits at
// timing boundaries, and the dispatcher that fans them out to the presentation
// layer. Nothing here touches a device API.
package cue

// Cue is a zero-payload tag
type Cue string

const (
	MinuteStarted          Cue = "minute-started"
	TenSecondsWarning      Cue = "ten-seconds-warning"
	ThirtySecondsRemaining Cue = "thirty-seconds-remaining"
	OneMinuteRemaining     Cue = "one-minute-remaining"
	Countdown3             Cue = "countdown-3"
	WorkStarted            Cue = "work-started"
	RestStarted            Cue = "rest-started"
	SectionComplete        Cue = "section-complete"
	TimeCapReached         Cue = "time-cap-reached"
	SectionStarted         Cue = "section-started"
	SegmentComplete        Cue = "segment-complete"
	RoundComplete          Cue = "round-complete"
	NextMovement           Cue = "next-movement"
	Skipped                Cue = "skipped"
	Paused                 Cue = "paused"
	Resumed                Cue = "resumed"
	WorkoutComplete        Cue = "workout-complete"
)

// Feedback is the strength of the haptic/visual response a cue asks for
type Feedback int

const (
	FeedbackLight Feedback = iota
	FeedbackMedium
	FeedbackHeavy
	FeedbackSuccess
	FeedbackWarning
)

// Info contains presentation hints for a cue
type Info struct {
	Cue         Cue
	DisplayName string
	Feedback    Feedback
	Sound       string // sound asset name, empty for silent cues
}

// AllCues defines metadata for every cue
var AllCues = map[Cue]Info{
	MinuteStarted:          {Cue: MinuteStarted, DisplayName: "New minute", Feedback: FeedbackHeavy, Sound: "beep_long"},
	TenSecondsWarning:      {Cue: TenSecondsWarning, DisplayName: "10 seconds", Feedback: FeedbackWarning, Sound: "beep_short"},
	ThirtySecondsRemaining: {Cue: ThirtySecondsRemaining, DisplayName: "30 seconds left", Feedback: FeedbackMedium, Sound: "beep_short"},
	OneMinuteRemaining:     {Cue: OneMinuteRemaining, DisplayName: "1 minute left", Feedback: FeedbackMedium, Sound: "beep_short"},
	Countdown3:             {Cue: Countdown3, DisplayName: "3, 2, 1", Feedback: FeedbackLight, Sound: "countdown"},
	WorkStarted:            {Cue: WorkStarted, DisplayName: "Work", Feedback: FeedbackHeavy, Sound: "beep_long"},
	RestStarted:            {Cue: RestStarted, DisplayName: "Rest", Feedback: FeedbackMedium, Sound: "beep_double"},
	SectionComplete:        {Cue: SectionComplete, DisplayName: "Section complete", Feedback: FeedbackSuccess, Sound: "bell"},
	TimeCapReached:         {Cue: TimeCapReached, DisplayName: "Time cap", Feedback: FeedbackWarning, Sound: "bell"},
	SectionStarted:         {Cue: SectionStarted, DisplayName: "Go", Feedback: FeedbackHeavy, Sound: "beep_long"},
	SegmentComplete:        {Cue: SegmentComplete, DisplayName: "Done", Feedback: FeedbackSuccess},
	RoundComplete:          {Cue: RoundComplete, DisplayName: "Round done", Feedback: FeedbackSuccess},
	NextMovement:           {Cue: NextMovement, DisplayName: "Next movement", Feedback: FeedbackLight},
	Skipped:                {Cue: Skipped, DisplayName: "Skipped", Feedback: FeedbackLight},
	Paused:                 {Cue: Paused, DisplayName: "Paused", Feedback: FeedbackMedium},
	Resumed:                {Cue: Resumed, DisplayName: "Resumed", Feedback: FeedbackMedium},
	WorkoutComplete:        {Cue: WorkoutComplete, DisplayName: "Workout complete", Feedback: FeedbackSuccess, Sound: "fanfare"},
}

// GetInfo returns the metadata for a cue
func GetInfo(c Cue) (Info, bool) {
	info, ok := AllCues[c]
	return info, ok
}
