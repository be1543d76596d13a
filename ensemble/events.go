package ensemble

// EventType represents the type of progress event.
type EventType string

// EventType constants
const (
	EventRoundStart        EventType = "round_start"
	EventModelCallComplete EventType = "model_call_complete"
	EventSelectionMade     EventType = "selection_made"
	EventCorrectionApplied EventType = "correction_applied"
	EventRoundComplete     EventType = "round_complete"
)

// ProgressEvent represents a progress update for one ensemble round.
type ProgressEvent struct {
	EventType   EventType
	Model       string
	TotalModels int
	DurationMs  int64
	Details     map[string]any
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)
