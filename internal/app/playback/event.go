package playback

// EventType represents a playback event type.
type EventType int

const (
	EventStateChanged EventType = iota // Transport state changed (load/play/pause/stop/seek)
	EventTrackChanged                  // Current song changed
	EventQueueChanged                  // Queue contents or current index changed
	EventModeChanged                   // Repeat or shuffle mode changed
	EventProgress                      // Periodic status from the audio engine
	EventError                         // An operation failed; see Snapshot.Transport.Error
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventTrackChanged:
		return "track_changed"
	case EventQueueChanged:
		return "queue_changed"
	case EventModeChanged:
		return "mode_changed"
	case EventProgress:
		return "progress"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Snapshot Snapshot // Controller state right after the change
}
