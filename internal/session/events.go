package session

import (
	"fmt"

	"github.com/sunny-bot/sunny/internal/playback"
)

type EventKind int

const (
	EventTick EventKind = iota
	EventTrackPlay
	EventTrackPause
	EventTrackEnd
	EventTrackError
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventTrackPlay:
		return "track_play"
	case EventTrackPause:
		return "track_pause"
	case EventTrackEnd:
		return "track_end"
	case EventTrackError:
		return "track_error"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

func (k EventKind) isTrack() bool {
	switch k {
	case EventTrackPlay, EventTrackPause, EventTrackEnd, EventTrackError:
		return true
	default:
		return false
	}
}

// Event is delivered to a session by its tick scheduler or by the playback subsystem.
// Track is only set for track events.
type Event struct {
	Kind  EventKind
	Track playback.Track
}

type LeaveReason string

const (
	LeaveReasonIdleTimeout      LeaveReason = "idle_timeout"
	LeaveReasonForcedDisconnect LeaveReason = "forced_disconnect"
	LeaveReasonCommand          LeaveReason = "command"
	LeaveReasonMoved            LeaveReason = "moved"
	LeaveReasonShutdown         LeaveReason = "shutdown"
	LeaveReasonRestart          LeaveReason = "restart"
)
