// Package audio synchronizes a native background-audio player with the
// embedded document. The document cannot poll the player, so this side
// mirrors playback state into it over the channel.
package audio

import "context"

// State is the native player's transport state.
type State int

const (
	StateStopped State = iota
	StateLoading
	StateBuffering
	StatePlaying
	StatePaused
	StateEnded
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateLoading:
		return "loading"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// Track describes one queued audio resource.
type Track struct {
	URI        string
	Title      string
	Artist     string
	ArtworkURL string
}

// Progress is a playback position snapshot in seconds.
type Progress struct {
	Position float64
	Duration float64
}

// Player is the native background-audio transport. Load replaces the
// whole queue with the single given track. Subscribe registers a
// state-transition callback and returns an unsubscribe handle; no polling
// is needed for transition detection.
type Player interface {
	Load(ctx context.Context, track Track) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	SeekTo(ctx context.Context, seconds float64) error
	Progress(ctx context.Context) (Progress, error)
	Subscribe(fn func(State)) (unsubscribe func())
}
