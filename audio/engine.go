package audio

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/quillcart/bridge/bridge"
	"github.com/quillcart/bridge/messages"
)

// DefaultSyncInterval is the production cadence of the periodic progress
// report while audio is playing.
const DefaultSyncInterval = 5 * time.Second

// PlayRequest asks the engine to start (or resume) playback of a resource.
// ResumeAt, when set, seeks to that position after loading a new track.
type PlayRequest struct {
	URI        string
	ResourceID string
	Title      string
	Artist     string
	ArtworkURL string
	ResumeAt   *float64
}

// Engine mediates between the native player and the document. It owns the
// single currently tracked resource id; loading a second resource ends
// tracking of the first. Sync pushes are suppressed while no resource is
// tracked, so no spurious messages precede the first audio session.
type Engine struct {
	player Player
	post   bridge.Poster
	log    bridge.Logger

	mu        sync.Mutex
	currentID string
	state     State
	closed    bool

	unsubscribe func()
	done        chan struct{}
	loopWG      sync.WaitGroup
}

// NewEngine creates a sync engine and starts its periodic report loop.
// Call Close on teardown so no timer posts into a destroyed channel.
func NewEngine(player Player, post bridge.Poster, log bridge.Logger, interval time.Duration) *Engine {
	if log == nil {
		log = bridge.NewSlogLogger(nil)
	}
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	e := &Engine{
		player: player,
		post:   post,
		log:    log,
		state:  StateStopped,
		done:   make(chan struct{}),
	}
	e.unsubscribe = player.Subscribe(e.onPlayerState)

	e.loopWG.Add(1)
	go e.run(interval)
	return e
}

// run is the periodic position-report loop. The document learns playback
// progress for resume purposes only through these pushes.
func (e *Engine) run(interval time.Duration) {
	defer e.loopWG.Done()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-e.done:
			return
		case <-t.C:
			e.mu.Lock()
			playing := e.state == StatePlaying && e.currentID != ""
			e.mu.Unlock()
			if playing {
				e.pushSync(context.Background(), true)
			}
		}
	}
}

// onPlayerState caches transitions and immediately mirrors pause-like
// states so the document reflects them promptly rather than up to an
// interval tick late.
func (e *Engine) onPlayerState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()

	switch s {
	case StatePaused, StateStopped, StateEnded:
		e.pushSync(context.Background(), false)
	}
}

// PlayAudio loads the requested resource if it is not the current one
// (replacing the player's queue with that single track, seeking to the
// resume position when given) and always issues Play, so a paused track
// resumes without reloading. A sync push reporting playback follows.
func (e *Engine) PlayAudio(ctx context.Context, req PlayRequest) error {
	if req.ResourceID == "" {
		return fmt.Errorf("play request without resource id")
	}

	e.mu.Lock()
	loadNeeded := e.currentID != req.ResourceID
	e.mu.Unlock()

	if loadNeeded {
		track := Track{
			URI:        req.URI,
			Title:      req.Title,
			Artist:     req.Artist,
			ArtworkURL: req.ArtworkURL,
		}
		if err := e.player.Load(ctx, track); err != nil {
			return fmt.Errorf("load %s: %w", req.ResourceID, err)
		}
		if req.ResumeAt != nil {
			if err := e.player.SeekTo(ctx, *req.ResumeAt); err != nil {
				return fmt.Errorf("seek %s: %w", req.ResourceID, err)
			}
		}
		e.mu.Lock()
		e.currentID = req.ResourceID
		e.mu.Unlock()
	}

	if err := e.player.Play(ctx); err != nil {
		return fmt.Errorf("play %s: %w", req.ResourceID, err)
	}
	e.pushSync(ctx, true)
	return nil
}

// PauseAudio pauses the player and mirrors the pause into the document.
func (e *Engine) PauseAudio(ctx context.Context) error {
	if err := e.player.Pause(ctx); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	e.pushSync(ctx, false)
	return nil
}

// CurrentResourceID returns the tracked resource id, empty when none.
func (e *Engine) CurrentResourceID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentID
}

// pushSync posts the player info message. Suppressed while no resource is
// tracked; post failures are logged, never surfaced — the channel is
// fire-and-forget.
func (e *Engine) pushSync(ctx context.Context, isPlaying bool) {
	e.mu.Lock()
	id := e.currentID
	closed := e.closed
	e.mu.Unlock()
	if id == "" || closed {
		return
	}

	info := messages.AudioPlayerInfo{
		FileID:    id,
		IsPlaying: isPlaying,
	}
	if prog, err := e.player.Progress(ctx); err == nil {
		info.LatestMediaLocation = strconv.FormatFloat(prog.Position, 'f', -1, 64)
	} else {
		e.log.Debug("progress read failed", "err", err)
	}

	if err := e.post.Post(messages.TypeAudioPlayerInfo, info); err != nil {
		e.log.Debug("player info post failed", "err", err)
	}
}

// Close stops the report loop and detaches from the player. Idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	close(e.done)
	e.loopWG.Wait()
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
}
