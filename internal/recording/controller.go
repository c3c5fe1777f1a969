package recording

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrAlreadyRecording rejects a start while a recording is active or a
	// start/stop is still in flight. Never retried automatically.
	ErrAlreadyRecording = errors.New("meeting is already being recorded")
	// ErrNotRecording rejects a stop when nothing is recording.
	ErrNotRecording = errors.New("no active recording")
	// ErrEncryptedRoom rejects recording of end-to-end encrypted rooms.
	ErrEncryptedRoom = errors.New("recording of encrypted meetings is not supported")
)

// State is the local, optimistic view of a room's recording session. The
// backend owns the truth; this state only serializes this instance's own
// toggles.
type State string

const (
	StateIdle      State = "idle"
	StateStarting  State = "starting"
	StateRecording State = "recording"
	StateStopping  State = "stopping"
)

// StatusEvent is emitted when the backend reports a recording status change.
// Artifact is nil with Pending true when the stop completed but the object
// has not appeared in storage yet.
type StatusEvent struct {
	Room      string    `json:"room"`
	Recording bool      `json:"recording"`
	Artifact  *Artifact `json:"artifact,omitempty"`
	Pending   bool      `json:"pending,omitempty"`
}

type session struct {
	state   State
	stopped chan struct{}
}

// Controller drives the recording lifecycle per room: optimistic local state
// transitions around egress calls, an in-flight guard against duplicate
// toggles, and webhook-driven completion. One recording per room; a second
// start is a business error, not a retry.
type Controller struct {
	egress    Egress
	artifacts *Resolver
	onStatus  func(StatusEvent)
	logger    *zap.Logger

	mu        sync.Mutex
	sessions  map[string]*session
	encrypted map[string]bool
}

// NewController creates a recording controller. onStatus may be nil.
func NewController(egress Egress, artifacts *Resolver, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		egress:    egress,
		artifacts: artifacts,
		logger:    logger,
		sessions:  make(map[string]*session),
		encrypted: make(map[string]bool),
	}
}

// SetStatusListener registers the callback invoked on every backend status
// change (after artifact resolution). Called before the server starts.
func (c *Controller) SetStatusListener(fn func(StatusEvent)) { c.onStatus = fn }

// MarkEncrypted records that a room was created end-to-end encrypted. Start
// refuses such rooms without contacting the backend.
func (c *Controller) MarkEncrypted(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encrypted[room] = true
}

// Forget drops all local state for a room. Called at teardown.
func (c *Controller) Forget(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.encrypted, room)
	if s, ok := c.sessions[room]; ok {
		if s.stopped != nil {
			close(s.stopped)
		}
		delete(c.sessions, room)
	}
}

// State returns the room's local recording state.
func (c *Controller) State(room string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[room]; ok {
		return s.state
	}
	return StateIdle
}

// Start begins recording the room: idle -> starting immediately, then the
// egress call, then starting -> recording on acknowledgment. Rejected while
// any toggle is in flight or a recording is active.
func (c *Controller) Start(ctx context.Context, room string) error {
	c.mu.Lock()
	if c.encrypted[room] {
		c.mu.Unlock()
		return ErrEncryptedRoom
	}
	if s, ok := c.sessions[room]; ok && s.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyRecording
	}
	c.sessions[room] = &session{state: StateStarting}
	c.mu.Unlock()

	if err := c.egress.StartRecording(ctx, room); err != nil {
		c.mu.Lock()
		delete(c.sessions, room)
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	if s, ok := c.sessions[room]; ok {
		s.state = StateRecording
	}
	c.mu.Unlock()
	c.logger.Info("recording started", zap.String("room", room))
	return nil
}

// Stop ends the room's recording: recording -> stopping, then the egress
// call. Logically idempotent: a second stop while already stopping returns
// nil without issuing another backend request.
func (c *Controller) Stop(ctx context.Context, room string) error {
	c.mu.Lock()
	s, ok := c.sessions[room]
	if !ok || s.state == StateIdle || s.state == StateStarting {
		c.mu.Unlock()
		return ErrNotRecording
	}
	if s.state == StateStopping {
		c.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	if s.stopped == nil {
		s.stopped = make(chan struct{})
	}
	c.mu.Unlock()

	if err := c.egress.StopRecording(ctx, room); err != nil {
		c.mu.Lock()
		if cur, ok := c.sessions[room]; ok && cur.state == StateStopping {
			cur.state = StateRecording
		}
		c.mu.Unlock()
		return err
	}
	c.logger.Info("recording stop requested", zap.String("room", room))
	return nil
}

// WaitStopped blocks until the backend confirms the stop for the room, or
// the context ends. Returns immediately when no stop is in flight.
func (c *Controller) WaitStopped(ctx context.Context, room string) error {
	c.mu.Lock()
	s, ok := c.sessions[room]
	if !ok || s.state != StateStopping {
		c.mu.Unlock()
		return nil
	}
	if s.stopped == nil {
		s.stopped = make(chan struct{})
	}
	ch := s.stopped
	c.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleStatusChanged processes the backend's asynchronous recording status
// signal. On stop it resolves the latest artifact (absence is reported as
// pending, not an error), resets local state and wakes any stop waiters.
func (c *Controller) HandleStatusChanged(ctx context.Context, room string, recording bool) {
	if recording {
		c.mu.Lock()
		s, ok := c.sessions[room]
		if !ok {
			// started outside this instance; track it so stop works
			s = &session{}
			c.sessions[room] = s
		}
		s.state = StateRecording
		c.mu.Unlock()
		c.emit(StatusEvent{Room: room, Recording: true})
		return
	}

	event := StatusEvent{Room: room, Recording: false}
	artifact, err := c.LatestArtifact(ctx, room)
	switch {
	case err == nil:
		event.Artifact = artifact
	case errors.Is(err, ErrArtifactNotFound):
		event.Pending = true
	default:
		c.logger.Error("artifact resolution failed", zap.String("room", room), zap.Error(err))
		event.Pending = true
	}

	c.mu.Lock()
	if s, ok := c.sessions[room]; ok {
		if s.stopped != nil {
			close(s.stopped)
		}
		delete(c.sessions, room)
	}
	c.mu.Unlock()

	c.logger.Info("recording stopped",
		zap.String("room", room),
		zap.Bool("artifact_pending", event.Pending),
	)
	c.emit(event)
}

// LatestArtifact resolves the room's newest stored recording. Without an
// object store configured there are no artifacts to find.
func (c *Controller) LatestArtifact(ctx context.Context, room string) (*Artifact, error) {
	if c.artifacts == nil {
		return nil, ErrArtifactNotFound
	}
	return c.artifacts.Latest(ctx, room)
}

func (c *Controller) emit(event StatusEvent) {
	if c.onStatus != nil {
		c.onStatus(event)
	}
}
