package admission

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/meetpro/backend/internal/credentials"
	"github.com/meetpro/backend/internal/directory"
	"github.com/meetpro/backend/internal/reservation"
)

var (
	// ErrInvalidRoomName rejects room ids that are not exactly 8 ASCII digits.
	ErrInvalidRoomName = errors.New("room id must be 8 digits")
	// ErrRoomAlreadyExists fails a create when the room is already live.
	ErrRoomAlreadyExists = errors.New("room already exists")
	// ErrRoomNotFound fails a join when the room is not live.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNameTaken fails a join when the identity is already connected.
	ErrNameTaken = errors.New("name already taken")
	// ErrNameRequired rejects requests without a participant name.
	ErrNameRequired = errors.New("participant name required")
	// ErrAdminConflict is final for one create attempt: the admin slot stayed
	// contested after the single reclaim-and-retry.
	ErrAdminConflict = errors.New("admin slot contested")
)

var roomNamePattern = regexp.MustCompile(`^[0-9]{8}$`)

// RoomDirectory is the subset of the backend directory admission needs.
type RoomDirectory interface {
	RoomExists(ctx context.Context, room string) (bool, error)
	ListParticipants(ctx context.Context, room string) ([]directory.Participant, error)
}

// Reservations is the admin slot protocol: claim with at most one
// reclaim-and-retry per attempt. Claim reports a held slot as
// reservation.ErrConflict.
type Reservations interface {
	Claim(ctx context.Context, room, name string) error
	Reclaim(ctx context.Context, room string) (string, error)
	Release(ctx context.Context, room string) error
}

// Issuer mints connection credentials for an admitted participant.
type Issuer interface {
	Issue(room, identity string, role credentials.Role) (*credentials.ConnectionDetails, error)
}

// EncryptionRegistry records which rooms were created end-to-end encrypted,
// so the recording controller can refuse them without a backend call.
type EncryptionRegistry interface {
	MarkEncrypted(room string)
}

// Request is one admission attempt. Device ids and region are passed through
// to the client; they do not influence the decision.
type Request struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
	VideoDeviceID   string `json:"videoDeviceId"`
	AudioDeviceID   string `json:"audioDeviceId"`
	Region          string `json:"region"`
	E2EE            bool   `json:"e2ee"`
}

// Orchestrator decides create-vs-join admission. All per-attempt state is
// local to the method call, so concurrent attempts never interfere through
// shared flags.
type Orchestrator struct {
	directory    RoomDirectory
	reservations Reservations
	issuer       Issuer
	encryption   EncryptionRegistry
	logger       *zap.Logger
}

// NewOrchestrator creates an admission orchestrator. encryption may be nil.
func NewOrchestrator(dir RoomDirectory, res Reservations, issuer Issuer, enc EncryptionRegistry, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		directory:    dir,
		reservations: res,
		issuer:       issuer,
		encryption:   enc,
		logger:       logger,
	}
}

func validate(req Request) error {
	if !roomNamePattern.MatchString(req.RoomName) {
		return ErrInvalidRoomName
	}
	if req.ParticipantName == "" {
		return ErrNameRequired
	}
	return nil
}

// Create admits the caller as the room's admin. Sequence: existence check,
// reservation claim (reclaim-and-retry once on conflict), credential
// issuance. A second reservation conflict fails the attempt with
// ErrAdminConflict and is not retried further.
func (o *Orchestrator) Create(ctx context.Context, req Request) (*credentials.ConnectionDetails, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	exists, err := o.directory.RoomExists(ctx, req.RoomName)
	if err != nil {
		return nil, fmt.Errorf("room existence check: %w", err)
	}
	if exists {
		return nil, ErrRoomAlreadyExists
	}

	if err := o.claimWithReclaim(ctx, req); err != nil {
		return nil, err
	}

	details, err := o.issuer.Issue(req.RoomName, req.ParticipantName, credentials.RoleAdmin)
	if err != nil {
		// Credentials failed after the slot was taken; give it back so the
		// room does not stay un-creatable.
		if relErr := o.reservations.Release(ctx, req.RoomName); relErr != nil {
			o.logger.Error("reservation rollback failed", zap.String("room", req.RoomName), zap.Error(relErr))
		}
		return nil, fmt.Errorf("issue admin credentials: %w", err)
	}
	if req.E2EE && o.encryption != nil {
		o.encryption.MarkEncrypted(req.RoomName)
	}
	o.logger.Info("admin admitted",
		zap.String("room", req.RoomName),
		zap.String("participant", req.ParticipantName),
	)
	return details, nil
}

func (o *Orchestrator) claimWithReclaim(ctx context.Context, req Request) error {
	err := o.reservations.Claim(ctx, req.RoomName, req.ParticipantName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, reservation.ErrConflict) {
		return fmt.Errorf("claim admin slot: %w", err)
	}
	evicted, err := o.reservations.Reclaim(ctx, req.RoomName)
	if err != nil {
		return fmt.Errorf("reclaim admin slot: %w", err)
	}
	o.logger.Warn("admin slot contested, reclaimed once",
		zap.String("room", req.RoomName),
		zap.String("evicted", evicted),
	)
	err = o.reservations.Claim(ctx, req.RoomName, req.ParticipantName)
	if err == nil {
		return nil
	}
	if errors.Is(err, reservation.ErrConflict) {
		return ErrAdminConflict
	}
	return fmt.Errorf("claim admin slot (retry): %w", err)
}

// Join admits the caller as a regular user. Never creates or deletes a
// reservation.
func (o *Orchestrator) Join(ctx context.Context, req Request) (*credentials.ConnectionDetails, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	exists, err := o.directory.RoomExists(ctx, req.RoomName)
	if err != nil {
		return nil, fmt.Errorf("room existence check: %w", err)
	}
	if !exists {
		return nil, ErrRoomNotFound
	}
	participants, err := o.directory.ListParticipants(ctx, req.RoomName)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	for _, p := range participants {
		if p.Identity == req.ParticipantName {
			return nil, ErrNameTaken
		}
	}
	details, err := o.issuer.Issue(req.RoomName, req.ParticipantName, credentials.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("issue user credentials: %w", err)
	}
	o.logger.Info("user admitted",
		zap.String("room", req.RoomName),
		zap.String("participant", req.ParticipantName),
	)
	return details, nil
}
