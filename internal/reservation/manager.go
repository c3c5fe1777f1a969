package reservation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Manager claims and releases the single admin slot per room. Because records
// persist until deleted, every exit path must call Release or the room stays
// permanently un-creatable as admin; a dangling record is only recoverable
// through Reclaim on the next create attempt.
type Manager struct {
	store  Store
	logger *zap.Logger
}

// NewManager creates a reservation manager.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// Claim reserves the admin slot for name. Returns ErrConflict when the slot
// is already held.
func (m *Manager) Claim(ctx context.Context, room, name string) error {
	if err := m.store.Create(ctx, room, name); err != nil {
		if errors.Is(err, ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("claim %s: %w", room, err)
	}
	m.logger.Info("admin slot claimed", zap.String("room", room), zap.String("admin", name))
	return nil
}

// Release deletes the reservation. Idempotent; releasing an absent record is
// not an error.
func (m *Manager) Release(ctx context.Context, room string) error {
	if err := m.store.Delete(ctx, room); err != nil {
		return fmt.Errorf("release %s: %w", room, err)
	}
	m.logger.Info("admin slot released", zap.String("room", room))
	return nil
}

// Admin returns the current reserved admin name, or ErrNotFound.
func (m *Manager) Admin(ctx context.Context, room string) (string, error) {
	return m.store.Get(ctx, room)
}

// Reclaim reads the contested reservation and deletes it, returning the
// evicted admin name. The caller retries Claim exactly once afterwards; a
// second conflict is final for that admission attempt.
//
// The read and the delete are two separate store calls. If the record holder
// changes in between, the delete evicts that newer claimant instead; the
// store offers no compare-and-delete, so this stays a known race window.
func (m *Manager) Reclaim(ctx context.Context, room string) (string, error) {
	name, err := m.store.Get(ctx, room)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// record vanished since the conflicting claim; nothing to evict
			return "", nil
		}
		return "", fmt.Errorf("reclaim read %s: %w", room, err)
	}
	if err := m.store.Delete(ctx, room); err != nil {
		return "", fmt.Errorf("reclaim delete %s: %w", room, err)
	}
	m.logger.Warn("stale admin reservation evicted", zap.String("room", room), zap.String("admin", name))
	return name, nil
}
