package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"tienda-backend/internal/models"
	"tienda-backend/internal/repository"

	"github.com/google/uuid"
)

// RefreshTokenStore is the persistence contract for refresh token records.
// Implemented by repository.RefreshTokenRepository.
type RefreshTokenStore interface {
	Create(token *models.RefreshToken) error
	FindByHash(hash string) (*models.RefreshToken, error)
	FindByID(id uint) (*models.RefreshToken, error)
	// Rotate atomically consumes the parent and persists the child. It must
	// return (false, nil) when the parent was already rotated or revoked, so
	// that only one of two concurrent rotations can succeed.
	Rotate(parentID uint, child *models.RefreshToken) (bool, error)
	RevokeByID(ids ...uint) error
	DeleteExpired(before time.Time) (int64, error)
}

// RefreshTokenRegistry owns the rotation/revocation state machine for
// refresh tokens. Each login roots a chain; each successful refresh revokes
// the presented token and appends a child. Presenting a revoked token is
// treated as compromise evidence and revokes the entire chain.
type RefreshTokenRegistry struct {
	store RefreshTokenStore
	ttl   time.Duration
	now   func() time.Time
}

func NewRefreshTokenRegistry(store RefreshTokenStore, ttl time.Duration) *RefreshTokenRegistry {
	return &RefreshTokenRegistry{
		store: store,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// TTL returns the configured refresh token lifetime
func (r *RefreshTokenRegistry) TTL() time.Duration {
	return r.ttl
}

// IssueRoot creates a new chain root for the user and returns the raw opaque
// token value together with its stored record.
func (r *RefreshTokenRegistry) IssueRoot(userID uint) (string, *models.RefreshToken, error) {
	raw := uuid.NewString()
	record := &models.RefreshToken{
		UserID:    userID,
		TokenHash: hashRefreshToken(raw),
		ExpiresAt: r.now().Add(r.ttl),
	}
	if err := r.store.Create(record); err != nil {
		return "", nil, fmt.Errorf("store refresh token: %w", err)
	}
	return raw, record, nil
}

// Rotate consumes the presented token and returns a fresh child token.
//
// Failure semantics are terminal for the attempt: a second call with the same
// value cannot succeed. Presenting a revoked record (rotated away, logged
// out, or revoked by an earlier replay) revokes the whole chain and returns
// ErrReplayDetected.
func (r *RefreshTokenRegistry) Rotate(raw string) (string, *models.RefreshToken, error) {
	record, err := r.store.FindByHash(hashRefreshToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrRotationUnknown
		}
		return "", nil, fmt.Errorf("look up refresh token: %w", err)
	}

	if record.Revoked {
		// Reuse of a non-current token. The legitimate client and a thief
		// are indistinguishable now, so invalidate the whole chain.
		if err := r.revokeChain(record); err != nil {
			return "", nil, err
		}
		return "", nil, ErrReplayDetected
	}

	if record.Expired(r.now()) {
		return "", nil, ErrRotationExpired
	}

	newRaw := uuid.NewString()
	child := &models.RefreshToken{
		UserID:        record.UserID,
		TokenHash:     hashRefreshToken(newRaw),
		ExpiresAt:     r.now().Add(r.ttl),
		RotatedFromID: &record.ID,
	}

	ok, err := r.store.Rotate(record.ID, child)
	if err != nil {
		return "", nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !ok {
		// Lost the race: a concurrent rotation consumed this record first.
		// Re-read for fresh chain pointers, then take the replay path.
		fresh, err := r.store.FindByID(record.ID)
		if err != nil {
			return "", nil, fmt.Errorf("re-read refresh token: %w", err)
		}
		if err := r.revokeChain(fresh); err != nil {
			return "", nil, err
		}
		return "", nil, ErrReplayDetected
	}

	return newRaw, child, nil
}

// Revoke marks the single token identified by raw as revoked
func (r *RefreshTokenRegistry) Revoke(raw string) error {
	record, err := r.store.FindByHash(hashRefreshToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRotationUnknown
		}
		return fmt.Errorf("look up refresh token: %w", err)
	}
	return r.store.RevokeByID(record.ID)
}

// RevokeChain revokes every token in the chain containing raw (logout path)
func (r *RefreshTokenRegistry) RevokeChain(raw string) error {
	record, err := r.store.FindByHash(hashRefreshToken(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRotationUnknown
		}
		return fmt.Errorf("look up refresh token: %w", err)
	}
	return r.revokeChain(record)
}

// PurgeExpired deletes refresh token rows past their expiry. Expiry is still
// enforced lazily at rotation time; this is housekeeping only.
func (r *RefreshTokenRegistry) PurgeExpired() (int64, error) {
	return r.store.DeleteExpired(r.now())
}

// revokeChain walks the rotation chain in both directions from record and
// revokes every member. The chain is a linked list over surrogate ids, so
// each hop is a bounded primary-key lookup.
func (r *RefreshTokenRegistry) revokeChain(record *models.RefreshToken) error {
	ids := []uint{record.ID}

	for current := record; current.RotatedFromID != nil; {
		parent, err := r.store.FindByID(*current.RotatedFromID)
		if err != nil {
			return fmt.Errorf("walk chain back: %w", err)
		}
		ids = append(ids, parent.ID)
		current = parent
	}

	for current := record; current.RotatedToID != nil; {
		child, err := r.store.FindByID(*current.RotatedToID)
		if err != nil {
			return fmt.Errorf("walk chain forward: %w", err)
		}
		ids = append(ids, child.ID)
		current = child
	}

	if err := r.store.RevokeByID(ids...); err != nil {
		return fmt.Errorf("revoke chain: %w", err)
	}
	return nil
}

// hashRefreshToken creates a SHA-256 hash of the raw token value for storage.
// Raw values never touch the database or logs.
func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
