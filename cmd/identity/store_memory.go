package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is the dev fallback used when no database is configured, and the
// store behind most tests. All operations are serialized by one mutex, so
// SetRefreshToken is a true compare-and-set.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Identity
	byEmail map[string]string // email -> id
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*Identity),
		byEmail: make(map[string]string),
	}
}

func snapshot(u *Identity) Identity {
	out := *u
	out.RefreshTokenHash = cloneStr(u.RefreshTokenHash)
	out.AvatarURL = cloneStr(u.AvatarURL)
	return out
}

// FindByEmail implements Store.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (Identity, error) {
	const op = "identity.FindByEmail"
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	email = NormalizeEmail(email)

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return Identity{}, NotFoundError{Op: op, Key: "email"}
	}
	return snapshot(s.byID[id]), nil
}

// FindByID implements Store.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (Identity, error) {
	const op = "identity.FindByID"
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[strings.TrimSpace(id)]
	if !ok {
		return Identity{}, NotFoundError{Op: op, Key: "id"}
	}
	return snapshot(u), nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, in CreateInput) (Identity, error) {
	const op = "identity.Create"
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	in, err := in.validate(op)
	if err != nil {
		return Identity{}, err
	}

	id, err := NewULID(in.Now)
	if err != nil {
		return Identity{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[in.Email]; exists {
		return Identity{}, ConflictError{Op: op, Field: "email"}
	}

	u := &Identity{
		ID:           id,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		AvatarURL:    cloneStr(in.AvatarURL),
		CreatedAt:    in.Now,
		UpdatedAt:    in.Now,
	}
	s.byID[id] = u
	s.byEmail[in.Email] = id

	return snapshot(u), nil
}

// SetRefreshToken implements Store.
func (s *MemoryStore) SetRefreshToken(ctx context.Context, id string, next, expectedPrior *string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok || !sameStr(u.RefreshTokenHash, expectedPrior) {
		return false, nil
	}
	u.RefreshTokenHash = cloneStr(next)
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

// MarkConfirmed implements Store.
func (s *MemoryStore) MarkConfirmed(ctx context.Context, id string) (bool, error) {
	const op = "identity.MarkConfirmed"
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return false, NotFoundError{Op: op, Key: "id"}
	}
	if u.Confirmed {
		return false, nil
	}
	u.Confirmed = true
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

// UpdatePasswordHash implements Store.
func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	const op = "identity.UpdatePasswordHash"
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(hash) == "" {
		return invalid(op, "password hash is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return NotFoundError{Op: op, Key: "id"}
	}
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	return nil
}
