package service

import (
	"strings"
	"sync"
	"time"

	"tienda-backend/internal/models"
	"tienda-backend/internal/repository"
)

// In-memory store fakes mirroring the repository semantics, including the
// conditional rotation that only one concurrent caller may win.

type memUserStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{byID: make(map[uint]*models.User)}
}

func (m *memUserStore) Create(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Username, user.Username) {
			return repository.ErrDuplicate
		}
	}
	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	clone := *user
	m.byID[user.ID] = &clone
	return nil
}

func (m *memUserStore) FindByUsername(username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if strings.EqualFold(user.Username, username) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserStore) FindByID(id uint) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

type memRoleStore struct {
	mu          sync.Mutex
	nextID      uint
	byName      map[string]*models.Role
	assignments map[uint]map[uint]bool // userID -> roleID set
}

func newMemRoleStore(names ...string) *memRoleStore {
	store := &memRoleStore{
		byName:      make(map[string]*models.Role),
		assignments: make(map[uint]map[uint]bool),
	}
	for _, name := range names {
		store.nextID++
		store.byName[name] = &models.Role{ID: store.nextID, Name: name}
	}
	return store
}

func (m *memRoleStore) FindByName(name string) (*models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.byName[name]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *role
	return &clone, nil
}

func (m *memRoleStore) Assign(userID, roleID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignments[userID] == nil {
		m.assignments[userID] = make(map[uint]bool)
	}
	m.assignments[userID][roleID] = true
	return nil
}

func (m *memRoleStore) RolesForUser(userID uint) ([]models.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var roles []models.Role
	for _, role := range m.byName {
		if m.assignments[userID][role.ID] {
			roles = append(roles, *role)
		}
	}
	return roles, nil
}

type memTokenStore struct {
	mu     sync.Mutex
	nextID uint
	byID   map[uint]*models.RefreshToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{byID: make(map[uint]*models.RefreshToken)}
}

func cloneToken(t *models.RefreshToken) *models.RefreshToken {
	clone := *t
	if t.RotatedFromID != nil {
		id := *t.RotatedFromID
		clone.RotatedFromID = &id
	}
	if t.RotatedToID != nil {
		id := *t.RotatedToID
		clone.RotatedToID = &id
	}
	return &clone
}

func (m *memTokenStore) Create(t *models.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	t.ID = m.nextID
	t.CreatedAt = time.Now().UTC()
	m.byID[t.ID] = cloneToken(t)
	return nil
}

func (m *memTokenStore) FindByHash(hash string) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.byID {
		if t.TokenHash == hash {
			return cloneToken(t), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memTokenStore) FindByID(id uint) (*models.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(t), nil
}

func (m *memTokenStore) Rotate(parentID uint, child *models.RefreshToken) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	parent, ok := m.byID[parentID]
	if !ok {
		return false, repository.ErrNotFound
	}
	// Compare-and-transition: only an active record may be consumed
	if parent.Revoked || parent.RotatedToID != nil {
		return false, nil
	}
	m.nextID++
	child.ID = m.nextID
	child.CreatedAt = time.Now().UTC()
	m.byID[child.ID] = cloneToken(child)
	childID := child.ID
	parent.Revoked = true
	parent.RotatedToID = &childID
	return true, nil
}

func (m *memTokenStore) RevokeByID(ids ...uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if t, ok := m.byID[id]; ok {
			t.Revoked = true
		}
	}
	return nil
}

func (m *memTokenStore) DeleteExpired(before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for id, t := range m.byID {
		if t.ExpiresAt.Before(before) {
			delete(m.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

type auditEntry struct {
	userID  *uint
	action  string
	details string
}

type memAuditStore struct {
	mu      sync.Mutex
	entries []auditEntry
}

func newMemAuditStore() *memAuditStore {
	return &memAuditStore{}
}

func (m *memAuditStore) Record(userID *uint, action string, details string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, auditEntry{userID: userID, action: action, details: details})
	return nil
}

func (m *memAuditStore) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.action)
	}
	return out
}
