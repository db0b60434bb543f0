package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"staybook/internal/users/repository"
)

// AccommodationLookup resolves an accommodation for the in-memory store. ok is
// false when the accommodation does not exist.
type AccommodationLookup func(ctx context.Context, id int64) (a repository.SavedAccommodation, ok bool, err error)

type savedKey struct {
	userID          int64
	accommodationID int64
}

// Memory is an in-process UserRepository for tests. It enforces the same
// uniqueness and foreign key rules as the schema.
type Memory struct {
	mu     sync.RWMutex
	users  map[int64]repository.User
	saved  map[savedKey]time.Time
	lookup AccommodationLookup
	nextID int64
	now    func() time.Time
}

// NewMemory creates an empty store. lookup may be nil, in which case every
// accommodation is treated as missing.
func NewMemory(lookup AccommodationLookup) *Memory {
	return &Memory{
		users:  make(map[int64]repository.User),
		saved:  make(map[savedKey]time.Time),
		lookup: lookup,
		now:    time.Now,
	}
}

func (m *Memory) Create(_ context.Context, params repository.CreateParams) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkUnique(params.Username, params.Email, 0); err != nil {
		return repository.User{}, err
	}
	m.nextID++
	now := m.now()
	u := repository.User{
		ID:           m.nextID,
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: params.PasswordHash,
		Role:         params.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if u.Role == "" {
		u.Role = repository.RoleUser
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (repository.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetByEmail(_ context.Context, email string) (repository.User, error) {
	return m.find(func(u repository.User) bool { return u.Email == email })
}

func (m *Memory) List(_ context.Context) ([]repository.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateProfile(_ context.Context, id int64, username, email string) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	if err := m.checkUnique(username, email, id); err != nil {
		return repository.User{}, err
	}
	u.Username, u.Email, u.UpdatedAt = username, email, m.now()
	m.users[id] = u
	return u, nil
}

func (m *Memory) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash, u.UpdatedAt = passwordHash, m.now()
	m.users[id] = u
	return nil
}

func (m *Memory) UpdateRole(_ context.Context, id int64, role string) (repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	u.Role, u.UpdatedAt = role, m.now()
	m.users[id] = u
	return u, nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	for key := range m.saved {
		if key.userID == id {
			delete(m.saved, key)
		}
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *Memory) UsernameExists(_ context.Context, username string, excludeID int64) (bool, error) {
	_, err := m.find(func(u repository.User) bool { return u.Username == username && u.ID != excludeID })
	return err == nil, nil
}

func (m *Memory) EmailExists(_ context.Context, email string, excludeID int64) (bool, error) {
	_, err := m.find(func(u repository.User) bool { return u.Email == email && u.ID != excludeID })
	return err == nil, nil
}

// ListAccommodations skips pairs whose accommodation no longer resolves,
// matching the cascade on the real table.
func (m *Memory) ListAccommodations(ctx context.Context, userID int64) ([]repository.SavedAccommodation, error) {
	m.mu.RLock()
	pairs := make(map[int64]time.Time)
	for key, at := range m.saved {
		if key.userID == userID {
			pairs[key.accommodationID] = at
		}
	}
	m.mu.RUnlock()

	out := make([]repository.SavedAccommodation, 0, len(pairs))
	for id, at := range pairs {
		if m.lookup == nil {
			break
		}
		a, ok, err := m.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		a.SelectedAt = at
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SelectedAt.Equal(out[j].SelectedAt) {
			return out[i].SelectedAt.After(out[j].SelectedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) AddAccommodation(ctx context.Context, userID, accommodationID int64) error {
	if m.lookup == nil {
		return repository.ErrAccommodationMissing
	}
	if _, ok, err := m.lookup(ctx, accommodationID); err != nil {
		return err
	} else if !ok {
		return repository.ErrAccommodationMissing
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[userID]; !ok {
		return repository.ErrNotFound
	}
	key := savedKey{userID: userID, accommodationID: accommodationID}
	if _, dup := m.saved[key]; dup {
		return repository.ErrAlreadySaved
	}
	m.saved[key] = m.now()
	return nil
}

func (m *Memory) RemoveAccommodation(_ context.Context, userID, accommodationID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := savedKey{userID: userID, accommodationID: accommodationID}
	if _, ok := m.saved[key]; !ok {
		return repository.ErrNotSaved
	}
	delete(m.saved, key)
	return nil
}

func (m *Memory) HasAccommodation(_ context.Context, userID, accommodationID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.saved[savedKey{userID: userID, accommodationID: accommodationID}]
	return ok, nil
}

func (m *Memory) find(match func(repository.User) bool) (repository.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		found repository.User
		ok    bool
	)
	for _, u := range m.users {
		if match(u) && (!ok || u.ID < found.ID) {
			found, ok = u, true
		}
	}
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return found, nil
}

// checkUnique must be called with m.mu held.
func (m *Memory) checkUnique(username, email string, excludeID int64) error {
	for _, u := range m.users {
		if u.ID != excludeID && u.Email == email {
			return repository.ErrDuplicateEmail
		}
	}
	for _, u := range m.users {
		if u.ID != excludeID && u.Username == username {
			return repository.ErrDuplicateUsername
		}
	}
	return nil
}

var _ repository.UserRepository = (*Memory)(nil)
