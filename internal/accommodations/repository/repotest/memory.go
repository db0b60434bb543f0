package repotest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"staybook/internal/accommodations/repository"
	"staybook/platform/apperr"
)

// Memory is an in-process AccommodationRepository for tests. It keeps the
// ordering rules of the postgres implementation.
type Memory struct {
	mu     sync.RWMutex
	items  map[int64]repository.Accommodation
	savers map[int64][]repository.Saver
	nextID int64
	now    func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		items:  make(map[int64]repository.Accommodation),
		savers: make(map[int64][]repository.Saver),
		now:    time.Now,
	}
}

// SetNextID makes the next created accommodation receive id.
func (m *Memory) SetNextID(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = id - 1
}

// RecordSaver registers s as having saved accommodation id.
func (m *Memory) RecordSaver(id int64, s repository.Saver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savers[id] = append(m.savers[id], s)
}

func (m *Memory) Create(_ context.Context, params repository.CreateParams) (repository.Accommodation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := m.now()
	a := repository.Accommodation{
		ID:          m.nextID,
		Title:       params.Title,
		Description: params.Description,
		Price:       params.Price,
		Location:    params.Location,
		ImageURL:    params.ImageURL,
		Amenities:   append([]string{}, params.Amenities...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.items[a.ID] = a
	return clone(a), nil
}

func (m *Memory) GetByID(_ context.Context, id int64) (repository.Accommodation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.items[id]
	if !ok {
		return repository.Accommodation{}, apperr.NotFound(repository.MsgNotFound)
	}
	return clone(a), nil
}

func (m *Memory) ListAll(_ context.Context) ([]repository.Accommodation, error) {
	return m.filter(func(repository.Accommodation) bool { return true }, newestFirstLess), nil
}

func (m *Memory) ListPage(ctx context.Context, limit, offset int) ([]repository.Accommodation, error) {
	all, _ := m.ListAll(ctx)
	if offset >= len(all) {
		return []repository.Accommodation{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *Memory) Search(_ context.Context, term string) ([]repository.Accommodation, error) {
	needle := strings.ToLower(term)
	return m.filter(func(a repository.Accommodation) bool {
		return strings.Contains(strings.ToLower(a.Title), needle) ||
			strings.Contains(strings.ToLower(a.Description), needle)
	}, newestFirstLess), nil
}

func (m *Memory) ListByLocation(_ context.Context, location string) ([]repository.Accommodation, error) {
	needle := strings.ToLower(location)
	return m.filter(func(a repository.Accommodation) bool {
		return strings.Contains(strings.ToLower(a.Location), needle)
	}, newestFirstLess), nil
}

func (m *Memory) ListByPriceRange(_ context.Context, minPrice, maxPrice float64) ([]repository.Accommodation, error) {
	return m.filter(func(a repository.Accommodation) bool {
		return a.Price >= minPrice && a.Price <= maxPrice
	}, func(a, b repository.Accommodation) bool {
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.ID < b.ID
	}), nil
}

func (m *Memory) ListByAmenity(_ context.Context, amenity string) ([]repository.Accommodation, error) {
	return m.filter(func(a repository.Accommodation) bool { return a.HasAmenity(amenity) }, newestFirstLess), nil
}

// Modify runs apply on a copy of the stored row while holding the write lock.
func (m *Memory) Modify(_ context.Context, id int64, apply func(*repository.Accommodation) error) (repository.Accommodation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[id]
	if !ok {
		return repository.Accommodation{}, apperr.NotFound(repository.MsgNotFound)
	}
	next := clone(current)
	if err := apply(&next); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return clone(current), nil
		}
		return repository.Accommodation{}, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = m.now()
	m.items[id] = clone(next)
	return next, nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.NotFound(repository.MsgNotFound)
	}
	delete(m.items, id)
	delete(m.savers, id)
	return nil
}

func (m *Memory) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.items)), nil
}

func (m *Memory) Exists(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[id]
	return ok, nil
}

func (m *Memory) ListSavers(_ context.Context, id int64) ([]repository.Saver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]repository.Saver{}, m.savers[id]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SelectedAt.After(out[j].SelectedAt) })
	return out, nil
}

func (m *Memory) filter(keep func(repository.Accommodation) bool, less func(a, b repository.Accommodation) bool) []repository.Accommodation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]repository.Accommodation, 0, len(m.items))
	for _, a := range m.items {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func newestFirstLess(a, b repository.Accommodation) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func clone(a repository.Accommodation) repository.Accommodation {
	a.Amenities = append([]string{}, a.Amenities...)
	return a
}

var _ repository.AccommodationRepository = (*Memory)(nil)
