package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/ecostore/apiserver/internal/events"
	"github.com/ecostore/apiserver/internal/store"
	"github.com/ecostore/apiserver/types"
	"github.com/google/uuid"
)

// memoryUsers mimics the unique email index of the users table.
type memoryUsers struct {
	mu    sync.Mutex
	byID  map[string]types.User
	err   error
	calls int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[string]types.User{}}
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.User{}, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memoryUsers) List(context.Context) ([]types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.User, 0, len(m.byID))
	for _, u := range m.byID {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (m *memoryUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return types.User{}, m.err
	}
	for _, u := range m.byID {
		if u.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) Update(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	m.byID[user.ID] = user
	return user, nil
}

func (m *memoryUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryUsers) countEmail(email string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.byID {
		if u.Email == email {
			n++
		}
	}
	return n
}

type recordingEvents struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recordingEvents) Publish(_ context.Context, e events.Event) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.events = append(r.events, e)
	return e.ID, nil
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type memoryDenylist struct {
	revoked map[string]time.Time
	err     error
}

func (d *memoryDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if d.err != nil {
		return d.err
	}
	if d.revoked == nil {
		d.revoked = map[string]time.Time{}
	}
	d.revoked[tokenID] = expiresAt
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	_, ok := d.revoked[tokenID]
	return ok, d.err
}

type memoryProducts struct {
	items  map[int]types.Product
	nextID int
	err    error

	lastOffset, lastLimit int
}

func newMemoryProducts() *memoryProducts {
	return &memoryProducts{items: map[int]types.Product{}, nextID: 1}
}

func (m *memoryProducts) List(_ context.Context, offset, limit int) ([]types.Product, int, error) {
	m.lastOffset, m.lastLimit = offset, limit
	if m.err != nil {
		return nil, 0, m.err
	}
	ids := make([]int, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := []types.Product{}
	for i := offset; i < len(ids) && len(out) < limit; i++ {
		out = append(out, m.items[ids[i]])
	}
	return out, len(ids), nil
}

func (m *memoryProducts) Get(_ context.Context, id int) (types.Product, error) {
	p, ok := m.items[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (m *memoryProducts) Create(_ context.Context, p types.Product) (types.Product, error) {
	if m.err != nil {
		return types.Product{}, m.err
	}
	p.ID = m.nextID
	m.nextID++
	m.items[p.ID] = p
	return p, nil
}

func (m *memoryProducts) Update(_ context.Context, p types.Product) (types.Product, error) {
	if _, ok := m.items[p.ID]; !ok {
		return types.Product{}, store.ErrNotFound
	}
	m.items[p.ID] = p
	return p, nil
}

func (m *memoryProducts) Delete(_ context.Context, id int) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

var errBoom = errors.New("boom")
