package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/user-management/internal/model"
	"github.com/iliyamo/user-management/internal/repository"
	"github.com/iliyamo/user-management/internal/utils"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.User
	err    error // forced error for every call when set
}

func newMemUsers() *memUsers { return &memUsers{byID: map[uint64]*model.User{}} }

func (m *memUsers) add(u model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	u.ID = m.nextID
	u.Email = strings.ToLower(u.Email)
	cp := u
	m.byID[u.ID] = &cp
	return u
}

func (m *memUsers) findEmail(email string) *model.User {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.byID {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (m *memUsers) Create(_ context.Context, u model.User, password string, cost int) (uint64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	if m.findEmail(u.Email) != nil {
		m.mu.Unlock()
		return 0, repository.ErrEmailExists
	}
	m.mu.Unlock()
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u.PasswordHash = hash
	return m.add(u).ID, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	if m.err != nil {
		return model.User{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u := m.findEmail(email); u != nil {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if m.err != nil {
		return model.User{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) List(_ context.Context, page, limit int) ([]model.User, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	all := make([]model.User, 0, len(m.byID))
	for _, u := range m.byID {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memUsers) mutate(id uint64, f func(*model.User)) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	f(u)
	u.UpdatedAt = time.Now()
	return nil
}

func (m *memUsers) mutateEmail(email string, f func(*model.User)) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.findEmail(email)
	if u == nil {
		return repository.ErrNotFound
	}
	f(u)
	return nil
}

func (m *memUsers) Update(_ context.Context, id uint64, f repository.UserFields) error {
	return m.mutate(id, func(u *model.User) {
		if f.FullName != nil {
			u.FullName = *f.FullName
		}
		if f.Phone != nil {
			u.Phone = *f.Phone
		}
		if f.Role != nil {
			u.Role = *f.Role
		}
	})
}

func (m *memUsers) SetLocked(_ context.Context, id uint64, locked bool) error {
	return m.mutate(id, func(u *model.User) { u.IsLocked = locked })
}

func (m *memUsers) ActivateByEmail(_ context.Context, email string) (bool, error) {
	err := m.mutateEmail(email, func(u *model.User) { u.IsActive = true })
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) UpdatePasswordByEmail(_ context.Context, email, hash string) error {
	return m.mutateEmail(email, func(u *model.User) { u.PasswordHash = hash })
}

func (m *memUsers) UpdatePasswordByID(_ context.Context, id uint64, hash string) error {
	return m.mutate(id, func(u *model.User) { u.PasswordHash = hash })
}

func (m *memUsers) MarkLoggedIn(_ context.Context, email string) error {
	return m.mutateEmail(email, func(u *model.User) { u.HasLoggedIn = true })
}

func (m *memUsers) Delete(_ context.Context, id uint64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

type published struct {
	queue string
	event any
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, queue string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{queue: queue, event: event})
	return nil
}

type memNotes struct {
	rows []model.Notification
	err  error
}

func (n *memNotes) Create(_ context.Context, note model.Notification) (uint64, error) {
	if n.err != nil {
		return 0, n.err
	}
	note.ID = uint64(len(n.rows) + 1)
	n.rows = append(n.rows, note)
	return note.ID, nil
}

func (n *memNotes) ListUnread(_ context.Context, limit int) ([]model.Notification, error) {
	if len(n.rows) > limit {
		return n.rows[:limit], nil
	}
	return n.rows, nil
}
