package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"OpenEmployee/internal/employee"
	xerrors "OpenEmployee/internal/errors"
)

type entry struct {
	session *Session
	busy    bool
}

// MemoryStore 以内存方式保存会话，读写均返回副本。
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// NewMemoryStore 创建 MemoryStore。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*entry)}
}

// Create 实现 Store 接口。
func (m *MemoryStore) Create(_ context.Context, session *Session) error {
	if session == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "session 不能为空")
	}
	if session.ID == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "会话 ID 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; ok {
		return ErrSessionConflict
	}
	clone := session.Clone()
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	if clone.UpdatedAt.IsZero() {
		clone.UpdatedAt = clone.CreatedAt
	}
	m.sessions[session.ID] = &entry{session: clone}
	return nil
}

// Get 返回会话副本。
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.session.Clone(), nil
}

// Claim 为调用方独占会话，会话已被占用时返回 ErrSessionBusy。
func (m *MemoryStore) Claim(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if e.busy {
		return e.session.Clone(), ErrSessionBusy
	}
	e.busy = true
	return e.session.Clone(), nil
}

// Save 覆盖已存在的会话。会话已被删除时返回 ErrSessionNotFound，调用方应丢弃结果。
func (m *MemoryStore) Save(_ context.Context, session *Session) error {
	if session == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "session 不能为空")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[session.ID]
	if !ok {
		return ErrSessionNotFound
	}
	e.session = session.Clone()
	return nil
}

// Release 解除占用，会话不存在时忽略。
func (m *MemoryStore) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		e.busy = false
	}
	return nil
}

// Delete 移除会话，不等待进行中的处理。
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

// List 返回符合条件的会话。
func (m *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	results := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		if !matchesListFilters(e.session, opts) {
			continue
		}
		results = append(results, e.session.Clone())
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if opts.Order == SortByUpdatedAsc {
			a, b = b, a
		}
		if a.UpdatedAt.Equal(b.UpdatedAt) {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return results[i].ID < results[j].ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.UpdatedAt.After(b.UpdatedAt)
	})

	if opts.Offset >= len(results) {
		return []*Session{}, nil
	}
	results = results[opts.Offset:]
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Stats 统计符合过滤条件的会话数量与更新时间范围。
func (m *MemoryStore) Stats(_ context.Context, opts ListOptions) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	opts.applyDefaults()

	stats := Stats{
		ByStatus: make(map[Status]int),
		ByMode:   make(map[employee.Mode]int),
	}
	for _, e := range m.sessions {
		s := e.session
		if !matchesListFilters(s, opts) {
			continue
		}
		stats.Total++
		stats.ByStatus[s.Status]++
		stats.ByMode[s.Mode]++
		if e.busy {
			stats.Busy++
		}
		if s.UpdatedAt.After(stats.NewestUpdatedAt) {
			stats.NewestUpdatedAt = s.UpdatedAt
		}
		if stats.OldestUpdatedAt.IsZero() || s.UpdatedAt.Before(stats.OldestUpdatedAt) {
			stats.OldestUpdatedAt = s.UpdatedAt
		}
	}
	return stats, nil
}

// Close 对内存存储无需操作。
func (m *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
