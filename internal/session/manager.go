package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Manager hands out the current session for each vendor type.
//
// Thread-safety: all methods are safe for concurrent use. Storage calls are
// made while holding the manager's lock, so two concurrent first accesses
// for a vendor cannot create two sessions.
type Manager struct {
	mu       sync.Mutex
	storage  Storage
	clock    Clock
	ids      IDGenerator
	logger   *slog.Logger
	sessions map[string]Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the time source. Default: the system clock.
func WithClock(c Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithIDGenerator sets the session id source. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(m *Manager) {
		m.ids = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a Manager. A nil storage keeps sessions in memory only.
func NewManager(storage Storage, opts ...Option) *Manager {
	m := &Manager{
		storage:  storage,
		clock:    systemClock{},
		ids:      UUIDv7Generator{},
		logger:   slog.Default(),
		sessions: make(map[string]Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the vendor's current session, creating or renewing it as
// needed, and records the access.
func (m *Manager) Get(ctx context.Context, vendor string) (Session, error) {
	if vendor == "" {
		return Session{}, ErrNoVendor
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[vendor]
	if !ok {
		stored, found, err := m.load(ctx, vendor)
		if err != nil {
			return Session{}, err
		}
		if !found {
			s = m.create(1)
		} else {
			s = stored
			ok = true
		}
	}
	if ok {
		s = m.touch(s)
	}

	if err := m.save(ctx, vendor, s); err != nil {
		return Session{}, err
	}
	m.sessions[vendor] = s
	return s, nil
}

// touch renews an expired session or refreshes a live one.
func (m *Manager) touch(s Session) Session {
	now := m.clock.Now()
	if s.Expired(now) {
		m.logger.Debug("session expired",
			"session_id", s.ID,
			"count", s.Count)
		return m.create(s.Count + 1)
	}
	if s.Count == 0 {
		s.Count = 1
	}
	s.LastAccessTimestamp = now.UnixMilli()
	return s
}

func (m *Manager) create(count int) Session {
	now := m.clock.Now().UnixMilli()
	return Session{
		ID:                  m.ids.Generate(),
		CreationTimestamp:   now,
		LastAccessTimestamp: now,
		Count:               count,
	}
}

func (m *Manager) load(ctx context.Context, vendor string) (Session, bool, error) {
	if m.storage == nil {
		return Session{}, false, nil
	}
	s, found, err := m.storage.LoadSession(ctx, vendor)
	if err != nil {
		return Session{}, false, fmt.Errorf("load session for %s: %w", vendor, err)
	}
	return s, found, nil
}

func (m *Manager) save(ctx context.Context, vendor string, s Session) error {
	if m.storage == nil {
		return nil
	}
	if err := m.storage.SaveSession(ctx, vendor, s); err != nil {
		return fmt.Errorf("save session for %s: %w", vendor, err)
	}
	return nil
}
