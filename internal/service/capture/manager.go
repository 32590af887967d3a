package capture

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"futurefind-speech-service/internal/observability/metrics"
	"futurefind-speech-service/internal/service/segment"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// Manager owns the live sessions of the process.
type Manager struct {
	opts    Options
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns a manager whose sessions are built from opts. All
// sessions share one segment generator.
func NewManager(opts Options) *Manager {
	if opts.Segments == nil {
		opts.Segments = segment.New()
	}
	return &Manager{
		opts:     opts,
		metrics:  metrics.DefaultMetrics,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session under a random UUID.
func (m *Manager) Create() *Session {
	for {
		s, err := m.CreateWithID(uuid.NewString())
		if err == nil {
			return s
		}
	}
}

// CreateWithID registers a new session under id.
func (m *Manager) CreateWithID(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; ok {
		return nil, ErrSessionExists
	}
	s := NewSession(id, m.opts)
	m.sessions[id] = s
	m.metrics.RecordSessionCreated()
	log.Debug().Str("sessionId", id).Msg("Session created")
	return s, nil
}

// Get returns the session registered under id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete stops and unregisters a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.metrics.RecordSessionRemoved()
	return s.Close()
}

// List returns snapshots of every session ordered by id.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, len(sessions))
	for i, s := range sessions {
		out[i] = s.Snapshot()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close stops every session. The manager stays usable.
func (m *Manager) Close() error {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		m.metrics.RecordSessionRemoved()
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
