package services

import (
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"dynai/internal/models"
	"dynai/internal/predictor"
)

// SessionManager owns at most one Session at a time. A new session can only
// be attached once the previous one is shut down and its state cleared.
type SessionManager struct {
	mu      sync.Mutex
	opts    Options
	current *Session
}

func NewSessionManager(opts Options) *SessionManager {
	return &SessionManager{opts: opts.withDefaults()}
}

// Attach starts a fresh session on p. It fails with ErrSessionActive if a
// session is already attached.
func (m *SessionManager) Attach(p predictor.Predictor) (*Session, error) {
	return m.AttachWithState(p, nil)
}

// AttachWithState starts a session on p pre-loaded with previously exported
// state. A nil state behaves like Attach.
func (m *SessionManager) AttachWithState(p predictor.Predictor, st *models.SessionState) (*Session, error) {
	if p == nil {
		return nil, fmt.Errorf("attach session: predictor is required")
	}
	if st != nil {
		if err := st.Validate(); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return nil, models.ErrSessionActive
	}

	s := newSession(p, m.opts)
	if st != nil {
		s.load(st)
	}
	m.current = s
	log.Infof("Session %s attached (%d messages)", s.id, s.messages.Len())
	return s, nil
}

// Current returns the attached session or ErrNoSession.
func (m *SessionManager) Current() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil, models.ErrNoSession
	}
	return m.current, nil
}

// Shutdown clears the current session's local state and detaches it. The
// predictor is closed when it implements io.Closer. Nothing is sent to the
// service.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	s := m.current
	if s == nil {
		m.mu.Unlock()
		return models.ErrNoSession
	}
	s.close()
	m.current = nil
	m.mu.Unlock()
	log.Infof("Session %s shut down", s.id)

	if c, ok := s.predictor.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close predictor: %w", err)
		}
	}
	return nil
}
