// Package service coordinates bridge sessions for the daemon: session
// lifecycle, per-session message buffering, and archiving of finished
// games to storage.
package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"dam/internal/bridge"
	"dam/internal/engine"
	"dam/internal/storage"
)

// MaxSessions bounds concurrently running engine workers.
const MaxSessions = 16

// Service owns all live sessions. Storage is optional; without it games
// are simply not archived.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*Session
	store    *storage.Store
	engCfg   engine.Config
	log      zerolog.Logger
}

// New creates a service instance with optional storage.
func New(store *storage.Store, engCfg engine.Config, log zerolog.Logger) *Service {
	return &Service{
		sessions: make(map[string]*Session),
		store:    store,
		engCfg:   engCfg,
		log:      log.With().Str("component", "service").Logger(),
	}
}

// StorageHealth returns the storage component status.
func (s *Service) StorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// CreateSession builds a fresh engine and bridge, starts the worker, and
// registers the session under a new ID.
func (s *Service) CreateSession() (*Session, error) {
	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		ring:      &messageRing{},
		tracker:   newGameTracker(),
	}
	b := bridge.New(engine.New(s.engCfg), s.log.With().Str("session", sess.ID).Logger())
	b.SetMessageSink(sess.ring.append)
	sess.Bridge = b

	// The capacity check and the insert share one critical section so
	// concurrent creators cannot exceed the bound. The slot is released
	// again if the engine fails to come up.
	s.mu.Lock()
	if len(s.sessions) >= MaxSessions {
		s.mu.Unlock()
		return nil, fmt.Errorf("session limit reached (%d)", MaxSessions)
	}
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	if err := b.Init(); err != nil {
		s.remove(sess.ID)
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	if err := b.Start(); err != nil {
		b.Shutdown()
		s.remove(sess.ID)
		return nil, fmt.Errorf("failed to start engine: %w", err)
	}

	s.log.Info().Str("session", sess.ID).Msg("session created")
	return sess, nil
}

func (s *Service) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// GetSession looks up a live session.
func (s *Service) GetSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return sess, nil
}

// SendCommand forwards one HUB line to the session's bridge and updates
// the archive bookkeeping.
func (s *Service) SendCommand(id, line string) error {
	sess, err := s.GetSession(id)
	if err != nil {
		return err
	}
	sess.tracker.observe(line)
	return sess.Bridge.SendCommand(line)
}

// CloseSession archives the session's game, shuts the bridge down and
// removes the session.
func (s *Service) CloseSession(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("session not found: %s", id)
	}

	s.archive(sess)
	sess.Bridge.Shutdown()
	s.log.Info().Str("session", id).Msg("session closed")
	return nil
}

// archive records the session's game when anything was played.
func (s *Service) archive(sess *Session) {
	if s.store == nil {
		return
	}
	record, ok := sess.tracker.snapshot()
	if !ok {
		return
	}
	record.GameID = uuid.NewString()
	record.SessionID = sess.ID
	record.Variant = sess.Bridge.Params().Snapshot().Variant
	s.store.RecordGame(record)
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close shuts down every session; used on daemon exit.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		s.archive(sess)
		sess.Bridge.Shutdown()
	}
}
