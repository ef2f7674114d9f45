package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/travelai/booking-chat/backend/internal/model/chat"
	"github.com/travelai/booking-chat/backend/internal/model/offer"
	"github.com/travelai/booking-chat/backend/internal/observability"
	"github.com/travelai/booking-chat/backend/internal/service/booking"
)

var ErrSessionNotFound = errors.New("session not found")

// Service keeps one orchestrator per live session in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*booking.Orchestrator

	catalog         offer.Catalog
	completer       booking.Completer
	defaultLanguage chat.Language
	options         []booking.Option
	logger          *zap.Logger
}

// NewService bootstraps the in-memory session registry. Orchestrator options
// (timeout, classifier) are applied to every session it creates.
func NewService(catalog offer.Catalog, completer booking.Completer, defaultLanguage chat.Language, logger *zap.Logger, opts ...booking.Option) *Service {
	if defaultLanguage == "" {
		defaultLanguage = chat.Primary
	}
	return &Service{
		sessions:        make(map[string]*booking.Orchestrator),
		catalog:         catalog,
		completer:       completer,
		defaultLanguage: defaultLanguage,
		options:         opts,
		logger:          observability.OrNop(logger).Named("sessions"),
	}
}

// CreateSession starts a conversation in the requested language; an empty
// language uses the configured default.
func (s *Service) CreateSession(_ context.Context, language string) (*booking.Orchestrator, error) {
	lang := s.defaultLanguage
	if language != "" {
		parsed, err := chat.ParseLanguage(language)
		if err != nil {
			return nil, fmt.Errorf("invalid session language: %w", err)
		}
		lang = parsed
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		Language:  lang,
		CreatedAt: time.Now().UTC(),
	}

	opts := append([]booking.Option{booking.WithLogger(s.logger.Named("orchestrator"))}, s.options...)
	orchestrator := booking.NewOrchestrator(session, s.catalog, s.completer, opts...)

	s.mu.Lock()
	s.sessions[session.ID] = orchestrator
	s.mu.Unlock()

	s.logger.Info("session created", zap.String("session", session.ID), zap.String("language", string(lang)))
	return orchestrator, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (*booking.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orchestrator, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return orchestrator, nil
}

// DeleteSession ends a session; restarting means creating a new one.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	orchestrator, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	orchestrator.Close()
	s.logger.Info("session closed", zap.String("session", sessionID))
	return nil
}

// Count reports the number of live sessions.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Shutdown closes every session.
func (s *Service) Shutdown() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*booking.Orchestrator)
	s.mu.Unlock()

	for _, orchestrator := range sessions {
		orchestrator.Close()
	}
}
