package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/medassist/backend/internal/model/chat"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrEmptyContent       = errors.New("message content is required")
	ErrInvalidRole        = errors.New("invalid message role")
	ErrLocationRequired   = errors.New("location must be set before describing symptoms")
	ErrLocationAlreadySet = errors.New("location already set, reset it first")
	ErrRequestPending     = errors.New("a consultation is already being processed")
	ErrNoPendingRequest   = errors.New("no consultation is being processed")
)

// Service keeps sessions and their append-only transcripts in memory.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
	messages map[string][]chat.Message
	now      func() time.Time
}

// NewService bootstraps the in-memory chat service.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*chat.Session),
		messages: make(map[string][]chat.Message),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateSession provisions an anonymous session waiting for a location.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	session := &chat.Session{
		ID:        uuid.NewString(),
		State:     chat.StateAwaitingLocation,
		Request:   chat.RequestIdle,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.mu.Unlock()

	return snapshot(session), nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return snapshot(session), nil
}

// AppendMessage stores a new message at the end of the transcript and returns it
// with its identifier and timestamp filled in.
func (s *Service) AppendMessage(_ context.Context, sessionID string, role chat.Role, content string, severity chat.Severity) (chat.Message, error) {
	if strings.TrimSpace(content) == "" {
		return chat.Message{}, ErrEmptyContent
	}
	switch role {
	case chat.RoleUser, chat.RoleBot, chat.RoleSystem:
	default:
		return chat.Message{}, ErrInvalidRole
	}
	if severity == "" {
		severity = chat.SeverityNormal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	message := chat.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Severity:  severity,
		CreatedAt: s.now(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], message)
	return message, nil
}

// LoadTranscript returns stored messages for the provided session in arrival order.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}

// SetLocation stores the location and moves the session to symptom input.
func (s *Service) SetLocation(_ context.Context, sessionID string, location chat.Location) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.Location != nil {
		return chat.Session{}, ErrLocationAlreadySet
	}

	loc := location
	session.Location = &loc
	session.State = chat.StateAwaitingSymptoms
	return snapshot(session), nil
}

// ResetLocation clears the location and re-enters location acquisition.
// The transcript is left untouched.
func (s *Service) ResetLocation(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}

	session.Location = nil
	session.State = chat.StateAwaitingLocation
	return snapshot(session), nil
}

// BeginRequest moves the session to pending. It fails when no location is set or
// another request has not finished yet.
func (s *Service) BeginRequest(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	if session.State != chat.StateAwaitingSymptoms || session.Location == nil {
		return chat.Session{}, ErrLocationRequired
	}
	if session.Request == chat.RequestPending {
		return chat.Session{}, ErrRequestPending
	}

	session.Request = chat.RequestPending
	return snapshot(session), nil
}

// EndRequest returns the session to idle.
func (s *Service) EndRequest(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Request != chat.RequestPending {
		return ErrNoPendingRequest
	}

	session.Request = chat.RequestIdle
	return nil
}

func snapshot(session *chat.Session) chat.Session {
	out := *session
	if session.Location != nil {
		loc := *session.Location
		out.Location = &loc
	}
	return out
}
