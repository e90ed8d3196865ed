package consult

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	"github.com/zhouzirui/medassist/backend/internal/analysis/triage"
	"github.com/zhouzirui/medassist/backend/internal/model/chat"
	"github.com/zhouzirui/medassist/backend/internal/service/location"

	chatService "github.com/zhouzirui/medassist/backend/internal/service/chat"
)

// DefaultThinkingDelay is the pause before a classification response is emitted.
const DefaultThinkingDelay = 1500 * time.Millisecond

var ErrEmptyMessage = errors.New("symptom description is required")

// Resolver is the location acquisition collaborator.
type Resolver interface {
	FromCoordinates(ctx context.Context, lat, lon float64) (chat.Location, error)
	FromCity(ctx context.Context, query string) (chat.Location, error)
}

// Config tunes the consultation flow.
type Config struct {
	ThinkingDelay time.Duration
	MapsSearchURL string
}

// DeviceReport is what the client observed from device geolocation: either
// coordinates or an error code.
type DeviceReport struct {
	Latitude  float64
	Longitude float64
	Error     location.DeviceErrorCode
}

// Reply is the outcome of a symptom submission.
type Reply struct {
	Session  chat.Session   `json:"session"`
	User     chat.Message   `json:"user"`
	Result   triage.Result  `json:"result"`
	Messages []chat.Message `json:"messages"`
}

// LocationUpdate is the outcome of a location action.
type LocationUpdate struct {
	Session  chat.Session   `json:"session"`
	Messages []chat.Message `json:"messages"`
}

// Service orchestrates location acquisition and triage for chat sessions.
type Service struct {
	chat     *chatService.Service
	resolver Resolver
	cfg      Config
	wait     func(ctx context.Context, d time.Duration) error
}

// Option customises the Service.
type Option func(*Service)

// WithWaiter replaces the thinking-delay wait, mainly for tests.
func WithWaiter(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.wait = wait
	}
}

// NewService wires the orchestration service.
func NewService(chatSvc *chatService.Service, resolver Resolver, cfg Config, opts ...Option) *Service {
	if cfg.ThinkingDelay < 0 {
		cfg.ThinkingDelay = 0
	}
	s := &Service{
		chat:     chatSvc,
		resolver: resolver,
		cfg:      cfg,
		wait:     sleep,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates a session and greets the user.
func (s *Service) Start(ctx context.Context) (chat.Session, []chat.Message, error) {
	session, err := s.chat.CreateSession(ctx)
	if err != nil {
		return chat.Session{}, nil, err
	}

	welcome, err := s.chat.AppendMessage(ctx, session.ID, chat.RoleBot, welcomeText, chat.SeverityNormal)
	if err != nil {
		return chat.Session{}, nil, err
	}

	log.Printf("[consult] session started id=%s", session.ID)
	return session, []chat.Message{welcome}, nil
}

// DetectLocation applies a device geolocation report.
func (s *Service) DetectLocation(ctx context.Context, sessionID string, report DeviceReport) (LocationUpdate, error) {
	if err := s.ensureNoLocation(ctx, sessionID); err != nil {
		return LocationUpdate{}, err
	}

	if report.Error != "" {
		deviceErr := &location.DeviceError{Code: report.Error}
		return s.failLocation(ctx, sessionID, deviceErr.Message(), deviceErr)
	}

	loc, err := s.resolver.FromCoordinates(ctx, report.Latitude, report.Longitude)
	if err != nil {
		return s.failLocation(ctx, sessionID, detectFailedText, err)
	}

	return s.applyLocation(ctx, sessionID, loc, detectedText(loc.Address), detectedGreeting(loc.City))
}

// SetCity applies a manually typed city.
func (s *Service) SetCity(ctx context.Context, sessionID, city string) (LocationUpdate, error) {
	if strings.TrimSpace(city) == "" {
		return LocationUpdate{}, location.ErrEmptyQuery
	}
	if err := s.ensureNoLocation(ctx, sessionID); err != nil {
		return LocationUpdate{}, err
	}

	loc, err := s.resolver.FromCity(ctx, city)
	if err != nil {
		return s.failLocation(ctx, sessionID, manualFailedText, err)
	}

	if loc.Approximate {
		return s.applyLocation(ctx, sessionID, loc, approximateSetText(loc.City), approximateGreeting(loc.City))
	}
	return s.applyLocation(ctx, sessionID, loc, manualSetText(loc.Address), manualGreeting(loc.City))
}

// ResetLocation clears the location so it can be acquired again.
func (s *Service) ResetLocation(ctx context.Context, sessionID string) (LocationUpdate, error) {
	session, err := s.chat.ResetLocation(ctx, sessionID)
	if err != nil {
		return LocationUpdate{}, err
	}

	msg, err := s.chat.AppendMessage(ctx, sessionID, chat.RoleSystem, resetText, chat.SeverityNormal)
	if err != nil {
		return LocationUpdate{}, err
	}

	log.Printf("[consult] location reset session=%s", sessionID)
	return LocationUpdate{Session: session, Messages: []chat.Message{msg}}, nil
}

// Submit classifies a symptom description and appends the response messages.
// Only one submission per session may be in flight.
func (s *Service) Submit(ctx context.Context, sessionID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyMessage
	}

	session, err := s.chat.BeginRequest(ctx, sessionID)
	if err != nil {
		return Reply{}, err
	}

	reply, err := s.respond(ctx, session, text)
	if endErr := s.chat.EndRequest(context.Background(), sessionID); endErr != nil {
		log.Printf("[consult] failed to release request session=%s: %v", sessionID, endErr)
	}
	if err != nil {
		return Reply{}, err
	}

	if reply.Session, err = s.chat.GetSession(ctx, sessionID); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// respond runs a pending submission: store the user message, wait, classify, reply.
func (s *Service) respond(ctx context.Context, session chat.Session, text string) (Reply, error) {
	userMsg, err := s.chat.AppendMessage(ctx, session.ID, chat.RoleUser, text, chat.SeverityNormal)
	if err != nil {
		return Reply{}, err
	}

	if err := s.wait(ctx, s.cfg.ThinkingDelay); err != nil {
		log.Printf("[consult] submission abandoned session=%s: %v", session.ID, err)
		return Reply{}, err
	}

	result := triage.Classify(text)
	responses := s.compose(result, *session.Location, text)

	messages := make([]chat.Message, 0, len(responses))
	for _, draft := range responses {
		msg, err := s.chat.AppendMessage(ctx, session.ID, draft.role, draft.content, draft.severity)
		if err != nil {
			return Reply{}, fmt.Errorf("append response: %w", err)
		}
		messages = append(messages, msg)
	}

	log.Printf("[consult] classified session=%s tier=%s specialization=%s", session.ID, result.Tier, result.Specialization)
	return Reply{User: userMsg, Result: result, Messages: messages}, nil
}

type draft struct {
	role     chat.Role
	content  string
	severity chat.Severity
}

func (s *Service) compose(result triage.Result, loc chat.Location, text string) []draft {
	switch result.Tier {
	case triage.TierSevere:
		spec := string(result.Specialization)
		link := s.hospitalLink(result.Specialization, loc)
		return []draft{
			{chat.RoleBot, severeAlertText, chat.SeveritySevere},
			{chat.RoleSystem, specializationText(spec), chat.SeveritySevere},
			{chat.RoleSystem, fmt.Sprintf("📍 Find emergency %s care near you:", spec), chat.SeveritySevere},
			{chat.RoleSystem, anchor(link, severeLinkClass, fmt.Sprintf("Open %s hospitals in Google Maps", spec)), chat.SeveritySevere},
		}
	case triage.TierChronic:
		spec := string(result.Specialization)
		link := s.hospitalLink(result.Specialization, loc)
		return []draft{
			{chat.RoleBot, chronicAdviceText, chat.SeverityWarning},
			{chat.RoleSystem, specializationText(spec), chat.SeverityWarning},
			{chat.RoleSystem, fmt.Sprintf("📍 Find %s specialists in %s:", spec, html.EscapeString(loc.City)), chat.SeverityWarning},
			{chat.RoleSystem, anchor(link, chronicLinkClass, fmt.Sprintf("Open %s specialists in Google Maps", spec)), chat.SeverityWarning},
		}
	default:
		return []draft{
			{chat.RoleBot, triage.Advice(text), chat.SeverityNormal},
			{chat.RoleSystem, triage.Disclaimer, chat.SeverityNormal},
		}
	}
}

func (s *Service) hospitalLink(spec triage.Specialization, loc chat.Location) string {
	return html.EscapeString(triage.HospitalSearchURL(s.cfg.MapsSearchURL, spec, loc.City, loc.Lat, loc.Lon))
}

func (s *Service) ensureNoLocation(ctx context.Context, sessionID string) error {
	session, err := s.chat.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.Location != nil {
		return chatService.ErrLocationAlreadySet
	}
	return nil
}

func (s *Service) applyLocation(ctx context.Context, sessionID string, loc chat.Location, confirmation, greeting string) (LocationUpdate, error) {
	session, err := s.chat.SetLocation(ctx, sessionID, loc)
	if err != nil {
		return LocationUpdate{}, err
	}

	confirm, err := s.chat.AppendMessage(ctx, sessionID, chat.RoleSystem, confirmation, chat.SeverityNormal)
	if err != nil {
		return LocationUpdate{}, err
	}
	hello, err := s.chat.AppendMessage(ctx, sessionID, chat.RoleBot, greeting, chat.SeverityNormal)
	if err != nil {
		return LocationUpdate{}, err
	}

	log.Printf("[consult] location set session=%s city=%s approximate=%t", sessionID, loc.City, loc.Approximate)
	return LocationUpdate{Session: session, Messages: []chat.Message{confirm, hello}}, nil
}

// failLocation records a recoverable location failure in the transcript and
// returns the cause.
func (s *Service) failLocation(ctx context.Context, sessionID, text string, cause error) (LocationUpdate, error) {
	msg, err := s.chat.AppendMessage(ctx, sessionID, chat.RoleSystem, text, chat.SeverityWarning)
	if err != nil {
		return LocationUpdate{}, err
	}

	session, err := s.chat.GetSession(ctx, sessionID)
	if err != nil {
		return LocationUpdate{}, err
	}

	return LocationUpdate{Session: session, Messages: []chat.Message{msg}}, cause
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
