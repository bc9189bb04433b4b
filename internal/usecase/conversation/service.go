// Package conversation orchestrates the turn-by-turn dialogue over a
// threat-intelligence bundle: it sequences lookups, operator utterances, and
// synthesized bot replies through the session state machine.
package conversation

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/VishwasN1706/airis/internal/entity"
	"github.com/VishwasN1706/airis/internal/usecase/intent"
	"github.com/VishwasN1706/airis/internal/usecase/synthesis"
)

// LookupProvider fetches the threat-intelligence bundle for an IP.
type LookupProvider interface {
	Lookup(ctx context.Context, ip string) (*entity.Bundle, error)
}

// Notifier receives every message appended to a session, for live delivery.
type Notifier interface {
	Publish(sessionID string, msg entity.Message)
}

const (
	defaultReplyDelay    = time.Second
	defaultLookupTimeout = 30 * time.Second
)

// Service manages conversation sessions. It is the single writer for all
// session state: every transition happens under the service mutex, so the
// per-session message sequence needs no further synchronization.
type Service struct {
	lookup     LookupProvider
	logger     *slog.Logger
	replyDelay time.Duration
	notifier   Notifier

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewService creates a conversation service. A zero replyDelay falls back to
// one second, the nominal "thinking" period.
func NewService(lookup LookupProvider, replyDelay time.Duration, logger *slog.Logger) *Service {
	if replyDelay <= 0 {
		replyDelay = defaultReplyDelay
	}

	return &Service{
		lookup:     lookup,
		logger:     logger,
		replyDelay: replyDelay,
		sessions:   make(map[string]*Session),
	}
}

// SetNotifier attaches a live message sink. Optional; set before serving.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// StartSession creates a session for the given IP, or retargets an existing
// one when sessionID names a live session. Retargeting clears the message
// history and invalidates any in-flight lookup or pending reply for the
// previous IP. The lookup runs asynchronously; its completion seeds the first
// bot message.
func (s *Service) StartSession(ctx context.Context, sessionID, ip string) (*Session, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return nil, ErrEmptyInput
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = newSession()
		s.sessions[sess.ID] = sess
	}
	gen := sess.beginLookup(ip)
	id := sess.ID
	snap := sess.snapshot()
	s.mu.Unlock()

	s.logger.Info("session lookup started", "session_id", id, "ip", ip)

	go s.runLookup(id, ip, gen)

	return snap, nil
}

// GetSession returns a copy of the session state.
func (s *Service) GetSession(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.snapshot(), nil
}

// Submit handles one operator utterance: the user message is appended
// immediately, the reply is synthesized from the current bundle, and its
// delivery is scheduled after the reply delay. Blank input is silently
// ignored; input while a lookup or reply is pending is refused.
func (s *Service) Submit(sessionID, text string) (entity.Message, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return entity.Message{}, ErrSessionNotFound
	}

	msg, err := sess.submitUser(text)
	if err != nil {
		s.mu.Unlock()
		return entity.Message{}, err
	}

	gen := sess.Generation
	// The reply is synthesized now, against the bundle the question was asked
	// about; only its delivery is delayed.
	reply := synthesis.Synthesize(intent.Classify(text), sess.Bundle)
	s.mu.Unlock()

	s.publish(sessionID, msg)
	time.AfterFunc(s.replyDelay, func() {
		s.deliverReply(sessionID, gen, reply)
	})

	return msg, nil
}

// ExportReport returns the session IP and the raw upstream document for
// download.
func (s *Service) ExportReport(sessionID string) (string, json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return "", nil, ErrSessionNotFound
	}
	if sess.Bundle == nil {
		return "", nil, ErrNoBundle
	}
	return sess.IP, sess.Bundle.Raw, nil
}

func (s *Service) runLookup(sessionID, ip string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultLookupTimeout)
	defer cancel()

	bundle, err := s.lookup.Lookup(ctx, ip)
	if err != nil {
		s.logger.Warn("lookup failed", "session_id", sessionID, "ip", ip, "error", err)
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}

	msg, applied := sess.completeLookup(gen, bundle, err)
	s.mu.Unlock()

	if !applied {
		s.logger.Debug("stale lookup result discarded", "session_id", sessionID, "ip", ip)
		return
	}

	s.publish(sessionID, msg)
}

func (s *Service) deliverReply(sessionID string, gen uint64, text string) {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return
	}

	msg, applied := sess.completeReply(gen, text)
	s.mu.Unlock()

	if !applied {
		s.logger.Debug("stale reply discarded", "session_id", sessionID)
		return
	}

	s.publish(sessionID, msg)
}

func (s *Service) publish(sessionID string, msg entity.Message) {
	if s.notifier != nil {
		s.notifier.Publish(sessionID, msg)
	}
}
