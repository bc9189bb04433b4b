package conversation

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/VishwasN1706/airis/internal/entity"
)

// State is the lifecycle state of a conversation session.
type State string

const (
	// StateIdle: no bundle yet and no fetch in flight.
	StateIdle State = "idle"
	// StateLoading: a lookup is in flight; input is refused.
	StateLoading State = "loading"
	// StateReady: accepting operator input.
	StateReady State = "ready"
	// StateAwaiting: a bot reply is pending; input is refused.
	StateAwaiting State = "awaiting"
)

const (
	// SeedNoReportText seeds the conversation when the lookup succeeded but
	// the upstream service produced no narrative.
	SeedNoReportText = "The lookup completed but no threat report was generated for this address."

	// SeedLookupFailedText seeds the conversation when the lookup failed.
	SeedLookupFailedText = "The threat-intelligence lookup failed for this address. You can search again to retry."
)

var (
	// ErrEmptyInput marks a blank utterance. It is a no-op, not a failure:
	// nothing is appended to the session.
	ErrEmptyInput = errors.New("empty input")

	// ErrSessionBusy marks input submitted while a lookup or a reply is
	// pending. Input is rejected, not queued.
	ErrSessionBusy = errors.New("session busy")

	// ErrSessionNotFound marks an unknown session identifier.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoBundle marks an operation that needs an attached bundle.
	ErrNoBundle = errors.New("no bundle attached")
)

// Session is the stateful, per-IP conversation instance. It exclusively owns
// its message sequence and bundle reference; the bundle is read-only once
// attached. All mutation goes through the transition methods below, which are
// pure state logic with no delivery-surface concerns, sequenced externally by
// the Service (single writer).
type Session struct {
	ID string `json:"id"`
	IP string `json:"ip"`

	State State `json:"state"`

	// Generation guards async completions: a lookup result or reply timer
	// carrying a stale generation is discarded, never applied.
	Generation uint64 `json:"-"`

	Bundle       *entity.Bundle   `json:"bundle,omitempty"`
	Messages     []entity.Message `json:"messages"`
	LookupFailed bool             `json:"lookup_failed"`
}

func newSession() *Session {
	return &Session{
		ID:       uuid.NewString(),
		State:    StateIdle,
		Messages: []entity.Message{},
	}
}

// beginLookup retargets the session at an IP: the generation is bumped so any
// in-flight completion for the previous target becomes stale, the history is
// cleared, and the session enters Loading.
func (s *Session) beginLookup(ip string) uint64 {
	s.Generation++
	s.IP = ip
	s.State = StateLoading
	s.Bundle = nil
	s.LookupFailed = false
	s.Messages = []entity.Message{}
	return s.Generation
}

// completeLookup applies a finished lookup. Stale completions (generation
// mismatch) are dropped; the returned message is the seeded bot turn, valid
// only when applied is true.
func (s *Session) completeLookup(gen uint64, b *entity.Bundle, err error) (entity.Message, bool) {
	if gen != s.Generation || s.State != StateLoading {
		return entity.Message{}, false
	}

	s.State = StateReady

	if err != nil {
		s.LookupFailed = true
		return s.append(entity.RoleBot, SeedLookupFailedText), true
	}

	s.Bundle = b
	text := b.ThreatReport.ReportText
	if text == "" {
		text = SeedNoReportText
	}
	return s.append(entity.RoleBot, text), true
}

// submitUser appends a user turn and enters Awaiting. Blank input is a no-op;
// input while Loading or Awaiting is refused.
func (s *Session) submitUser(text string) (entity.Message, error) {
	if text == "" {
		return entity.Message{}, ErrEmptyInput
	}
	if s.State == StateLoading || s.State == StateAwaiting {
		return entity.Message{}, ErrSessionBusy
	}

	msg := s.append(entity.RoleUser, text)
	s.State = StateAwaiting
	return msg, nil
}

// completeReply applies a scheduled bot reply. Stale timers are dropped.
func (s *Session) completeReply(gen uint64, text string) (entity.Message, bool) {
	if gen != s.Generation || s.State != StateAwaiting {
		return entity.Message{}, false
	}

	msg := s.append(entity.RoleBot, text)
	s.State = StateReady
	return msg, true
}

func (s *Session) append(role entity.Role, text string) entity.Message {
	msg := entity.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	s.Messages = append(s.Messages, msg)
	return msg
}

// snapshot returns a copy safe to hand outside the service lock.
func (s *Session) snapshot() *Session {
	cp := *s
	cp.Messages = make([]entity.Message, len(s.Messages))
	copy(cp.Messages, s.Messages)
	return &cp
}
