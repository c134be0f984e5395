package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	StatusActive        SessionStatus = "ACTIVE"
	StatusAwaitingInput SessionStatus = "AWAITING_INPUT"
	StatusTerminated    SessionStatus = "TERMINATED"
)

type StopReason string

const (
	StopTextMention StopReason = "text_mention"
	StopMaxTurns    StopReason = "max_turns"
)

// Session is owned by the goroutine serving one websocket and is never shared.
type Session struct {
	SessionId    uuid.UUID
	Subject      string
	Rounds       int
	Participants []ParticipantInfo // turn order
	Status       SessionStatus
	Turns        int
	StartedAt    time.Time
	history      []Message
}

func NewSession(subject string, rounds int) *Session {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &Session{
		SessionId: id,
		Subject:   subject,
		Rounds:    rounds,
		Status:    StatusActive,
		StartedAt: time.Now(),
	}
}

// Append stamps the ordinal and timestamp and returns the stored message.
func (s *Session) Append(source, content string) Message {
	msg := Message{
		Source:    source,
		Content:   content,
		Ordinal:   len(s.history),
		Timestamp: time.Now(),
	}
	s.history = append(s.history, msg)
	return msg
}

// History returns a copy, participants must not see later appends or mutate past ones.
func (s *Session) History() []Message {
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Transcript(stop StopReason, runErr error) Transcript {
	t := Transcript{
		SessionId:    s.SessionId.String(),
		Subject:      s.Subject,
		Rounds:       s.Rounds,
		Participants: append([]ParticipantInfo(nil), s.Participants...),
		StopReason:   string(stop),
		Messages:     s.History(),
		StartedAt:    s.StartedAt,
		EndedAt:      time.Now(),
	}
	if runErr != nil {
		t.Error = runErr.Error()
	}
	return t
}
