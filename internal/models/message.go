package models

import "time"

type Message struct {
	Source    string    `json:"source"`  // participant name, or "user" for the seed task
	Content   string    `json:"content"`
	Ordinal   int       `json:"ordinal"` // position in the conversation history, seed task is 0
	Timestamp time.Time `json:"timestamp"`
}

type ParticipantInfo struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"` // "assistant" or "human"
	Description string `json:"description,omitempty"`
}

type Transcript struct {
	SessionId    string            `json:"sessionId"`
	Subject      string            `json:"subject"`
	Rounds       int               `json:"rounds"`
	Participants []ParticipantInfo `json:"participants"`
	StopReason   string            `json:"stopReason,omitempty"` // empty when the session ended without a stop reason
	Error        string            `json:"error,omitempty"`
	Messages     []Message         `json:"messages"`
	StartedAt    time.Time         `json:"startedAt"`
	EndedAt      time.Time         `json:"endedAt"`
}
