package session

import (
	"encoding/json"
	"time"

	"github.com/kraklabs/memvcs/pkg/memerrs"
	"github.com/kraklabs/memvcs/pkg/storageadapter"
)

const sessionFilePath = ".mem/current_session.json"

// Status is a Session's lifecycle state.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusEnded  Status = "ended"
)

// Observation is one buffered tool invocation (§4.9).
type Observation struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	ToolName  string            `json:"tool_name"`
	Arguments map[string]string `json:"arguments,omitempty"`
	Result    string            `json:"result,omitempty"`
	Topic     Topic             `json:"topic"`
	MemoryType string           `json:"memory_type"`
}

// Session is the persisted, disk-backed observation buffer.
type Session struct {
	ID           string           `json:"id"`
	StartedAt    time.Time        `json:"started_at"`
	Observations []Observation    `json:"observations"`
	Topics       map[Topic][]string `json:"topics"`
	LastActivity time.Time        `json:"last_activity"`
	EndedAt      *time.Time       `json:"ended_at,omitempty"`
	CommitCount  int              `json:"commit_count"`
	Status       Status           `json:"status"`
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		StartedAt:    now,
		Topics:       map[Topic][]string{},
		LastActivity: now,
		Status:       StatusActive,
	}
}

func loadSession(adapter storageadapter.Adapter) (*Session, error) {
	if !adapter.Exists(sessionFilePath) {
		return nil, nil
	}
	data, err := adapter.Read(sessionFilePath)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, memerrs.Wrap(memerrs.ErrIntegrity, "decode current session", err)
	}
	if s.Topics == nil {
		s.Topics = map[Topic][]string{}
	}
	return &s, nil
}

func saveSession(adapter storageadapter.Adapter, s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return memerrs.Wrap(memerrs.ErrValidation, "encode current session", err)
	}
	return adapter.Write(sessionFilePath, data)
}

func discardSession(adapter storageadapter.Adapter) error {
	_, err := adapter.Delete(sessionFilePath)
	return err
}
