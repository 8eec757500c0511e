package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotMessage announces that a user document changed. It carries only
// the document identity and version; consumers load the document itself.
type SnapshotMessage struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotMessage(userID, kind string, version int64) *SnapshotMessage {
	return &SnapshotMessage{
		UserID:    userID,
		Kind:      kind,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func (m *SnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotMessageFromJSON(data []byte) (*SnapshotMessage, error) {
	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
