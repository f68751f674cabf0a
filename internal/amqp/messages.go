package amqp

import (
	"encoding/json"
	"time"
)

// Change feed operations.
const (
	OpCreated  = "created"
	OpDeleted  = "deleted"
	OpImported = "imported"
)

// EntryChangeMessage announces that an owner's entry set changed.
// It carries identifiers only; consumers fetch the full entry from
// storage when they need it.
type EntryChangeMessage struct {
	OwnerID   string    `json:"owner_id"`
	EntryID   string    `json:"entry_id,omitempty"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryChangeMessage(ownerID, entryID, op string) *EntryChangeMessage {
	return &EntryChangeMessage{
		OwnerID:   ownerID,
		EntryID:   entryID,
		Op:        op,
		Timestamp: time.Now(),
	}
}

func (m *EntryChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryChangeMessageFromJSON(data []byte) (*EntryChangeMessage, error) {
	var msg EntryChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
