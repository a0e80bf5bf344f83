package events

import (
	"encoding/json"
	"time"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeMessage identifies one changed document. Consumers re-read the
// document from the store; the payload deliberately carries no field data.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Action     Action    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(collection, id string, action Action) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		ID:         id,
		Action:     action,
		Timestamp:  time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
