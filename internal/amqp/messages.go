package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// StateChangedMessage tells other instances that a snapshot was rewritten.
// It carries no state; receivers reload from storage.
type StateChangedMessage struct {
	Key       string    `json:"key"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStateChangedMessage(key, origin string) *StateChangedMessage {
	return &StateChangedMessage{
		Key:       key,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromSelf reports whether the message was published by origin.
func (m *StateChangedMessage) FromSelf(origin string) bool {
	return m.Origin == origin
}

func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Key == "" {
		return nil, errors.New("state changed message without key")
	}
	return &msg, nil
}
