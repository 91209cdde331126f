package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the collection change carried by a ChangeEvent.
type EventType string

const (
	BalanceUpserted EventType = "balance.upserted"
	BalanceDeleted  EventType = "balance.deleted"
	GoalCreated     EventType = "goal.created"
	GoalDeleted     EventType = "goal.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case BalanceUpserted, BalanceDeleted, GoalCreated, GoalDeleted:
		return true
	}
	return false
}

// ChangeEvent is a lightweight notification that a collection changed.
// Consumers reload whatever they need from the API or the store.
type ChangeEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeEvent(eventType EventType, id int64) *ChangeEvent {
	return &ChangeEvent{
		Type:      eventType,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

func (e *ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ChangeEventFromJSON(data []byte) (*ChangeEvent, error) {
	var e ChangeEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	return &e, nil
}
