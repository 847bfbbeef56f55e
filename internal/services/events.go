package services

import (
	"encoding/json"
	"log"
)

// Event types published after successful writes.
const (
	EventUserRegistered = "user.registered"
	EventEntryCreated   = "entry.created"
)

// EventPublisher delivers domain events to a message broker.
type EventPublisher interface {
	Publish(eventType string, body []byte) error
}

// publishEvent marshals payload and hands it to publisher. Failures are
// logged and never propagate: the write they describe is already committed.
func publishEvent(publisher EventPublisher, eventType string, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", eventType, err)
		return
	}
	if err := publisher.Publish(eventType, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", eventType, err)
	}
}
