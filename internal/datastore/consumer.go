package datastore

import (
	"github.com/openstudio/director-go/internal/events"
)

// EventConsumer persists switch events from the event bus. Persistence
// happens on the bus workers, never on the switching hot path.
type EventConsumer struct {
	store Interface
}

// NewEventConsumer creates a consumer writing to the given store.
func NewEventConsumer(store Interface) *EventConsumer {
	return &EventConsumer{store: store}
}

// Name implements events.Consumer.
func (c *EventConsumer) Name() string {
	return "datastore"
}

// ProcessEvent implements events.Consumer.
func (c *EventConsumer) ProcessEvent(event events.SwitchEvent) error {
	record := &SwitchEventRecord{
		EventID:         event.GetEventID(),
		SessionID:       event.GetSessionID(),
		Timestamp:       event.GetTimestamp(),
		TargetCamera:    event.GetTargetCamera(),
		SwitchType:      event.GetSwitchType(),
		TriggerReason:   event.GetTriggerReason(),
		ConfidenceScore: event.GetConfidence(),
		AudioLevel:      event.GetAudioLevel(),
		EngagementScore: event.GetEngagementScore(),
		TransitionType:  event.GetTransitionType(),
		Success:         event.IsSuccess(),
		FailureReason:   event.GetFailureReason(),
	}
	return c.store.SaveSwitchEvent(record)
}
