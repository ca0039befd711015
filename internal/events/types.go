// Package events provides an asynchronous event bus that decouples the
// switching hot path from durable storage, MQTT publishing and metrics.
// Publishing never blocks: when the buffer is full the event is dropped and
// counted, because a slow sink must not delay a live switching decision.
package events

import (
	"time"
)

// SwitchEvent is the bus-facing view of an executed or attempted camera
// switch. The director package's event type satisfies this interface, which
// avoids a dependency from the bus back into the engine.
type SwitchEvent interface {
	// GetEventID returns the unique event identifier
	GetEventID() string

	// GetSessionID returns the session the switch belongs to
	GetSessionID() string

	// GetTargetCamera returns the camera the switch targeted
	GetTargetCamera() string

	// GetTriggerReason returns the category of signal that caused the switch
	GetTriggerReason() string

	// GetSwitchType returns "auto" or "manual"
	GetSwitchType() string

	// GetConfidence returns the confidence score behind the decision
	GetConfidence() float64

	// IsSuccess returns whether the switch was applied
	IsSuccess() bool

	// GetFailureReason returns why the switch was not applied, empty on success
	GetFailureReason() string

	// GetAudioLevel returns the audio level captured with the decision
	GetAudioLevel() float64

	// GetEngagementScore returns the engagement score captured with the decision
	GetEngagementScore() float64

	// GetTransitionType returns the transition effect used for the switch
	GetTransitionType() string

	// GetTimestamp returns when the switch was attempted
	GetTimestamp() time.Time
}

// Consumer represents a sink that processes switch events off the hot path.
type Consumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent processes a single switch event
	ProcessEvent(event SwitchEvent) error
}

// BusStats contains runtime statistics for monitoring.
type BusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}
