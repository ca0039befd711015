// publisher.go: event bus consumer that mirrors switch events to the broker.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/openstudio/director-go/internal/events"
)

// eventMessage is the wire form of a switch event published to the broker.
type eventMessage struct {
	EventID         string    `json:"event_id"`
	SessionID       string    `json:"session_id"`
	Timestamp       time.Time `json:"timestamp"`
	TargetCamera    string    `json:"target_camera"`
	SwitchType      string    `json:"switch_type"`
	TriggerReason   string    `json:"trigger_reason"`
	ConfidenceScore float64   `json:"confidence_score"`
	AudioLevel      float64   `json:"audio_level"`
	EngagementScore float64   `json:"engagement_score"`
	TransitionType  string    `json:"transition_type"`
	Success         bool      `json:"success"`
	FailureReason   string    `json:"failure_reason,omitempty"`
}

// EventPublisher publishes switch events to <base>/events/<session_id>.
// It runs on the event bus workers, off the switching hot path.
type EventPublisher struct {
	client    Client
	baseTopic string
	timeout   time.Duration
}

// NewEventPublisher creates a publisher for the given client and base topic.
func NewEventPublisher(client Client, baseTopic string, timeout time.Duration) *EventPublisher {
	if timeout <= 0 {
		timeout = DefaultConfig().PublishTimeout
	}
	return &EventPublisher{
		client:    client,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		timeout:   timeout,
	}
}

// Name implements events.Consumer.
func (p *EventPublisher) Name() string {
	return "mqtt"
}

// ProcessEvent implements events.Consumer.
func (p *EventPublisher) ProcessEvent(event events.SwitchEvent) error {
	msg := eventMessage{
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

	payload, err := json.Marshal(&msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	topic := p.baseTopic + "/events/" + msg.SessionID
	return p.client.Publish(ctx, topic, string(payload))
}
