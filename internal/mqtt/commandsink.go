// commandsink.go: switch sink that publishes switch commands to the broker.
package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/openstudio/director-go/internal/director"
	"github.com/openstudio/director-go/internal/errors"
)

// commandMessage is the wire form of a switch command. The video mixer
// subscribed to the command topic applies the camera cut.
type commandMessage struct {
	SessionID  string    `json:"session_id"`
	CameraID   string    `json:"camera_id"`
	DeviceID   string    `json:"device_id,omitempty"`
	Transition string    `json:"transition"`
	IssuedAt   time.Time `json:"issued_at"`
}

// CommandSink publishes switch commands to <base>/command/<session_id>. It
// implements the director's switch sink, so a failed publish surfaces as an
// unreachable target and triggers the executor's retry.
type CommandSink struct {
	client    Client
	baseTopic string
	timeout   time.Duration
}

// NewCommandSink creates a sink for the given client and base topic.
func NewCommandSink(client Client, baseTopic string, timeout time.Duration) *CommandSink {
	if timeout <= 0 {
		timeout = DefaultConfig().PublishTimeout
	}
	return &CommandSink{
		client:    client,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		timeout:   timeout,
	}
}

// Switch implements director.SwitchSink.
func (cs *CommandSink) Switch(sessionID string, camera director.CameraConfig, transition string) error {
	msg := commandMessage{
		SessionID:  sessionID,
		CameraID:   camera.CameraID,
		DeviceID:   camera.DeviceID,
		Transition: transition,
		IssuedAt:   time.Now(),
	}

	payload, err := json.Marshal(&msg)
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			SessionID(sessionID).
			Build()
	}

	ctx, cancel := context.WithTimeout(context.Background(), cs.timeout)
	defer cancel()

	topic := cs.baseTopic + "/command/" + sessionID
	return cs.client.Publish(ctx, topic, string(payload))
}
