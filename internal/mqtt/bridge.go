// bridge.go: subscribes to sample topics and feeds decoded samples into the
// switching engine.
package mqtt

import (
	"encoding/json"
	"strings"

	"github.com/openstudio/director-go/internal/director"
)

// SampleSink receives decoded samples from the bridge. The director
// controller satisfies this interface.
type SampleSink interface {
	IngestAudio(sessionID string, sample *director.AudioSample) (*director.SignalAnalysis, error)
	IngestEngagement(sessionID string, sample *director.EngagementSample) (*director.SignalAnalysis, error)
}

// Bridge routes broker-delivered samples into a SampleSink. Sample topics are
// <base>/samples/audio/<session_id> and <base>/samples/engagement/<session_id>.
type Bridge struct {
	client    Client
	baseTopic string
	sink      SampleSink
}

// NewBridge creates a bridge between the given client and sink.
func NewBridge(client Client, baseTopic string, sink SampleSink) *Bridge {
	return &Bridge{
		client:    client,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		sink:      sink,
	}
}

// Start subscribes to the sample topics. The subscriptions are replayed on
// reconnect by the client.
func (b *Bridge) Start() error {
	if err := b.client.Subscribe(b.baseTopic+"/samples/audio/+", b.handleAudio); err != nil {
		return err
	}
	return b.client.Subscribe(b.baseTopic+"/samples/engagement/+", b.handleEngagement)
}

func (b *Bridge) handleAudio(topic string, payload []byte) {
	sessionID := sessionFromTopic(topic)
	if sessionID == "" {
		getLogger().Warn("audio sample on malformed topic", "topic", topic)
		return
	}

	var sample director.AudioSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		getLogger().Warn("failed to decode audio sample", "topic", topic, "error", err)
		return
	}

	if _, err := b.sink.IngestAudio(sessionID, &sample); err != nil {
		getLogger().Warn("audio sample rejected", "session_id", sessionID, "error", err)
	}
}

func (b *Bridge) handleEngagement(topic string, payload []byte) {
	sessionID := sessionFromTopic(topic)
	if sessionID == "" {
		getLogger().Warn("engagement sample on malformed topic", "topic", topic)
		return
	}

	var sample director.EngagementSample
	if err := json.Unmarshal(payload, &sample); err != nil {
		getLogger().Warn("failed to decode engagement sample", "topic", topic, "error", err)
		return
	}

	if _, err := b.sink.IngestEngagement(sessionID, &sample); err != nil {
		getLogger().Warn("engagement sample rejected", "session_id", sessionID, "error", err)
	}
}

// sessionFromTopic extracts the session id from the final topic segment.
func sessionFromTopic(topic string) string {
	idx := strings.LastIndex(topic, "/")
	if idx < 0 || idx == len(topic)-1 {
		return ""
	}
	return topic[idx+1:]
}
