package mqtt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openstudio/director-go/internal/director"
)

// fakeClient records subscriptions and lets tests inject messages.
type fakeClient struct {
	handlers  map[string]MessageHandler
	published map[string]string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:  make(map[string]MessageHandler),
		published: make(map[string]string),
	}
}

func (f *fakeClient) Connect(context.Context) error { return nil }
func (f *fakeClient) IsConnected() bool             { return true }
func (f *fakeClient) Disconnect()                   {}

func (f *fakeClient) Publish(_ context.Context, topic, payload string) error {
	f.published[topic] = payload
	return nil
}

func (f *fakeClient) Subscribe(topic string, handler MessageHandler) error {
	f.handlers[topic] = handler
	return nil
}

// deliver routes a message to the handler whose filter prefix matches.
func (f *fakeClient) deliver(topic string, payload []byte) {
	for filter, handler := range f.handlers {
		prefix := filter[:len(filter)-1] // trim the trailing "+"
		if len(topic) > len(prefix) && topic[:len(prefix)] == prefix {
			handler(topic, payload)
		}
	}
}

// recordingSink captures samples the bridge forwards.
type recordingSink struct {
	audio      map[string]*director.AudioSample
	engagement map[string]*director.EngagementSample
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		audio:      make(map[string]*director.AudioSample),
		engagement: make(map[string]*director.EngagementSample),
	}
}

func (rs *recordingSink) IngestAudio(sessionID string, sample *director.AudioSample) (*director.SignalAnalysis, error) {
	rs.audio[sessionID] = sample
	return &director.SignalAnalysis{}, nil
}

func (rs *recordingSink) IngestEngagement(sessionID string, sample *director.EngagementSample) (*director.SignalAnalysis, error) {
	rs.engagement[sessionID] = sample
	return &director.SignalAnalysis{}, nil
}

func TestBridgeSubscribesToSampleTopics(t *testing.T) {
	client := newFakeClient()
	bridge := NewBridge(client, "director", newRecordingSink())
	require.NoError(t, bridge.Start())

	assert.Contains(t, client.handlers, "director/samples/audio/+")
	assert.Contains(t, client.handlers, "director/samples/engagement/+")
}

func TestBridgeRoutesAudioSamples(t *testing.T) {
	client := newFakeClient()
	sink := newRecordingSink()
	bridge := NewBridge(client, "director", sink)
	require.NoError(t, bridge.Start())

	payload, err := json.Marshal(&director.AudioSample{
		Level:           0.8,
		Clarity:         0.7,
		SpeakerDetected: "cam-host",
	})
	require.NoError(t, err)

	client.deliver("director/samples/audio/session-1", payload)

	sample, ok := sink.audio["session-1"]
	require.True(t, ok)
	assert.InDelta(t, 0.8, sample.Level, 1e-9)
	assert.Equal(t, "cam-host", sample.SpeakerDetected)
}

func TestBridgeRoutesEngagementSamples(t *testing.T) {
	client := newFakeClient()
	sink := newRecordingSink()
	bridge := NewBridge(client, "director", sink)
	require.NoError(t, bridge.Start())

	payload, err := json.Marshal(&director.EngagementSample{
		ParticipantID: "guest",
		Attention:     0.9,
	})
	require.NoError(t, err)

	client.deliver("director/samples/engagement/session-7", payload)

	sample, ok := sink.engagement["session-7"]
	require.True(t, ok)
	assert.Equal(t, "guest", sample.ParticipantID)
}

func TestBridgeIgnoresMalformedPayloads(t *testing.T) {
	client := newFakeClient()
	sink := newRecordingSink()
	bridge := NewBridge(client, "director", sink)
	require.NoError(t, bridge.Start())

	client.deliver("director/samples/audio/session-1", []byte("not json"))
	assert.Empty(t, sink.audio)
}

func TestSessionFromTopic(t *testing.T) {
	assert.Equal(t, "s1", sessionFromTopic("director/samples/audio/s1"))
	assert.Equal(t, "", sessionFromTopic("director/samples/audio/"))
	assert.Equal(t, "", sessionFromTopic("nodelimiter"))
}

func TestCommandSinkPublishesSwitchCommand(t *testing.T) {
	client := newFakeClient()
	sink := NewCommandSink(client, "director/", 0)

	err := sink.Switch("session-3", director.CameraConfig{
		CameraID: "cam-wide",
		DeviceID: "dev-2",
	}, "cut")
	require.NoError(t, err)

	payload, ok := client.published["director/command/session-3"]
	require.True(t, ok)

	var decoded commandMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, "session-3", decoded.SessionID)
	assert.Equal(t, "cam-wide", decoded.CameraID)
	assert.Equal(t, "dev-2", decoded.DeviceID)
	assert.Equal(t, "cut", decoded.Transition)
}

func TestEventPublisherWritesSessionTopic(t *testing.T) {
	client := newFakeClient()
	publisher := NewEventPublisher(client, "director", 0)

	event := &director.SwitchEvent{
		EventID:         "evt-1",
		SessionID:       "session-1",
		TargetCamera:    "cam-guest",
		SwitchType:      director.SwitchTypeAuto,
		TriggerReason:   director.ReasonSpeakerChange,
		ConfidenceScore: 0.8,
		Success:         true,
	}
	require.NoError(t, publisher.ProcessEvent(event))

	payload, ok := client.published["director/events/session-1"]
	require.True(t, ok)

	var decoded eventMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &decoded))
	assert.Equal(t, "evt-1", decoded.EventID)
	assert.Equal(t, "cam-guest", decoded.TargetCamera)
	assert.Equal(t, "speaker_change", decoded.TriggerReason)
	assert.True(t, decoded.Success)
}
