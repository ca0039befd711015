package director

import (
	"sync"
	"time"

	"github.com/openstudio/director-go/internal/conf"
)

// fakeClock is a mutable time source shared between a test and the
// controller under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// testSettings mirrors the configuration defaults without going through
// viper, so tests stay independent of config files on disk.
func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Main.Name = "test-node"
	s.Director.ManualCooldownExempt = true
	s.Director.QueueSize = 64
	s.Director.SummaryTTLMinutes = 60
	s.Director.SessionDefaults = conf.SessionDefaults{
		Mode:                    conf.ModeAuto,
		Sensitivity:             conf.SensitivityMedium,
		SwitchDelay:             1.0,
		AudioThreshold:          0.1,
		EngagementThreshold:     0.5,
		SilenceFallbackSeconds:  5.0,
		TransitionType:          "cut",
		SpeakerDetectionEnabled: true,
		AudioLevelSwitching:     true,
		EngagementSwitching:     true,
		FallbackEnabled:         true,
		TransitionEffects:       true,
	}
	s.Director.Confidence = conf.ConfidenceWeights{
		SpeakerClarity:      0.4,
		SpeakerLevel:        0.6,
		AudioLevel:          0.7,
		AudioClarity:        0.3,
		EngagementAttention: 0.4,
		EngagementInteract:  0.2,
		EngagementSpeech:    0.3,
		EngagementGesture:   0.1,
		SilenceInverseLevel: 1.0,
	}
	return s
}

// newTestController returns a controller on a fake clock with no outputs
// attached.
func newTestController(opts ...Option) (*Controller, *fakeClock) {
	clock := newFakeClock()
	all := append([]Option{WithClock(clock.Now)}, opts...)
	return New(testSettings(), all...), clock
}

// threeCameras is the standard fixture: host and guest close-ups plus a wide
// shot, all auto-switch enabled.
func threeCameras() []CameraConfig {
	return []CameraConfig{
		{CameraID: "cam-host", DeviceID: "dev-1", Name: "Host close-up", Position: "host", Priority: 1, AutoSwitchEnabled: true},
		{CameraID: "cam-guest", DeviceID: "dev-2", Name: "Guest close-up", Position: "guest", Priority: 2, AutoSwitchEnabled: true},
		{CameraID: "cam-wide", DeviceID: "dev-3", Name: "Wide shot", Position: "wide", Priority: 3, AutoSwitchEnabled: true},
	}
}

// speakerSample is a strong, clear audio sample attributed to a speaker.
func speakerSample(speaker string) *AudioSample {
	return &AudioSample{
		Level:           0.9,
		Clarity:         0.8,
		SpeakerDetected: speaker,
	}
}

// silenceSample reports a quiet room for the given number of seconds.
func silenceSample(seconds float64) *AudioSample {
	return &AudioSample{
		Level:           0.0,
		Clarity:         0.0,
		SilenceDuration: seconds,
	}
}

// engagementSample is a highly engaged participant sample.
func engagementSample(participantID string) *EngagementSample {
	return &EngagementSample{
		ParticipantID:   participantID,
		Attention:       0.9,
		Interaction:     0.8,
		SpeechActivity:  0.9,
		GestureActivity: 0.5,
	}
}

// startConfigured starts a session and installs the standard camera fixture.
func startConfigured(c *Controller, opts *SessionOptions) (string, error) {
	info, err := c.StartSession("interview-1", opts)
	if err != nil {
		return "", err
	}
	if err := c.ConfigureCameras(info.SessionID, threeCameras()); err != nil {
		return "", err
	}
	return info.SessionID, nil
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
