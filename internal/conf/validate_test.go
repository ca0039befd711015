package conf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newValidSettings returns a Settings struct that passes validation.
func newValidSettings() *Settings {
	s := &Settings{}
	s.Director = DirectorSettings{
		SessionDefaults: SessionDefaults{
			Mode:                   ModeAuto,
			Sensitivity:            SensitivityMedium,
			SwitchDelay:            1.0,
			AudioThreshold:         0.1,
			EngagementThreshold:    0.5,
			SilenceFallbackSeconds: 5.0,
			TransitionType:         "cut",
		},
		Confidence: ConfidenceWeights{
			SpeakerClarity:      0.4,
			SpeakerLevel:        0.6,
			AudioLevel:          0.7,
			AudioClarity:        0.3,
			EngagementAttention: 0.4,
			EngagementInteract:  0.2,
			EngagementSpeech:    0.3,
			EngagementGesture:   0.1,
			SilenceInverseLevel: 1.0,
		},
		QueueSize: 64,
	}
	s.Output.SQLite.Enabled = true
	s.Output.SQLite.Path = "director.db"
	return s
}

func TestValidateSettingsAcceptsDefaults(t *testing.T) {
	require.NoError(t, ValidateSettings(newValidSettings()))
}

func TestValidateSettingsRejectsBadMode(t *testing.T) {
	s := newValidSettings()
	s.Director.SessionDefaults.Mode = "freestyle"

	err := ValidateSettings(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "switching mode")
}

func TestValidateSettingsRejectsBadSensitivity(t *testing.T) {
	s := newValidSettings()
	s.Director.SessionDefaults.Sensitivity = "extreme"

	assert.Error(t, ValidateSettings(s))
}

func TestValidateSettingsRejectsOutOfRangeThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"audio threshold above one", func(s *Settings) { s.Director.SessionDefaults.AudioThreshold = 1.2 }},
		{"audio threshold negative", func(s *Settings) { s.Director.SessionDefaults.AudioThreshold = -0.1 }},
		{"engagement threshold above one", func(s *Settings) { s.Director.SessionDefaults.EngagementThreshold = 1.01 }},
		{"negative switch delay", func(s *Settings) { s.Director.SessionDefaults.SwitchDelay = -1 }},
		{"zero silence fallback", func(s *Settings) { s.Director.SessionDefaults.SilenceFallbackSeconds = 0 }},
		{"confidence weight above one", func(s *Settings) { s.Director.Confidence.SpeakerLevel = 1.5 }},
		{"zero queue size", func(s *Settings) { s.Director.QueueSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newValidSettings()
			tt.mutate(s)
			assert.Error(t, ValidateSettings(s))
		})
	}
}

func TestValidateSettingsRejectsDualDatabases(t *testing.T) {
	s := newValidSettings()
	s.Output.MySQL.Enabled = true

	assert.Error(t, ValidateSettings(s))
}

func TestConfidenceFloorOrdering(t *testing.T) {
	low := ConfidenceFloor(SensitivityLow)
	medium := ConfidenceFloor(SensitivityMedium)
	high := ConfidenceFloor(SensitivityHigh)

	assert.Less(t, low, medium)
	assert.Less(t, medium, high)
	// Unknown levels fall back to medium.
	assert.InDelta(t, medium, ConfidenceFloor("bogus"), 0.0001)
}
