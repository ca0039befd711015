// config.go: settings for the director application. It defines the settings
// struct and functions to load and access the settings.
package conf

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/spf13/viper"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool   // true to enable this log
	Path     string // path to log file
	Rotation string // rotation type: daily, weekly or size
	MaxSize  int64  // max size in bytes for size rotation
}

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// SessionDefaults contains default settings applied to new switching sessions
// when the caller's options leave them unset.
type SessionDefaults struct {
	Mode                    string  // switching mode: auto, manual or hybrid
	Sensitivity             string  // confidence floor scaling: low, medium or high
	SwitchDelay             float64 // minimum seconds between switches
	AudioThreshold          float64 // audio level threshold 0-1, inclusive comparison
	EngagementThreshold     float64 // engagement score threshold 0-1, inclusive comparison
	SilenceFallbackSeconds  float64 // continuous silence before the fallback rule fires
	TransitionType          string  // transition effect recorded on switch events
	SpeakerDetectionEnabled bool    // enable speaker change rule
	AudioLevelSwitching     bool    // enable audio level rule
	EngagementSwitching     bool    // enable engagement rule
	FallbackEnabled         bool    // enable silence fallback rule
	TransitionEffects       bool    // record transition effects on events
}

// ConfidenceWeights are the tunable weights used to combine signal strengths
// into a single confidence score. The exact values are deployment tunables,
// not authoritative constants.
type ConfidenceWeights struct {
	SpeakerClarity      float64 // weight of audio clarity for speaker change rules
	SpeakerLevel        float64 // weight of audio level for speaker change rules
	AudioLevel          float64 // weight of audio level for audio level rules
	AudioClarity        float64 // weight of audio clarity for audio level rules
	EngagementAttention float64 // weight of attention for engagement rules
	EngagementInteract  float64 // weight of interaction for engagement rules
	EngagementSpeech    float64 // weight of speech activity for engagement rules
	EngagementGesture   float64 // weight of gesture activity for engagement rules
	SilenceInverseLevel float64 // weight of (1 - level) for silence fallback rules
}

// DirectorSettings contains settings for the switching engine.
type DirectorSettings struct {
	Debug                bool              // true to enable debug mode
	SessionDefaults      SessionDefaults   // defaults for new sessions
	Confidence           ConfidenceWeights // confidence weight tunables
	ManualCooldownExempt bool              // true to let manual switches bypass the cooldown gate
	QueueSize            int               // per-session sample queue capacity
	SummaryTTLMinutes    int               // how long stopped session summaries stay queryable
}

// MQTTSettings contains settings for the MQTT bridge.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT integration
	Debug    bool   // true to enable debug mode
	Broker   string // broker URL, e.g. tcp://localhost:1883
	ClientID string // MQTT client id
	Username string // MQTT username
	Password string // MQTT password
	Topic    string // base topic, commands and events are published under it
	Retain   bool   // true to retain messages at the broker
}

// MetricsSettings contains settings for the Prometheus endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose metrics
	Listen  string // listen address for the metrics endpoint
}

// OutputSettings contains settings for durable storage.
type OutputSettings struct {
	SQLite struct {
		Enabled bool   // true to enable sqlite output
		Path    string // path to sqlite database
	}
	MySQL struct {
		Enabled  bool   // true to enable mysql output
		Username string // mysql username
		Password string // mysql password
		Database string // mysql database name
		Host     string // mysql host
		Port     string // mysql port
	}
}

// Settings is the root configuration for the director application.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build

	Main struct {
		Name string    // name of this director node
		Log  LogConfig // logging configuration
	}

	Director DirectorSettings // switching engine settings
	Output   OutputSettings   // database output settings
	MQTT     MQTTSettings     // MQTT bridge settings
	Metrics  MetricsSettings  // metrics endpoint settings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration from file and environment into a Settings
// struct, applying defaults for unset values.
func Load() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("director")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/director-go")
	viper.AddConfigPath("/etc/director-go")
	viper.SetEnvPrefix("director")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// Setting returns the global settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		settingsMutex.RLock()
		loaded := settingsInstance != nil
		settingsMutex.RUnlock()
		if !loaded {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SetTestSettings installs a settings instance for tests.
func SetTestSettings(s *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = s
	once.Do(func() {})
}
