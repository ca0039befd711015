// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Director-Go")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "director.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 1048576)

	viper.SetDefault("director.debug", false)
	viper.SetDefault("director.manualcooldownexempt", true)
	viper.SetDefault("director.queuesize", 64)
	viper.SetDefault("director.summaryttlminutes", 60)

	viper.SetDefault("director.sessiondefaults.mode", ModeAuto)
	viper.SetDefault("director.sessiondefaults.sensitivity", SensitivityMedium)
	viper.SetDefault("director.sessiondefaults.switchdelay", 1.0)
	viper.SetDefault("director.sessiondefaults.audiothreshold", 0.1)
	viper.SetDefault("director.sessiondefaults.engagementthreshold", 0.5)
	viper.SetDefault("director.sessiondefaults.silencefallbackseconds", 5.0)
	viper.SetDefault("director.sessiondefaults.transitiontype", "cut")
	viper.SetDefault("director.sessiondefaults.speakerdetectionenabled", true)
	viper.SetDefault("director.sessiondefaults.audiolevelswitching", true)
	viper.SetDefault("director.sessiondefaults.engagementswitching", true)
	viper.SetDefault("director.sessiondefaults.fallbackenabled", true)
	viper.SetDefault("director.sessiondefaults.transitioneffects", false)

	// Confidence weights are deployment tunables, see ConfidenceWeights.
	viper.SetDefault("director.confidence.speakerclarity", 0.4)
	viper.SetDefault("director.confidence.speakerlevel", 0.6)
	viper.SetDefault("director.confidence.audiolevel", 0.7)
	viper.SetDefault("director.confidence.audioclarity", 0.3)
	viper.SetDefault("director.confidence.engagementattention", 0.4)
	viper.SetDefault("director.confidence.engagementinteract", 0.2)
	viper.SetDefault("director.confidence.engagementspeech", 0.3)
	viper.SetDefault("director.confidence.engagementgesture", 0.1)
	viper.SetDefault("director.confidence.silenceinverselevel", 1.0)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "director.db")
	viper.SetDefault("output.mysql.enabled", false)
	viper.SetDefault("output.mysql.username", "director")
	viper.SetDefault("output.mysql.password", "")
	viper.SetDefault("output.mysql.database", "director")
	viper.SetDefault("output.mysql.host", "localhost")
	viper.SetDefault("output.mysql.port", "3306")

	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.debug", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.clientid", "director-go")
	viper.SetDefault("mqtt.username", "")
	viper.SetDefault("mqtt.password", "")
	viper.SetDefault("mqtt.topic", "director")
	viper.SetDefault("mqtt.retain", false)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", ":8090")
}
