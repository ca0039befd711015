package realtime

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/service"
)

// Command creates a new command that runs the switching engine.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Run the switching engine",
		Long:  "Start the camera switching engine, ingesting samples over MQTT and publishing switch events to the configured outputs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return service.Realtime(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	return cmd
}

// setupFlags configures flags specific to the realtime command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.MQTT.Broker, "broker", viper.GetString("mqtt.broker"), "MQTT broker URL, e.g. tcp://localhost:1883")
	cmd.Flags().StringVar(&settings.MQTT.Topic, "topic", viper.GetString("mqtt.topic"), "Base MQTT topic for samples and events")
	cmd.Flags().BoolVar(&settings.Metrics.Enabled, "metrics", viper.GetBool("metrics.enabled"), "Enable Prometheus metrics endpoint")
	cmd.Flags().StringVar(&settings.Metrics.Listen, "listen", viper.GetString("metrics.listen"), "Listen address and port of the metrics endpoint")

	// Bind flags to the viper settings
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
