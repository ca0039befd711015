package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/openstudio/director-go/cmd"
	"github.com/openstudio/director-go/internal/conf"
	"github.com/openstudio/director-go/internal/logging"
)

// version and buildDate are overridden at build time via ldflags.
var version = "dev"
var buildDate = "unknown"

func main() {
	logging.Init()

	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	settings.Version = version
	settings.BuildDate = buildDate

	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}

	rootCmd := cmd.RootCommand(settings)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
