// logger.go provides the scoped logger for the director package
package director

import (
	"log/slog"
	"sync"

	"github.com/openstudio/director-go/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

// getLogger returns the package logger scoped to the director service.
func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("director")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "director")
		}
	})
	return serviceLogger
}
