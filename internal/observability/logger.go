package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openlaunch/gc2bridge/internal/logging"
)

// InitLogger configures the global logger for a binary and stamps every
// line with the app name. Level and format honor the GC2BRIDGE_LOG_*
// environment overrides.
func InitLogger(app string) zerolog.Logger {
	logging.ConfigureRuntime()
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
