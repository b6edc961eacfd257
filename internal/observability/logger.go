package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NodeLogger derives an app/node scoped logger from the configured global
// logger and installs it as the new global.
func NodeLogger(app, node string) zerolog.Logger {
	logger := log.Logger.With().Str("app", app).Str("node", node).Logger()
	log.Logger = logger
	return logger
}
