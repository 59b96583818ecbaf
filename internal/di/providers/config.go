package providers

import (
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"github.com/chartstash/chartstash-server/internal/config"
	"github.com/chartstash/chartstash-server/internal/logger"
)

// ProvideConfig loads and validates the server configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig(os.Args[1:])
}

// ProvideLogger builds the process-wide logger from the configuration.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:    cfg.Logger.Format,
		Level:     logger.ParseLevel(cfg.Logger.Level),
		AddSource: cfg.App.Environment == "development",
	})

	log.Info("logger initialized",
		"level", cfg.Logger.Level,
		"format", cfg.Logger.Format,
		"environment", cfg.App.Environment,
	)

	return log, nil
}
