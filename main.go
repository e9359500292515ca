package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"magpie/cmd"
	"magpie/internal/api"
	"magpie/internal/db"
	"magpie/internal/logging"
	"magpie/internal/persist"
	"magpie/internal/ui"
	"magpie/internal/view"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	// Parse CLI flags
	config, err := cmd.ParseFlags(version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if config == nil {
		return
	}

	// The logger itself passes everything; the global level filters, so
	// config reloads can raise or lower it.
	logger, closer, err := logging.Open(config.LogPath, zerolog.TraceLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logging.SetGlobalLevel(logging.ParseLevel(config.LogLevel))

	// Open database
	database, err := db.Open(config.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	session, err := persist.OpenSessionStore(database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open session: %v\n", err)
		os.Exit(1)
	}
	logger = logger.With().Str("session", session.ID()).Logger()

	client := api.New(config.ServerURL, config.APIToken,
		api.WithLogger(logger),
		api.WithTimeout(config.RequestTimeout),
		api.WithRetryMax(config.RetryMax),
	)
	logger.Info().Str("server", client.BaseURL()).Str("config", config.ConfigFile).Msg("starting")

	env := view.Env{
		API:            client,
		Settings:       view.NewSettingsCache(client),
		Local:          persist.NewSQLiteStore(database),
		Session:        session,
		SearchDebounce: config.SearchDebounce,
		Logger:         logger,
	}

	// Create and run Bubble Tea app
	p := tea.NewProgram(ui.New(env, client), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Error().Err(err).Msg("app exited with error")
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}
