// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/lokal/internal/api/connect"
	"github.com/osa030/lokal/internal/app/catalog"
	"github.com/osa030/lokal/internal/app/filter"
	"github.com/osa030/lokal/internal/app/notification"
	"github.com/osa030/lokal/internal/app/playback"
	"github.com/osa030/lokal/internal/app/suggest"
	"github.com/osa030/lokal/internal/infra/audio"
	"github.com/osa030/lokal/internal/infra/config"
	"github.com/osa030/lokal/internal/infra/download"
	"github.com/osa030/lokal/internal/infra/logger"
	"github.com/osa030/lokal/internal/infra/storage"
)

var (
	app        = kingpin.New("lokal-server", "lokal music player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// check-config command
	checkConfigCmd = app.Command("check-config", "Validate the config file and exit")

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available suggestion filters and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-filters command
	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == checkConfigCmd.FullCommand() {
		printConfig(cfg)
		return
	}

	// Run server (defer ensures cleanup runs before exit)
	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Persistence
	kv, err := storage.Open(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		Redis: storage.RedisConfig{
			Addr:      cfg.Storage.Redis.Addr,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer kv.Close()

	// Playback
	engine := audio.New(audio.Config{
		SampleRate:     cfg.Playback.SampleRate,
		StatusInterval: cfg.Playback.StatusInterval(),
	})
	if !audio.Available {
		zlog.Warn().Msg("Audio output is not available in this build; playback requests will fail")
	}
	player := playback.NewController(engine, storage.NewStore(kv), playback.Config{
		AutoAdvance: cfg.Playback.AutoAdvanceEnabled(),
		EventBuffer: cfg.Playback.EventBuffer,
	})
	player.Initialize(ctx)

	notifications := notification.NewManager()
	go notifications.Run(ctx, player.Events())

	// Catalog, suggestions and downloads
	cat, err := catalog.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create catalog: %w", err)
	}
	suggester, err := suggest.NewProviderChainFromConfig(cfg.Suggestions, cat)
	if err != nil {
		return fmt.Errorf("failed to create suggestion providers: %w", err)
	}
	filters, err := filter.NewChainFromConfig(cfg.Suggestions.Filters)
	if err != nil {
		return fmt.Errorf("invalid filter config: %w", err)
	}
	downloads := download.NewManager(download.Config{
		Dir:     cfg.Downloads.Dir,
		Timeout: cfg.Downloads.Timeout(),
	})

	// Create RPC service
	playerService := apiconnect.NewPlayerService(apiconnect.PlayerServiceConfig{
		Player:        player,
		Catalog:       cat,
		Downloads:     downloads,
		Suggester:     suggester,
		Filters:       filters,
		Notifications: notifications,
		SuggestCount:  cfg.Suggestions.Count,
	})

	var opts []connect.HandlerOption
	if cfg.Server.Token != "" {
		opts = append(opts, connect.WithInterceptors(apiconnect.NewAuthInterceptor(cfg.Server.Token)))
	} else {
		zlog.Warn().Msg("server.token is empty; RPC authentication is disabled")
	}

	mux := http.NewServeMux()
	path, handler := apiconnect.NewPlayerServiceHandler(playerService, opts...)
	mux.Handle(path, handler)

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to capture server startup errors
	serverErrCh := make(chan error, 1)

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s catalog=%s storage=%s", cfg.Server.Addr, cfg.Catalog.Provider, cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		player.Close()
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// End subscription streams first so Shutdown does not wait on them
	playerService.Close()
	notifications.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	// Releases the audio resource; persisted state is already current
	player.Close()

	zlog.Info().Msg("Server stopped")
	return nil
}

// printConfig prints the effective configuration without secrets.
func printConfig(cfg *config.Config) {
	fmt.Println("Config OK")
	fmt.Printf("  %-22s %s\n", "server.addr", cfg.Server.Addr)
	fmt.Printf("  %-22s %v\n", "server.auth", cfg.Server.Token != "")
	fmt.Printf("  %-22s %s\n", "catalog.provider", cfg.Catalog.Provider)
	fmt.Printf("  %-22s %s\n", "storage.driver", cfg.Storage.Driver)
	fmt.Printf("  %-22s %s\n", "downloads.dir", cfg.Downloads.Dir)
	fmt.Printf("  %-22s %v\n", "playback.auto_advance", cfg.Playback.AutoAdvanceEnabled())
	if len(cfg.Suggestions.Providers) == 0 {
		fmt.Printf("  %-22s %s\n", "suggestions", "catalog (default)")
	}
	for _, p := range cfg.Suggestions.Providers {
		fmt.Printf("  %-22s %s (%s)\n", "suggestions", p.DisplayName, p.Type)
	}
	for name := range filter.GetRegistered() {
		if cfg.Suggestions.IsFilterEnabled(name) {
			fmt.Printf("  %-22s %s\n", "filter", name)
		}
	}
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registered := filter.GetRegistered()
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := registered[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-24s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}
