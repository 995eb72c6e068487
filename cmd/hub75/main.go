package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fkcurrie/hub75-bcm/internal/bus"
	"github.com/fkcurrie/hub75-bcm/internal/config"
	"github.com/fkcurrie/hub75-bcm/internal/display"
	"github.com/fkcurrie/hub75-bcm/internal/intake"
	"github.com/fkcurrie/hub75-bcm/internal/types"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
	"github.com/fkcurrie/hub75-bcm/pkg/matrix"
)

var (
	configPath = flag.String("config", "config.yaml", "path to config file")
	busName    = flag.String("bus", "", "output bus (gpiocdev, periph, gpiomem, devmem, memory)")
	mode       = flag.String("mode", "", "refresh mode (timeline, direct)")
	listen     = flag.String("listen", "", "intake listen address")
	pattern    = flag.String("pattern", "", "startup pattern")
	debug      = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", *configPath).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	if *busName != "" {
		cfg.Refresh.Bus = *busName
	}
	if *mode != "" {
		cfg.Refresh.Mode = *mode
	}
	if *listen != "" {
		cfg.Intake.Listen = *listen
	}
	if *pattern != "" {
		cfg.Display.Pattern = *pattern
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	matrixCfg, err := cfg.MatrixConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid panel configuration")
	}
	pins, err := hub75.NewPinAssignment(matrixCfg.Pins, matrixCfg.WordWidth)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid pin assignment")
	}

	out, err := bus.Open(cfg, pins, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open output bus")
	}
	defer func() {
		if err := out.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close output bus")
		}
	}()

	m, err := matrix.NewMatrix(out, matrixCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create matrix")
	}
	defer m.Close()

	renderer := newRenderer(&cfg.Display, m, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := newStatusTracker(m, matrixCfg)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tracker.run(gctx)
	})
	g.Go(func() error {
		return renderer.Start(gctx)
	})
	if cfg.Intake.Enabled {
		server := intake.NewServer(&cfg.Intake, m, renderer, tracker.status, logger)
		g.Go(func() error {
			return server.ListenAndServe(gctx)
		})
	}

	logger.Info().
		Str("bus", cfg.Refresh.Bus).
		Str("mode", matrixCfg.Mode.String()).
		Int("depth", matrixCfg.Depth).
		Msg("Refreshing panel")

	if err := g.Wait(); err != nil {
		m.Close()
		out.Close()
		logger.Fatal().Err(err).Msg("Shutting down on error")
	}
	logger.Info().Msg("Shutting down...")
}

// newRenderer starts on the configured pattern. The configured text is
// kept for when the text pattern is selected.
func newRenderer(cfg *types.DisplayConfig, d types.Display, logger zerolog.Logger) *display.Renderer {
	r := display.NewRenderer(cfg, logger)
	r.SetDisplay(d)
	if err := r.SetPattern(cfg.Pattern); err != nil {
		logger.Warn().Err(err).Str("pattern", cfg.Pattern).Msg("Unknown pattern, showing nothing")
		r.SetPattern(display.PatternNone)
	}
	return r
}
