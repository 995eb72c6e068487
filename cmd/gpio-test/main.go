package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/go-gpiocdev"

	"github.com/fkcurrie/hub75-bcm/internal/config"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
)

var (
	configPath = flag.String("config", "config.yaml", "path to config file")
	chip       = flag.String("chip", "", "GPIO chip (overrides config)")
	roleName   = flag.String("role", "", "only toggle this signal, e.g. R1 or OE")
	interval   = flag.Duration("interval", time.Second, "time each line is held high")
)

// Toggles the HUB75 lines one at a time so the wiring can be checked with
// a meter or a logic analyser.
func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	if *chip != "" {
		cfg.Refresh.Chip = *chip
	}
	pinCfg, err := cfg.PinConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid pin configuration")
	}

	roles := hub75.Roles()
	if *roleName != "" {
		roles = nil
		for _, r := range hub75.Roles() {
			if r.String() == *roleName {
				roles = append(roles, r)
			}
		}
		if len(roles) == 0 {
			logger.Fatal().Str("role", *roleName).Msg("Unknown signal")
		}
	}

	offsets := make([]int, len(roles))
	for i, r := range roles {
		offsets[i] = pinCfg.Position(r)
	}

	lines, err := gpiocdev.RequestLines(cfg.Refresh.Chip, offsets,
		gpiocdev.AsOutput(make([]int, len(offsets))...),
		gpiocdev.WithConsumer("hub75-gpio-test"),
	)
	if err != nil {
		logger.Fatal().Err(err).Str("chip", cfg.Refresh.Chip).Msg("Failed to request lines")
	}
	defer lines.Close()
	logger.Info().Str("chip", cfg.Refresh.Chip).Ints("offsets", offsets).Msg("Successfully requested GPIO lines")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	values := make([]int, len(offsets))
	for i := 0; ; i = (i + 1) % len(roles) {
		for j := range values {
			values[j] = 0
		}
		values[i] = 1
		if err := lines.SetValues(values); err != nil {
			logger.Error().Err(err).Msg("Failed to set values")
		} else {
			logger.Info().Str("role", roles[i].String()).Int("gpio", offsets[i]).Msg("Line high")
		}

		select {
		case <-sigChan:
			logger.Info().Msg("Shutting down...")
			if err := lines.SetValues(make([]int, len(offsets))); err != nil {
				logger.Error().Err(err).Msg("Failed to reset lines")
			}
			return
		case <-ticker.C:
		}
	}
}
