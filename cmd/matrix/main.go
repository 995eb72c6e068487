package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/fkcurrie/hub75-bcm/internal/bus"
	"github.com/fkcurrie/hub75-bcm/internal/config"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
	"github.com/fkcurrie/hub75-bcm/pkg/matrix"
)

var (
	configPath = flag.String("config", "config.yaml", "path to config file")
	busName    = flag.String("bus", "", "output bus (overrides config)")
	hold       = flag.Duration("hold", 2*time.Second, "time each test pattern is shown")
)

type step struct {
	name string
	draw func(m *matrix.Matrix) error
}

func fill(c color.Color) func(m *matrix.Matrix) error {
	return func(m *matrix.Matrix) error { return m.Fill(c) }
}

// Cycles through solid colors and a checkerboard, then reports refresh
// counters. With -bus memory it exercises the whole pipeline off-target.
func main() {
	flag.Parse()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", *configPath).Msg("Failed to load config, using defaults")
		cfg = config.DefaultConfig()
	}
	if *busName != "" {
		cfg.Refresh.Bus = *busName
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
	defer out.Close()

	m, err := matrix.NewMatrix(out, matrixCfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create matrix")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	steps := []step{
		{"red", fill(color.RGBA{255, 0, 0, 255})},
		{"green", fill(color.RGBA{0, 255, 0, 255})},
		{"blue", fill(color.RGBA{0, 0, 255, 255})},
		{"checkerboard", func(m *matrix.Matrix) error {
			for y := 0; y < hub75.Height; y++ {
				for x := 0; x < hub75.Width; x++ {
					c := color.RGBA{0, 0, 0, 255}
					if (x+y)%2 == 0 {
						c = color.RGBA{255, 255, 255, 255}
					}
					if err := m.SetPixel(x, y, c); err != nil {
						return err
					}
				}
			}
			return nil
		}},
		{"clear", func(m *matrix.Matrix) error { return m.Clear() }},
	}

	for _, s := range steps {
		logger.Info().Str("pattern", s.name).Msg("Showing test pattern")
		if err := s.draw(m); err != nil {
			logger.Fatal().Err(err).Str("pattern", s.name).Msg("Failed to draw")
		}
		time.Sleep(*hold)
	}

	m.Close()
	if err := <-done; err != nil {
		logger.Error().Err(err).Msg("Refresh stopped with error")
	}

	stats := m.Stats()
	fmt.Printf("Test completed: %d cycles, %d rows, %d swaps\n", stats.Cycles, stats.Rows, stats.Swaps)
}
