// Package intake accepts content for the panel over HTTP: image uploads,
// pattern and text selection, status, and a websocket preview of what is
// currently shown.
package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/fkcurrie/hub75-bcm/internal/types"
	"github.com/fkcurrie/hub75-bcm/pkg/hub75"
)

// Target is the display the server feeds
type Target interface {
	types.Display
	// Frame returns the frame on display and its generation
	Frame() (*hub75.Frame, uint64)
}

// Patterns selects built-in content
type Patterns interface {
	SetPattern(name string) error
	SetText(text string)
}

// StatusFunc reports the display status
type StatusFunc func() types.DisplayStatus

// Server handles the intake endpoints
type Server struct {
	cfg      *types.IntakeConfig
	target   Target
	patterns Patterns
	status   StatusFunc
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux
}

// NewServer creates a server feeding target. patterns and status may be
// nil; their endpoints then answer 404.
func NewServer(cfg *types.IntakeConfig, target Target, patterns Patterns, status StatusFunc, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		target:   target,
		patterns: patterns,
		status:   status,
		logger:   logger.With().Str("component", "intake").Logger(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /frame", s.handleFrame)
	s.mux.HandleFunc("GET /frame.png", s.handleSnapshot)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /ws", s.handlePreview)
	if patterns != nil {
		s.mux.HandleFunc("POST /pattern/{name}", s.handlePattern)
		s.mux.HandleFunc("POST /text", s.handleText)
	}
	return s
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on the configured address until ctx is done
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Listen).Msg("Intake listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("intake server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down intake: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Fit scales img to exactly w x h, ignoring its aspect ratio
func Fit(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Decode reads one image in any registered format (PNG, JPEG, GIF, WebP,
// BMP) and fits it to the panel
func Decode(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return Fit(img, hub75.Width, hub75.Height), format, nil
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	img, format, err := Decode(body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			httpError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		httpError(w, http.StatusBadRequest, err)
		return
	}

	// uploaded content replaces any built-in pattern
	if s.patterns != nil {
		if err := s.patterns.SetPattern("none"); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to stop pattern")
		}
	}
	if err := s.target.SetImage(img); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}

	_, gen := s.target.Frame()
	s.logger.Info().Str("format", format).Uint64("generation", gen).Msg("Frame received")
	writeJSON(w, http.StatusOK, map[string]any{"generation": gen})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	f, gen := s.target.Frame()
	var buf bytes.Buffer
	if err := png.Encode(&buf, f.Image()); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Frame-Generation", fmt.Sprint(gen))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handlePattern(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.patterns.SetPattern(name); err != nil {
		httpError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pattern": name})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1024))
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	s.patterns.SetText(string(bytes.TrimSpace(data)))
	writeJSON(w, http.StatusOK, map[string]any{"pattern": "text"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		_, gen := s.target.Frame()
		writeJSON(w, http.StatusOK, types.DisplayStatus{Generation: gen})
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

// handlePreview streams the displayed frame as PNG binary messages,
// sending a new one whenever the generation changes
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// reader detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	interval := time.Duration(s.cfg.PreviewInterval * float64(time.Second))
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var sent uint64
	first := true
	for {
		f, gen := s.target.Frame()
		if first || gen != sent {
			var buf bytes.Buffer
			if err := png.Encode(&buf, f.Image()); err != nil {
				s.logger.Error().Err(err).Msg("Failed to encode preview")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
				return
			}
			sent, first = gen, false
		}

		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
