// Package httpstatus implements the small local HTTP status/control
// endpoint the teacher's server module carries (§11 DOMAIN STACK): a
// performer's companion app or web control panel can poll engine status,
// list effects, and POST trigger actions without needing the WebSocket
// control protocol's persistent connection. It is glue, not CORE — the
// engine runs identically with this server never started.
package httpstatus

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"phosphor/internal/control"
	"phosphor/internal/effect"
	"phosphor/internal/layer"
)

// Source is the subset of engine state the status server reads. It is an
// interface, not a *engine.Engine import, so the server package never
// depends on engine (engine already depends on control/effect/layer, and
// a cyclic import would otherwise result).
type Source interface {
	StatusMessage() (string, bool)
	FrameIndex() uint32
	Layers() []*layer.Layer
	ActiveLayerIndex() int
	Effects() []effect.Entry
	PostProcessOn() bool
	ApplyTrigger(control.TriggerKind)
}

// Server is the Echo application exposing Source over HTTP.
type Server struct {
	echo   *echo.Echo
	source Source
}

// New constructs an Echo app with the status/control routes registered.
func New(source Source) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(requestLogger())

	s := &Server{echo: e, source: source}
	s.registerRoutes()
	return s
}

// requestLogger returns Echo middleware logging each request the way the
// rest of Phosphor logs: bracketed subsystem tag, no structured logger.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			log.Printf("[httpstatus] %s %s -> %d (%v)", c.Request().Method, c.Request().URL.Path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}

// Echo exposes the underlying Echo instance for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.GET("/effects", s.handleEffects)
	s.echo.POST("/trigger/:name", s.handleTrigger)
}

// Run starts the server and blocks until ctx is cancelled or startup
// fails, mirroring the teacher's context-driven Run/Shutdown shape.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		err := s.echo.Start(addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.echo.Shutdown(shutCtx)
		return nil
	}
}

type layerStatus struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Blend   string  `json:"blend"`
	Opacity float32 `json:"opacity"`
	Enabled bool    `json:"enabled"`
	Locked  bool    `json:"locked"`
	Pinned  bool    `json:"pinned"`
}

type statusResponse struct {
	FrameIndex         uint32        `json:"frame_index"`
	StatusMessage      string        `json:"status_message,omitempty"`
	PostProcessEnabled bool          `json:"post_process_enabled"`
	ActiveLayer        int           `json:"active_layer"`
	Layers             []layerStatus `json:"layers"`
}

func (s *Server) handleStatus(c echo.Context) error {
	msg, _ := s.source.StatusMessage()
	layers := s.source.Layers()
	out := make([]layerStatus, len(layers))
	for i, l := range layers {
		kind := "effect"
		if l.ContentKind == layer.ContentMedia {
			kind = "media"
		}
		out[i] = layerStatus{
			Name:    l.DisplayName(),
			Kind:    kind,
			Blend:   l.Blend.String(),
			Opacity: l.Opacity,
			Enabled: l.Enabled,
			Locked:  l.Locked,
			Pinned:  l.Pinned,
		}
	}
	return c.JSON(http.StatusOK, statusResponse{
		FrameIndex:         s.source.FrameIndex(),
		StatusMessage:      msg,
		PostProcessEnabled: s.source.PostProcessOn(),
		ActiveLayer:        s.source.ActiveLayerIndex(),
		Layers:             out,
	})
}

type effectEntry struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleEffects(c echo.Context) error {
	entries := s.source.Effects()
	out := make([]effectEntry, len(entries))
	for i, e := range entries {
		ee := effectEntry{Index: e.Index, Path: e.Path, Name: e.Desc.Name}
		if e.Err != nil {
			ee.Error = e.Err.Error()
		}
		out[i] = ee
	}
	return c.JSON(http.StatusOK, out)
}

var triggerByName = map[string]control.TriggerKind{
	"next_effect":         control.TriggerNextEffect,
	"prev_effect":         control.TriggerPrevEffect,
	"next_preset":         control.TriggerNextPreset,
	"prev_preset":         control.TriggerPrevPreset,
	"next_layer":          control.TriggerNextLayer,
	"prev_layer":          control.TriggerPrevLayer,
	"toggle_post_process": control.TriggerTogglePostProcess,
	"toggle_overlay":      control.TriggerToggleOverlay,
}

func (s *Server) handleTrigger(c echo.Context) error {
	kind, ok := triggerByName[c.Param("name")]
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown trigger")
	}
	s.source.ApplyTrigger(kind)
	return c.NoContent(http.StatusNoContent)
}
