package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/switchyard/pkg/errors"
	"github.com/matzehuels/switchyard/pkg/layout"
	"github.com/matzehuels/switchyard/pkg/parts"
	"github.com/matzehuels/switchyard/pkg/switches"
)

const maxBodyBytes = 64 << 10

// Options configures a Server.
type Options struct {
	Store    Store                     // default NewMemoryStore()
	Servo    Servo                     // default NewLogServo(Logger)
	Parts    map[string]string         // raw part name -> image URL
	Geometry map[string]parts.Geometry // nil answers part_geometry with 404
	Gatherer prometheus.Gatherer       // mounts /metrics when set
	Logger   *log.Logger
}

// Server is the simulated controller.
type Server struct {
	store    Store
	servo    Servo
	parts    map[string]string
	geometry map[string]parts.Geometry
	gatherer prometheus.Gatherer
	logger   *log.Logger

	layoutMu sync.RWMutex
	layout   *layout.Layout

	// serializes read-modify-write on the store
	writeMu sync.Mutex
}

// New returns a Server serving l.
func New(l *layout.Layout, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Servo == nil {
		opts.Servo = NewLogServo(opts.Logger)
	}
	if opts.Parts == nil {
		opts.Parts = map[string]string{}
	}
	if l == nil {
		l = &layout.Layout{}
	}
	return &Server{
		store:    opts.Store,
		servo:    opts.Servo,
		parts:    opts.Parts,
		geometry: opts.Geometry,
		gatherer: opts.Gatherer,
		logger:   opts.Logger,
		layout:   l,
	}
}

// Layout returns the layout currently served.
func (s *Server) Layout() *layout.Layout {
	s.layoutMu.RLock()
	defer s.layoutMu.RUnlock()
	return s.layout
}

// SetLayout replaces the served layout.
func (s *Server) SetLayout(l *layout.Layout) {
	s.layoutMu.Lock()
	s.layout = l
	s.layoutMu.Unlock()
	s.logger.Info("layout replaced", "items", len(l.Items), "switches", len(l.Switches))
}

// Handler returns the HTTP API rooted at /api, plus /metrics when a
// gatherer is configured.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/layout", s.handleLayout)
		r.Get("/parts", s.handleParts)
		r.Get("/part_geometry", s.handlePartGeometry)
		r.Get("/switch_config", s.handleSwitchConfig)
		r.Get("/switch/{id}/toggle", s.handleToggle)
		r.Post("/switch/{id}/set_angle", s.handleSetAngle)
		r.Get("/switch/{id}/auto_calibrate", s.handleAutoCalibrate)
		r.Post("/update_switch_config", s.handleUpdateSwitchConfig)
		r.Post("/test_servo", s.handleTestServo)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("simulator listening", "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errc
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", r.Header.Get("X-Request-ID"))
	})
}

func (s *Server) handleLayout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Layout())
}

func (s *Server) handleParts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.parts)
}

func (s *Server) handlePartGeometry(w http.ResponseWriter, _ *http.Request) {
	if s.geometry == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no part geometry"})
		return
	}
	writeJSON(w, http.StatusOK, s.geometry)
}

func (s *Server) handleSwitchConfig(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.All(r.Context())
	if err != nil {
		s.internalError(w, "list configs", err)
		return
	}
	out := make(map[string]switches.Config, len(records))
	for id, rec := range records {
		out[id] = rec.Config
	}
	writeJSON(w, http.StatusOK, map[string]any{"switches": out})
}

type toggleResponse struct {
	SwitchID string            `json:"switch_id"`
	State    switches.Position `json:"state"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSwitchID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.UserMessage(err)})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, "load config", err)
		return
	}
	ch, configured := rec.Config.Channel.Get()
	if !ok || !configured {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "switch not calibrated"})
		return
	}

	next := switches.Diverging
	if rec.Position == switches.Diverging {
		next = switches.Straight
	}
	if err := s.servo.Move(r.Context(), ch, rec.Config.Angle(next)); err != nil {
		s.internalError(w, "move servo", err)
		return
	}
	rec.Position = next
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.internalError(w, "save config", err)
		return
	}
	s.logger.Info("switch toggled", "id", id, "position", next)
	writeJSON(w, http.StatusOK, toggleResponse{SwitchID: id, State: next})
}

func (s *Server) handleUpdateSwitchConfig(w http.ResponseWriter, r *http.Request) {
	var cfg switches.Config
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body: " + err.Error()})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.store.All(r.Context())
	if err != nil {
		s.internalError(w, "list configs", err)
		return
	}
	if err := validateConfig(cfg, records); err != nil {
		s.logger.Warn("calibration rejected", "id", cfg.ID, "reason", errors.UserMessage(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": errors.UserMessage(err)})
		return
	}

	rec := records[cfg.ID]
	if _, existed := records[cfg.ID]; !existed {
		rec.Position = switches.Unknown
	}
	rec.Config = cfg
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.internalError(w, "save config", err)
		return
	}
	s.logger.Info("calibration stored", "id", cfg.ID, "channel", cfg.Channel, "angle0", cfg.Angle0, "angle1", cfg.Angle1)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "config": cfg})
}

// validateConfig applies the controller's calibration rules against the
// other stored switches.
func validateConfig(cfg switches.Config, records map[string]Record) error {
	if err := errors.ValidateSwitchID(cfg.ID); err != nil {
		return err
	}
	ch, ok := cfg.Channel.Get()
	if !ok {
		return errors.New(errors.ErrCodeInvalidChannel, "channel is required")
	}
	if err := validateChannel(ch, cfg.ID, records); err != nil {
		return err
	}
	if err := errors.ValidateAngle(cfg.Angle0); err != nil {
		return err
	}
	return errors.ValidateAngle(cfg.Angle1)
}

// validateChannel checks ch is in range and not used by a switch other
// than id.
func validateChannel(ch int, id string, records map[string]Record) error {
	if err := errors.ValidateChannel(ch); err != nil {
		return err
	}
	for other, rec := range records {
		if other == id {
			continue
		}
		if n, ok := rec.Config.Channel.Get(); ok && n == ch {
			return errors.New(errors.ErrCodeInvalidChannel, "channel %d already used by switch %s", ch, other)
		}
	}
	return nil
}

type setAngleRequest struct {
	Angle   *float64 `json:"angle"`
	ServoID *int     `json:"servo_id"`
}

// handleSetAngle moves a servo to an arbitrary angle. A servo_id in the
// body is stored as the switch's channel first, creating a default record
// for a switch the controller has not seen.
func (s *Server) handleSetAngle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSwitchID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.UserMessage(err)})
		return
	}
	var req setAngleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.Angle == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "angle is required"})
		return
	}
	if err := errors.ValidateAngle(*req.Angle); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.UserMessage(err)})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	records, err := s.store.All(r.Context())
	if err != nil {
		s.internalError(w, "list configs", err)
		return
	}
	rec, ok := records[id]
	if req.ServoID != nil {
		if err := validateChannel(*req.ServoID, id, records); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.UserMessage(err)})
			return
		}
		if !ok {
			rec = Record{Config: switches.DefaultConfig(id), Position: switches.Unknown}
		}
		rec.Config.ID = id
		rec.Config.Channel = switches.ChannelOf(*req.ServoID)
		if err := s.store.Put(r.Context(), rec); err != nil {
			s.internalError(w, "save config", err)
			return
		}
		ok = true
	}
	ch, configured := rec.Config.Channel.Get()
	if !ok || !configured {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "switch not configured"})
		return
	}
	if err := s.servo.Move(r.Context(), ch, *req.Angle); err != nil {
		s.internalError(w, "move servo", err)
		return
	}
	s.logger.Debug("servo angle set", "id", id, "channel", ch, "angle", *req.Angle)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleAutoCalibrate sweeps the servo between the sweep angles and stores
// them as the switch's straight and diverging angles. The servo rests at
// the diverging angle.
func (s *Server) handleAutoCalibrate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateSwitchID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.UserMessage(err)})
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	rec, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, "load config", err)
		return
	}
	ch, configured := rec.Config.Channel.Get()
	if !ok || !configured {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "servo channel not assigned"})
		return
	}
	for _, angle := range []float64{switches.SweepAngle0, switches.SweepAngle1} {
		if err := s.servo.Move(r.Context(), ch, angle); err != nil {
			s.internalError(w, "move servo", err)
			return
		}
	}
	rec.Config.ID = id
	rec.Config.Angle0, rec.Config.Angle1 = switches.SweepAngle0, switches.SweepAngle1
	rec.Position = switches.Diverging
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.internalError(w, "save config", err)
		return
	}
	s.logger.Info("auto-calibrated", "id", id, "channel", ch, "angle0", rec.Config.Angle0, "angle1", rec.Config.Angle1)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "config": rec.Config})
}

type testServoRequest struct {
	ID    any               `json:"id"`
	State switches.Position `json:"state"`
}

func (s *Server) handleTestServo(w http.ResponseWriter, r *http.Request) {
	req := testServoRequest{State: switches.Unknown}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}
	id := ""
	if req.ID != nil {
		id = fmt.Sprint(req.ID)
	}
	if err := errors.ValidateSwitchID(id); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errors.UserMessage(err)})
		return
	}
	if !req.State.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "state must be 0 or 1"})
		return
	}

	rec, ok, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.internalError(w, "load config", err)
		return
	}
	ch, configured := rec.Config.Channel.Get()
	if !ok || !configured {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "switch not calibrated"})
		return
	}
	if err := s.servo.Move(r.Context(), ch, rec.Config.Angle(req.State)); err != nil {
		s.internalError(w, "move servo", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op, "err", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": op + " failed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
