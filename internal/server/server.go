// Package server expose le controller de lecture en HTTP : une petite API JSON
// pour piloter la lecture et un flux WebSocket qui pousse chaque changement d'état.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/patrickprogramme/cakeplayer/internal/playback"
	"github.com/patrickprogramme/cakeplayer/internal/sim"
	"github.com/patrickprogramme/cakeplayer/internal/timeline"
	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	ctrl    *playback.Controller
	doc     *sim.Document
	log     *slog.Logger
	origins []string
	hub     *Hub
	handler http.Handler
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDocument active GET /api/document.
func WithDocument(doc *sim.Document) Option {
	return func(s *Server) { s.doc = doc }
}

// WithAllowedOrigins règle le CORS et les origines acceptées par /api/ws.
// Vide : rs/cors accepte tout, le WebSocket reste limité à la même origine.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithBroadcastHz limite le nombre de messages d'état par seconde et par client.
func WithBroadcastHz(hz float64) Option {
	return func(s *Server) { s.hub.hz = hz }
}

func New(ctrl *playback.Controller, opts ...Option) *Server {
	s := &Server{
		ctrl: ctrl,
		log:  slog.Default(),
		hub:  newHub(ctrl),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub.log = s.log
	s.hub.origins = s.origins
	s.handler = s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(s.log))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/seek", s.handleSeek).Methods(http.MethodPost)
	api.HandleFunc("/play", s.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/pause", s.handlePause).Methods(http.MethodPost)
	api.HandleFunc("/toggle", s.handleToggle).Methods(http.MethodPost)
	api.HandleFunc("/next", s.handleStep(s.ctrl.Next)).Methods(http.MethodPost)
	api.HandleFunc("/prev", s.handleStep(s.ctrl.Prev)).Methods(http.MethodPost)
	api.HandleFunc("/document", s.handleDocument).Methods(http.MethodGet)
	api.HandleFunc("/ws", s.hub.ServeHTTP).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}

// Serve écoute sur addr jusqu'à l'annulation de ctx, puis arrête proprement.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("serveur démarré", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.hub.Close()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// seekRequest : soit {stepIndex, videoTime}, soit {seconds} (temps global).
type seekRequest struct {
	StepIndex *int           `json:"stepIndex"`
	VideoTime model.Seconds  `json:"videoTime"`
	Seconds   *model.Seconds `json:"seconds"`
}

type errorResponse struct {
	Error string         `json:"error"`
	State *playback.View `json:"state,omitempty"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.View())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest

	if t := r.URL.Query().Get("t"); t != "" {
		secs, err := model.ParseClock(t)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		req.Seconds = &secs
	} else {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "corps invalide: " + err.Error()})
			return
		}
	}

	var (
		v   playback.View
		err error
	)
	switch {
	case req.Seconds != nil:
		v, err = s.ctrl.SeekGlobal(r.Context(), *req.Seconds)
	case req.StepIndex != nil:
		v, err = s.ctrl.Seek(r.Context(), *req.StepIndex, req.VideoTime)
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "stepIndex ou seconds requis"})
		return
	}

	if errors.Is(err, timeline.ErrStepOutOfRange) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), State: &v})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Play(r.Context()))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Pause(r.Context()))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Toggle(r.Context()))
}

func (s *Server) handleStep(move func(context.Context) (playback.View, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := move(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if s.doc == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "aucun document simulé"})
		return
	}
	writeJSON(w, http.StatusOK, s.doc.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
