package jazz

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	config "github.com/xilidan/jazz/config/jazz"
	"github.com/xilidan/jazz/gateways/jazz/clients/salute"
	"github.com/xilidan/jazz/gateways/jazz/handler"
	"github.com/xilidan/jazz/gateways/jazz/provision"
	roomstorage "github.com/xilidan/jazz/services/rooms/storage"
	transcriptstorage "github.com/xilidan/jazz/services/transcript/storage"
	transcriptusecase "github.com/xilidan/jazz/services/transcript/usecase"
)

// Server wires the salute client, provisioner and transcript service
// behind the HTTP gateway. One client bound to one credential for the
// process lifetime; no hidden globals.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	handler *handler.Handler
}

func New(cfg *config.Config, log *slog.Logger) (*Server, error) {
	log.Info("creating jazz gateway")
	log.Debug("gateway config",
		slog.Int("port", cfg.Port),
		slog.String("base_url", cfg.JazzBaseURL),
		slog.Bool("sdk_key_set", cfg.SDKKey != ""),
		slog.Bool("database_url_set", cfg.DatabaseURL != ""),
		slog.Int("window_offset_hours", cfg.WindowOffsetHours))

	client, err := salute.New(cfg.SDKKey, cfg.JazzBaseURL, log)
	if err != nil {
		return nil, err
	}
	log.Info("salute jazz client created")

	store, err := newRoomStore(cfg, log)
	if err != nil {
		return nil, err
	}

	tlog := transcriptstorage.NewFileLog(cfg.TranscriptLogPath)
	log.Info("transcript log configured", slog.String("path", cfg.TranscriptLogPath))

	loc := time.FixedZone(fmt.Sprintf("UTC%+d", cfg.WindowOffsetHours), cfg.WindowOffsetHours*3600)
	transcripts := transcriptusecase.New(client, tlog, loc, log)

	provisioner := provision.New(client, store, log)

	return &Server{
		cfg:     cfg,
		log:     log,
		handler: handler.New(client, provisioner, transcripts, log),
	}, nil
}

func newRoomStore(cfg *config.Config, log *slog.Logger) (roomstorage.Storage, error) {
	if cfg.DatabaseURL == "" {
		log.Info("using file room store", slog.String("path", cfg.RoomsPath))
		return roomstorage.NewFileStore(cfg.RoomsPath), nil
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	store := roomstorage.NewPostgresStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}

	log.Info("using postgres room store")
	return store, nil
}

func (s *Server) Start(ctx context.Context) error {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))
	s.handler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info("jazz gateway started", slog.String("address", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		s.log.Info("start shutdown", slog.String("signal", sig.String()))
		return s.stop(srv)
	case <-ctx.Done():
		s.log.Info("closing server due to context cancellation")
		return s.stop(srv)
	}
}

func (s *Server) stop(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.log.Error("graceful shutdown failed", slog.String("error", err.Error()))
		srv.Close()
		return fmt.Errorf("failed to gracefully shutdown server: %w", err)
	}

	s.log.Info("server shutdown completed")
	return nil
}
