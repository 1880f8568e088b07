package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ButyrinIA/spacetraveling/internal/config"
	"github.com/ButyrinIA/spacetraveling/internal/content"
	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sweepInterval = time.Minute

// Lister runs the listing query and follows its cursors.
type Lister interface {
	content.PageFetcher
	QueryFirstPage(ctx context.Context, documentType string, fields []string, pageSize int) (models.RawPage, error)
}

// PageSource serves generated post pages.
type PageSource interface {
	View(ctx context.Context, slug string) (content.PostView, error)
	Invalidate(ctx context.Context, slug string) error
}

type Server struct {
	cfg      *config.Config
	cms      Lister
	pages    PageSource
	sessions *sessionStore
	render   *Renderer
	logger   *slog.Logger
	upgrader websocket.Upgrader
	handler  http.Handler
}

func New(cfg *config.Config, cms Lister, pages PageSource, logger *slog.Logger) (*Server, error) {
	render, err := NewRenderer(cfg.Site.Title, cfg.Site.Locale)
	if err != nil {
		return nil, err
	}

	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		logger.Warn("session.secret is empty, using a random one; tokens will not survive a restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}

	s := &Server{
		cfg:      cfg,
		cms:      cms,
		pages:    pages,
		sessions: newSessionStore(secret, cfg.Session.TTL, cfg.Session.MaxSessions),
		render:   render,
		logger:   logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.handler = logRequests(logger, s.routes())
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /post/{slug}", s.handlePost)
	mux.HandleFunc("POST /api/listing/{token}/more", s.handleMore)
	mux.HandleFunc("GET /api/listing/{token}/ws", s.handleWebsocket)
	mux.HandleFunc("POST /api/revalidate", requireSecret(s.cfg.Site.RevalidateSecret, s.handleRevalidate))
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go s.sessions.janitor(janitorCtx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListingFields are the document fields the listing needs.
func ListingFields(documentType string) []string {
	return []string{
		documentType + ".title",
		documentType + ".subtitle",
		documentType + ".author",
	}
}
