// Package server assembles the webhook surface and the triage pipeline behind
// it, and owns their lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/mailsense/internal/profile"
	"github.com/hrygo/mailsense/plugin/ai"
	"github.com/hrygo/mailsense/plugin/ai/memory"
	"github.com/hrygo/mailsense/plugin/ai/vector"
	"github.com/hrygo/mailsense/plugin/triage"
	apiv1 "github.com/hrygo/mailsense/server/router/api/v1"
)

// Server is the assembled process: HTTP surface, triage pipeline and the
// stores behind them.
type Server struct {
	Profile *profile.Profile

	echoServer   *echo.Echo
	sessionStore *triage.SessionStore
	vectorStore  vector.Store
	writer       *triage.SummaryWriter
}

// NewServer wires the full pipeline from the profile.
func NewServer(ctx context.Context, p *profile.Profile) (*Server, error) {
	if !p.IsAIEnabled() {
		return nil, errors.New("no completion provider configured")
	}

	aiConfig := ai.NewConfigFromProfile(p)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	llm, err := ai.NewLLMService(&aiConfig.LLM)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create completion service")
	}
	embedder, err := ai.NewEmbeddingService(&aiConfig.Embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create embedding service")
	}

	vectorStore, err := newVectorStore(p, embedder.Dimensions())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open vector store")
	}

	gateway := memory.NewGateway(embedder, vectorStore)
	metrics := triage.NewMetrics()
	writer := triage.NewSummaryWriter(llm, gateway, metrics)
	sessionStore := triage.NewSessionStore(0)

	var notifier triage.Notifier = triage.LogNotifier{}
	if p.ChatSendURL != "" {
		notifier = triage.NewWebhookNotifier(p.ChatSendURL)
	}
	var dispatcher triage.OutboundDispatcher = triage.LogDispatcher{}
	if p.OutboundWebhookURL != "" {
		dispatcher = triage.NewWebhookDispatcher(p.OutboundWebhookURL)
	}

	triageService := triage.NewService(sessionStore, triage.NewComposer(llm), gateway, writer, notifier, dispatcher, metrics)

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomw.Recover())
	echoServer.Use(echomw.CORS())

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiv1.NewAPIV1Service(p, triageService, metrics).RegisterRoutes(echoServer)

	return &Server{
		Profile:      p,
		echoServer:   echoServer,
		sessionStore: sessionStore,
		vectorStore:  vectorStore,
		writer:       writer,
	}, nil
}

func newVectorStore(p *profile.Profile, dimensions int) (vector.Store, error) {
	switch p.Driver {
	case "postgres":
		return vector.NewPgVectorStore(p.DSN, dimensions)
	case "chromem":
		return vector.NewChromemStore(p.Data)
	default:
		return nil, errors.Errorf("unsupported driver %q", p.Driver)
	}
}

// Start begins serving. It blocks until the listener fails or is shut down.
func (s *Server) Start(ctx context.Context) error {
	slog.Info("server started",
		slog.String("address", s.Profile.ListenAddress()),
		slog.String("mode", s.Profile.Mode),
		slog.String("driver", s.Profile.Driver),
		slog.String("version", s.Profile.Version))

	if err := s.echoServer.Start(s.Profile.ListenAddress()); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listener failed: %w", err)
	}
	return nil
}

// Shutdown stops the listener, then drains pending memory write-backs before
// closing the stores so accepted replies get their records committed.
func (s *Server) Shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down http server", slog.String("error", err.Error()))
	}

	s.writer.Wait()
	s.sessionStore.Close()
	if err := s.vectorStore.Close(); err != nil {
		slog.Error("failed to close vector store", slog.String("error", err.Error()))
	}

	slog.Info("server stopped")
}
