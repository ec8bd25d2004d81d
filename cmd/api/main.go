package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adikhanov/orion/backend/internal/config"
	"github.com/adikhanov/orion/backend/internal/handler"
	"github.com/adikhanov/orion/backend/internal/service/ai"
	"github.com/adikhanov/orion/backend/internal/service/chat"
	"github.com/adikhanov/orion/backend/internal/service/tools"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	chatService := chat.NewService()

	// Initialize the tool registry when an OpenAPI spec is configured.
	var registry *tools.Registry
	if cfg.Tools.Enabled() {
		registry, err = tools.NewRegistry(cfg.Tools)
		if err != nil {
			log.Printf("warning: failed to load tool registry: %v", err)
			log.Println("continuing without tool support")
			registry = nil
		} else {
			log.Printf("tool registry initialized with %d tools", registry.Len())
		}
	} else {
		log.Println("OPENAPI_SPEC_PATH not set, skipping tool registry")
	}

	// Initialize the assistant service.
	var aiService *ai.Service
	if cfg.AI.Enabled() {
		var runner ai.ToolRunner
		if registry != nil {
			runner = registry
		}
		aiService, err = ai.NewService(ctx, runner, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing without AI functionality - check OLLAMA_*/ARK_* environment variables")
		} else {
			log.Printf("AI service initialized with provider %s", cfg.AI.Provider)
		}
	} else {
		log.Println("AI provider not configured, skipping AI initialization")
	}

	router := handler.NewRouter(chatService, aiService, registry, cfg.HTTP)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Orion backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
