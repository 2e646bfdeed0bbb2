// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rakshaklabs/rakshak-console/internal/api"
	"github.com/rakshaklabs/rakshak-console/internal/app"
	"github.com/rakshaklabs/rakshak-console/internal/config"
	"github.com/rakshaklabs/rakshak-console/internal/di"
	"github.com/rakshaklabs/rakshak-console/internal/utils"
)

func main() {
	log.Println("starting Rakshak legal console...")

	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	log.Printf("configuration loaded, port: %s, engine: %s", cfg.Port, cfg.EngineBaseURL)

	// 2. Initialize the logger
	if err := utils.InitLogger(filepath.Join(cfg.LogDir, "console.log")); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	if cfg.DebugMode {
		utils.GetLogger().SetLogLevel(utils.DEBUG)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Println("logger initialized")

	// 3. Initialize services into the container
	if err := app.InitServices(cfg); err != nil {
		log.Fatalf("failed to initialize services: %v", err)
	}
	log.Printf("services initialized: %d registered", len(di.GetContainer().GetNames()))

	// 4. Health check
	if err := app.HealthCheck(); err != nil {
		log.Fatalf("service health check failed: %v", err)
	}
	log.Println("service health check passed")

	// 5. Set up routes
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("failed to set up router: %v", err)
	}
	log.Println("router ready")

	// 6. Serve
	log.Printf("console listening on http://localhost:%s", cfg.Port)
	setupGracefulShutdown(router, cfg.Port)
}

// setupGracefulShutdown runs the server and drains it on SIGINT/SIGTERM.
func setupGracefulShutdown(router *gin.Engine, port string) {
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("shutdown complete")
}
