// internal/app/app.go
package app

import (
	"fmt"

	"github.com/rakshaklabs/rakshak-console/internal/blob"
	"github.com/rakshaklabs/rakshak-console/internal/config"
	"github.com/rakshaklabs/rakshak-console/internal/di"
	"github.com/rakshaklabs/rakshak-console/internal/pipeline"
	"github.com/rakshaklabs/rakshak-console/internal/services"
	"github.com/rakshaklabs/rakshak-console/internal/session"
)

// InitServices builds every service in dependency order and registers
// it in the container. Called once at boot.
func InitServices(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is required")
	}

	container := di.GetContainer()

	// Leaf dependencies first
	sessions := session.NewMemoryStore()
	container.Register("sessions", sessions)

	blobs := blob.NewStore()
	container.Register("blobs", blobs)

	client := pipeline.NewClient(cfg.EngineBaseURL, cfg.EngineAPIKey)
	container.Register("pipeline", client)

	// Controllers
	drafts := services.NewDraftManager(client, blobs, sessions, cfg.RevealInterval)
	container.Register("drafts", drafts)

	chat := services.NewChatService(client, sessions, cfg.Jurisdiction)
	container.Register("chat", chat)

	return nil
}

// HealthCheck verifies the critical services are registered.
func HealthCheck() error {
	container := di.GetContainer()

	criticalServices := []string{"sessions", "blobs", "pipeline", "drafts", "chat"}

	for _, name := range criticalServices {
		if !container.Has(name) {
			return fmt.Errorf("critical service not registered: %s", name)
		}
	}

	return nil
}
