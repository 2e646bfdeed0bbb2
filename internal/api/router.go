// internal/api/router.go
package api

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/rakshaklabs/rakshak-console/internal/blob"
	"github.com/rakshaklabs/rakshak-console/internal/di"
	"github.com/rakshaklabs/rakshak-console/internal/services"
	"github.com/rakshaklabs/rakshak-console/internal/session"
)

// SetupRouter resolves the services from the container, wires the
// realtime hub into the controllers and assembles the HTTP routes.
func SetupRouter() (*gin.Engine, error) {
	container := di.GetContainer()

	drafts, ok := container.Get("drafts").(*services.DraftManager)
	if !ok {
		return nil, fmt.Errorf("draft manager is not initialized")
	}

	chat, ok := container.Get("chat").(*services.ChatService)
	if !ok {
		return nil, fmt.Errorf("chat service is not initialized")
	}

	blobs, ok := container.Get("blobs").(*blob.Store)
	if !ok {
		return nil, fmt.Errorf("blob store is not initialized")
	}

	sessions, ok := container.Get("sessions").(session.Store)
	if !ok {
		return nil, fmt.Errorf("session store is not initialized")
	}

	// The hub is created here and handed to the controllers as their
	// event sink; services never import the api package.
	hub := NewHub()
	drafts.SetNotifier(hub.Publish)
	chat.SetNotifier(hub.Publish)

	handler := NewHandler(drafts, chat, blobs, sessions, hub)

	r := gin.Default()
	r.Use(corsMiddleware())

	// Realtime events and live artifact addresses
	r.GET("/ws", handler.WS)
	r.GET("/blob/:id", handler.ServeBlob)

	// ===============================
	// API routes
	// ===============================
	api := r.Group("/api")
	{
		api.GET("/health", handler.GetHealth)

		// ===============================
		// Session routes
		// ===============================
		sessionGroup := api.Group("/session")
		{
			sessionGroup.POST("/role", handler.SelectRole)
			sessionGroup.POST("/mode", handler.SelectDraftMode)
		}

		// ===============================
		// Draft workflow routes
		// ===============================
		draftGroup := api.Group("/draft")
		{
			draftGroup.GET("/state", handler.GetDraftState)
			draftGroup.POST("/form", handler.UpdateDraftForm)
			draftGroup.POST("/preview", handler.RequestDraftPreview)
			draftGroup.POST("/display-mode", handler.SetDraftDisplayMode)
			draftGroup.GET("/download", handler.DownloadDraft)
		}

		// ===============================
		// Conversation routes
		// ===============================
		chatGroup := api.Group("/chat")
		{
			chatGroup.POST("", handler.Chat)
			chatGroup.GET("/messages", handler.GetChatMessages)
		}
	}

	return r, nil
}
