// internal/api/handlers.go
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rakshaklabs/rakshak-console/internal/blob"
	"github.com/rakshaklabs/rakshak-console/internal/models"
	"github.com/rakshaklabs/rakshak-console/internal/services"
	"github.com/rakshaklabs/rakshak-console/internal/session"
)

// Handler bundles the console controllers behind the HTTP surface.
// Handlers stay thin: validation plus delegation, the controllers own
// all workflow state.
type Handler struct {
	drafts   *services.DraftManager
	chat     *services.ChatService
	blobs    *blob.Store
	sessions session.Store
	hub      *Hub
	resp     *ResponseHelper
}

// NewHandler creates the API handler.
func NewHandler(drafts *services.DraftManager, chat *services.ChatService, blobs *blob.Store, sessions session.Store, hub *Hub) *Handler {
	return &Handler{
		drafts:   drafts,
		chat:     chat,
		blobs:    blobs,
		sessions: sessions,
		hub:      hub,
		resp:     NewResponseHelper(),
	}
}

// GetHealth reports console status for the UI status panel.
func (h *Handler) GetHealth(c *gin.Context) {
	role, _ := h.sessions.Get(session.KeyRole)
	mode, _ := h.sessions.Get(session.KeyDraftMode)

	h.resp.Success(c, gin.H{
		"engine":        "online",
		"role":          role,
		"draft_mode":    mode,
		"ws_clients":    h.hub.ClientCount(),
		"chat_awaiting": h.chat.Awaiting(),
	})
}

// SelectRole records the user's role for the session.
func (h *Handler) SelectRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "role is required")
		return
	}

	h.sessions.Set(session.KeyRole, req.Role)
	h.resp.Success(c, gin.H{"role": req.Role})
}

// SelectDraftMode records the draft mode and starts a fresh workflow.
func (h *Handler) SelectDraftMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "mode is required")
		return
	}

	draft, err := h.drafts.Select(models.DraftMode(req.Mode))
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	h.resp.Success(c, draft.State())
}

// UpdateDraftForm applies one or more form field updates.
func (h *Handler) UpdateDraftForm(c *gin.Context) {
	var req struct {
		Fields map[string]string `json:"fields" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "fields object is required")
		return
	}

	draft, err := h.drafts.Current()
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	for name, value := range req.Fields {
		if err := draft.UpdateField(name, value); err != nil {
			h.resp.AppError(c, err)
			return
		}
	}

	h.resp.Success(c, draft.State())
}

// RequestDraftPreview triggers preview generation.
func (h *Handler) RequestDraftPreview(c *gin.Context) {
	var req struct {
		ClausePrompt string `json:"clause_prompt"`
	}
	// Body is optional for default mode
	c.ShouldBindJSON(&req)

	draft, err := h.drafts.Current()
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	snap, err := draft.RequestPreview(c.Request.Context(), req.ClausePrompt)
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	h.resp.Success(c, snap)
}

// GetDraftState returns the current workflow snapshot.
func (h *Handler) GetDraftState(c *gin.Context) {
	draft, err := h.drafts.Current()
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	h.resp.Success(c, draft.State())
}

// SetDraftDisplayMode toggles the structured/rendered preview.
func (h *Handler) SetDraftDisplayMode(c *gin.Context) {
	var req struct {
		Mode string `json:"mode" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "mode is required")
		return
	}

	draft, err := h.drafts.Current()
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	if err := draft.SetDisplayMode(models.PreviewDisplayMode(req.Mode)); err != nil {
		h.resp.AppError(c, err)
		return
	}

	h.resp.Success(c, draft.State())
}

// DownloadDraft streams the current document as an attachment.
func (h *Handler) DownloadDraft(c *gin.Context) {
	draft, err := h.drafts.Current()
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	data, filename, err := draft.DownloadArtifact()
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	h.resp.DownloadResponse(c, data, filename, "application/pdf")
}

// ServeBlob serves a live artifact address for inline preview.
func (h *Handler) ServeBlob(c *gin.Context) {
	id := c.Param("id")

	data, contentType, ok := h.blobs.Open(id)
	if !ok {
		// Released or unknown address: a stale UI reference must fail to load
		h.resp.NotFound(c, "artifact is no longer available")
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

// Chat submits a legal query and returns both appended messages.
func (h *Handler) Chat(c *gin.Context) {
	var req struct {
		Query string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.BadRequest(c, "query is required")
		return
	}

	userMsg, systemMsg, err := h.chat.SubmitQuery(c.Request.Context(), req.Query)
	if err != nil {
		h.resp.AppError(c, err)
		return
	}

	h.resp.Success(c, gin.H{
		"user":   userMsg,
		"system": systemMsg,
	})
}

// GetChatMessages returns the conversation log.
func (h *Handler) GetChatMessages(c *gin.Context) {
	h.resp.Success(c, h.chat.Messages())
}

// WS upgrades to the realtime event stream.
func (h *Handler) WS(c *gin.Context) {
	h.hub.HandleWS(c)
}
