// internal/services/draft_service.go
package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rakshaklabs/rakshak-console/internal/blob"
	apperrors "github.com/rakshaklabs/rakshak-console/internal/errors"
	"github.com/rakshaklabs/rakshak-console/internal/models"
	"github.com/rakshaklabs/rakshak-console/internal/pipeline"
	"github.com/rakshaklabs/rakshak-console/internal/reveal"
	"github.com/rakshaklabs/rakshak-console/internal/session"
	"github.com/rakshaklabs/rakshak-console/internal/utils"
)

// Engine endpoints for draft generation
const (
	endpointDefaultPreview = "/v1/draft/default/preview-pdf"
	endpointCustomPreview  = "/v1/draft/custom/preview-pdf"
	endpointDownload       = "/v1/draft/download/"
)

// RejectionNotice is the fixed compliance-violation notice revealed
// when the engine refuses a custom clause.
const RejectionNotice = "This clause cannot be added as it violates applicable Indian law."

// DownloadFilename is the attachment name for saved documents.
const DownloadFilename = "nda.pdf"

// Notifier pushes state events toward connected UI clients.
type Notifier func(event string, payload interface{})

// customPreviewPayload is the wire shape for custom-clause previews.
type customPreviewPayload struct {
	BaseData     models.DraftFormData `json:"base_data"`
	ClausePrompt string               `json:"clause_prompt"`
}

// DraftSnapshot is a consistent view of the draft workflow state.
type DraftSnapshot struct {
	Mode            models.DraftMode          `json:"mode"`
	Phase           models.DraftPhase         `json:"phase"`
	Form            models.DraftFormData      `json:"form"`
	DisplayMode     models.PreviewDisplayMode `json:"display_mode"`
	Preview         models.PreviewResult      `json:"preview"`
	ArtifactAddress string                    `json:"artifact_address,omitempty"`
	Rejection       models.RevealSnapshot     `json:"rejection"`
}

// DraftService owns one draft workflow instance: mode selection, form
// state, preview generation and the single live artifact handle. The
// handle is exclusively owned here; no other component may acquire or
// release it.
type DraftService struct {
	mu sync.Mutex

	client *pipeline.Client
	blobs  *blob.Store
	reveal *reveal.Scheduler
	notify Notifier
	logger *utils.Logger

	mode            models.DraftMode // read once from the session store, immutable after
	phase           models.DraftPhase
	form            models.DraftFormData
	shortNameEdited bool
	displayMode     models.PreviewDisplayMode

	preview models.PreviewResult
	handle  *blob.Handle

	// Preview requests supersede each other: a result is applied only
	// when its sequence number still matches the latest issued one.
	lastIssued int64
}

// NewDraftService constructs a workflow instance, reading the draft
// mode from the session store exactly once.
func NewDraftService(client *pipeline.Client, blobs *blob.Store, sessions session.Store, revealInterval time.Duration, notify Notifier) *DraftService {
	s := &DraftService{
		client:      client,
		blobs:       blobs,
		reveal:      reveal.NewScheduler(revealInterval),
		notify:      notify,
		logger:      utils.GetLogger(),
		phase:       models.PhaseUnselected,
		displayMode: models.DisplayRendered,
	}

	if raw, ok := sessions.Get(session.KeyDraftMode); ok {
		mode := models.DraftMode(raw)
		if mode.Valid() {
			s.mode = mode
			s.phase = models.PhaseModeSelected
		}
	}

	return s
}

// Mode returns the workflow's draft mode.
func (s *DraftService) Mode() models.DraftMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// UpdateField sets one form field by its wire name. The short name
// derives from the primary party name until the user explicitly edits
// the short-name field; an explicit edit pins it permanently.
func (s *DraftService) UpdateField(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == models.PhaseUnselected {
		return apperrors.NewPreconditionError("no draft mode selected")
	}

	switch name {
	case "party1_name":
		s.form.Party1Name = value
		if !s.shortNameEdited && s.form.Party1ShortName == "" {
			// Fields is empty for whitespace-only input
			if words := strings.Fields(value); len(words) > 0 {
				s.form.Party1ShortName = words[0]
			}
		}
	case "party1_short_name":
		s.form.Party1ShortName = value
		s.shortNameEdited = true
	case "party1_address":
		s.form.Party1Address = value
	case "party2_name":
		s.form.Party2Name = value
	case "party2_address":
		s.form.Party2Address = value
	case "proposed_transaction":
		s.form.ProposedTransaction = value
	case "execution_date":
		s.form.ExecutionDate = value
	default:
		return apperrors.NewPreconditionError(fmt.Sprintf("unknown form field: %s", name))
	}

	if s.phase == models.PhaseModeSelected {
		s.phase = models.PhaseFormEditing
	}

	s.publishLocked()
	return nil
}

// SetDisplayMode toggles between the structured and rendered preview.
// Pure UI state; no bearing on network or artifact lifetime.
func (s *DraftService) SetDisplayMode(mode models.PreviewDisplayMode) error {
	if !mode.Valid() {
		return apperrors.NewPreconditionError(fmt.Sprintf("unknown display mode: %s", mode))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.displayMode = mode
	s.publishLocked()
	return nil
}

// RequestPreview generates a document preview for the current form.
// Custom mode requires a non-empty clause prompt. Concurrent requests
// supersede: only the most recently issued request's result is
// applied, stale results are discarded on arrival.
func (s *DraftService) RequestPreview(ctx context.Context, clausePrompt string) (DraftSnapshot, error) {
	s.mu.Lock()

	if !s.mode.Valid() {
		s.mu.Unlock()
		return DraftSnapshot{}, apperrors.NewPreconditionError("no draft mode selected")
	}
	if s.mode == models.DraftModeCustom && strings.TrimSpace(clausePrompt) == "" {
		s.mu.Unlock()
		return DraftSnapshot{}, apperrors.NewPreconditionError("custom mode requires a clause prompt")
	}
	if !s.form.Complete() {
		s.mu.Unlock()
		return DraftSnapshot{}, apperrors.NewPreconditionError("all form fields are required before preview")
	}

	s.lastIssued++
	seq := s.lastIssued

	// Entering Previewing revokes the prior artifact and resets any
	// rejection notice; the raw preview body stays visible meanwhile.
	s.releaseHandleLocked()
	s.reveal.Cancel()
	s.phase = models.PhasePreviewing

	endpoint := endpointDefaultPreview
	var payload interface{} = s.form
	if s.mode == models.DraftModeCustom {
		endpoint = endpointCustomPreview
		payload = customPreviewPayload{BaseData: s.form, ClausePrompt: clausePrompt}
	}
	mode := s.mode

	s.publishLocked()
	s.mu.Unlock()

	resp, err := s.client.PostJSON(ctx, endpoint, payload)

	s.mu.Lock()
	if seq != s.lastIssued {
		// Superseded while in flight: discard, newer request owns the state
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	if err != nil {
		s.phase = models.PhaseFormEditing
		snap := s.snapshotLocked()
		s.publishLocked()
		s.mu.Unlock()
		s.logger.Errorf("preview request failed: %v", err)
		return snap, err
	}

	body := resp.JSON()

	if mode == models.DraftModeCustom && body.Get("status").String() == "Rejected" {
		s.preview = models.PreviewResult{
			Status:      models.PreviewRejected,
			RawResponse: resp.Body,
		}
		s.phase = models.PhasePreviewRejected
		// Started while still holding the mutex: the staleness decision
		// above and the reveal start are one atomic step, so a request
		// superseded in between can never start a stale reveal.
		s.reveal.Start(RejectionNotice, s.onRevealTick)
		snap := s.snapshotLocked()
		s.publishLocked()
		s.mu.Unlock()

		return snap, nil
	}

	downloadURL := body.Get("download_url").String()
	if downloadURL == "" {
		s.phase = models.PhaseFormEditing
		snap := s.snapshotLocked()
		s.publishLocked()
		s.mu.Unlock()
		return snap, apperrors.NewMalformedError("engine response is missing download_url", nil)
	}
	fileID := path.Base(downloadURL)
	rawPreview := resp.Body
	s.mu.Unlock()

	artifact, err := s.client.GetRaw(ctx, endpointDownload+fileID)

	s.mu.Lock()
	if seq != s.lastIssued {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}

	if err != nil {
		s.phase = models.PhaseFormEditing
		snap := s.snapshotLocked()
		s.publishLocked()
		s.mu.Unlock()
		s.logger.Errorf("artifact fetch failed: %v", err)
		return snap, err
	}

	s.releaseHandleLocked()
	s.handle = s.blobs.Acquire(artifact.Body, "application/pdf")
	s.preview = models.PreviewResult{
		Status:      models.PreviewAccepted,
		DocumentID:  fileID,
		RawResponse: rawPreview,
	}
	s.displayMode = models.DisplayRendered
	s.phase = models.PhasePreviewReady
	snap := s.snapshotLocked()
	s.publishLocked()
	s.mu.Unlock()

	return snap, nil
}

// DownloadArtifact returns the current document for user-initiated
// save. Valid only with a live handle; never triggers a network call
// and never revokes the preview handle.
func (s *DraftService) DownloadArtifact() ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil, "", apperrors.NewPreconditionError("no document available for download")
	}

	data, _, ok := s.blobs.Open(s.handle.ID())
	if !ok {
		return nil, "", apperrors.NewPreconditionError("document handle is no longer live")
	}

	return data, DownloadFilename, nil
}

// State returns a consistent snapshot of the workflow.
func (s *DraftService) State() DraftSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

// Close tears down the workflow: cancels the reveal and revokes the
// artifact handle. Safe to call more than once.
func (s *DraftService) Close() {
	s.reveal.Cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseHandleLocked()
}

// releaseHandleLocked revokes the live handle, if any. Release is
// idempotent at the store level, but the reference is nulled out so a
// torn-down handle cannot be reused.
func (s *DraftService) releaseHandleLocked() {
	if s.handle != nil {
		s.blobs.Release(s.handle)
		s.handle = nil
	}
}

func (s *DraftService) snapshotLocked() DraftSnapshot {
	snap := DraftSnapshot{
		Mode:        s.mode,
		Phase:       s.phase,
		Form:        s.form,
		DisplayMode: s.displayMode,
		Preview:     s.preview,
		Rejection:   s.reveal.Snapshot(),
	}
	if s.handle != nil {
		snap.ArtifactAddress = s.handle.Address()
	}
	return snap
}

func (s *DraftService) publishLocked() {
	if s.notify != nil {
		s.notify("draft_state", s.snapshotLocked())
	}
}

func (s *DraftService) onRevealTick(snap models.RevealSnapshot) {
	if s.notify != nil {
		event := "reveal_tick"
		if snap.IsComplete {
			event = "reveal_done"
		}
		s.notify(event, snap)
	}
}

// DraftManager owns the current draft workflow instance. Selecting a
// mode starts a fresh workflow (tearing down the previous one), which
// then reads its mode from the session store exactly once.
type DraftManager struct {
	mu sync.Mutex

	client         *pipeline.Client
	blobs          *blob.Store
	sessions       session.Store
	revealInterval time.Duration
	notify         Notifier

	current *DraftService
}

// NewDraftManager creates the manager with its injected dependencies.
func NewDraftManager(client *pipeline.Client, blobs *blob.Store, sessions session.Store, revealInterval time.Duration) *DraftManager {
	return &DraftManager{
		client:         client,
		blobs:          blobs,
		sessions:       sessions,
		revealInterval: revealInterval,
	}
}

// SetNotifier wires the event sink used by workflow instances.
func (m *DraftManager) SetNotifier(notify Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notify = notify
}

// Select records the chosen mode in the session store and starts a new
// workflow instance for it.
func (m *DraftManager) Select(mode models.DraftMode) (*DraftService, error) {
	if !mode.Valid() {
		return nil, apperrors.NewPreconditionError(fmt.Sprintf("unknown draft mode: %s", mode))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Close()
	}

	m.sessions.Set(session.KeyDraftMode, string(mode))
	m.current = NewDraftService(m.client, m.blobs, m.sessions, m.revealInterval, m.notify)
	return m.current, nil
}

// Current returns the active workflow instance.
func (m *DraftManager) Current() (*DraftService, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil, apperrors.NewPreconditionError("no draft mode selected")
	}
	return m.current, nil
}

// Close tears down the active workflow, if any.
func (m *DraftManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		m.current.Close()
		m.current = nil
	}
}
