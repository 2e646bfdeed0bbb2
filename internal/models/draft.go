// internal/models/draft.go
package models

import "encoding/json"

// DraftMode selects how a document is generated: from the fixed NDA
// template, or augmented with a synthesized custom clause.
type DraftMode string

const (
	DraftModeDefault DraftMode = "default"
	DraftModeCustom  DraftMode = "custom"
	DraftModeUnset   DraftMode = ""
)

// Valid reports whether the mode names an actual workflow.
func (m DraftMode) Valid() bool {
	return m == DraftModeDefault || m == DraftModeCustom
}

// DraftPhase is the draft workflow state.
type DraftPhase string

const (
	PhaseUnselected      DraftPhase = "unselected"
	PhaseModeSelected    DraftPhase = "mode_selected"
	PhaseFormEditing     DraftPhase = "form_editing"
	PhasePreviewing      DraftPhase = "previewing"
	PhasePreviewReady    DraftPhase = "preview_ready"
	PhasePreviewRejected DraftPhase = "preview_rejected"
)

// PreviewDisplayMode is a pure UI toggle over the current preview:
// the raw structured response or the rendered document.
type PreviewDisplayMode string

const (
	DisplayStructured PreviewDisplayMode = "structured"
	DisplayRendered   PreviewDisplayMode = "rendered"
)

// Valid reports whether the display mode is one of the two toggles.
func (m PreviewDisplayMode) Valid() bool {
	return m == DisplayStructured || m == DisplayRendered
}

// DraftFormData carries the NDA template fields. Field names on the
// wire must match the engine contract exactly.
type DraftFormData struct {
	Party1Name          string `json:"party1_name"`
	Party1ShortName     string `json:"party1_short_name"`
	Party1Address       string `json:"party1_address"`
	Party2Name          string `json:"party2_name"`
	Party2Address       string `json:"party2_address"`
	ProposedTransaction string `json:"proposed_transaction"`
	ExecutionDate       string `json:"execution_date"`
}

// Complete reports whether every field is non-empty. All fields are
// optional while editing but required before a preview is issued.
func (f DraftFormData) Complete() bool {
	return f.Party1Name != "" &&
		f.Party1ShortName != "" &&
		f.Party1Address != "" &&
		f.Party2Name != "" &&
		f.Party2Address != "" &&
		f.ProposedTransaction != "" &&
		f.ExecutionDate != ""
}

// PreviewStatus tags the outcome of a draft-generation request.
type PreviewStatus string

const (
	PreviewEmpty    PreviewStatus = ""
	PreviewAccepted PreviewStatus = "accepted"
	PreviewRejected PreviewStatus = "rejected"
)

// PreviewResult is the current preview outcome. Exactly one is active
// per workflow instance; installing a new one supersedes the old.
type PreviewResult struct {
	Status      PreviewStatus   `json:"status"`
	DocumentID  string          `json:"document_id,omitempty"`
	RawResponse json.RawMessage `json:"raw_response,omitempty"`
}

// RevealSnapshot is a point-in-time view of an incremental notice reveal.
type RevealSnapshot struct {
	FullText             string `json:"full_text"`
	Revealed             string `json:"revealed"`
	RevealedPrefixLength int    `json:"revealed_prefix_length"`
	IsComplete           bool   `json:"is_complete"`
}
