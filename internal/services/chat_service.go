// internal/services/chat_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	apperrors "github.com/rakshaklabs/rakshak-console/internal/errors"
	"github.com/rakshaklabs/rakshak-console/internal/models"
	"github.com/rakshaklabs/rakshak-console/internal/pipeline"
	"github.com/rakshaklabs/rakshak-console/internal/session"
	"github.com/rakshaklabs/rakshak-console/internal/utils"
)

const endpointAnalyze = "/v1/analyze"

// FailureNotice is the fixed reply appended when the engine cannot be
// reached or returns an unusable response.
const FailureNotice = "Failed to fetch response from backend."

const defaultRole = "citizen"

// analyzePayload is the wire shape for legal queries.
type analyzePayload struct {
	Query        string `json:"query"`
	Jurisdiction string `json:"jurisdiction"`
}

// ChatService owns the conversation with the analysis engine. The
// message log is append-only and never reordered; one query may be
// outstanding at a time, further submissions are rejected rather than
// queued so conversation order stays intact.
type ChatService struct {
	mu sync.Mutex

	client       *pipeline.Client
	jurisdiction string
	notify       Notifier
	logger       *utils.Logger

	nextID   int64
	messages []models.Message
	awaiting bool
}

// NewChatService creates the conversation controller, seeding the log
// with the engine banner for the role recorded in the session store.
func NewChatService(client *pipeline.Client, sessions session.Store, jurisdiction string) *ChatService {
	role := defaultRole
	if r, ok := sessions.Get(session.KeyRole); ok && r != "" {
		role = r
	}

	s := &ChatService{
		client:       client,
		jurisdiction: jurisdiction,
		logger:       utils.GetLogger(),
	}

	banner := fmt.Sprintf("Rakshak Engine initialized.\nRole set to: %s\nAwaiting legal query for analysis.",
		strings.ToUpper(role))
	s.appendLocked(models.RoleSystem, banner, nil)

	return s
}

// SetNotifier wires the event sink for message appends.
func (s *ChatService) SetNotifier(notify Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = notify
}

// SubmitQuery sends a legal query to the engine. The user message is
// appended (and published) before the request goes out, so it is
// always visible ahead of the system reply. Returns the user message
// and the system reply; transport failures become the fixed failure
// notice, not an error.
func (s *ChatService) SubmitQuery(ctx context.Context, text string) (models.Message, models.Message, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" {
		s.mu.Unlock()
		return models.Message{}, models.Message{}, apperrors.NewPreconditionError("query text is empty")
	}
	if s.awaiting {
		s.mu.Unlock()
		return models.Message{}, models.Message{}, apperrors.NewPreconditionError("a query is already awaiting a response")
	}

	s.awaiting = true
	userMsg := s.appendLocked(models.RoleUser, text, nil)
	s.mu.Unlock()

	resp, err := s.client.PostJSON(ctx, endpointAnalyze, analyzePayload{
		Query:        text,
		Jurisdiction: s.jurisdiction,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { s.awaiting = false }()

	if err != nil {
		s.logger.Errorf("analyze request failed: %v", err)
		systemMsg := s.appendLocked(models.RoleSystem, FailureNotice, nil)
		return userMsg, systemMsg, nil
	}

	body := resp.JSON()

	content := body.Get("answer").String()
	if content == "" {
		content = body.Get("analysis").String()
	}
	if content == "" {
		content = "No analysis returned by engine."
	}

	metadata := &models.MessageMetadata{
		RiskLevel:  body.Get("risk_level").String(),
		Confidence: body.Get("confidence").Float(),
		Citations:  extractCitations(resp),
	}

	systemMsg := s.appendLocked(models.RoleSystem, content, metadata)
	return userMsg, systemMsg, nil
}

// Messages returns a copy of the conversation log.
func (s *ChatService) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Awaiting reports whether a query is outstanding.
func (s *ChatService) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaiting
}

// appendLocked adds a message to the log and publishes it.
func (s *ChatService) appendLocked(role models.MessageRole, content string, metadata *models.MessageMetadata) models.Message {
	s.nextID++
	msg := models.Message{
		ID:        s.nextID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	s.messages = append(s.messages, msg)

	if s.notify != nil {
		s.notify("chat_message", msg)
	}
	return msg
}

// extractCitations formats the response's citation objects as
// "statute – identifier" strings. A missing or empty citation list
// yields an empty slice, never an error.
func extractCitations(resp *pipeline.Response) []string {
	citations := []string{}
	for _, c := range resp.JSON().Get("citations").Array() {
		citations = append(citations,
			fmt.Sprintf("%s – %s", c.Get("statute").String(), c.Get("identifier").String()))
	}
	return citations
}
