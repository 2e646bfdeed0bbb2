// internal/services/chat_service_test.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/rakshaklabs/rakshak-console/internal/errors"
	"github.com/rakshaklabs/rakshak-console/internal/models"
	"github.com/rakshaklabs/rakshak-console/internal/pipeline"
	"github.com/rakshaklabs/rakshak-console/internal/session"
)

func newTestChat(t *testing.T, role string, handler http.Handler) *ChatService {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions := session.NewMemoryStore()
	if role != "" {
		sessions.Set(session.KeyRole, role)
	}

	client := pipeline.NewClient(srv.URL, "test-key")
	return NewChatService(client, sessions, "IN")
}

func TestChatSeedsBanner(t *testing.T) {
	svc := newTestChat(t, "advocate", http.NewServeMux())

	msgs := svc.Messages()
	if len(msgs) != 1 {
		t.Fatalf("initial log length = %d, want 1", len(msgs))
	}
	if msgs[0].Role != models.RoleSystem {
		t.Errorf("banner role = %s", msgs[0].Role)
	}
	if want := "Role set to: ADVOCATE"; !containsLine(msgs[0].Content, want) {
		t.Errorf("banner = %q, want line %q", msgs[0].Content, want)
	}
}

func containsLine(content, want string) bool {
	for _, line := range splitLines(content) {
		if line == want {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func TestSubmitQueryAppendsUserThenSystem(t *testing.T) {
	var gotBody struct {
		Query        string `json:"query"`
		Jurisdiction string `json:"jurisdiction"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, `{
			"answer": "A minor's agreement is void ab initio.",
			"risk_level": "High",
			"confidence": 0.92,
			"citations": [{"statute": "Contract Act", "identifier": "§11"}]
		}`)
	})

	svc := newTestChat(t, "", mux)

	userMsg, systemMsg, err := svc.SubmitQuery(context.Background(), "Can a minor enter into a contract?")
	if err != nil {
		t.Fatalf("SubmitQuery: %v", err)
	}

	if gotBody.Query != "Can a minor enter into a contract?" || gotBody.Jurisdiction != "IN" {
		t.Errorf("payload = %+v", gotBody)
	}

	msgs := svc.Messages()
	if len(msgs) != 3 { // banner, user, system
		t.Fatalf("log length = %d, want 3", len(msgs))
	}
	if msgs[1].ID != userMsg.ID || msgs[2].ID != systemMsg.ID {
		t.Error("log order does not match returned messages")
	}
	if userMsg.ID >= systemMsg.ID {
		t.Errorf("user id %d must precede system id %d", userMsg.ID, systemMsg.ID)
	}
	if userMsg.Role != models.RoleUser || systemMsg.Role != models.RoleSystem {
		t.Errorf("roles = %s, %s", userMsg.Role, systemMsg.Role)
	}
	if systemMsg.Content != "A minor's agreement is void ab initio." {
		t.Errorf("system content = %q", systemMsg.Content)
	}

	meta := systemMsg.Metadata
	if meta == nil {
		t.Fatal("system reply lost its metadata")
	}
	if meta.RiskLevel != "High" || meta.Confidence != 0.92 {
		t.Errorf("metadata = %+v", meta)
	}
	if want := []string{"Contract Act – §11"}; !reflect.DeepEqual(meta.Citations, want) {
		t.Errorf("citations = %v, want %v", meta.Citations, want)
	}
	if svc.Awaiting() {
		t.Error("awaiting must reset after resolution")
	}
}

func TestSubmitQueryAnalysisFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"analysis": "Liability is limited.", "citations": []}`)
	})

	svc := newTestChat(t, "", mux)

	_, systemMsg, err := svc.SubmitQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("SubmitQuery: %v", err)
	}
	if systemMsg.Content != "Liability is limited." {
		t.Errorf("content = %q", systemMsg.Content)
	}
	if len(systemMsg.Metadata.Citations) != 0 {
		t.Errorf("citations = %v, want empty", systemMsg.Metadata.Citations)
	}
}

func TestSubmitQueryMissingCitationsField(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"answer": "ok"}`)
	})

	svc := newTestChat(t, "", mux)

	_, systemMsg, err := svc.SubmitQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("SubmitQuery: %v", err)
	}
	if systemMsg.Metadata.Citations == nil || len(systemMsg.Metadata.Citations) != 0 {
		t.Errorf("citations = %#v, want empty non-nil slice", systemMsg.Metadata.Citations)
	}
}

func TestSubmitQueryFailureAppendsNotice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	svc := newTestChat(t, "", mux)

	userMsg, systemMsg, err := svc.SubmitQuery(context.Background(), "q")
	if err != nil {
		t.Fatalf("SubmitQuery must not error on engine failure: %v", err)
	}
	if systemMsg.Content != FailureNotice {
		t.Errorf("content = %q, want %q", systemMsg.Content, FailureNotice)
	}
	if systemMsg.Metadata != nil {
		t.Error("failure notice must carry no metadata")
	}
	if userMsg.ID >= systemMsg.ID {
		t.Error("user message must precede the failure notice")
	}
	if svc.Awaiting() {
		t.Error("awaiting must reset after failure")
	}
}

func TestSubmitQueryPreconditions(t *testing.T) {
	svc := newTestChat(t, "", http.NewServeMux())

	if _, _, err := svc.SubmitQuery(context.Background(), "   "); !apperrors.IsPreconditionError(err) {
		t.Errorf("empty query: err = %v, want precondition violation", err)
	}
	if len(svc.Messages()) != 1 {
		t.Error("rejected query must not append messages")
	}
}

func TestSubmitQueryRejectsConcurrent(t *testing.T) {
	gate := make(chan struct{})
	arrived := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/analyze", func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-gate
		fmt.Fprint(w, `{"answer": "slow answer"}`)
	})

	svc := newTestChat(t, "", mux)

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.SubmitQuery(context.Background(), "first")
	}()

	<-arrived
	if !svc.Awaiting() {
		t.Error("awaiting must be set while a query is outstanding")
	}

	_, _, err := svc.SubmitQuery(context.Background(), "second")
	if !apperrors.IsPreconditionError(err) {
		t.Errorf("concurrent submit: err = %v, want precondition violation", err)
	}

	close(gate)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first query never resolved")
	}

	// Only the first query's pair landed in the log
	msgs := svc.Messages()
	if len(msgs) != 3 {
		t.Errorf("log length = %d, want 3", len(msgs))
	}
}
