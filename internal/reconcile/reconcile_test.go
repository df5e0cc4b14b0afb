package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"wootrico/internal/audit"
	"wootrico/internal/helpdesk"
	"wootrico/internal/provider"
	"wootrico/internal/queue"
	"wootrico/internal/store"
	"wootrico/internal/tenant"
)

// fakeChatwoot is a minimal stand-in for the subset of Chatwoot's REST
// API the helpdesk client drives: one inbox, contact search/create, an
// empty conversation list (so every test always creates a fresh one),
// and a message endpoint that returns an incrementing id.
func fakeChatwoot(t *testing.T, inboxName string) *httptest.Server {
	var nextContactID, nextConversationID, nextMessageID int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/inboxes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payload": []map[string]any{{"id": 1, "name": inboxName}},
		})
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"payload": []any{}})
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		id := atomic.AddInt64(&nextContactID, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{"payload": []any{}})
			return
		}
		id := atomic.AddInt64(&nextConversationID, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "inbox_id": 1, "status": "open"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/messages") {
			id := atomic.AddInt64(&nextMessageID, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "message_type": "incoming"})
			return
		}
		t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
	})
	return httptest.NewServer(mux)
}

// fakeChatwootCapturingContent behaves like fakeChatwoot but also
// records the "content" field of the last posted message, for tests
// that assert on the rendered text rather than just the id.
func fakeChatwootCapturingContent(t *testing.T, inboxName string, captured *string) *httptest.Server {
	var nextContactID, nextConversationID, nextMessageID int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/inboxes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payload": []map[string]any{{"id": 1, "name": inboxName}},
		})
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"payload": []any{}})
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		id := atomic.AddInt64(&nextContactID, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(map[string]any{"payload": []any{}})
			return
		}
		id := atomic.AddInt64(&nextConversationID, 1)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "inbox_id": 1, "status": "open"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/messages") {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			if c, ok := body["content"].(string); ok {
				*captured = c
			}
			id := atomic.AddInt64(&nextMessageID, 1)
			_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "message_type": "incoming"})
			return
		}
		t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
	})
	return httptest.NewServer(mux)
}

func newTestProcessor(t *testing.T, hdServer *httptest.Server) (*Processor, *tenant.Tenant) {
	log := zerolog.Nop()
	auditStore, err := audit.Open(":memory:", log)
	if err != nil {
		t.Fatalf("could not open audit store: %v", err)
	}
	t.Cleanup(func() { _ = auditStore.Close() })

	hd := helpdesk.New(helpdesk.Config{
		BaseURL:        hdServer.URL,
		Token:          "tok",
		AccountID:      "1",
		InboxName:      "wpp-test",
		ReopenResolved: false,
	}, log)

	tn := &tenant.Tenant{
		ID:              "acme",
		WebhookName:     "wpp-test",
		DefaultCountry:  "BR",
		ProviderDialect: provider.DialectZAPI,
		Helpdesk:        hd,
	}

	registry := tenant.NewRegistry(tn)

	mappings := store.NewMappingCache()
	credits := store.NewCreditLedger()

	return New(registry, mappings, credits, auditStore, log), tn
}

func TestHandlePrincipalInboundTextCreatesHelpdeskMessage(t *testing.T) {
	srv := fakeChatwoot(t, "wpp-test")
	defer srv.Close()

	p, _ := newTestProcessor(t, srv)

	payload := []byte(`{"momment":1,"phone":"5511988887777","messageId":"prov-1","fromMe":false,"senderName":"Alice","text":{"message":"hello"}}`)
	env := queue.Envelope{ID: "env-1", TenantID: "acme", Payload: payload}

	if err := p.HandlePrincipal(context.Background(), env); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, ok := p.mappings.GetHelpdeskMessageID("prov-1"); !ok {
		t.Fatal("expected a stored mapping for the inbound provider message")
	}
}

func TestHandlePrincipalFromMeSelfSendMirrorsThenSuppressesCallback(t *testing.T) {
	srv := fakeChatwoot(t, "wpp-test")
	defer srv.Close()

	p, _ := newTestProcessor(t, srv)

	payload := []byte(`{"momment":1,"phone":"5511988887777","messageId":"prov-2","fromMe":true,"senderName":"Owner","text":{"message":"sent from my phone"}}`)
	env := queue.Envelope{ID: "env-2", TenantID: "acme", Payload: payload}

	if err := p.HandlePrincipal(context.Background(), env); err != nil {
		t.Fatalf("unexpected error on inbound self-send: %v", err)
	}

	if !p.credits.PeekHelpdeskCredit("+5511988887777", "text") {
		t.Fatal("expected a helpdesk credit to be pre-armed after mirroring a self-send")
	}

	callback := []byte(`{
		"event": "message_created",
		"id": 999,
		"content": "sent from my phone",
		"message_type": "outgoing",
		"conversation": {"id": 1, "meta": {"sender": {"id": 1, "identifier": "+5511988887777"}}}
	}`)
	cbEnv := queue.Envelope{ID: "env-3", TenantID: "acme", Payload: callback}

	if err := p.HandleCallback(context.Background(), cbEnv); err != nil {
		t.Fatalf("unexpected error on outbound callback: %v", err)
	}

	if p.credits.PeekHelpdeskCredit("+5511988887777", "text") {
		t.Fatal("expected the helpdesk credit to be consumed once the mirrored callback arrived")
	}
}

func TestHandlePrincipalUnknownTenantIsDropped(t *testing.T) {
	srv := fakeChatwoot(t, "wpp-test")
	defer srv.Close()

	p, _ := newTestProcessor(t, srv)

	env := queue.Envelope{ID: "env-4", TenantID: "ghost", Payload: []byte(`{"momment":1,"phone":"1","messageId":"x","text":{"message":"hi"}}`)}
	if err := p.HandlePrincipal(context.Background(), env); err != nil {
		t.Fatalf("unknown tenant should be a silent drop, got error: %v", err)
	}
}
