package helpdesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testClient(t *testing.T, handler http.Handler, cfgOverrides func(*Config)) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:   srv.URL,
		Token:     "tok",
		AccountID: "1",
		InboxName: "wpp-test",
	}
	if cfgOverrides != nil {
		cfgOverrides(&cfg)
	}
	return New(cfg, zerolog.Nop()), srv
}

func TestEnsureInboxPicksExistingByName(t *testing.T) {
	var inboxCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/inboxes", func(w http.ResponseWriter, r *http.Request) {
		inboxCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payload": []Inbox{{ID: 7, Name: "wpp-test"}, {ID: 8, Name: "other"}},
		})
	})

	c, _ := testClient(t, mux, nil)

	id, err := c.EnsureInbox(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 7 {
		t.Fatalf("got inbox id %d, want 7", id)
	}

	// A second call must hit the cached id, not the network again.
	if _, err := c.EnsureInbox(context.Background()); err != nil {
		t.Fatalf("unexpected error on cached lookup: %v", err)
	}
	if inboxCalls != 1 {
		t.Fatalf("expected exactly one /inboxes call, got %d", inboxCalls)
	}
}

func TestEnsureInboxCreatesWhenNoneMatch(t *testing.T) {
	var created bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/inboxes", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			created = true
			_ = json.NewEncoder(w).Encode(Inbox{ID: 42, Name: "wpp-test"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"payload": []Inbox{}})
	})

	c, _ := testClient(t, mux, nil)

	id, err := c.EnsureInbox(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 42 {
		t.Fatalf("got inbox id %d, want 42", id)
	}
	if !created {
		t.Fatal("expected a POST to create a new inbox")
	}
}

func TestEnsureInboxUsesFreshSidecar(t *testing.T) {
	dir := t.TempDir()
	sidecarPath := filepath.Join(dir, "sidecar.json")
	raw, _ := json.Marshal(sidecar{InboxID: 9, InboxName: "wpp-test"})
	if err := os.WriteFile(sidecarPath, raw, 0o644); err != nil {
		t.Fatalf("could not write sidecar fixture: %v", err)
	}

	var inboxCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/inboxes", func(w http.ResponseWriter, r *http.Request) {
		inboxCalls++
		_ = json.NewEncoder(w).Encode(map[string]any{
			"payload": []Inbox{{ID: 9, Name: "wpp-test"}},
		})
	})

	c, _ := testClient(t, mux, func(cfg *Config) { cfg.SidecarPath = sidecarPath })

	id, err := c.EnsureInbox(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 9 {
		t.Fatalf("got inbox id %d, want 9 from sidecar", id)
	}
	if inboxCalls != 1 {
		t.Fatalf("expected a single verification call against the sidecar id, got %d", inboxCalls)
	}
}

func TestFindOrCreateContactReturnsExistingMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/contacts/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchPayload{Payload: []Contact{
			{ID: 5, Identifier: "+5511988887777", PhoneNumber: "+5511988887777"},
		}})
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not create a contact when search already found one")
	})

	c, _ := testClient(t, mux, nil)

	got, err := c.FindOrCreateContact(context.Background(), "+5511988887777", "Alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 5 {
		t.Fatalf("got contact id %d, want 5", got.ID)
	}
}

func TestFindOrCreateContactCreatesWhenSearchEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/contacts/search", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchPayload{Payload: []Contact{}})
	})
	mux.HandleFunc("/api/v1/accounts/1/contacts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["phone_number"] != "+5511988887777" {
			t.Fatalf("expected phone_number to be set on the create payload, got %v", body)
		}
		_ = json.NewEncoder(w).Encode(Contact{ID: 11, Identifier: "+5511988887777"})
	})

	c, _ := testClient(t, mux, nil)

	got, err := c.FindOrCreateContact(context.Background(), "+5511988887777", "Alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 11 {
		t.Fatalf("got contact id %d, want 11", got.ID)
	}
}

func TestFindOrCreateConversationReopensResolved(t *testing.T) {
	var toggled bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		status := r.URL.Query().Get("status")
		if status == "resolved" {
			_ = json.NewEncoder(w).Encode(conversationListPayload{Payload: []Conversation{
				{ID: 3, InboxID: 1, Status: "resolved", Meta: struct {
					Sender Contact `json:"sender"`
				}{Sender: Contact{ID: 5}}},
			}})
			return
		}
		t.Fatalf("should not scan %q once a resolved match is found", status)
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations/3", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Conversation{ID: 3, Status: "resolved"})
	})
	mux.HandleFunc("/api/v1/accounts/1/conversations/3/toggle_status", func(w http.ResponseWriter, r *http.Request) {
		toggled = true
		w.WriteHeader(http.StatusOK)
	})

	c, _ := testClient(t, mux, func(cfg *Config) { cfg.ReopenResolved = true })

	conv, err := c.FindOrCreateConversation(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ID != 3 || conv.Status != "open" {
		t.Fatalf("got %+v, want reopened conversation 3", conv)
	}
	if !toggled {
		t.Fatal("expected toggle_status to be called to reopen the resolved conversation")
	}
}

func TestFindOrCreateConversationCreatesWhenNoneMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode(conversationListPayload{Payload: []Conversation{}})
			return
		}
		_ = json.NewEncoder(w).Encode(Conversation{ID: 99, InboxID: 1, Status: "open"})
	})

	c, _ := testClient(t, mux, nil)

	conv, err := c.FindOrCreateConversation(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.ID != 99 {
		t.Fatalf("got conversation id %d, want 99", conv.ID)
	}
}

func TestSendTextSetsMessageTypeAndReplyTo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations/1/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["message_type"] != "outgoing" {
			t.Fatalf("got message_type %v, want outgoing", body["message_type"])
		}
		attrs, _ := body["content_attributes"].(map[string]any)
		if attrs == nil || attrs["in_reply_to"] != float64(42) {
			t.Fatalf("expected in_reply_to 42 in content_attributes, got %v", body["content_attributes"])
		}
		_ = json.NewEncoder(w).Encode(Message{ID: 1, Content: "hi"})
	})

	c, _ := testClient(t, mux, nil)

	msg, err := c.SendText(context.Background(), 1, "hi", true, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID != 1 {
		t.Fatalf("got message id %d, want 1", msg.ID)
	}
}

func TestSendMediaDegradesToTextWhenNoBytesAvailable(t *testing.T) {
	var gotText string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations/1/messages", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("expected a degraded JSON text send, got a non-JSON body: %v", err)
		}
		gotText = body["content"].(string)
		_ = json.NewEncoder(w).Encode(Message{ID: 2, Content: gotText})
	})

	c, _ := testClient(t, mux, nil)

	// No DownloadHook, no URL, no Base64: resolveMediaBytes must fail and
	// SendMedia must fall back to a plain text send rather than erroring.
	msg, err := c.SendMedia(context.Background(), 1, "look at this", MediaSource{Origin: "zapi"}, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID != 2 {
		t.Fatalf("got message id %d, want 2", msg.ID)
	}
	if !strings.Contains(gotText, "could not be delivered") {
		t.Fatalf("expected degraded caption to mention the failed delivery, got %q", gotText)
	}
}

func TestSendMediaUploadsMultipartWhenBase64Present(t *testing.T) {
	var receivedContentType string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations/1/messages", func(w http.ResponseWriter, r *http.Request) {
		receivedContentType = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("expected a multipart body, got error: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Message{ID: 3})
	})

	c, _ := testClient(t, mux, nil)

	msg, err := c.SendMedia(context.Background(), 1, "photo", MediaSource{
		Origin:   "zapi",
		Base64:   "aGVsbG8=",
		Filename: "photo.jpg",
	}, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.ID != 3 {
		t.Fatalf("got message id %d, want 3", msg.ID)
	}
	if !strings.HasPrefix(receivedContentType, "multipart/form-data") {
		t.Fatalf("got content type %q, want multipart/form-data", receivedContentType)
	}
}

func TestDeleteMessage(t *testing.T) {
	var deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/1/conversations/1/messages/9", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("got method %s, want DELETE", r.Method)
		}
		deleted = true
		w.WriteHeader(http.StatusOK)
	})

	c, _ := testClient(t, mux, nil)

	if err := c.DeleteMessage(context.Background(), 1, 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected the DELETE request to reach the handler")
	}
}
