package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yixuan-h/pagemate/internal/chat"
)

func testContents() []chat.Message {
	return []chat.Message{{
		Role: chat.RoleUser,
		Parts: []chat.Part{
			chat.TextPart("summarize"),
			chat.ImagePart("image/jpeg", "aW1n"),
		},
	}}
}

func newTestGemini(url string) *Gemini {
	g := NewGemini(url, "test-key", "gemini-2.0-flash-001")
	return g
}

func TestGenerateContentSuccess(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Hello"}]}}]}`))
	}))
	defer srv.Close()

	g := newTestGemini(srv.URL)
	text, err := g.GenerateContent(context.Background(), testContents())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if text != "Hello" {
		t.Fatalf("text = %q", text)
	}

	if !strings.Contains(gotPath, "models/gemini-2.0-flash-001:generateContent") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	contents, ok := gotBody["contents"].([]any)
	if !ok || len(contents) != 1 {
		t.Fatalf("unexpected contents: %v", gotBody)
	}
	msg := contents[0].(map[string]any)
	parts := msg["parts"].([]any)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts on the wire, got %d", len(parts))
	}
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	if inline["mime_type"] != "image/jpeg" {
		t.Fatalf("mime_type = %v", inline["mime_type"])
	}
}

func TestGenerateContentMissingCandidatesIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := newTestGemini(srv.URL)
	_, err := g.GenerateContent(context.Background(), testContents())
	if err == nil {
		t.Fatal("expected error")
	}
	if chat.KindOf(err) != chat.KindProtocol {
		t.Fatalf("kind = %v, want protocol", chat.KindOf(err))
	}
}

func TestGenerateContent429IsQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := newTestGemini(srv.URL)
	_, err := g.GenerateContent(context.Background(), testContents())
	if chat.KindOf(err) != chat.KindQuota {
		t.Fatalf("kind = %v, want quota", chat.KindOf(err))
	}
}

func TestGenerateContentResourceExhaustedIsQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"quota","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	g := newTestGemini(srv.URL)
	_, err := g.GenerateContent(context.Background(), testContents())
	if chat.KindOf(err) != chat.KindQuota {
		t.Fatalf("kind = %v, want quota", chat.KindOf(err))
	}
}

func TestGenerateContentTransportFailureIsConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	g := newTestGemini(srv.URL)
	_, err := g.GenerateContent(context.Background(), testContents())
	if chat.KindOf(err) != chat.KindConnectivity {
		t.Fatalf("kind = %v, want connectivity", chat.KindOf(err))
	}
}

func TestGenerateContentRequiresAPIKey(t *testing.T) {
	g := NewGemini("", "", "")
	if _, err := g.GenerateContent(context.Background(), testContents()); err == nil {
		t.Fatal("expected error without api key")
	}
}
