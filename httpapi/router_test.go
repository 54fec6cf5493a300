package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/classifiers/rules"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/inbound"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/devkit"
	meta "github.com/ThiagoDev202/supersdr-prova-tecnica/providers/meta/common"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/meta/whatsapp"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/providers/zapi"
	memorystore "github.com/ThiagoDev202/supersdr-prova-tecnica/store/memory"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/webhooks"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	registry, err := core.NewAdapterRegistry(zapi.New(), whatsapp.New())
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	cfg := core.DefaultConfig()
	cfg.Providers.MetaWhatsApp.VerifyToken = "hub-secret"
	service, err := core.NewService(cfg,
		core.WithRegistry(registry),
		core.WithRepository(memorystore.NewMessageStore()),
		core.WithClassifier(rules.New()),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	router := NewRouter(Dependencies{
		Webhooks:     inbound.NewDispatcher(webhooks.NewVerifierSet(), service),
		Subscription: service,
		Messages:     service,
		MaxBodyBytes: 4096,
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, target string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(target, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", target, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	out := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestWebhookLifecycle(t *testing.T) {
	server := newTestServer(t)
	payload := devkit.ZAPITextFixture().Payload

	resp, body := postJSON(t, server.URL+"/webhooks/zapi", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%v)", resp.StatusCode, body)
	}
	id, _ := body["id"].(string)
	if id == "" || body["duplicate"] != false {
		t.Fatalf("unexpected ack %v", body)
	}
	if _, ok := body["classification"].(map[string]any); !ok {
		t.Fatalf("expected inline classification, got %v", body)
	}

	resp, body = postJSON(t, server.URL+"/webhooks/zapi", payload)
	if resp.StatusCode != http.StatusOK || body["duplicate"] != true || body["status"] != inbound.StatusAlreadyProcessed {
		t.Fatalf("expected duplicate ack, got %d %v", resp.StatusCode, body)
	}

	get, err := http.Get(server.URL + "/messages/" + id)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	message := decodeBody(t, get)
	if get.StatusCode != http.StatusOK || message["external_id"] != "m1" || message["provider"] != "zapi" {
		t.Fatalf("unexpected message %d %v", get.StatusCode, message)
	}
	if message["classification"] == nil {
		t.Fatalf("expected stored classification, got %v", message)
	}

	resp, body = postJSON(t, server.URL+"/messages/"+id+"/classify", map[string]any{})
	if resp.StatusCode != http.StatusOK || body["id"] != id {
		t.Fatalf("unexpected classify response %d %v", resp.StatusCode, body)
	}
}

func TestWebhookErrors(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server.URL+"/webhooks/telegram", map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown provider, got %d", resp.StatusCode)
	}
	if errBody, _ := body["error"].(map[string]any); errBody["code"] != core.ErrorUnknownProvider {
		t.Fatalf("expected unknown provider code, got %v", body)
	}

	resp, body = postJSON(t, server.URL+"/webhooks/zapi", map[string]any{"phone": "5511"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload, got %d", resp.StatusCode)
	}
	errBody, _ := body["error"].(map[string]any)
	if errBody["code"] != core.ErrorValidationFailed {
		t.Fatalf("expected validation code, got %v", body)
	}
	if fields, _ := errBody["fields"].([]any); len(fields) == 0 {
		t.Fatalf("expected field violations, got %v", errBody)
	}

	large := strings.Repeat("x", 8192)
	resp, _ = postJSON(t, server.URL+"/webhooks/zapi", map[string]any{"pad": large})
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
}

func TestVerifyWebhookHandshake(t *testing.T) {
	server := newTestServer(t)
	query := url.Values{}
	query.Set(meta.QueryMode, "subscribe")
	query.Set(meta.QueryVerifyToken, "hub-secret")
	query.Set(meta.QueryChallenge, "1158201444")

	resp, err := http.Get(server.URL + "/webhooks/meta_whatsapp?" + query.Encode())
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(raw) != "1158201444" {
		t.Fatalf("expected echoed challenge, got %d %q", resp.StatusCode, raw)
	}

	query.Set(meta.QueryVerifyToken, "wrong")
	resp, err = http.Get(server.URL + "/webhooks/meta_whatsapp?" + query.Encode())
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong token, got %d", resp.StatusCode)
	}
}

func TestMessagesNotFound(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/messages/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := decodeBody(t, resp)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, server.URL+"/messages/missing/classify", map[string]any{})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 from classify, got %d %v", resp.StatusCode, body)
	}
	if errBody, _ := body["error"].(map[string]any); errBody["code"] != core.ErrorMessageNotFound {
		t.Fatalf("expected not found code, got %v", body)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(Dependencies{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}
}

func TestReceiveWebhook_WithoutDispatcher(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/zapi", strings.NewReader("{}")).WithContext(context.Background())
	NewRouter(Dependencies{}).ServeHTTP(rec, req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without dispatcher, got %d", rec.Code)
	}
}
