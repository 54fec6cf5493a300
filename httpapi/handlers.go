package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/inbound"
	meta "github.com/ThiagoDev202/supersdr-prova-tecnica/providers/meta/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	goerrors "github.com/goliatone/go-errors"
)

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// ReceiveWebhook runs one provider delivery through the inbound dispatcher.
// POST /webhooks/{provider}
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		h.writeError(w, r, errors.New("httpapi: webhook dispatcher is not configured"))
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody(core.ErrorBadInput, "request body too large", nil))
			return
		}
		h.writeError(w, r, goerrors.Wrap(err, goerrors.CategoryBadInput, "httpapi: read body"))
		return
	}

	result, err := h.webhooks.Dispatch(r.Context(), core.InboundRequest{
		ProviderID: chi.URLParam(r, "provider"),
		Headers:    inbound.HeadersFromHTTP(r.Header),
		Body:       body,
		Metadata:   map[string]any{"request_id": middleware.GetReqID(r.Context())},
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, result.StatusCode, result.Body)
}

// VerifyWebhook answers the provider subscription handshake by echoing
// hub.challenge as plain text.
// GET /webhooks/{provider}
func (h *Handler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	providerID, err := core.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.subscription == nil {
		h.writeError(w, r, core.NewVerificationError(providerID, errors.New("httpapi: subscription verifier is not configured")))
		return
	}
	challenge, err := h.subscription.VerifySubscription(r.Context(), providerID, meta.ChallengeFromQuery(r.URL.Query().Get))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, challenge)
}

// GET /messages/{id}
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	if h.messages == nil {
		h.writeError(w, r, errors.New("httpapi: message service is not configured"))
		return
	}
	message, err := h.messages.GetMessage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageView(message))
}

// POST /messages/{id}/classify
func (h *Handler) ClassifyMessage(w http.ResponseWriter, r *http.Request) {
	if h.messages == nil {
		h.writeError(w, r, errors.New("httpapi: message service is not configured"))
		return
	}
	result, err := h.messages.ClassifyByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageView(result.Message))
}

func messageView(message core.Message) map[string]any {
	view := map[string]any{
		"id":          message.ID,
		"external_id": message.ExternalID,
		"provider":    string(message.Provider),
		"contact": map[string]any{
			"phone": message.Contact.Phone,
			"name":  message.Contact.Name,
		},
		"content": map[string]any{
			"type": string(message.Content.Type),
			"text": message.Content.Text,
		},
		"timestamp":   message.Timestamp.UTC().Format(time.RFC3339Nano),
		"received_at": message.ReceivedAt.UTC().Format(time.RFC3339Nano),
		"is_from_me":  message.IsFromMe,
	}
	if message.Classification != nil {
		view["classification"] = map[string]any{
			"intent":     string(message.Classification.Intent),
			"confidence": message.Classification.Confidence,
		}
	} else {
		view["classification"] = nil
	}
	return view
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := core.MapError(err)
	status := mapped.Code
	textCode := mapped.TextCode
	// Missing messages surface inside processing errors from the classify path.
	if errors.Is(err, core.ErrMessageNotFound) {
		status = http.StatusNotFound
		textCode = core.ErrorMessageNotFound
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		h.logger.WithContext(r.Context()).Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err.Error(),
		)
	}

	var fields []map[string]string
	for _, violation := range core.ValidationFields(err) {
		fields = append(fields, map[string]string{"path": violation.Path, "reason": violation.Reason})
	}
	message := mapped.Message
	if status >= http.StatusInternalServerError && textCode != core.ErrorAdapterNotFound {
		message = "An unexpected error occurred"
	}
	writeJSON(w, status, errorBody(textCode, message, fields))
}

func errorBody(code string, message string, fields []map[string]string) map[string]any {
	payload := map[string]any{"code": code, "message": message}
	if len(fields) > 0 {
		payload["fields"] = fields
	}
	return map[string]any{"error": payload}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}
