package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"webhook-bridge/internal/application/port/input"
	"webhook-bridge/internal/application/port/output"
	"webhook-bridge/internal/domain/entity"
)

const (
	ServiceName     = "webhook-bridge"
	healthTimestamp = "2006-01-02 15:04:05,000"
)

type Info struct {
	Port       int
	WebhookURL string
	LogLevel   string
}

type Handler struct {
	info    Info
	browser input.BrowserRelay
	direct  input.DirectRelay
	logger  output.LoggerPort
	metrics output.MetricsPort
	maxBody int64
	now     func() time.Time
}

func NewHandler(
	info Info,
	browser input.BrowserRelay,
	direct input.DirectRelay,
	logger output.LoggerPort,
	metrics output.MetricsPort,
	maxBody int64,
) *Handler {
	return &Handler{
		info:    info,
		browser: browser,
		direct:  direct,
		logger:  logger.Named("http"),
		metrics: metrics,
		maxBody: maxBody,
		now:     time.Now,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Status:     "healthy",
		Service:    ServiceName,
		Port:       h.info.Port,
		WebhookURL: h.info.WebhookURL,
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: h.now().Format(healthTimestamp),
		Config: healthConfig{
			Port:       h.info.Port,
			WebhookURL: h.info.WebhookURL,
			LogLevel:   h.info.LogLevel,
		},
	})
}

func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}
	h.logger.Info("Received webhook payload", "payload", payload.String())
	h.logger.Info("Forwarding payload", "target", h.info.WebhookURL)

	result, err := h.forwardViaBrowser(r.Context(), payload)
	if err != nil {
		h.logger.Error("Error processing webhook", "error", err, "target", h.info.WebhookURL)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("Forwarding completed", "status", result.Status, "status_text", result.StatusText)
	writeJSON(w, http.StatusOK, webhookResponse{
		Message:     "Webhook processed successfully",
		ForwardedTo: h.info.WebhookURL,
		Result:      result,
	})
}

func (h *Handler) WebhookDirect(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.readPayload(w, r)
	if !ok {
		return
	}
	h.logger.Info("Received direct webhook payload", "payload", payload.String())

	res, err := h.direct.Forward(r.Context(), payload, h.info.WebhookURL)
	if err != nil {
		h.logger.Error("Error processing direct webhook", "error", err, "target", h.info.WebhookURL)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("Direct forwarding completed", "status", res.StatusCode)
	writeJSON(w, http.StatusOK, directResponse{
		Message:     "Webhook processed successfully via direct HTTP",
		ForwardedTo: h.info.WebhookURL,
		StatusCode:  res.StatusCode,
		Response:    res.Body,
	})
}

// forwardViaBrowser turns a relay panic or a missing result into ErrForwardingFailed.
func (h *Handler) forwardViaBrowser(ctx context.Context, payload entity.Payload) (result *entity.ForwardResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			result, err = nil, fmt.Errorf("%w: %v", entity.ErrForwardingFailed, rec)
		}
	}()

	result = h.browser.Forward(ctx, payload, h.info.WebhookURL)
	if result == nil {
		return nil, fmt.Errorf("%w: browser relay returned no result", entity.ErrForwardingFailed)
	}
	return result, nil
}

func (h *Handler) readPayload(w http.ResponseWriter, r *http.Request) (entity.Payload, bool) {
	body := r.Body
	if h.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		h.metrics.InvalidPayload()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("Payload too large", "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Payload exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		h.logger.Error("Failed to read request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return nil, false
	}

	payload, err := entity.ParsePayload(data)
	if err != nil {
		h.metrics.InvalidPayload()
		h.logger.Error("Invalid JSON payload", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, payloadErrorDetail(err))
		return nil, false
	}
	return payload, true
}

func payloadErrorDetail(err error) string {
	if errors.Is(err, entity.ErrNotObject) {
		return "Payload must be a JSON object"
	}
	return "Invalid JSON payload"
}
