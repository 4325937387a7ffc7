package httpapi

import (
	"encoding/json"
	"net/http"

	"webhook-bridge/internal/domain/entity"
)

type rootResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Port       int    `json:"port"`
	WebhookURL string `json:"webhook_url"`
}

type healthConfig struct {
	Port       int    `json:"port"`
	WebhookURL string `json:"webhook_url"`
	LogLevel   string `json:"log_level"`
}

type healthResponse struct {
	Status    string       `json:"status"`
	Timestamp string       `json:"timestamp"`
	Config    healthConfig `json:"config"`
}

type webhookResponse struct {
	Message     string                `json:"message"`
	ForwardedTo string                `json:"forwarded_to"`
	Result      *entity.ForwardResult `json:"result"`
}

type directResponse struct {
	Message     string          `json:"message"`
	ForwardedTo string          `json:"forwarded_to"`
	StatusCode  int             `json:"status_code"`
	Response    json.RawMessage `json:"response"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
