package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/potionkit/forecast-api/internal/sms"
)

type smsRequest struct {
	Number     string `json:"number"`
	Message    string `json:"message"`
	APIKey     string `json:"apikey"`
	SenderName string `json:"sendername"`
}

// RelaySMS serves POST /sms-semaphore/. The inbound apikey is the shared
// relay secret, not the gateway credential; the gateway credential is held
// server-side and attached by the client.
func (h *Handler) RelaySMS(c *gin.Context) {
	var req smsRequest
	if err := decodeJSON(c, &req); err != nil {
		respondJSON(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	secret := h.cfg.SMS.APIKey
	if secret == "" || subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(secret)) != 1 {
		respondJSON(c, http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
		return
	}
	if req.Message == "" {
		respondJSON(c, http.StatusUnauthorized, gin.H{"error": "Invalid SMS message"})
		return
	}
	if req.Number == "" {
		respondJSON(c, http.StatusUnauthorized, gin.H{"error": "Invalid receiver number"})
		return
	}
	if req.SenderName == "" {
		respondJSON(c, http.StatusUnauthorized, gin.H{"error": "Invalid sender id"})
		return
	}

	err := h.sms.Send(c.Request.Context(), sms.Message{
		Number:     req.Number,
		Message:    req.Message,
		SenderName: req.SenderName,
	})
	if err != nil {
		if h.metrics != nil {
			h.metrics.RelayTotal.WithLabelValues("error").Inc()
		}
		slog.Error("sms relay failed", "error", err)
		respondJSON(c, http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.metrics != nil {
		h.metrics.RelayTotal.WithLabelValues("success").Inc()
	}
	respondJSON(c, http.StatusOK, gin.H{"status": "success"})
}
