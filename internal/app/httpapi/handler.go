// Package httpapi terminates the interactions webhook: it authenticates
// the raw request, parses the envelope, answers liveness checks, and
// dispatches slash commands.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/greenloop/ecobot/internal/app/services/wallet"
	"github.com/greenloop/ecobot/internal/config"
	"github.com/greenloop/ecobot/internal/discord"
	apperrors "github.com/greenloop/ecobot/internal/errors"
	"github.com/greenloop/ecobot/internal/logging"
	"github.com/greenloop/ecobot/internal/metrics"
)

const maxBodyBytes = 1 << 20

// Responder delivers interaction replies and direct messages to the
// platform.
type Responder interface {
	RespondInteraction(ctx context.Context, interactionID, token string, response discord.InteractionResponse) (int, []byte, error)
	SendDM(ctx context.Context, recipientID string, embed discord.Embed) error
}

// ImageAnalyzer turns an image URL into a description and a token award.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, url string) (description string, award int64, err error)
}

// Handler serves the interactions webhook.
type Handler struct {
	publicKey string
	catalog   config.Catalog
	wallet    *wallet.Service
	responder Responder
	analyzer  ImageAnalyzer
	metrics   *metrics.Metrics
	log       *logging.Logger
}

// NewHandler wires the webhook handler with its collaborators.
func NewHandler(publicKey string, catalog config.Catalog, walletSvc *wallet.Service, responder Responder, analyzer ImageAnalyzer, m *metrics.Metrics, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.New("httpapi")
	}
	return &Handler{
		publicKey: publicKey,
		catalog:   catalog,
		wallet:    walletSvc,
		responder: responder,
		analyzer:  analyzer,
		metrics:   m,
		log:       log,
	}
}

// Interactions handles POST /interactions.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(ctx, w, apperrors.BadRequest("Unable to read request body"))
		return
	}

	// The upstream proxy may base64-encode the body at the transport layer.
	if r.Header.Get("Content-Transfer-Encoding") == "base64" {
		decoded, decErr := base64.StdEncoding.DecodeString(string(body))
		if decErr != nil {
			h.writeError(ctx, w, apperrors.BadRequest("Invalid base64 body"))
			return
		}
		body = decoded
	}

	signature := r.Header.Get("X-Signature-Ed25519")
	timestamp := r.Header.Get("X-Signature-Timestamp")
	if signature == "" || timestamp == "" {
		h.writeError(ctx, w, apperrors.BadRequest("Missing signature or timestamp"))
		return
	}

	// Authentication runs on the exact raw bytes, before any parsing.
	if !discord.VerifySignature(h.publicKey, signature, timestamp, body) {
		h.writeError(ctx, w, apperrors.Unauthorized("Invalid request signature"))
		return
	}

	interaction, err := discord.ParseInteraction(body)
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Warn("malformed interaction body")
		h.writeError(ctx, w, apperrors.BadRequest("Invalid JSON"))
		return
	}

	if interaction.Type == discord.InteractionPing {
		h.writeJSON(w, http.StatusOK, discord.Pong())
		return
	}

	ctx = logging.WithUserID(ctx, interaction.UserID())
	h.dispatch(ctx, w, interaction)
}

// Healthz reports process liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "ecobot",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// respond forwards a type-4 reply through the interaction callback and
// mirrors the platform's status and body back to the webhook caller.
func (h *Handler) respond(ctx context.Context, w http.ResponseWriter, interaction discord.Interaction, response discord.InteractionResponse) bool {
	status, body, err := h.responder.RespondInteraction(ctx, interaction.ID, interaction.Token, response)
	if err != nil {
		h.log.WithContext(ctx).WithError(err).Error("interaction callback failed")
		h.writeError(ctx, w, apperrors.Upstream("Failed to send interaction response", err))
		return false
	}
	h.writeRaw(w, status, body)
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeError maps err onto the service error taxonomy; anything outside
// it is treated as an unexpected internal failure.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	serviceErr := apperrors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = apperrors.Internal("Internal server error", err)
	}

	h.log.WithContext(ctx).WithError(serviceErr).WithFields(map[string]interface{}{
		"code":   serviceErr.Code,
		"status": serviceErr.HTTPStatus,
	}).Warn("request failed")

	h.writeJSON(w, serviceErr.HTTPStatus, map[string]string{"error": serviceErr.Message})
}
