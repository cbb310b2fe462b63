package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"

	"gatehouse/internal/audit"
	"gatehouse/internal/platform/metrics"
	"gatehouse/internal/roster"
	"gatehouse/internal/transport/http/shared"
)

// WebhookHandler receives pending-record pushes from the identity
// provider. It is the sole producer of pending records.
type WebhookHandler struct {
	pending roster.PendingStore
	key     string
	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher
}

func NewWebhookHandler(pending roster.PendingStore, key string, logger *slog.Logger, m *metrics.Metrics, publisher audit.Publisher) *WebhookHandler {
	return &WebhookHandler{pending: pending, key: key, logger: logger, metrics: m, audit: publisher}
}

type webhookRequest struct {
	ID        roster.Identity `json:"id"`
	Shortcode string          `json:"shortcode"`
	Fullname  string          `json:"fullname"`
	Key       string          `json:"key"`
}

// Push handles POST /api/verify. A repeated push for the same identity
// replaces the previous pending record.
func (h *WebhookHandler) Push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed webhook body"))
		return
	}
	if req.ID == 0 || req.Shortcode == "" {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "id and shortcode are required"))
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Key), []byte(h.key)) != 1 {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeUnauthorized, "bad webhook key"))
		return
	}

	if _, err := h.pending.DeletePending(ctx, req.ID); err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}
	record := roster.PendingRecord{
		Identity:  req.ID,
		Shortcode: req.Shortcode,
		Realname:  req.Fullname,
	}
	if err := h.pending.InsertPending(ctx, record); err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}

	h.audit.Publish(ctx, audit.Event{
		Kind:      audit.KindRecordPushed,
		Identity:  int64(req.ID),
		Shortcode: req.Shortcode,
		Realname:  req.Fullname,
	})
	if h.metrics != nil {
		h.metrics.WebhookRecords.Inc()
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
