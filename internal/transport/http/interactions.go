package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "gatehouse/pkg/domain-errors"

	"gatehouse/internal/roster"
	"gatehouse/internal/transport/http/shared"
	"gatehouse/internal/verify"
)

// InteractionsHandler translates surface-gateway interaction envelopes
// into engine dispatches. The gateway authenticates with a bearer token
// scoped to interactions.
type InteractionsHandler struct {
	engine *verify.Engine
	logger *slog.Logger
}

func NewInteractionsHandler(engine *verify.Engine, logger *slog.Logger) *InteractionsHandler {
	return &InteractionsHandler{engine: engine, logger: logger}
}

// Interaction kinds on the envelope.
const (
	KindComponent = "component"
	KindModal     = "modal"
)

type interactionEnvelope struct {
	Identity  roster.Identity   `json:"identity"`
	Username  string            `json:"username"`
	Kind      string            `json:"kind"`
	CustomID  string            `json:"custom_id"`
	PromptRef string            `json:"prompt_ref,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Dispatch handles POST /api/interactions.
func (h *InteractionsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var env interactionEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed interaction envelope"))
		return
	}
	if env.Identity == 0 || env.CustomID == "" {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "identity and custom_id are required"))
		return
	}

	session := verify.Session{Identity: env.Identity, Username: env.Username}
	var reply *verify.Reply
	switch env.Kind {
	case KindComponent:
		reply = h.engine.HandleComponent(ctx, session, env.CustomID, env.PromptRef)
	case KindModal:
		reply = h.engine.HandleModal(ctx, session, env.CustomID, env.Fields)
	default:
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeValidation, "unknown interaction kind %q", env.Kind))
		return
	}

	shared.WriteJSON(w, http.StatusOK, reply)
}
