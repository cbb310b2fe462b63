package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "gatehouse/pkg/domain-errors"
	"gatehouse/pkg/sentinel"

	"gatehouse/internal/audit"
	"gatehouse/internal/platform/config"
	"gatehouse/internal/roster"
	"gatehouse/internal/transport/http/shared"
	"gatehouse/internal/verify"
)

// RosterCache drops the cached membership roster so the next lookup
// refetches from the shop API.
type RosterCache interface {
	Invalidate(ctx context.Context)
}

// OperatorHandler is the committee-facing admin API: full dataset export
// and import, row counts, member lookup and edits, and member removal.
type OperatorHandler struct {
	store   roster.Store
	gateway verify.RoleGateway
	roles   config.RoleConfig
	cache   RosterCache
	logger  *slog.Logger
	audit   audit.Publisher
}

func NewOperatorHandler(store roster.Store, gateway verify.RoleGateway, roles config.RoleConfig, logger *slog.Logger, publisher audit.Publisher) *OperatorHandler {
	return &OperatorHandler{store: store, gateway: gateway, roles: roles, logger: logger, audit: publisher}
}

// WithRosterCache attaches the invalidatable roster cache, when one is
// configured.
func (h *OperatorHandler) WithRosterCache(cache RosterCache) *OperatorHandler {
	h.cache = cache
	return h
}

// Dataset is the export/import wire shape covering all four tables.
type Dataset struct {
	Members []roster.MemberRecord  `json:"members"`
	Pending []roster.PendingRecord `json:"pending"`
	Manual  []roster.ManualRecord  `json:"manual"`
	Extras  []roster.ExtraRecord   `json:"extras"`
}

// Export handles GET /api/admin/export.
func (h *OperatorHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ds, err := h.snapshot(ctx)
	if err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ds)
}

func (h *OperatorHandler) snapshot(ctx context.Context) (*Dataset, error) {
	members, err := h.store.AllMembers(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := h.store.AllPending(ctx)
	if err != nil {
		return nil, err
	}
	manual, err := h.store.AllManual(ctx)
	if err != nil {
		return nil, err
	}
	extras, err := h.store.AllExtras(ctx)
	if err != nil {
		return nil, err
	}
	return &Dataset{Members: members, Pending: pending, Manual: manual, Extras: extras}, nil
}

// ImportReport counts what an import did per table.
type ImportReport struct {
	Inserted  map[string]int `json:"inserted"`
	Conflicts map[string]int `json:"conflicts"`
}

// Import handles POST /api/admin/import. Rows that already exist are
// counted as conflicts and skipped, never overwritten.
func (h *OperatorHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var ds Dataset
	if err := json.NewDecoder(r.Body).Decode(&ds); err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed dataset"))
		return
	}

	report := ImportReport{Inserted: map[string]int{}, Conflicts: map[string]int{}}
	tally := func(table string, err error) error {
		switch {
		case err == nil:
			report.Inserted[table]++
			return nil
		case errors.Is(err, sentinel.ErrConflict):
			report.Conflicts[table]++
			return nil
		default:
			return err
		}
	}

	for _, rec := range ds.Members {
		if err := tally("members", h.store.InsertMember(ctx, rec)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}
	for _, rec := range ds.Pending {
		if err := tally("pending", h.store.InsertPending(ctx, rec)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}
	for _, rec := range ds.Manual {
		if err := tally("manual", h.store.InsertManual(ctx, rec)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}
	for _, rec := range ds.Extras {
		if err := tally("extras", h.store.InsertExtra(ctx, rec)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}

	shared.WriteJSON(w, http.StatusOK, report)
}

// Counts handles GET /api/admin/counts.
func (h *OperatorHandler) Counts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	counts := map[string]int64{}
	for table, count := range map[string]func(context.Context) (int64, error){
		"members": h.store.CountMembers,
		"pending": h.store.CountPending,
		"manual":  h.store.CountManual,
		"extras":  h.store.CountExtras,
	} {
		n, err := count(ctx)
		if err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
		counts[table] = n
	}
	shared.WriteJSON(w, http.StatusOK, counts)
}

// LookupMember handles GET /api/admin/members/{id}. The key is an
// identity when it parses as one, a shortcode otherwise.
func (h *OperatorHandler) LookupMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	key := chi.URLParam(r, "id")

	var member *roster.MemberRecord
	var err error
	if id, parseErr := roster.ParseIdentity(key); parseErr == nil {
		member, err = h.store.Member(ctx, id)
	} else {
		member, err = h.store.MemberByShortcode(ctx, key)
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeNotFound, "no member matching %q", key))
		return
	}
	if err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, member)
}

// UpdateMember handles PATCH /api/admin/members/{id}. Only the fields
// present in the body change; identity and real name are immutable.
func (h *OperatorHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := roster.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "invalid member id"))
		return
	}
	var patch struct {
		Nickname  *string               `json:"nickname"`
		Shortcode *string               `json:"shortcode"`
		Fresher   *roster.FresherStatus `json:"fresher"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed patch"))
		return
	}
	if patch.Nickname == nil && patch.Shortcode == nil && patch.Fresher == nil {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "nothing to update"))
		return
	}
	if patch.Fresher != nil && !patch.Fresher.Valid() {
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeValidation, "unknown fresher status %q", string(*patch.Fresher)))
		return
	}

	updated := false
	apply := func(ok bool, err error) error {
		if err != nil {
			return err
		}
		updated = updated || ok
		return nil
	}
	if patch.Nickname != nil {
		if err := apply(h.store.UpdateMemberNickname(ctx, id, *patch.Nickname)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}
	if patch.Shortcode != nil {
		if err := apply(h.store.UpdateMemberShortcode(ctx, id, *patch.Shortcode)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}
	if patch.Fresher != nil {
		if err := apply(h.store.UpdateMemberFresher(ctx, id, *patch.Fresher)); err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
	}
	if !updated {
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeNotFound, "no member %s", id))
		return
	}

	member, err := h.store.Member(ctx, id)
	if err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, member)
}

// RefreshRoster handles POST /api/admin/roster/refresh: drop the cached
// membership list so the next order lookup sees new purchases.
func (h *OperatorHandler) RefreshRoster(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "no-cache"})
		return
	}
	h.cache.Invalidate(r.Context())
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// DeleteMember handles DELETE /api/admin/members/{id}: drop the record and
// strip the roles it granted.
func (h *OperatorHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := roster.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "invalid member id"))
		return
	}

	member, err := h.store.Member(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeNotFound, "no member %s", id))
		return
	}
	if err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}

	if _, err := h.store.DeleteMember(ctx, id); err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}

	for _, role := range h.rolesFor(member.Fresher) {
		if err := h.gateway.Revoke(ctx, id, role); err != nil {
			h.logger.WarnContext(ctx, "revoke role on member removal failed",
				"identity", id, "role", role, "error", err)
		}
	}

	h.audit.Publish(ctx, audit.Event{
		Kind:     audit.KindRoleRevoked,
		Identity: int64(id),
		Actor:    "operator",
	})
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// CreateExtra handles POST /api/admin/extras.
func (h *OperatorHandler) CreateExtra(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var rec roster.ExtraRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed extra record"))
		return
	}
	if rec.Identity == 0 || rec.Name == "" {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "identity and name are required"))
		return
	}
	if err := h.store.InsertExtra(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeConflict, "extra %s already exists", rec.Identity))
			return
		}
		shared.WriteError(ctx, w, h.logger, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, rec)
}

// UpdateExtra handles PATCH /api/admin/extras/{id}. Only the fields
// present in the body change.
func (h *OperatorHandler) UpdateExtra(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := roster.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "invalid extra id"))
		return
	}
	var patch struct {
		Name        *string `json:"name"`
		Institution *string `json:"institution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed patch"))
		return
	}
	if patch.Name == nil && patch.Institution == nil {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "nothing to update"))
		return
	}

	updated := false
	if patch.Name != nil {
		ok, err := h.store.UpdateExtraName(ctx, id, *patch.Name)
		if err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
		updated = updated || ok
	}
	if patch.Institution != nil {
		ok, err := h.store.UpdateExtraInstitution(ctx, id, *patch.Institution)
		if err != nil {
			shared.WriteError(ctx, w, h.logger, err)
			return
		}
		updated = updated || ok
	}
	if !updated {
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeNotFound, "no extra %s", id))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// DeleteExtra handles DELETE /api/admin/extras/{id}.
func (h *OperatorHandler) DeleteExtra(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := roster.ParseIdentity(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(ctx, w, h.logger, dErrors.New(dErrors.CodeValidation, "invalid extra id"))
		return
	}
	removed, err := h.store.DeleteExtra(ctx, id)
	if err != nil {
		shared.WriteError(ctx, w, h.logger, err)
		return
	}
	if !removed {
		shared.WriteError(ctx, w, h.logger, dErrors.Newf(dErrors.CodeNotFound, "no extra %s", id))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func (h *OperatorHandler) rolesFor(fresher roster.FresherStatus) []string {
	roles := []string{h.roles.Member}
	switch fresher {
	case roster.FresherUndergraduate:
		roles = append(roles, h.roles.Undergrad)
	case roster.FresherPostgraduate:
		roles = append(roles, h.roles.Postgrad)
	}
	return roles
}
