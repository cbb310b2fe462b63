package verify

import (
	"context"
	"fmt"
	"slices"

	"gatehouse/internal/audit"
	"gatehouse/internal/roster"
)

// applyRoles grants the member role and, for freshers, the tier role.
// Failures propagate so the caller can tell the user to retry.
func (e *Engine) applyRoles(ctx context.Context, id roster.Identity, fresher roster.FresherStatus) error {
	if err := e.gateway.Grant(ctx, id, e.cfg.Roles.Member); err != nil {
		return fmt.Errorf("grant member role: %w", err)
	}
	if role := e.tierRole(fresher); role != "" {
		if err := e.gateway.Grant(ctx, id, role); err != nil {
			return fmt.Errorf("grant fresher role: %w", err)
		}
	}
	return nil
}

// removeRole revokes best effort: a failed revoke is logged, never fatal,
// because the member is already verified at that point.
func (e *Engine) removeRole(ctx context.Context, id roster.Identity, role string) {
	if err := e.gateway.Revoke(ctx, id, role); err != nil {
		e.logger.WarnContext(ctx, "revoke role failed",
			"identity", id, "role", role, "error", err)
	}
}

// completeVerification is the shared tail of all three paths. Order
// matters: roles first (a failure here must leave the member record intact
// and the user told to retry is handled by the caller), then the audit
// event, then the cleanup that only makes sense for an already-verified
// member. A returning old member gets their legacy role cleared instead of
// a public welcome; the two are mutually exclusive.
func (e *Engine) completeVerification(ctx context.Context, member *roster.MemberRecord, path string) error {
	if err := e.applyRoles(ctx, member.Identity, member.Fresher); err != nil {
		return err
	}

	e.audit.Publish(ctx, audit.Event{
		Kind:      audit.KindVerified,
		Identity:  int64(member.Identity),
		Shortcode: member.Shortcode,
		Realname:  member.Realname,
		Nickname:  member.Nickname,
		Fresher:   string(member.Fresher),
		Path:      path,
	})
	if e.metrics != nil {
		e.metrics.VerificationsCompleted.WithLabelValues(path).Inc()
	}

	e.removeRole(ctx, member.Identity, e.cfg.Roles.NonMember)

	roles, err := e.gateway.Roles(ctx, member.Identity)
	if err != nil {
		e.logger.WarnContext(ctx, "role query after verification failed",
			"identity", member.Identity, "error", err)
		return nil
	}
	if slices.Contains(roles, e.cfg.Roles.OldMember) {
		e.removeRole(ctx, member.Identity, e.cfg.Roles.OldMember)
		return nil
	}
	if err := e.notify.Welcome(ctx, member.Identity, member.Fresher); err != nil {
		e.logger.WarnContext(ctx, "welcome message failed",
			"identity", member.Identity, "error", err)
	}
	return nil
}
