package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gatehouse/internal/roster"
	"gatehouse/internal/rosterclient"
	"gatehouse/internal/verify/token"
	"gatehouse/pkg/sentinel"
)

func (e *Engine) membershipIntro() *Reply {
	return &Reply{
		Text: "You can verify with this year's membership order from the union shop. " +
			"You'll need your order number and the username on the order. First, are you a fresher?",
		Ephemeral: true,
		Buttons:   fresherButtons(token.StepMembershipForm),
	}
}

// membershipForm purges state from the other paths before handing out the
// form: a half-finished login or a pending manual request must not survive
// a switch to this path.
func (e *Engine) membershipForm(ctx context.Context, s Session, fresher roster.FresherStatus) (*Reply, error) {
	if _, err := e.store.DeletePending(ctx, s.Identity); err != nil {
		return nil, fmt.Errorf("clear pending record: %w", err)
	}
	if _, err := e.store.DeleteManual(ctx, s.Identity); err != nil {
		return nil, fmt.Errorf("clear manual submission: %w", err)
	}

	formToken, _ := token.EncodeComponent(token.Component{Step: token.StepMembershipSubmit, Fresher: fresher})
	return &Reply{
		Ephemeral: true,
		Form: &FormSpec{
			Token: formToken,
			Title: "Membership order",
			Fields: []FormField{
				{Key: "order_no", Label: "Order number", Placeholder: "e.g. 1234567", Required: true},
				{Key: "shortcode", Label: "Username on the order", Placeholder: "e.g. ab1234", Required: true},
				{Key: "nickname", Label: "Display name", Placeholder: "How you want to appear on the server", Required: false, MaxLength: nicknameMaxLen},
			},
		},
	}, nil
}

// matchEntry finds the roster entry whose order number matches and whose
// login or CID equals the submitted shortcode, case-insensitively.
func matchEntry(entries []rosterclient.Entry, orderNo, shortcode string) (rosterclient.Entry, bool) {
	orderNo = strings.TrimSpace(orderNo)
	shortcode = strings.ToLower(strings.TrimSpace(shortcode))
	for _, entry := range entries {
		if entry.OrderNo != orderNo {
			continue
		}
		if strings.ToLower(entry.Login) == shortcode || strings.ToLower(entry.CID) == shortcode {
			return entry, true
		}
	}
	return rosterclient.Entry{}, false
}

func (e *Engine) membershipFinalize(ctx context.Context, s Session, fresher roster.FresherStatus, fields map[string]string) (*Reply, error) {
	orderNo := fields["order_no"]
	shortcode := fields["shortcode"]
	nickname, rejection := resolveNickname(s, fields["nickname"])
	if rejection != nil {
		return rejection, nil
	}

	entries, err := e.members.List(ctx)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RosterLookups.WithLabelValues("error").Inc()
		}
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	entry, ok := matchEntry(entries, orderNo, shortcode)
	if !ok {
		if e.metrics != nil {
			e.metrics.RosterLookups.WithLabelValues("miss").Inc()
		}
		return &Reply{
			Text: "We couldn't find a membership matching that order number and username. " +
				"Double-check both against your order confirmation, and make sure the order is from this academic year.",
			Ephemeral: true,
			Buttons:   []Button{restartButton()},
		}, nil
	}
	if e.metrics != nil {
		e.metrics.RosterLookups.WithLabelValues("hit").Inc()
	}

	// The submitted shortcode is what the member record keeps: when the
	// match landed on CID the roster's login field may be empty.
	member := roster.MemberRecord{
		Identity:  s.Identity,
		Shortcode: strings.ToLower(strings.TrimSpace(shortcode)),
		Nickname:  nickname,
		Realname:  entry.FullName(),
		Fresher:   fresher,
	}
	err = e.store.InsertMember(ctx, member)
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return textReply("You are already verified, no need to do anything else."), nil
	case err != nil:
		return nil, fmt.Errorf("insert member record: %w", err)
	}

	if err := e.completeVerification(ctx, &member, "membership"); err != nil {
		return nil, err
	}
	return textReply("Membership confirmed, welcome to the society! 🎉"), nil
}
