package verify

import (
	"context"
	"errors"
	"fmt"

	"gatehouse/internal/roster"
	"gatehouse/internal/verify/token"
	"gatehouse/pkg/sentinel"
)

func (e *Engine) loginIntro(s Session) *Reply {
	return &Reply{
		Text: "Log in with your college account at the link below. " +
			"Once you have logged in, come back here and press Continue.",
		Ephemeral: true,
		Buttons: []Button{
			{Label: "College login", Emoji: "🎓", Style: StyleLink, URL: fmt.Sprintf("%s?id=%s", e.cfg.LoginURL, s.Identity)},
			{Label: "Continue", Style: StylePrimary, Token: string(token.StepLoginCheck)},
			restartButton(),
		},
	}
}

// loginCheck looks for the pending record the webhook writes when the
// external login completes. Its absence is an expected state, not an
// error: the user simply has not finished logging in yet.
func (e *Engine) loginCheck(ctx context.Context, s Session) (*Reply, error) {
	_, err := e.store.Pending(ctx, s.Identity)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return &Reply{
			Text:      "We haven't seen your login yet. Finish logging in at the link, then press Continue again.",
			Ephemeral: true,
			Buttons: []Button{
				{Label: "Continue", Style: StylePrimary, Token: string(token.StepLoginCheck)},
				restartButton(),
			},
		}, nil
	case err != nil:
		return nil, err
	}

	return &Reply{
		Text:      "Login confirmed! One more thing before we finish up.",
		Ephemeral: true,
		Buttons: []Button{
			{Label: "Continue", Style: StylePrimary, Token: string(token.StepLoginFresher)},
		},
	}, nil
}

func (e *Engine) loginFresherChoice() *Reply {
	return &Reply{
		Text:      "Are you a fresher this year?",
		Ephemeral: true,
		Buttons:   fresherButtons(token.StepLoginName),
	}
}

func (e *Engine) loginNameForm(fresher roster.FresherStatus) *Reply {
	formToken, _ := token.EncodeComponent(token.Component{Step: token.StepLoginSubmit, Fresher: fresher})
	return &Reply{
		Ephemeral: true,
		Form: &FormSpec{
			Token: formToken,
			Title: "Last step",
			Fields: []FormField{
				{Key: "nickname", Label: "Display name", Placeholder: "How you want to appear on the server", Required: true, MaxLength: nicknameMaxLen},
			},
		},
	}
}

// loginFinalize promotes the pending record. Switching paths wipes any
// manual submission first so a stale request cannot be approved later.
func (e *Engine) loginFinalize(ctx context.Context, s Session, fresher roster.FresherStatus, fields map[string]string) (*Reply, error) {
	nickname, rejection := resolveNickname(s, fields["nickname"])
	if rejection != nil {
		return rejection, nil
	}

	if _, err := e.store.DeleteManual(ctx, s.Identity); err != nil {
		return nil, fmt.Errorf("clear manual submission: %w", err)
	}

	member, err := e.store.PromotePending(ctx, s.Identity, nickname, fresher)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		// The pending record vanished between check and submit. Most
		// likely a double submit after a completed verification.
		return &Reply{
			Text:      "We couldn't find your login any more. If you aren't verified yet, please go through the login step once more.",
			Ephemeral: true,
			Buttons:   []Button{restartButton()},
		}, nil
	case errors.Is(err, sentinel.ErrConflict):
		return textReply("You are already verified, no need to do anything else."), nil
	case err != nil:
		return nil, fmt.Errorf("promote pending record: %w", err)
	}

	if err := e.completeVerification(ctx, member, "login"); err != nil {
		return nil, err
	}
	return textReply("All done, welcome to the society! 🎉"), nil
}
