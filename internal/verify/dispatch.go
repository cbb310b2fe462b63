package verify

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"gatehouse/internal/roster"
	"gatehouse/internal/verify/token"
	"gatehouse/pkg/sentinel"
)

// genericFailure is what the user sees when a step hit a transient or
// programmer failure. No automatic retry; the controls stay pressable.
const genericFailure = "Sorry, something went wrong on our side. Please try again, and get in touch with the committee if it keeps happening."

// HandleComponent routes a pressed button. Errors never escape: transient
// failures and unrecognized tokens are logged and collapsed into the
// generic failure reply.
func (e *Engine) HandleComponent(ctx context.Context, s Session, customID, promptRef string) *Reply {
	if token.IsDecision(customID) {
		decision, err := token.DecodeDecision(customID)
		if err != nil {
			e.logger.ErrorContext(ctx, "malformed decision token",
				"custom_id", customID, "reviewer", s.Username, "error", err)
			return textReply(genericFailure)
		}
		reply, err := e.Decide(ctx, s.Username, decision, promptRef)
		return e.collapse(ctx, s, customID, reply, err)
	}

	component, err := token.DecodeComponent(customID)
	if err != nil {
		e.logger.ErrorContext(ctx, "unrecognized component token",
			"custom_id", customID, "identity", s.Identity, "error", err)
		return textReply(genericFailure)
	}

	reply, err := e.step(ctx, s, component)
	return e.collapse(ctx, s, customID, reply, err)
}

// HandleModal routes a submitted form. Field keys are the FormField keys
// the engine put on the form.
func (e *Engine) HandleModal(ctx context.Context, s Session, customID string, fields map[string]string) *Reply {
	component, err := token.DecodeComponent(customID)
	if err != nil {
		e.logger.ErrorContext(ctx, "unrecognized modal token",
			"custom_id", customID, "identity", s.Identity, "error", err)
		return textReply(genericFailure)
	}

	var reply *Reply
	switch component.Step {
	case token.StepLoginSubmit:
		reply, err = e.loginFinalize(ctx, s, component.Fresher, fields)
	case token.StepMembershipSubmit:
		reply, err = e.membershipFinalize(ctx, s, component.Fresher, fields)
	case token.StepManualSubmit:
		reply, err = e.manualSubmit(ctx, s, component.Fresher, fields)
	default:
		e.logger.ErrorContext(ctx, "component token on modal submit",
			"custom_id", customID, "identity", s.Identity)
		return textReply(genericFailure)
	}
	return e.collapse(ctx, s, customID, reply, err)
}

func (e *Engine) step(ctx context.Context, s Session, c token.Component) (*Reply, error) {
	switch c.Step {
	case token.StepStart:
		return e.Start(ctx, s, true)
	case token.StepRestart:
		return e.Start(ctx, s, false)
	case token.StepInfo:
		return e.info(), nil
	case token.StepLoginIntro:
		return e.loginIntro(s), nil
	case token.StepLoginCheck:
		return e.loginCheck(ctx, s)
	case token.StepLoginFresher:
		return e.loginFresherChoice(), nil
	case token.StepLoginName:
		return e.loginNameForm(c.Fresher), nil
	case token.StepMembershipIntro:
		return e.membershipIntro(), nil
	case token.StepMembershipForm:
		return e.membershipForm(ctx, s, c.Fresher)
	case token.StepManualIntro:
		return e.manualIntro(), nil
	case token.StepManualForm:
		return e.manualForm(ctx, s, c.Fresher)
	}
	// Submit steps arrive through HandleModal, not a button press.
	e.logger.ErrorContext(ctx, "modal token on component press",
		"step", string(c.Step), "identity", s.Identity)
	return textReply(genericFailure), nil
}

func (e *Engine) collapse(ctx context.Context, s Session, customID string, reply *Reply, err error) *Reply {
	if err != nil {
		e.logger.ErrorContext(ctx, "verification step failed",
			"custom_id", customID, "identity", s.Identity, "error", err)
		return textReply(genericFailure)
	}
	return reply
}

// Start greets the user. An existing member record means they are already
// verified: re-grant the roles and confirm, no matter how many times the
// button is pressed. Otherwise offer the three paths with no side effects.
// fresh distinguishes a first entry into the flow from stepping back to the
// path choice: the former posts a new message, the latter edits in place.
func (e *Engine) Start(ctx context.Context, s Session, fresh bool) (*Reply, error) {
	member, err := e.store.Member(ctx, s.Identity)
	switch {
	case err == nil:
		if err := e.applyRoles(ctx, s.Identity, member.Fresher); err != nil {
			return nil, err
		}
		e.removeRole(ctx, s.Identity, e.cfg.Roles.NonMember)
		reply := textReply("You are already verified, welcome back! Your roles have been restored.")
		reply.Update = !fresh
		return reply, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// fall through to the path choice
	default:
		return nil, err
	}

	if fresh && e.metrics != nil {
		e.metrics.VerificationsStarted.Inc()
	}
	return &Reply{
		Text:      "Welcome! To get access you need to verify your membership. Pick whichever option suits you:",
		Ephemeral: true,
		Update:    !fresh,
		Buttons: []Button{
			{Label: "Verify with college login", Emoji: "🎓", Style: StylePrimary, Token: string(token.StepLoginIntro)},
			{Label: "Verify with membership order", Emoji: "🧾", Style: StylePrimary, Token: string(token.StepMembershipIntro)},
			{Label: "Ask the committee", Emoji: "🙋", Style: StyleSecondary, Token: string(token.StepManualIntro)},
			{Label: "What is this?", Emoji: "ℹ️", Style: StyleSecondary, Token: string(token.StepInfo)},
		},
	}, nil
}

func (e *Engine) info() *Reply {
	return textReply("Verification links your account here to your society membership. " +
		"College members use the login option, anyone with this year's membership order can use the order option, " +
		"and everyone else can ask the committee to verify them manually.")
}

// nicknameMaxLen caps display names at the platform's nickname limit.
const nicknameMaxLen = 32

// resolveNickname applies the username fallback and enforces the length
// cap. The rejection reply is non-nil when the submitted name is too long.
func resolveNickname(s Session, submitted string) (string, *Reply) {
	nickname := submitted
	if nickname == "" {
		nickname = s.Username
	}
	if utf8.RuneCountInString(nickname) > nicknameMaxLen {
		return "", &Reply{
			Text:      fmt.Sprintf("That display name is too long, %d characters is the most we can use. Please submit the form again with a shorter one.", nicknameMaxLen),
			Ephemeral: true,
			Buttons:   []Button{restartButton()},
		}
	}
	return nickname, nil
}

// restartButton returns the shared "start over" control appended to dead
// ends so the user can always get back to the path choice.
func restartButton() Button {
	return Button{Label: "Start over", Emoji: "🔁", Style: StyleSecondary, Token: string(token.StepRestart)}
}

// fresherButtons renders the tier choice leading into the given step.
func fresherButtons(step token.Step) []Button {
	encode := func(f roster.FresherStatus) string {
		t, _ := token.EncodeComponent(token.Component{Step: step, Fresher: f})
		return t
	}
	return []Button{
		{Label: "First-year undergraduate", Emoji: "🐣", Style: StylePrimary, Token: encode(roster.FresherUndergraduate)},
		{Label: "First-year postgraduate", Emoji: "🦉", Style: StylePrimary, Token: encode(roster.FresherPostgraduate)},
		{Label: "Not a first year", Style: StyleSecondary, Token: encode(roster.FresherNone)},
	}
}
