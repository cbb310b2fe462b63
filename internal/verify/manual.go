package verify

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"gatehouse/internal/audit"
	"gatehouse/internal/roster"
	"gatehouse/internal/verify/token"
	"gatehouse/pkg/sentinel"
)

func (e *Engine) manualIntro() *Reply {
	return &Reply{
		Text: "No college login and no membership order? The committee can verify you manually. " +
			"You'll need a link to something that shows who you are. First, are you a fresher?",
		Ephemeral: true,
		Buttons:   fresherButtons(token.StepManualForm),
	}
}

// manualForm drops any previous manual submission first. The latest
// attempt is the one the committee should see.
func (e *Engine) manualForm(ctx context.Context, s Session, fresher roster.FresherStatus) (*Reply, error) {
	if _, err := e.store.DeleteManual(ctx, s.Identity); err != nil {
		return nil, fmt.Errorf("clear manual submission: %w", err)
	}

	formToken, _ := token.EncodeComponent(token.Component{Step: token.StepManualSubmit, Fresher: fresher})
	return &Reply{
		Ephemeral: true,
		Form: &FormSpec{
			Token: formToken,
			Title: "Manual verification",
			Fields: []FormField{
				{Key: "shortcode", Label: "College username (if any)", Placeholder: "e.g. ab1234", Required: false},
				{Key: "realname", Label: "Full name", Required: true},
				{Key: "proof_url", Label: "Proof link", Placeholder: "A link that shows who you are", Required: true},
				{Key: "nickname", Label: "Display name", Required: false, MaxLength: nicknameMaxLen},
			},
		},
	}, nil
}

// validProofURL accepts absolute http(s) URLs only.
func validProofURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// manualSubmit files the request. The committee prompt and the manual
// record are independent operations and the user is told precisely which
// of the two worked.
func (e *Engine) manualSubmit(ctx context.Context, s Session, fresher roster.FresherStatus, fields map[string]string) (*Reply, error) {
	proofURL := fields["proof_url"]
	if !validProofURL(proofURL) {
		return &Reply{
			Text:      "That proof link doesn't look like a valid URL. Please submit the form again with a full link, starting with http:// or https://.",
			Ephemeral: true,
			Buttons:   []Button{restartButton()},
		}, nil
	}

	nickname, rejection := resolveNickname(s, fields["nickname"])
	if rejection != nil {
		return rejection, nil
	}
	record := roster.ManualRecord{
		Identity:  s.Identity,
		Shortcode: fields["shortcode"],
		Nickname:  nickname,
		Realname:  fields["realname"],
		Fresher:   fresher,
	}

	if _, err := e.store.DeletePending(ctx, s.Identity); err != nil {
		return nil, fmt.Errorf("clear pending record: %w", err)
	}

	_, promptErr := e.notify.PostReviewPrompt(ctx, ReviewPrompt{
		Record:      record,
		Username:    s.Username,
		ProofURL:    proofURL,
		AcceptToken: token.EncodeDecision(token.Decision{Accept: true, Identity: s.Identity}),
		DenyToken:   token.EncodeDecision(token.Decision{Accept: false, Identity: s.Identity}),
	})
	if promptErr != nil {
		e.logger.ErrorContext(ctx, "post review prompt failed",
			"identity", s.Identity, "error", promptErr)
	}

	insertErr := e.store.InsertManual(ctx, record)
	if insertErr != nil {
		e.logger.ErrorContext(ctx, "insert manual submission failed",
			"identity", s.Identity, "error", insertErr)
	}

	switch {
	case promptErr == nil && insertErr == nil:
		e.audit.Publish(ctx, audit.Event{
			Kind:      audit.KindManualQueued,
			Identity:  int64(s.Identity),
			Shortcode: record.Shortcode,
			Realname:  record.Realname,
			Fresher:   string(fresher),
		})
		if e.metrics != nil {
			e.metrics.ManualSubmissions.Inc()
		}
		return textReply("Thanks! The committee has your request and will get back to you soon."), nil
	case insertErr != nil && promptErr == nil:
		return textReply("The committee has been notified, but we couldn't save your request. Please submit it again."), nil
	default:
		return textReply("We couldn't reach the committee right now. Please submit your request again in a bit."), nil
	}
}

// Decide resolves a committee verdict. Concurrency is settled by row
// existence: whichever invocation consumes the manual record wins, the
// other finds nothing and reports the request as already handled.
func (e *Engine) Decide(ctx context.Context, reviewer string, d token.Decision, promptRef string) (*Reply, error) {
	if !d.Accept {
		if _, err := e.store.DeleteManual(ctx, d.Identity); err != nil {
			return nil, fmt.Errorf("delete manual submission: %w", err)
		}
		outcome := ReviewOutcome{
			Status:   OutcomeDenied,
			Detail:   fmt.Sprintf("Request from %s denied.", d.Identity),
			Reviewer: reviewer,
		}
		if err := e.notify.UpdateReviewPrompt(ctx, promptRef, outcome); err != nil {
			e.logger.WarnContext(ctx, "update review prompt failed",
				"ref", promptRef, "error", err)
		}
		e.audit.Publish(ctx, audit.Event{
			Kind:     audit.KindManualDenied,
			Identity: int64(d.Identity),
			Actor:    reviewer,
		})
		if e.metrics != nil {
			e.metrics.ManualDecisions.WithLabelValues("denied").Inc()
		}
		return &Reply{Ephemeral: true, Text: "Request denied.", PromptUpdate: &outcome}, nil
	}

	member, err := e.store.PromoteManual(ctx, d.Identity)
	switch {
	case errors.Is(err, sentinel.ErrNotFound), errors.Is(err, sentinel.ErrConflict):
		outcome := ReviewOutcome{
			Status:   OutcomeFailed,
			Detail:   fmt.Sprintf("No open request for %s. It was probably already handled.", d.Identity),
			Reviewer: reviewer,
		}
		if err := e.notify.UpdateReviewPrompt(ctx, promptRef, outcome); err != nil {
			e.logger.WarnContext(ctx, "update review prompt failed",
				"ref", promptRef, "error", err)
		}
		return &Reply{Ephemeral: true, Text: "That request was already handled.", PromptUpdate: &outcome}, nil
	case err != nil:
		return nil, fmt.Errorf("promote manual submission: %w", err)
	}

	if err := e.completeVerification(ctx, member, "manual"); err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.ManualDecisions.WithLabelValues("accepted").Inc()
	}

	outcome := ReviewOutcome{
		Status:   OutcomeVerified,
		Detail:   fmt.Sprintf("%s (%s) verified.", member.Nickname, member.Realname),
		Reviewer: reviewer,
	}
	if err := e.notify.UpdateReviewPrompt(ctx, promptRef, outcome); err != nil {
		e.logger.WarnContext(ctx, "update review prompt failed",
			"ref", promptRef, "error", err)
	}
	return &Reply{Ephemeral: true, Text: "Request accepted and member verified.", PromptUpdate: &outcome}, nil
}
