// Package token encodes and decodes the opaque custom IDs carried by
// interaction components. The token is the only place the current step and
// the chosen fresher tier live between steps, so the codec is strict: an
// unknown or malformed token is a decode error, never a guessed default.
package token

import (
	"strings"

	dErrors "gatehouse/pkg/domain-errors"

	"gatehouse/internal/roster"
)

// Step identifies a position in the verification state machine.
type Step string

const (
	StepStart   Step = "start"
	StepRestart Step = "restart"
	StepInfo    Step = "info"

	StepLoginIntro   Step = "login_1"
	StepLoginCheck   Step = "login_2"
	StepLoginFresher Step = "login_3"
	StepLoginName    Step = "login_4"
	StepLoginSubmit  Step = "login_5"

	StepMembershipIntro  Step = "membership_1"
	StepMembershipForm   Step = "membership_2"
	StepMembershipSubmit Step = "membership_3"

	StepManualIntro  Step = "manual_1"
	StepManualForm   Step = "manual_2"
	StepManualSubmit Step = "manual_3"
)

// tagged reports whether the step carries a fresher-tier suffix letter.
func (s Step) tagged() bool {
	switch s {
	case StepLoginName, StepLoginSubmit,
		StepMembershipForm, StepMembershipSubmit,
		StepManualForm, StepManualSubmit:
		return true
	}
	return false
}

func (s Step) known() bool {
	switch s {
	case StepStart, StepRestart, StepInfo,
		StepLoginIntro, StepLoginCheck, StepLoginFresher, StepLoginName, StepLoginSubmit,
		StepMembershipIntro, StepMembershipForm, StepMembershipSubmit,
		StepManualIntro, StepManualForm, StepManualSubmit:
		return true
	}
	return false
}

// Component is a decoded step token.
type Component struct {
	Step    Step
	Fresher roster.FresherStatus
}

var fresherTags = map[roster.FresherStatus]string{
	roster.FresherNone:          "n",
	roster.FresherUndergraduate: "u",
	roster.FresherPostgraduate:  "p",
}

var tagFreshers = map[string]roster.FresherStatus{
	"n": roster.FresherNone,
	"u": roster.FresherUndergraduate,
	"p": roster.FresherPostgraduate,
}

// EncodeComponent renders a Component as a wire token.
func EncodeComponent(c Component) (string, error) {
	if !c.Step.known() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown step %q", string(c.Step))
	}
	if !c.Step.tagged() {
		return string(c.Step), nil
	}
	tag, ok := fresherTags[c.Fresher]
	if !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "invalid fresher status %q", string(c.Fresher))
	}
	return string(c.Step) + tag, nil
}

// DecodeComponent parses a wire token back into a Component. Untagged steps
// decode with FresherNone.
func DecodeComponent(s string) (Component, error) {
	step := Step(s)
	if step.known() && !step.tagged() {
		return Component{Step: step, Fresher: roster.FresherNone}, nil
	}
	if len(s) > 1 {
		base, tag := Step(s[:len(s)-1]), s[len(s)-1:]
		fresher, ok := tagFreshers[tag]
		if ok && base.known() && base.tagged() {
			return Component{Step: base, Fresher: fresher}, nil
		}
	}
	return Component{}, dErrors.Newf(dErrors.CodeValidation, "unrecognized component token %q", s)
}

// Decision is a committee verdict on a manual-review prompt.
type Decision struct {
	Accept   bool
	Identity roster.Identity
}

const (
	decisionPrefix = "verify-"
	verdictAccept  = "y"
	verdictDeny    = "n"
)

// EncodeDecision renders a Decision as a wire token.
func EncodeDecision(d Decision) string {
	verdict := verdictDeny
	if d.Accept {
		verdict = verdictAccept
	}
	return decisionPrefix + verdict + "-" + d.Identity.String()
}

// DecodeDecision parses a decision token. Anything that does not match the
// verify-<y|n>-<identity> shape is a validation error; a malformed token
// must never be treated as a deny.
func DecodeDecision(s string) (Decision, error) {
	rest, ok := strings.CutPrefix(s, decisionPrefix)
	if !ok {
		return Decision{}, dErrors.Newf(dErrors.CodeValidation, "unrecognized decision token %q", s)
	}
	verdict, idPart, ok := strings.Cut(rest, "-")
	if !ok {
		return Decision{}, dErrors.Newf(dErrors.CodeValidation, "malformed decision token %q", s)
	}
	if verdict != verdictAccept && verdict != verdictDeny {
		return Decision{}, dErrors.Newf(dErrors.CodeValidation, "malformed decision verdict %q", s)
	}
	id, err := roster.ParseIdentity(idPart)
	if err != nil {
		return Decision{}, dErrors.Newf(dErrors.CodeValidation, "malformed decision identity %q", s)
	}
	return Decision{Accept: verdict == verdictAccept, Identity: id}, nil
}

// IsDecision reports whether a raw custom ID is a decision token rather
// than a step component.
func IsDecision(s string) bool {
	return strings.HasPrefix(s, decisionPrefix)
}
