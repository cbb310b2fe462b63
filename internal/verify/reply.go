package verify

import "gatehouse/internal/roster"

// ButtonStyle selects the visual weight of a button on the surface.
type ButtonStyle string

const (
	StylePrimary   ButtonStyle = "primary"
	StyleSecondary ButtonStyle = "secondary"
	StyleSuccess   ButtonStyle = "success"
	StyleDanger    ButtonStyle = "danger"
	StyleLink      ButtonStyle = "link"
)

// Button is one actionable control attached to a reply. Exactly one of
// Token and URL is set: Token routes back through the engine, URL opens an
// external page.
type Button struct {
	Label string      `json:"label"`
	Emoji string      `json:"emoji,omitempty"`
	Style ButtonStyle `json:"style"`
	Token string      `json:"token,omitempty"`
	URL   string      `json:"url,omitempty"`
}

// FormField is a single text input on a modal form. MaxLength, when set,
// caps the input client-side; the engine re-checks on submit since the
// surface cap is advisory.
type FormField struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder,omitempty"`
	Required    bool   `json:"required"`
	MaxLength   int    `json:"max_length,omitempty"`
}

// FormSpec asks the surface to open a modal form whose submission comes
// back through HandleModal under Token.
type FormSpec struct {
	Token  string      `json:"token"`
	Title  string      `json:"title"`
	Fields []FormField `json:"fields"`
}

// Reply is the engine's answer to one interaction. Domain outcomes the user
// can act on (login not completed, order not found, already handled) are
// replies, not errors.
type Reply struct {
	Text      string    `json:"text"`
	Ephemeral bool      `json:"ephemeral"`
	Buttons   []Button  `json:"buttons,omitempty"`
	Form      *FormSpec `json:"form,omitempty"`

	// Update tells the surface to edit the message the interaction came
	// from instead of posting a new one. A fresh entry into the flow posts;
	// stepping back through it edits in place.
	Update bool `json:"update,omitempty"`

	// PromptUpdate, when set, replaces the committee review prompt the
	// interaction came from.
	PromptUpdate *ReviewOutcome `json:"prompt_update,omitempty"`
}

// ReviewPrompt is the committee-facing summary of a manual submission.
type ReviewPrompt struct {
	Record      roster.ManualRecord `json:"record"`
	Username    string              `json:"username"`
	ProofURL    string              `json:"proof_url"`
	AcceptToken string              `json:"accept_token"`
	DenyToken   string              `json:"deny_token"`
}

// ReviewOutcome replaces a review prompt once the request is resolved.
type ReviewOutcome struct {
	Status   string `json:"status"` // verified, denied or failed
	Detail   string `json:"detail"`
	Reviewer string `json:"reviewer"`
}

const (
	OutcomeVerified = "verified"
	OutcomeDenied   = "denied"
	OutcomeFailed   = "failed"
)

func textReply(text string) *Reply {
	return &Reply{Text: text, Ephemeral: true}
}
