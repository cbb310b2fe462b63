// Package roster holds the verification record sets and their persistence
// contract. The four tables (pending, manual, members, extras) are keyed by
// the external platform identity and owned exclusively by the store; the
// verification engine composes the narrow operations below and never caches
// records across steps.
package roster

import "strconv"

// Identity is the numeric external-platform user identifier, the primary key
// across all record sets.
type Identity int64

func (i Identity) String() string {
	return strconv.FormatInt(int64(i), 10)
}

// ParseIdentity parses a decimal identity string.
func ParseIdentity(s string) (Identity, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return Identity(n), nil
}

// FresherStatus is the closed set of fresher categories. Each non-none tier
// drives an extra role grant on verification.
type FresherStatus string

const (
	FresherNone          FresherStatus = "none"
	FresherUndergraduate FresherStatus = "undergraduate"
	FresherPostgraduate  FresherStatus = "postgraduate"
)

func (f FresherStatus) Valid() bool {
	switch f {
	case FresherNone, FresherUndergraduate, FresherPostgraduate:
		return true
	}
	return false
}

// IsFresher reports whether the status carries a fresher tier.
func (f FresherStatus) IsFresher() bool {
	return f == FresherUndergraduate || f == FresherPostgraduate
}

// PendingRecord is written by the identity-provider webhook once an external
// login completes, and consumed when the login path promotes it to a member.
// At most one per identity.
type PendingRecord struct {
	Identity  Identity `json:"identity"`
	Shortcode string   `json:"shortcode"`
	Realname  string   `json:"realname"`
}

// ManualRecord is a manual-review submission awaiting a committee decision.
// At most one per identity; a new submission replaces the prior one.
type ManualRecord struct {
	Identity  Identity      `json:"identity"`
	Shortcode string        `json:"shortcode"`
	Nickname  string        `json:"nickname"`
	Realname  string        `json:"realname"`
	Fresher   FresherStatus `json:"fresher"`
}

// MemberRecord is the terminal, authoritative record. Its existence implies
// the identity holds (or is entitled to) the verified-member role.
type MemberRecord struct {
	Identity  Identity      `json:"identity"`
	Shortcode string        `json:"shortcode"`
	Nickname  string        `json:"nickname"`
	Realname  string        `json:"realname"`
	Fresher   FresherStatus `json:"fresher"`
}

// ExtraRecord is an entry on the extras roster, a separate verification
// category outside the core state machine.
type ExtraRecord struct {
	Identity    Identity `json:"identity"`
	Name        string   `json:"name"`
	Institution string   `json:"institution"`
}
