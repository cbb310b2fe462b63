// Package audit records the verification decisions that matter after the
// fact: who was verified, by which path, and who signed off on manual
// reviews. Events are published to Kafka when brokers are configured and
// logged otherwise.
package audit

import "time"

// Event kinds.
const (
	KindVerified     = "member.verified"
	KindManualQueued = "manual.queued"
	KindManualDenied = "manual.denied"
	KindRecordPushed = "record.pushed"
	KindRoleRevoked  = "role.revoked"
)

// Event is one entry on the audit trail.
type Event struct {
	Kind      string    `json:"kind"`
	Identity  int64     `json:"identity"`
	Shortcode string    `json:"shortcode,omitempty"`
	Realname  string    `json:"realname,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	Fresher   string    `json:"fresher,omitempty"`
	Path      string    `json:"path,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}
