package roster

import "context"

// Stores are interface-driven so the engine stays testable and persistence
// can swap between in-memory and PostgreSQL without rewiring business code.
//
// Error vocabulary: gets return sentinel.ErrNotFound on a miss, inserts
// return sentinel.ErrConflict on a duplicate key, deletes report whether a
// row was removed (deleting an absent row is not an error).

type PendingStore interface {
	Pending(ctx context.Context, id Identity) (*PendingRecord, error)
	InsertPending(ctx context.Context, rec PendingRecord) error
	DeletePending(ctx context.Context, id Identity) (bool, error)
	AllPending(ctx context.Context) ([]PendingRecord, error)
	CountPending(ctx context.Context) (int64, error)
}

type ManualStore interface {
	Manual(ctx context.Context, id Identity) (*ManualRecord, error)
	InsertManual(ctx context.Context, rec ManualRecord) error
	DeleteManual(ctx context.Context, id Identity) (bool, error)
	AllManual(ctx context.Context) ([]ManualRecord, error)
	CountManual(ctx context.Context) (int64, error)
}

type MemberStore interface {
	Member(ctx context.Context, id Identity) (*MemberRecord, error)
	MemberByShortcode(ctx context.Context, shortcode string) (*MemberRecord, error)
	InsertMember(ctx context.Context, rec MemberRecord) error
	DeleteMember(ctx context.Context, id Identity) (bool, error)
	UpdateMemberNickname(ctx context.Context, id Identity, nickname string) (bool, error)
	UpdateMemberShortcode(ctx context.Context, id Identity, shortcode string) (bool, error)
	UpdateMemberFresher(ctx context.Context, id Identity, fresher FresherStatus) (bool, error)
	AllMembers(ctx context.Context) ([]MemberRecord, error)
	CountMembers(ctx context.Context) (int64, error)

	// PromotePending atomically deletes the pending row and inserts a member
	// built from it plus the submitted nickname and fresher tier. The move is
	// a single store-level transaction: either the pending row is gone and
	// the member exists, or neither changed. A missing source row returns
	// sentinel.ErrNotFound; a member conflict returns sentinel.ErrConflict.
	PromotePending(ctx context.Context, id Identity, nickname string, fresher FresherStatus) (*MemberRecord, error)

	// PromoteManual atomically moves a manual-review row to members, carrying
	// all of its fields. Same atomicity and error contract as PromotePending;
	// the losing side of a concurrent decision legitimately observes
	// sentinel.ErrNotFound here.
	PromoteManual(ctx context.Context, id Identity) (*MemberRecord, error)
}

type ExtraStore interface {
	Extra(ctx context.Context, id Identity) (*ExtraRecord, error)
	InsertExtra(ctx context.Context, rec ExtraRecord) error
	DeleteExtra(ctx context.Context, id Identity) (bool, error)
	UpdateExtraName(ctx context.Context, id Identity, name string) (bool, error)
	UpdateExtraInstitution(ctx context.Context, id Identity, institution string) (bool, error)
	AllExtras(ctx context.Context) ([]ExtraRecord, error)
	CountExtras(ctx context.Context) (int64, error)
}

// Store is the full persistence surface consumed by the engine, webhook, and
// operator API.
type Store interface {
	PendingStore
	ManualStore
	MemberStore
	ExtraStore
}
