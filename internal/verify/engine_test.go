package verify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gatehouse/internal/platform/config"
	"gatehouse/internal/roster"
	"gatehouse/internal/rosterclient"
	"gatehouse/internal/verify"
	"gatehouse/internal/verify/mocks"
	"gatehouse/pkg/sentinel"
	"gatehouse/pkg/testutil"
)

const (
	roleMember    = "member"
	roleUndergrad = "fresher-undergraduate"
	rolePostgrad  = "fresher-postgraduate"
	roleNonMember = "non-member"
	roleOldMember = "old-member"
)

type fixture struct {
	store   *roster.MemoryStore
	gateway *mocks.MockRoleGateway
	notify  *mocks.MockNotifier
	members *mocks.MockRosterClient
	engine  *verify.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		store:   roster.NewMemoryStore(),
		gateway: mocks.NewMockRoleGateway(ctrl),
		notify:  mocks.NewMockNotifier(ctrl),
		members: mocks.NewMockRosterClient(ctrl),
	}
	f.engine = verify.New(f.store, f.gateway, f.notify, f.members, verify.Config{
		Roles: config.RoleConfig{
			Member:    roleMember,
			Undergrad: roleUndergrad,
			Postgrad:  rolePostgrad,
			NonMember: roleNonMember,
			OldMember: roleOldMember,
		},
		LoginURL: "https://auth.example.org/verify",
	})
	return f
}

// expectCompletion sets up the shared completion sequence for a new member
// with no legacy role: grants, non-member revoke, role query, welcome.
func (f *fixture) expectCompletion(id roster.Identity, fresher roster.FresherStatus) {
	f.gateway.EXPECT().Grant(gomock.Any(), id, roleMember).Return(nil)
	if role := tierRole(fresher); role != "" {
		f.gateway.EXPECT().Grant(gomock.Any(), id, role).Return(nil)
	}
	f.gateway.EXPECT().Revoke(gomock.Any(), id, roleNonMember).Return(nil)
	f.gateway.EXPECT().Roles(gomock.Any(), id).Return([]string{roleMember}, nil)
	f.notify.EXPECT().Welcome(gomock.Any(), id, fresher).Return(nil)
}

func tierRole(f roster.FresherStatus) string {
	switch f {
	case roster.FresherUndergraduate:
		return roleUndergrad
	case roster.FresherPostgraduate:
		return rolePostgrad
	}
	return ""
}

func TestStart_OffersPathsWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reply := f.engine.HandleComponent(ctx, verify.Session{Identity: 42, Username: "newcomer"}, "start", "")

	require.NotNil(t, reply)
	assert.True(t, reply.Ephemeral)
	require.Len(t, reply.Buttons, 4)
	assert.Equal(t, "login_1", reply.Buttons[0].Token)
	assert.Equal(t, "membership_1", reply.Buttons[1].Token)
	assert.Equal(t, "manual_1", reply.Buttons[2].Token)

	count, err := f.store.CountMembers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStart_ExistingMemberIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertMember(ctx, roster.MemberRecord{
		Identity: id, Shortcode: "ab1234", Nickname: "Ada", Realname: "Ada Lovelace",
		Fresher: roster.FresherUndergraduate,
	}))

	// Pressing start twice re-grants twice and never re-promotes.
	for range 2 {
		f.gateway.EXPECT().Grant(gomock.Any(), id, roleMember).Return(nil)
		f.gateway.EXPECT().Grant(gomock.Any(), id, roleUndergrad).Return(nil)
		f.gateway.EXPECT().Revoke(gomock.Any(), id, roleNonMember).Return(nil)

		reply := f.engine.HandleComponent(ctx, verify.Session{Identity: id}, "start", "")
		require.NotNil(t, reply)
		assert.Contains(t, reply.Text, "already verified")
		assert.Empty(t, reply.Buttons)
	}

	count, err := f.store.CountMembers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStart_FreshPostsAndRestartEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	session := verify.Session{Identity: 42, Username: "newcomer"}

	reply := f.engine.HandleComponent(ctx, session, "start", "")
	assert.False(t, reply.Update, "a fresh invocation posts a new message")

	reply = f.engine.HandleComponent(ctx, session, "restart", "")
	assert.True(t, reply.Update, "stepping back edits the existing message")
	require.Len(t, reply.Buttons, 4)
}

func TestLoginPath_HappyFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	session := verify.Session{Identity: id, Username: "newcomer"}

	reply := f.engine.HandleComponent(ctx, session, "login_1", "")
	require.Len(t, reply.Buttons, 3)
	assert.Equal(t, "https://auth.example.org/verify?id=42", reply.Buttons[0].URL)

	// Before the webhook fires the check step asks the user to retry.
	reply = f.engine.HandleComponent(ctx, session, "login_2", "")
	assert.Contains(t, reply.Text, "haven't seen your login")
	assert.Equal(t, "login_2", reply.Buttons[0].Token)

	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{
		Identity: id, Shortcode: "AB1234", Realname: "Ada Lovelace",
	}))

	reply = f.engine.HandleComponent(ctx, session, "login_2", "")
	assert.Contains(t, reply.Text, "confirmed")
	assert.Equal(t, "login_3", reply.Buttons[0].Token)

	reply = f.engine.HandleComponent(ctx, session, "login_3", "")
	require.Len(t, reply.Buttons, 3)
	assert.Equal(t, "login_4u", reply.Buttons[0].Token)
	assert.Equal(t, "login_4p", reply.Buttons[1].Token)
	assert.Equal(t, "login_4n", reply.Buttons[2].Token)

	reply = f.engine.HandleComponent(ctx, session, "login_4u", "")
	require.NotNil(t, reply.Form)
	assert.Equal(t, "login_5u", reply.Form.Token)

	f.expectCompletion(id, roster.FresherUndergraduate)
	reply = f.engine.HandleModal(ctx, session, "login_5u", map[string]string{"nickname": "Ada"})
	assert.Contains(t, reply.Text, "welcome")

	member, err := f.store.Member(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ab1234", member.Shortcode)
	assert.Equal(t, "Ada", member.Nickname)
	assert.Equal(t, "Ada Lovelace", member.Realname)
	assert.Equal(t, roster.FresherUndergraduate, member.Fresher)

	count, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "pending record must be consumed by the promotion")
}

func TestLoginFinalize_OverlongNicknameRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{
		Identity: id, Shortcode: "AB1234", Realname: "Ada Lovelace",
	}))

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "newcomer"},
		"login_5u", map[string]string{"nickname": strings.Repeat("a", 33)})

	assert.Contains(t, reply.Text, "too long")
	assert.True(t, reply.Ephemeral)

	_, err := f.store.Member(ctx, id)
	assert.ErrorIs(t, err, sentinel.ErrNotFound, "no member row is written for a rejected nickname")
	count, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "pending record stays until the flow completes")
}

func TestLoginFinalize_MissingPendingAsksToRedo(t *testing.T) {
	f := newFixture(t)

	reply := f.engine.HandleModal(context.Background(),
		verify.Session{Identity: 42, Username: "newcomer"},
		"login_5n", map[string]string{"nickname": "Ada"})

	assert.Contains(t, reply.Text, "couldn't find your login")
}

func TestLoginFinalize_OldMemberGetsNoWelcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{
		Identity: id, Shortcode: "ab1234", Realname: "Ada Lovelace",
	}))

	f.gateway.EXPECT().Grant(gomock.Any(), id, roleMember).Return(nil)
	f.gateway.EXPECT().Revoke(gomock.Any(), id, roleNonMember).Return(nil)
	f.gateway.EXPECT().Roles(gomock.Any(), id).Return([]string{roleMember, roleOldMember}, nil)
	f.gateway.EXPECT().Revoke(gomock.Any(), id, roleOldMember).Return(nil)
	// No Welcome expectation: the legacy-role branch replaces it.

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"login_5n", map[string]string{})
	assert.Contains(t, reply.Text, "welcome")
}

func TestPromotion_AtMostOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertMember(ctx, roster.MemberRecord{
		Identity: id, Shortcode: "ab1234", Nickname: "Ada", Realname: "Ada Lovelace",
	}))
	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{
		Identity: id, Shortcode: "ab1234", Realname: "Ada Lovelace",
	}))

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"login_5n", map[string]string{"nickname": "Ada II"})

	assert.Contains(t, reply.Text, "already verified")
	member, err := f.store.Member(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", member.Nickname, "existing record must win")
}

func TestMembershipForm_PurgesOtherPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	session := verify.Session{Identity: id, Username: "ada"}
	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{Identity: id, Shortcode: "ab1234"}))
	require.NoError(t, f.store.InsertManual(ctx, roster.ManualRecord{Identity: id, Realname: "Ada"}))

	reply := f.engine.HandleComponent(ctx, session, "membership_2n", "")
	require.NotNil(t, reply.Form)
	assert.Equal(t, "membership_3n", reply.Form.Token)

	pending, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	manual, err := f.store.CountManual(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Zero(t, manual)
}

func TestMembershipFinalize_HappyOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	f.members.EXPECT().List(gomock.Any()).Return([]rosterclient.Entry{
		{OrderNo: "7654321", Login: "cd5678", CID: "02987654", FirstName: "Charles", Surname: "Babbage"},
		{OrderNo: "1234567", Login: "AB1234", CID: "02345678", FirstName: "Ada", Surname: "Lovelace"},
	}, nil)
	f.expectCompletion(id, roster.FresherNone)

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"membership_3n", map[string]string{
			"order_no":  "1234567",
			"shortcode": "ab1234",
			"nickname":  "Ada",
		})

	assert.Contains(t, reply.Text, "confirmed")
	member, err := f.store.Member(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ab1234", member.Shortcode)
	assert.Equal(t, "Ada Lovelace", member.Realname, "real name comes from the roster, not the form")
}

func TestMembershipFinalize_MatchesOnCID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	// Non-standard account: no college login on the roster entry.
	f.members.EXPECT().List(gomock.Any()).Return([]rosterclient.Entry{
		{OrderNo: "1234567", Login: "", CID: "02345678", FirstName: "Ada", Surname: "Lovelace"},
	}, nil)
	f.expectCompletion(id, roster.FresherPostgraduate)

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"membership_3p", map[string]string{
			"order_no":  "1234567",
			"shortcode": "02345678",
		})

	assert.Contains(t, reply.Text, "confirmed")
	member, err := f.store.Member(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "02345678", member.Shortcode, "the submitted identifier is kept, not the empty roster login")
}

func TestMembershipFinalize_OrderMismatchWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.members.EXPECT().List(gomock.Any()).Return([]rosterclient.Entry{
		{OrderNo: "1234567", Login: "ab1234", CID: "02345678", FirstName: "Ada", Surname: "Lovelace"},
	}, nil)

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: 42, Username: "ada"},
		"membership_3n", map[string]string{
			"order_no":  "9999999",
			"shortcode": "ab1234",
		})

	assert.Contains(t, reply.Text, "couldn't find a membership")
	count, err := f.store.CountMembers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMembershipFinalize_RosterDownIsGenericFailure(t *testing.T) {
	f := newFixture(t)
	f.members.EXPECT().List(gomock.Any()).Return(nil, errors.New("connection refused"))

	reply := f.engine.HandleModal(context.Background(), verify.Session{Identity: 42},
		"membership_3n", map[string]string{"order_no": "1234567", "shortcode": "ab1234"})

	assert.Contains(t, reply.Text, "something went wrong")
}

func TestManualSubmit_InvalidProofURLWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{Identity: id, Shortcode: "ab1234"}))

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"manual_3n", map[string]string{
			"realname":  "Ada Lovelace",
			"proof_url": "not a url",
		})

	assert.Contains(t, reply.Text, "valid URL")
	manual, err := f.store.CountManual(ctx)
	require.NoError(t, err)
	assert.Zero(t, manual)
	pending, err := f.store.CountPending(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending, "rejected submission must not purge other paths")
}

func TestManualSubmit_HappyFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	session := verify.Session{Identity: id, Username: "ada"}

	var prompt verify.ReviewPrompt
	f.notify.EXPECT().PostReviewPrompt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p verify.ReviewPrompt) (string, error) {
			prompt = p
			return "prompt-1", nil
		})

	reply := f.engine.HandleModal(ctx, session, "manual_3u", map[string]string{
		"shortcode": "ab1234",
		"realname":  "Ada Lovelace",
		"proof_url": "https://example.org/card.jpg",
		"nickname":  "Ada",
	})

	assert.Contains(t, reply.Text, "committee has your request")
	assert.Equal(t, "verify-y-42", prompt.AcceptToken)
	assert.Equal(t, "verify-n-42", prompt.DenyToken)
	assert.Equal(t, "https://example.org/card.jpg", prompt.ProofURL)

	record, err := f.store.Manual(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, roster.FresherUndergraduate, record.Fresher)
	assert.Equal(t, "Ada", record.Nickname)
}

func TestManualSubmit_InsertFailureIsReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	// A member row forces the manual insert conflict while the prompt
	// still posts.
	require.NoError(t, f.store.InsertManual(ctx, roster.ManualRecord{Identity: id}))
	f.notify.EXPECT().PostReviewPrompt(gomock.Any(), gomock.Any()).Return("prompt-1", nil)

	// manual_2 clears the old record, so go straight to submit to
	// simulate a store-level failure path via a conflicting insert.
	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"manual_3n", map[string]string{
			"realname":  "Ada Lovelace",
			"proof_url": "https://example.org/card.jpg",
		})

	assert.Contains(t, reply.Text, "couldn't save your request")
}

func TestDecide_DenyDeletesWithoutRoleChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertManual(ctx, roster.ManualRecord{
		Identity: id, Realname: "Ada Lovelace",
	}))

	f.notify.EXPECT().UpdateReviewPrompt(gomock.Any(), "prompt-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, outcome verify.ReviewOutcome) error {
			assert.Equal(t, verify.OutcomeDenied, outcome.Status)
			assert.Equal(t, "committee", outcome.Reviewer)
			return nil
		})

	reply := f.engine.HandleComponent(ctx,
		verify.Session{Identity: 7, Username: "committee"}, "verify-n-42", "prompt-1")

	assert.Contains(t, reply.Text, "denied")
	count, err := f.store.CountManual(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	members, err := f.store.CountMembers(ctx)
	require.NoError(t, err)
	assert.Zero(t, members, "deny must not create a member")
}

func TestDecide_AcceptPromotesThenSecondCallAlreadyHandled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertManual(ctx, roster.ManualRecord{
		Identity: id, Shortcode: "ab1234", Nickname: "Ada", Realname: "Ada Lovelace",
		Fresher: roster.FresherPostgraduate,
	}))
	reviewer := verify.Session{Identity: 7, Username: "committee"}

	f.expectCompletion(id, roster.FresherPostgraduate)
	f.notify.EXPECT().UpdateReviewPrompt(gomock.Any(), "prompt-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, outcome verify.ReviewOutcome) error {
			assert.Equal(t, verify.OutcomeVerified, outcome.Status)
			return nil
		})

	reply := f.engine.HandleComponent(ctx, reviewer, "verify-y-42", "prompt-1")
	assert.Contains(t, reply.Text, "verified")

	member, err := f.store.Member(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, roster.FresherPostgraduate, member.Fresher)

	// Second press of the same button: manual record is gone, no role
	// calls, prompt flagged as already handled.
	f.notify.EXPECT().UpdateReviewPrompt(gomock.Any(), "prompt-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, outcome verify.ReviewOutcome) error {
			assert.Equal(t, verify.OutcomeFailed, outcome.Status)
			return nil
		})
	reply = f.engine.HandleComponent(ctx, reviewer, "verify-y-42", "prompt-1")
	assert.Contains(t, reply.Text, "already handled")
}

func TestHandleComponent_MalformedDecisionIsNotADeny(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertManual(ctx, roster.ManualRecord{Identity: id}))

	reply := f.engine.HandleComponent(ctx,
		verify.Session{Identity: 7, Username: "committee"}, "verify-x-42", "prompt-1")

	assert.Contains(t, reply.Text, "something went wrong")
	count, err := f.store.CountManual(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "malformed token must not delete the request")
}

func TestHandleComponent_UnknownTokenIsGenericFailure(t *testing.T) {
	f := newFixture(t)

	reply := f.engine.HandleComponent(context.Background(),
		verify.Session{Identity: 42}, "bogus_step", "")

	assert.Contains(t, reply.Text, "something went wrong")
}

func TestManualReviewScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	session := verify.Session{Identity: id, Username: "guest"}
	reviewer := verify.Session{Identity: 7, Username: "committee"}

	testutil.Given(t, "a submitted manual request", func(t *testing.T) {
		f.notify.EXPECT().PostReviewPrompt(gomock.Any(), gomock.Any()).Return("prompt-1", nil)
		reply := f.engine.HandleModal(ctx, session, "manual_3n", map[string]string{
			"realname":  "Grace Hopper",
			"proof_url": "https://example.org/id.png",
		})
		require.Contains(t, reply.Text, "committee has your request")
	})

	testutil.When(t, "the committee denies it", func(t *testing.T) {
		f.notify.EXPECT().UpdateReviewPrompt(gomock.Any(), "prompt-1", gomock.Any()).Return(nil)
		reply := f.engine.HandleComponent(ctx, reviewer, "verify-n-42", "prompt-1")
		require.Contains(t, reply.Text, "denied")
	})

	testutil.Then(t, "no member exists and the user can start again", func(t *testing.T) {
		members, err := f.store.CountMembers(ctx)
		require.NoError(t, err)
		assert.Zero(t, members)

		reply := f.engine.HandleComponent(ctx, session, "restart", "")
		assert.Len(t, reply.Buttons, 4)
	})
}

func TestLoginFinalize_ClearsManualSubmission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := roster.Identity(42)
	require.NoError(t, f.store.InsertManual(ctx, roster.ManualRecord{Identity: id, Realname: "Ada"}))
	require.NoError(t, f.store.InsertPending(ctx, roster.PendingRecord{
		Identity: id, Shortcode: "ab1234", Realname: "Ada Lovelace",
	}))
	f.expectCompletion(id, roster.FresherNone)

	reply := f.engine.HandleModal(ctx, verify.Session{Identity: id, Username: "ada"},
		"login_5n", map[string]string{"nickname": "Ada"})
	assert.Contains(t, reply.Text, "welcome")

	count, err := f.store.CountManual(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "finishing another path must drop the manual request")
}
