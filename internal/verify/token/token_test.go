package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatehouse/pkg/domain-errors"

	"gatehouse/internal/roster"
)

func TestComponent_RoundTrip(t *testing.T) {
	cases := []struct {
		component Component
		wire      string
	}{
		{Component{Step: StepStart}, "start"},
		{Component{Step: StepRestart}, "restart"},
		{Component{Step: StepInfo}, "info"},
		{Component{Step: StepLoginIntro}, "login_1"},
		{Component{Step: StepLoginCheck}, "login_2"},
		{Component{Step: StepLoginFresher}, "login_3"},
		{Component{Step: StepLoginName, Fresher: roster.FresherNone}, "login_4n"},
		{Component{Step: StepLoginSubmit, Fresher: roster.FresherUndergraduate}, "login_5u"},
		{Component{Step: StepMembershipIntro}, "membership_1"},
		{Component{Step: StepMembershipForm, Fresher: roster.FresherPostgraduate}, "membership_2p"},
		{Component{Step: StepMembershipSubmit, Fresher: roster.FresherNone}, "membership_3n"},
		{Component{Step: StepManualIntro}, "manual_1"},
		{Component{Step: StepManualForm, Fresher: roster.FresherUndergraduate}, "manual_2u"},
		{Component{Step: StepManualSubmit, Fresher: roster.FresherPostgraduate}, "manual_3p"},
	}
	for _, tc := range cases {
		t.Run(tc.wire, func(t *testing.T) {
			wire, err := EncodeComponent(tc.component)
			require.NoError(t, err)
			assert.Equal(t, tc.wire, wire)

			decoded, err := DecodeComponent(wire)
			require.NoError(t, err)
			if tc.component.Fresher == "" {
				tc.component.Fresher = roster.FresherNone
			}
			assert.Equal(t, tc.component, decoded)
		})
	}
}

func TestComponent_DecodeRejectsUnknown(t *testing.T) {
	for _, wire := range []string{
		"",
		"login_9",
		"login_4",   // tagged step missing its tag
		"login_4x",  // unknown tag letter
		"start_n",   // tag on an untagged step
		"verify-y-", // decision shapes are not components
		"bogus",
	} {
		t.Run(wire, func(t *testing.T) {
			_, err := DecodeComponent(wire)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestComponent_EncodeRejectsInvalidFresher(t *testing.T) {
	_, err := EncodeComponent(Component{Step: StepManualForm, Fresher: "sophomore"})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestDecision_RoundTrip(t *testing.T) {
	accept := Decision{Accept: true, Identity: 123456789012345678}
	wire := EncodeDecision(accept)
	assert.Equal(t, "verify-y-123456789012345678", wire)

	decoded, err := DecodeDecision(wire)
	require.NoError(t, err)
	assert.Equal(t, accept, decoded)

	deny := Decision{Accept: false, Identity: 42}
	decoded, err = DecodeDecision(EncodeDecision(deny))
	require.NoError(t, err)
	assert.Equal(t, deny, decoded)
}

func TestDecision_MalformedIsError(t *testing.T) {
	for _, wire := range []string{
		"verify-y",
		"verify--42",
		"verify-x-42",
		"verify-n-",
		"verify-n-abc",
		"approve-y-42",
	} {
		t.Run(wire, func(t *testing.T) {
			_, err := DecodeDecision(wire)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestIsDecision(t *testing.T) {
	assert.True(t, IsDecision("verify-y-42"))
	assert.True(t, IsDecision("verify-garbage"))
	assert.False(t, IsDecision("login_1"))
}
