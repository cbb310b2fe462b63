package surface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatehouse/pkg/domain-errors"

	"gatehouse/internal/roster"
	"gatehouse/internal/verify"
)

func TestClient_RolesRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer surface-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/roles/grant":
			var req struct {
				Identity roster.Identity `json:"identity"`
				Role     string          `json:"role"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.EqualValues(t, 42, req.Identity)
			assert.Equal(t, "member", req.Role)
			w.WriteHeader(http.StatusNoContent)
		case "/roles/42":
			_, _ = w.Write([]byte(`{"roles":["member","old-member"]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "surface-token")
	require.NoError(t, client.Grant(context.Background(), 42, "member"))

	roles, err := client.Roles(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, []string{"member", "old-member"}, roles)
}

func TestClient_PostReviewPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/prompts", r.URL.Path)
		var prompt verify.ReviewPrompt
		require.NoError(t, json.NewDecoder(r.Body).Decode(&prompt))
		assert.Equal(t, "verify-y-42", prompt.AcceptToken)
		_, _ = w.Write([]byte(`{"ref":"prompt-9"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "surface-token")
	ref, err := client.PostReviewPrompt(context.Background(), verify.ReviewPrompt{
		Record:      roster.ManualRecord{Identity: 42, Realname: "Ada Lovelace"},
		AcceptToken: "verify-y-42",
		DenyToken:   "verify-n-42",
	})
	require.NoError(t, err)
	assert.Equal(t, "prompt-9", ref)
}

func TestClient_GatewayErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "surface-token")
	err := client.Revoke(context.Background(), 42, "non-member")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
