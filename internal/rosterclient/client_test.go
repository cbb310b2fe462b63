package rosterclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gatehouse/pkg/domain-errors"
)

func TestHTTPClient_List(t *testing.T) {
	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey.Store(r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"order_no":"1234567","login":"ab1234","cid":"02345678","first_name":"Ada","surname":"Lovelace"},
			{"order_no":"7654321","login":"cd5678","cid":"02987654","first_name":"Charles","surname":"Babbage"}
		]`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret-key")
	entries, err := client.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "secret-key", gotKey.Load())
	require.Len(t, entries, 2)
	assert.Equal(t, "1234567", entries[0].OrderNo)
	assert.Equal(t, "ab1234", entries[0].Login)
	assert.Equal(t, "Ada Lovelace", entries[0].FullName())
}

func TestHTTPClient_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret-key")
	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestHTTPClient_Unreachable(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1", "secret-key")
	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestHTTPClient_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "secret-key")
	_, err := client.List(context.Background())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}
