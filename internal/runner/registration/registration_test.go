package registration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReturnsAssignedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/runners/register", r.URL.Path)
		var req registerRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "runner-1", req.Name)
		assert.ElementsMatch(t, []string{"ssh", "build"}, req.Capabilities)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code":    0,
			"message": "success",
			"data":    map[string]string{"id": "runner-uuid-1"},
		})
	}))
	defer server.Close()

	id, err := Register(context.Background(), server.URL, "runner-1", []string{"ssh", "build"}, 4)
	require.NoError(t, err)
	assert.Equal(t, "runner-uuid-1", id)
}

func TestRegister_PropagatesDomainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code":    10001,
			"message": "request invalid",
			"data":    nil,
		})
	}))
	defer server.Close()

	_, err := Register(context.Background(), server.URL, "", nil, 0)
	assert.Error(t, err)
}

func TestRegister_PropagatesTransportError(t *testing.T) {
	_, err := Register(context.Background(), "http://127.0.0.1:0", "runner-1", []string{"ssh"}, 1)
	assert.Error(t, err)
}
