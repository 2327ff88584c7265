package authentik_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/model"
)

func newClient(t *testing.T, handler http.Handler) *authentik.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := authentik.NewClient(authentik.ClientConfig{
		BaseURL: server.URL,
		Token:   "test-token",
	})
	require.NoError(t, err)

	return client
}

func TestClientListUsers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var gotAuth, gotPath, gotSearch string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotSearch = r.URL.Query().Get("search")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"pk": 1, "username": "admin", "name": "Admin", "is_active": true},
			},
		})
	}))

	users, err := client.ListUsers(context.TODO(), "adm")

	require.NoError(err)
	require.Len(users, 1)
	assert.Equal("admin", users[0].Username)
	assert.Equal(1, users[0].PK)
	assert.Equal("Bearer test-token", gotAuth)
	assert.Equal("/api/v3/core/users/", gotPath)
	assert.Equal("adm", gotSearch)
}

func TestClientCreateUser(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var gotBody map[string]any
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodPost, r.Method)
		require.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"pk": 42, "username": "jdoe"})
	}))

	created, err := client.CreateUser(context.TODO(), authentik.User{
		Username: "jdoe",
		Name:     "John Doe",
		IsActive: true,
	})

	require.NoError(err)
	assert.Equal(42, created.PK)
	assert.Equal("jdoe", gotBody["username"])
	assert.Equal(true, gotBody["is_active"])
}

func TestClientListTokens(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var gotPath, gotUser string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.URL.Query().Get("user")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"pk": "tok-1", "identifier": "ci-token", "user": 7, "intent": "api"},
			},
		})
	}))

	tokens, err := client.ListTokens(context.TODO(), 7)

	require.NoError(err)
	require.Len(tokens, 1)
	assert.Equal("ci-token", tokens[0].Identifier)
	assert.Equal("/api/v3/core/tokens/", gotPath)
	assert.Equal("7", gotUser)
}

func TestClientCreateTokenDefaultsIntent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var gotBody map[string]any
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodPost, r.Method)
		require.NoError(json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]any{"pk": "tok-2", "identifier": "ci-token"})
	}))

	created, err := client.CreateToken(context.TODO(), authentik.Token{
		Identifier: "ci-token",
		User:       7,
		Expiring:   true,
	})

	require.NoError(err)
	assert.Equal("tok-2", created.PK)
	assert.Equal("api", gotBody["intent"])
	assert.Equal(true, gotBody["expiring"])
}

func TestClientSystemInfo(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var gotPath string
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"server_time": "2026-08-31T00:00:00Z"})
	}))

	info, err := client.SystemInfo(context.TODO())

	require.NoError(err)
	assert.Equal("/api/v3/admin/system/", gotPath)
	assert.Equal("2026-08-31T00:00:00Z", info["server_time"])
}

func TestClientGetApplicationNotFound(t *testing.T) {
	require := require.New(t)

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.GetApplication(context.TODO(), "missing")

	require.ErrorIs(err, model.ErrNotFound)
}

func TestClientAddUserToGroup(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var patched map[string]any
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"pk": 1, "username": "jdoe", "groups": []string{"group-a"},
			})
		case http.MethodPatch:
			require.NoError(json.NewDecoder(r.Body).Decode(&patched))
			_ = json.NewEncoder(w).Encode(map[string]any{"pk": 1})
		}
	}))

	err := client.AddUserToGroup(context.TODO(), 1, "group-b")

	require.NoError(err)
	assert.Equal([]any{"group-a", "group-b"}, patched["groups"])
}

func TestClientAddUserToGroupAlreadyMember(t *testing.T) {
	require := require.New(t)

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pk": 1, "groups": []string{"group-a"},
		})
	}))

	require.NoError(client.AddUserToGroup(context.TODO(), 1, "group-a"))
}

func TestClientAPIError(t *testing.T) {
	require := require.New(t)

	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"detail": "permission denied"}`))
	}))

	_, err := client.ListGroups(context.TODO(), "")

	require.Error(err)
	require.Contains(err.Error(), "403")
	require.Contains(err.Error(), "permission denied")
}

func TestClientHealthCheck(t *testing.T) {
	assert := assert.New(t)

	healthy := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	broken := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	assert.True(healthy.HealthCheck(context.TODO()))
	assert.False(broken.HealthCheck(context.TODO()))
}
