package keycloak_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsysio/adsys/internal/keycloak"
	"github.com/adsysio/adsys/internal/model"
)

// fakeKeycloak serves the token endpoint plus a few admin API routes.
type fakeKeycloak struct {
	tokenRequests int
	users         []map[string]any
	userGroups    map[string][]map[string]any
}

func (f *fakeKeycloak) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/realms/master/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "password", r.Form.Get("grant_type"))
		require.Equal(t, "admin-cli", r.Form.Get("client_id"))
		f.tokenRequests++
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "kc-token"})
	})

	mux.HandleFunc("/admin/realms/company/users", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer kc-token", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(f.users)
	})

	mux.HandleFunc("/admin/realms/company/users/{id}/groups", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.userGroups[r.PathValue("id")])
	})

	mux.HandleFunc("/admin/realms/company/groups", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "g1", "name": "admins"}})
	})

	mux.HandleFunc("/admin/realms/company", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"realm": "company", "enabled": true})
	})

	mux.HandleFunc("/admin/realms/company/clients", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "c1", "clientId": "webapp", "protocol": "openid-connect"},
		})
	})

	mux.HandleFunc("/admin/realms/company/roles", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "r1", "name": "operator"}})
	})

	return mux
}

func newClient(t *testing.T, fake *fakeKeycloak) *keycloak.Client {
	t.Helper()

	server := httptest.NewServer(fake.handler(t))
	t.Cleanup(server.Close)

	client, err := keycloak.NewClient(keycloak.ClientConfig{
		BaseURL:  server.URL,
		Realm:    "company",
		Username: "admin",
		Password: "admin",
	})
	require.NoError(t, err)

	return client
}

func TestClientAuthenticatesOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeKeycloak{users: []map[string]any{{"id": "u1", "username": "jdoe"}}}
	client := newClient(t, fake)

	_, err := client.ListUsers(context.TODO(), "", 0)
	require.NoError(err)
	_, err = client.ListGroups(context.TODO())
	require.NoError(err)

	assert.Equal(1, fake.tokenRequests)
}

func TestClientListUsers(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeKeycloak{users: []map[string]any{
		{"id": "u1", "username": "jdoe", "email": "jdoe@example.com", "enabled": true},
	}}

	users, err := newClient(t, fake).ListUsers(context.TODO(), "", 0)

	require.NoError(err)
	require.Len(users, 1)
	assert.Equal("jdoe", users[0].Username)
	assert.Equal("jdoe@example.com", users[0].Email)
	assert.True(users[0].Enabled)
}

func TestClientGetUserNotFound(t *testing.T) {
	require := require.New(t)

	client := newClient(t, &fakeKeycloak{})

	_, err := client.GetUser(context.TODO(), "missing")

	require.ErrorIs(err, model.ErrNotFound)
}

func TestClientListRealmRoles(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	roles, err := newClient(t, &fakeKeycloak{}).ListRealmRoles(context.TODO())

	require.NoError(err)
	require.Len(roles, 1)
	assert.Equal("operator", roles[0].Name)
}

func TestClientExportRealm(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeKeycloak{
		users: []map[string]any{
			{"id": "u1", "username": "jdoe", "enabled": true},
		},
		userGroups: map[string][]map[string]any{
			"u1": {{"id": "g1", "name": "admins"}},
		},
	}

	export, err := newClient(t, fake).ExportRealm(context.TODO())

	require.NoError(err)
	assert.Equal("company", export.Realm.Realm)
	require.Len(export.Users, 1)
	assert.Equal([]string{"admins"}, export.Users[0].Groups)
	require.Len(export.Groups, 1)
	assert.Equal("admins", export.Groups[0].Name)
	require.Len(export.Clients, 1)
	assert.Equal("webapp", export.Clients[0].ClientID)
	require.Len(export.Roles, 1)
	assert.Equal("operator", export.Roles[0].Name)
}

func TestClientExportUsersMinimal(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fake := &fakeKeycloak{
		users: []map[string]any{
			{"id": "u1", "username": "jdoe", "firstName": "John", "lastName": "Doe", "enabled": true},
		},
		userGroups: map[string][]map[string]any{
			"u1": {{"id": "g1", "name": "admins"}, {"id": "g2", "name": "devs"}},
		},
	}

	users, err := newClient(t, fake).ExportUsersMinimal(context.TODO())

	require.NoError(err)
	require.Len(users, 1)
	assert.Equal("jdoe", users[0].Username)
	assert.Equal("John", users[0].FirstName)
	assert.Equal([]string{"admins", "devs"}, users[0].Groups)
}
