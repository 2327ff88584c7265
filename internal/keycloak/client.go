// Package keycloak implements a read-mostly client for the Keycloak admin
// REST API, focused on extracting realm data for migrations.
package keycloak

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// User is a Keycloak user representation.
type User struct {
	ID               string              `json:"id"`
	Username         string              `json:"username"`
	Email            string              `json:"email"`
	FirstName        string              `json:"firstName"`
	LastName         string              `json:"lastName"`
	Enabled          bool                `json:"enabled"`
	EmailVerified    bool                `json:"emailVerified"`
	Attributes       map[string][]string `json:"attributes"`
	CreatedTimestamp int64               `json:"createdTimestamp"`
}

// Group is a Keycloak group representation.
type Group struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Path       string              `json:"path"`
	Attributes map[string][]string `json:"attributes"`
}

// RealmClient is a Keycloak client (an application) representation.
type RealmClient struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
}

// Role is a Keycloak role representation.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Composite   bool   `json:"composite"`
	ClientRole  bool   `json:"clientRole"`
}

// Realm is the realm configuration.
type Realm struct {
	Realm       string `json:"realm"`
	DisplayName string `json:"displayName"`
	Enabled     bool   `json:"enabled"`
}

// MigrationUser is a user reduced to the fields a migration needs, with its
// group names resolved.
type MigrationUser struct {
	Username      string
	Email         string
	FirstName     string
	LastName      string
	Enabled       bool
	EmailVerified bool
	Attributes    map[string][]string
	Groups        []string
}

// ClientConfig is the configuration of Client.
type ClientConfig struct {
	// BaseURL is the Keycloak base URL (e.g `https://sso.example.com`).
	BaseURL string
	// Realm is the realm to operate on. Empty means master.
	Realm string
	// ClientID is the auth client. Empty means admin-cli.
	ClientID string
	// Username and Password are the admin credentials for the password
	// grant against the master realm.
	Username string
	Password string
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
	// HTTPClient defaults to a regular http client.
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Realm == "" {
		c.Realm = "master"
	}

	if c.ClientID == "" {
		c.ClientID = "admin-cli"
	}

	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("admin username and password are required")
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
		if c.InsecureSkipVerify {
			c.HTTPClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "keycloak.Client"})

	return nil
}

// Client talks to a single Keycloak realm through the admin API. It
// authenticates lazily on the first request and keeps the access token for
// the rest of the session.
type Client struct {
	baseURL    string
	realm      string
	clientID   string
	username   string
	password   string
	httpClient *http.Client
	logger     log.Logger

	mu    sync.Mutex
	token string
}

// NewClient returns a new Keycloak admin API client.
func NewClient(config ClientConfig) (*Client, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    config.BaseURL,
		realm:      config.Realm,
		clientID:   config.ClientID,
		username:   config.Username,
		password:   config.Password,
		httpClient: config.HTTPClient,
		logger:     config.Logger,
	}, nil
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	c.logger.Debugf("Authenticating against Keycloak")

	form := url.Values{
		"client_id":  {c.clientID},
		"username":   {c.username},
		"password":   {c.password},
		"grant_type": {"password"},
	}

	u := fmt.Sprintf("%s/realms/master/protocol/openid-connect/token", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("could not create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token request returned status %d: %s", resp.StatusCode, data)
	}

	token := struct {
		AccessToken string `json:"access_token"`
	}{}
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("could not decode token response: %w", err)
	}

	c.token = token.AccessToken

	return c.token, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, out any) error {
	token, err := c.authenticate(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/admin/realms/%s", c.baseURL, c.realm)
	if endpoint != "" {
		u = fmt.Sprintf("%s/%s", u, strings.TrimLeft(endpoint, "/"))
	}
	if len(params) > 0 {
		u = fmt.Sprintf("%s?%s", u, params.Encode())
	}

	c.logger.Debugf("%s %s", method, u)

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", endpoint, model.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s returned status %d: %s", method, endpoint, resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}

// GetRealm returns the configuration of the client's realm.
func (c *Client) GetRealm(ctx context.Context) (*Realm, error) {
	realm := Realm{}
	if err := c.do(ctx, http.MethodGet, "", nil, &realm); err != nil {
		return nil, err
	}
	return &realm, nil
}

// ListUsers lists the realm users, optionally filtered by a search term.
func (c *Client) ListUsers(ctx context.Context, search string, max int) ([]User, error) {
	if max <= 0 {
		max = 100
	}

	params := url.Values{"max": {fmt.Sprintf("%d", max)}}
	if search != "" {
		params.Set("search", search)
	}

	users := []User{}
	if err := c.do(ctx, http.MethodGet, "users", params, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetUser returns a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	user := User{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("users/%s", userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername returns the user with the exact username.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	params := url.Values{"username": {username}, "exact": {"true"}}

	users := []User{}
	if err := c.do(ctx, http.MethodGet, "users", params, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", username, model.ErrNotFound)
	}
	return &users[0], nil
}

// GetUserGroups returns the groups a user belongs to.
func (c *Client) GetUserGroups(ctx context.Context, userID string) ([]Group, error) {
	groups := []Group{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("users/%s/groups", userID), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// ListGroups lists the realm groups.
func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	groups := []Group{}
	if err := c.do(ctx, http.MethodGet, "groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// GetGroupMembers returns the users of a group.
func (c *Client) GetGroupMembers(ctx context.Context, groupID string) ([]User, error) {
	users := []User{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("groups/%s/members", groupID), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListClients lists the realm clients.
func (c *Client) ListClients(ctx context.Context) ([]RealmClient, error) {
	clients := []RealmClient{}
	if err := c.do(ctx, http.MethodGet, "clients", nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ListRealmRoles lists the realm-level roles.
func (c *Client) ListRealmRoles(ctx context.Context) ([]Role, error) {
	roles := []Role{}
	if err := c.do(ctx, http.MethodGet, "roles", nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// GetRealmRole returns a realm role by name.
func (c *Client) GetRealmRole(ctx context.Context, name string) (*Role, error) {
	role := Role{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("roles/%s", name), nil, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// ListClientRoles lists the roles of a realm client.
func (c *Client) ListClientRoles(ctx context.Context, clientID string) ([]Role, error) {
	roles := []Role{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("clients/%s/roles", clientID), nil, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// RealmExport aggregates in one structure the realm data the admin API only
// serves across several endpoints.
type RealmExport struct {
	Realm   *Realm
	Users   []MigrationUser
	Groups  []Group
	Clients []RealmClient
	Roles   []Role
}

// ExportRealm returns the realm configuration together with its users
// (reduced to migration fields), groups, clients and realm roles.
func (c *Client) ExportRealm(ctx context.Context) (*RealmExport, error) {
	c.logger.Infof("Exporting realm %s", c.realm)

	realm, err := c.GetRealm(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := c.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	clients, err := c.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := c.ListRealmRoles(ctx)
	if err != nil {
		return nil, err
	}
	users, err := c.ExportUsersMinimal(ctx)
	if err != nil {
		return nil, err
	}

	c.logger.Infof("Exported %d users, %d groups, %d clients", len(users), len(groups), len(clients))

	return &RealmExport{
		Realm:   realm,
		Users:   users,
		Groups:  groups,
		Clients: clients,
		Roles:   roles,
	}, nil
}

// ExportUsersMinimal returns all realm users reduced to migration fields,
// with their group names resolved.
func (c *Client) ExportUsersMinimal(ctx context.Context) ([]MigrationUser, error) {
	users, err := c.ListUsers(ctx, "", 10000)
	if err != nil {
		return nil, err
	}

	migrationUsers := make([]MigrationUser, 0, len(users))
	for _, user := range users {
		groups, err := c.GetUserGroups(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("could not get groups of user %s: %w", user.Username, err)
		}

		groupNames := make([]string, 0, len(groups))
		for _, g := range groups {
			groupNames = append(groupNames, g.Name)
		}

		migrationUsers = append(migrationUsers, MigrationUser{
			Username:      user.Username,
			Email:         user.Email,
			FirstName:     user.FirstName,
			LastName:      user.LastName,
			Enabled:       user.Enabled,
			EmailVerified: user.EmailVerified,
			Attributes:    user.Attributes,
			Groups:        groupNames,
		})
	}

	return migrationUsers, nil
}
