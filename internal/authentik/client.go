// Package authentik implements a client for the Authentik identity provider
// REST API (`/api/v3`), covering the user, group, application, provider and
// flow operations this tool needs.
package authentik

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// User is an Authentik user.
type User struct {
	PK         int            `json:"pk,omitempty"`
	Username   string         `json:"username"`
	Name       string         `json:"name"`
	Email      string         `json:"email,omitempty"`
	IsActive   bool           `json:"is_active"`
	Groups     []string       `json:"groups,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Group is an Authentik group.
type Group struct {
	PK          string         `json:"pk,omitempty"`
	Name        string         `json:"name"`
	IsSuperuser bool           `json:"is_superuser"`
	Parent      string         `json:"parent,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// Application is an Authentik application.
type Application struct {
	PK            string `json:"pk,omitempty"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Provider      int    `json:"provider,omitempty"`
	MetaLaunchURL string `json:"meta_launch_url,omitempty"`
	OpenInNewTab  bool   `json:"open_in_new_tab"`
}

// RedirectURI is a single allowed OAuth2 redirect URI.
type RedirectURI struct {
	MatchingMode string `json:"matching_mode"`
	URL          string `json:"url"`
}

// Provider is an Authentik provider. ClientSecret is only returned on
// OAuth2 provider creation and retrieval.
type Provider struct {
	PK                int           `json:"pk,omitempty"`
	Name              string        `json:"name"`
	AuthorizationFlow string        `json:"authorization_flow,omitempty"`
	ClientID          string        `json:"client_id,omitempty"`
	ClientSecret      string        `json:"client_secret,omitempty"`
	ClientType        string        `json:"client_type,omitempty"`
	RedirectURIs      []RedirectURI `json:"redirect_uris,omitempty"`
	ExternalHost      string        `json:"external_host,omitempty"`
	Mode              string        `json:"mode,omitempty"`
}

// Token is an Authentik API token.
type Token struct {
	PK          string `json:"pk,omitempty"`
	Identifier  string `json:"identifier"`
	User        int    `json:"user"`
	Intent      string `json:"intent,omitempty"`
	Expiring    bool   `json:"expiring"`
	Description string `json:"description,omitempty"`
}

// Flow is an Authentik flow.
type Flow struct {
	PK          string `json:"pk,omitempty"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
}

// ClientConfig is the configuration of Client.
type ClientConfig struct {
	// BaseURL is the Authentik instance URL (e.g `https://auth.example.com`).
	BaseURL string
	// Token is an API token with enough permissions for the operations used.
	Token string
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

	if c.Token == "" {
		return fmt.Errorf("API token is required")
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "authentik.Client"})

	return nil
}

// Client talks to a single Authentik instance.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     log.Logger
}

// NewClient returns a new Authentik API client.
func NewClient(config ClientConfig) (*Client, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    config.BaseURL,
		token:      config.Token,
		httpClient: config.HTTPClient,
		logger:     config.Logger,
	}, nil
}

type page[T any] struct {
	Results []T `json:"results"`
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body, out any) error {
	u := fmt.Sprintf("%s/api/v3/%s", c.baseURL, strings.TrimLeft(endpoint, "/"))
	if len(params) > 0 {
		u = fmt.Sprintf("%s?%s", u, params.Encode())
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	c.logger.Debugf("%s %s", method, u)

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
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

func list[T any](ctx context.Context, c *Client, endpoint string, params url.Values) ([]T, error) {
	result := page[T]{}
	if err := c.do(ctx, http.MethodGet, endpoint, params, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// ListUsers lists users, optionally filtered by a search term.
func (c *Client) ListUsers(ctx context.Context, search string) ([]User, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	return list[User](ctx, c, "/core/users/", params)
}

// GetUser returns a user by ID.
func (c *Client) GetUser(ctx context.Context, userID int) (*User, error) {
	user := User{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/core/users/%d/", userID), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user.
func (c *Client) CreateUser(ctx context.Context, user User) (*User, error) {
	c.logger.Infof("Creating user %s", user.Username)

	created := User{}
	if err := c.do(ctx, http.MethodPost, "/core/users/", nil, user, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateUser patches a user with the given fields.
func (c *Client) UpdateUser(ctx context.Context, userID int, fields map[string]any) (*User, error) {
	c.logger.Infof("Updating user %d", userID)

	updated := User{}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/core/users/%d/", userID), nil, fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteUser deletes a user.
func (c *Client) DeleteUser(ctx context.Context, userID int) error {
	c.logger.Infof("Deleting user %d", userID)

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/core/users/%d/", userID), nil, nil, nil)
}

// SetUserPassword sets a user's password.
func (c *Client) SetUserPassword(ctx context.Context, userID int, password string) error {
	c.logger.Infof("Setting password for user %d", userID)

	body := map[string]string{"password": password}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/core/users/%d/set_password/", userID), nil, body, nil)
}

// ListGroups lists groups, optionally filtered by a search term.
func (c *Client) ListGroups(ctx context.Context, search string) ([]Group, error) {
	params := url.Values{}
	if search != "" {
		params.Set("search", search)
	}
	return list[Group](ctx, c, "/core/groups/", params)
}

// GetGroup returns a group by UUID.
func (c *Client) GetGroup(ctx context.Context, groupID string) (*Group, error) {
	group := Group{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/core/groups/%s/", groupID), nil, nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// CreateGroup creates a new group.
func (c *Client) CreateGroup(ctx context.Context, group Group) (*Group, error) {
	c.logger.Infof("Creating group %s", group.Name)

	created := Group{}
	if err := c.do(ctx, http.MethodPost, "/core/groups/", nil, group, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, groupID string) error {
	c.logger.Infof("Deleting group %s", groupID)

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/core/groups/%s/", groupID), nil, nil, nil)
}

// AddUserToGroup adds a user to a group. Adding an already present user is a
// no-op.
func (c *Client) AddUserToGroup(ctx context.Context, userID int, groupID string) error {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	for _, g := range user.Groups {
		if g == groupID {
			return nil
		}
	}

	_, err = c.UpdateUser(ctx, userID, map[string]any{
		"groups": append(user.Groups, groupID),
	})
	return err
}

// RemoveUserFromGroup removes a user from a group. Removing an absent user
// is a no-op.
func (c *Client) RemoveUserFromGroup(ctx context.Context, userID int, groupID string) error {
	user, err := c.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	groups := make([]string, 0, len(user.Groups))
	for _, g := range user.Groups {
		if g != groupID {
			groups = append(groups, g)
		}
	}
	if len(groups) == len(user.Groups) {
		return nil
	}

	_, err = c.UpdateUser(ctx, userID, map[string]any{"groups": groups})
	return err
}

// ListApplications lists applications.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	return list[Application](ctx, c, "/core/applications/", nil)
}

// GetApplication returns an application by slug.
func (c *Client) GetApplication(ctx context.Context, slug string) (*Application, error) {
	app := Application{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/core/applications/%s/", slug), nil, nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// CreateApplication creates a new application.
func (c *Client) CreateApplication(ctx context.Context, app Application) (*Application, error) {
	c.logger.Infof("Creating application %s", app.Name)

	created := Application{}
	if err := c.do(ctx, http.MethodPost, "/core/applications/", nil, app, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateApplication patches an application with the given fields.
func (c *Client) UpdateApplication(ctx context.Context, slug string, fields map[string]any) (*Application, error) {
	c.logger.Infof("Updating application %s", slug)

	updated := Application{}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/core/applications/%s/", slug), nil, fields, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteApplication deletes an application by slug.
func (c *Client) DeleteApplication(ctx context.Context, slug string) error {
	c.logger.Infof("Deleting application %s", slug)

	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/core/applications/%s/", slug), nil, nil, nil)
}

// ListProviders lists providers of a given type (oauth2, proxy, saml,
// ldap...). An empty type lists all of them.
func (c *Client) ListProviders(ctx context.Context, providerType string) ([]Provider, error) {
	endpoint := "/providers/all/"
	if providerType != "" {
		endpoint = fmt.Sprintf("/providers/%s/", providerType)
	}
	return list[Provider](ctx, c, endpoint, nil)
}

// CreateOAuth2Provider creates an OAuth2 provider. The returned provider
// carries the generated client secret.
func (c *Client) CreateOAuth2Provider(ctx context.Context, provider Provider) (*Provider, error) {
	c.logger.Infof("Creating OAuth2 provider %s", provider.Name)

	created := Provider{}
	if err := c.do(ctx, http.MethodPost, "/providers/oauth2/", nil, provider, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateProxyProvider creates a proxy provider for forward auth.
func (c *Client) CreateProxyProvider(ctx context.Context, provider Provider) (*Provider, error) {
	c.logger.Infof("Creating proxy provider %s", provider.Name)

	if provider.Mode == "" {
		provider.Mode = "forward_single"
	}

	created := Provider{}
	if err := c.do(ctx, http.MethodPost, "/providers/proxy/", nil, provider, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListFlows lists flows.
func (c *Client) ListFlows(ctx context.Context) ([]Flow, error) {
	return list[Flow](ctx, c, "/flows/instances/", nil)
}

// GetFlow returns a flow by slug.
func (c *Client) GetFlow(ctx context.Context, slug string) (*Flow, error) {
	flow := Flow{}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/flows/instances/%s/", slug), nil, nil, &flow); err != nil {
		return nil, err
	}
	return &flow, nil
}

// ListTokens lists API tokens, optionally filtered by the owning user. A
// zero userID lists everyone's tokens.
func (c *Client) ListTokens(ctx context.Context, userID int) ([]Token, error) {
	params := url.Values{}
	if userID > 0 {
		params.Set("user", strconv.Itoa(userID))
	}
	return list[Token](ctx, c, "/core/tokens/", params)
}

// CreateToken creates an API token for a user. Intent defaults to `api`.
func (c *Client) CreateToken(ctx context.Context, token Token) (*Token, error) {
	c.logger.Infof("Creating token %s", token.Identifier)

	if token.Intent == "" {
		token.Intent = "api"
	}

	created := Token{}
	if err := c.do(ctx, http.MethodPost, "/core/tokens/", nil, token, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// SystemInfo returns the instance's system information.
func (c *Client) SystemInfo(ctx context.Context) (map[string]any, error) {
	info := map[string]any{}
	if err := c.do(ctx, http.MethodGet, "/admin/system/", nil, nil, &info); err != nil {
		return nil, err
	}
	return info, nil
}

// HealthCheck reports whether the instance answers API requests.
func (c *Client) HealthCheck(ctx context.Context) bool {
	err := c.do(ctx, http.MethodGet, "/root/config/", nil, nil, nil)
	return err == nil
}
