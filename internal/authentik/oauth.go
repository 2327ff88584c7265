package authentik

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adsysio/adsys/internal/log"
	"github.com/adsysio/adsys/internal/model"
)

// OAuthApp is the declarative description of one OAuth2 provider and its
// application.
type OAuthApp struct {
	AppName      string   `yaml:"app_name" json:"app_name"`
	AppSlug      string   `yaml:"app_slug" json:"app_slug"`
	ClientID     string   `yaml:"client_id" json:"client_id"`
	RedirectURIs []string `yaml:"redirect_uris" json:"redirect_uris"`
	LaunchURL    string   `yaml:"launch_url" json:"launch_url"`
	// ClientType is `confidential` or `public`. Empty means confidential.
	ClientType  string `yaml:"client_type,omitempty" json:"client_type,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

func (a *OAuthApp) validate() error {
	if a.AppName == "" || a.AppSlug == "" || a.ClientID == "" {
		return fmt.Errorf("app_name, app_slug and client_id are required: %w", model.ErrNotValid)
	}
	if a.ClientType == "" {
		a.ClientType = "confidential"
	}
	return nil
}

// LoadOAuthApps loads app declarations from a YAML or JSON file. The file
// can be a plain list or a map with an `apps` key.
func LoadOAuthApps(path string) ([]OAuthApp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	wrapper := struct {
		Apps []OAuthApp `yaml:"apps"`
	}{}
	if err := yaml.Unmarshal(data, &wrapper); err == nil && len(wrapper.Apps) > 0 {
		return wrapper.Apps, nil
	}

	apps := []OAuthApp{}
	if err := yaml.Unmarshal(data, &apps); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}

	return apps, nil
}

// OAuthResult is the outcome of provisioning a single app. A nil Err means
// the provider and application were created.
type OAuthResult struct {
	App          OAuthApp
	ClientSecret string
	Err          error
}

// OAuthManagerConfig is the configuration of OAuthManager.
type OAuthManagerConfig struct {
	Client *Client
	// AuthorizationFlow is the slug of the flow used for new providers.
	// Empty picks the first flow with the authorization designation.
	AuthorizationFlow string
	Logger            log.Logger
}

func (c *OAuthManagerConfig) defaults() error {
	if c.Client == nil {
		return fmt.Errorf("client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "authentik.OAuthManager"})

	return nil
}

// OAuthManager provisions OAuth2 providers and their applications in bulk
// from declarative configuration.
type OAuthManager struct {
	client   *Client
	authFlow string
	logger   log.Logger
}

// NewOAuthManager returns a new OAuth manager.
func NewOAuthManager(config OAuthManagerConfig) (*OAuthManager, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &OAuthManager{
		client:   config.Client,
		authFlow: config.AuthorizationFlow,
		logger:   config.Logger,
	}, nil
}

// CreateProvider provisions the OAuth2 provider and application of a single
// app and returns its generated client secret.
func (m *OAuthManager) CreateProvider(ctx context.Context, app OAuthApp) (*OAuthResult, error) {
	if err := app.validate(); err != nil {
		return nil, err
	}

	flow, err := m.authorizationFlow(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := m.client.ListProviders(ctx, "oauth2")
	if err != nil {
		return nil, fmt.Errorf("could not list providers: %w", err)
	}
	for _, p := range existing {
		if p.ClientID == app.ClientID {
			return nil, fmt.Errorf("provider with client id %s: %w", app.ClientID, model.ErrAlreadyExists)
		}
	}

	uris := make([]RedirectURI, 0, len(app.RedirectURIs))
	for _, u := range app.RedirectURIs {
		uris = append(uris, RedirectURI{MatchingMode: "strict", URL: u})
	}

	m.logger.Infof("Creating OAuth provider %s (%s)", app.AppName, app.ClientID)

	provider, err := m.client.CreateOAuth2Provider(ctx, Provider{
		Name:              fmt.Sprintf("%s Provider", app.AppName),
		AuthorizationFlow: flow,
		ClientID:          app.ClientID,
		ClientType:        app.ClientType,
		RedirectURIs:      uris,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create provider: %w", err)
	}

	if err := m.ensureApplication(ctx, app, provider.PK); err != nil {
		return nil, err
	}

	return &OAuthResult{App: app, ClientSecret: provider.ClientSecret}, nil
}

// CreateProviders provisions all the apps, continuing past individual
// failures. The returned slice has one result per app, in order.
func (m *OAuthManager) CreateProviders(ctx context.Context, apps []OAuthApp) []OAuthResult {
	m.logger.Infof("Creating %d OAuth providers", len(apps))

	results := make([]OAuthResult, 0, len(apps))
	ok := 0
	for _, app := range apps {
		result, err := m.CreateProvider(ctx, app)
		if err != nil {
			m.logger.Errorf("Could not create %s: %s", app.ClientID, err)
			results = append(results, OAuthResult{App: app, Err: err})
			continue
		}
		results = append(results, *result)
		ok++
	}

	m.logger.Infof("Created %d/%d providers", ok, len(apps))

	return results
}

// DeleteProvider deletes the OAuth2 provider with the given client id.
func (m *OAuthManager) DeleteProvider(ctx context.Context, clientID string) error {
	providers, err := m.client.ListProviders(ctx, "oauth2")
	if err != nil {
		return fmt.Errorf("could not list providers: %w", err)
	}

	for _, p := range providers {
		if p.ClientID == clientID {
			m.logger.Infof("Deleting OAuth provider %s", clientID)
			return m.client.do(ctx, "DELETE", fmt.Sprintf("/providers/oauth2/%d/", p.PK), nil, nil, nil)
		}
	}

	return fmt.Errorf("provider with client id %s: %w", clientID, model.ErrNotFound)
}

func (m *OAuthManager) authorizationFlow(ctx context.Context) (string, error) {
	if m.authFlow != "" {
		return m.authFlow, nil
	}

	flows, err := m.client.ListFlows(ctx)
	if err != nil {
		return "", fmt.Errorf("could not list flows: %w", err)
	}

	for _, f := range flows {
		if f.Designation == "authorization" {
			return f.PK, nil
		}
	}

	return "", fmt.Errorf("no authorization flow: %w", model.ErrNotFound)
}

func (m *OAuthManager) ensureApplication(ctx context.Context, app OAuthApp, providerPK int) error {
	existing, err := m.client.GetApplication(ctx, app.AppSlug)
	switch {
	case err == nil:
		if existing.Provider == providerPK {
			return nil
		}
		_, err := m.client.UpdateApplication(ctx, app.AppSlug, map[string]any{"provider": providerPK})
		if err != nil {
			return fmt.Errorf("could not update application %s: %w", app.AppSlug, err)
		}
		return nil

	case errors.Is(err, model.ErrNotFound):
		_, err := m.client.CreateApplication(ctx, Application{
			Name:          app.AppName,
			Slug:          app.AppSlug,
			Provider:      providerPK,
			MetaLaunchURL: app.LaunchURL,
		})
		if err != nil {
			return fmt.Errorf("could not create application %s: %w", app.AppSlug, err)
		}
		return nil

	default:
		return fmt.Errorf("could not get application %s: %w", app.AppSlug, err)
	}
}

// WriteEnvFile appends the credentials of the successful results to an env
// file, one CLIENT_ID/CLIENT_SECRET pair per app.
func WriteEnvFile(path string, results []OAuthResult) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString("\n# ====== OAUTH PROVIDERS ======\n")
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		prefix := strings.ToUpper(strings.ReplaceAll(r.App.AppSlug, "-", "_"))
		fmt.Fprintf(&b, "\n# %s\n", r.App.AppName)
		fmt.Fprintf(&b, "%s_CLIENT_ID=%s\n", prefix, r.App.ClientID)
		fmt.Fprintf(&b, "%s_CLIENT_SECRET=%s\n", prefix, r.ClientSecret)
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	return nil
}
