package keycloak

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/log"
)

// Source is the Keycloak surface the migrator reads from.
type Source interface {
	ListGroups(ctx context.Context) ([]Group, error)
	ExportUsersMinimal(ctx context.Context) ([]MigrationUser, error)
}

// Target is the Authentik surface the migrator writes to.
type Target interface {
	ListGroups(ctx context.Context, search string) ([]authentik.Group, error)
	CreateGroup(ctx context.Context, group authentik.Group) (*authentik.Group, error)
	ListUsers(ctx context.Context, search string) ([]authentik.User, error)
	CreateUser(ctx context.Context, user authentik.User) (*authentik.User, error)
	SetUserPassword(ctx context.Context, userID int, password string) error
}

// User migration statuses.
const (
	StatusCreated = "created"
	StatusExists  = "exists"
	StatusFailed  = "failed"
	StatusDryRun  = "dry_run"
)

// UserResult is the outcome of migrating a single user.
type UserResult struct {
	Username    string `json:"username"`
	Status      string `json:"status"`
	AuthentikID int    `json:"authentik_id,omitempty"`
	Error       string `json:"error,omitempty"`
}

// MigrationError records one failed item.
type MigrationError struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Report summarizes a migration run.
type Report struct {
	GroupsMigrated int               `json:"groups_migrated"`
	GroupsFailed   int               `json:"groups_failed"`
	UsersMigrated  int               `json:"users_migrated"`
	UsersFailed    int               `json:"users_failed"`
	Errors         []MigrationError  `json:"errors"`
	GroupMapping   map[string]string `json:"group_mapping,omitempty"`
	UserResults    []UserResult      `json:"user_results,omitempty"`
}

// Save writes the report to a JSON file.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	return nil
}

// MigratorConfig is the configuration of Migrator.
type MigratorConfig struct {
	Source Source
	Target Target
	// DefaultPassword, when set, is assigned to every created user.
	// Password hashes cannot be copied between the two systems, so
	// without it users must go through a password reset.
	DefaultPassword string
	// DryRun logs what would happen without writing anything.
	DryRun bool
	Logger log.Logger
}

func (c *MigratorConfig) defaults() error {
	if c.Source == nil {
		return fmt.Errorf("source is required")
	}
	if c.Target == nil {
		return fmt.Errorf("target is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "keycloak.Migrator"})

	return nil
}

// Migrator copies groups and users from Keycloak into Authentik. Items that
// already exist on the target are reused, and individual failures do not
// abort the run.
type Migrator struct {
	source          Source
	target          Target
	defaultPassword string
	dryRun          bool
	logger          log.Logger

	report Report
}

// NewMigrator returns a new migrator.
func NewMigrator(config MigratorConfig) (*Migrator, error) {
	err := config.defaults()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Migrator{
		source:          config.Source,
		target:          config.Target,
		defaultPassword: config.DefaultPassword,
		dryRun:          config.DryRun,
		logger:          config.Logger,
	}, nil
}

// MigrateGroups migrates the groups and returns a mapping of Keycloak group
// names to Authentik group UUIDs.
func (m *Migrator) MigrateGroups(ctx context.Context) (map[string]string, error) {
	m.logger.Infof("Migrating groups")

	groups, err := m.source.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list source groups: %w", err)
	}

	mapping := map[string]string{}
	for _, group := range groups {
		id, err := m.migrateGroup(ctx, group)
		if err != nil {
			m.logger.Errorf("Could not migrate group %s: %s", group.Name, err)
			m.report.GroupsFailed++
			m.report.Errors = append(m.report.Errors, MigrationError{
				Type: "group", Name: group.Name, Error: err.Error(),
			})
			continue
		}

		mapping[group.Name] = id
		m.report.GroupsMigrated++
	}

	m.logger.Infof("Group migration complete: %d succeeded, %d failed",
		m.report.GroupsMigrated, m.report.GroupsFailed)

	return mapping, nil
}

func (m *Migrator) migrateGroup(ctx context.Context, group Group) (string, error) {
	if m.dryRun {
		m.logger.Infof("[dry run] Would create group %s", group.Name)
		return "dry-run-" + group.Name, nil
	}

	existing, err := m.target.ListGroups(ctx, group.Name)
	if err != nil {
		return "", fmt.Errorf("could not search target groups: %w", err)
	}
	for _, g := range existing {
		if g.Name == group.Name {
			m.logger.Infof("Group %s already exists", group.Name)
			return g.PK, nil
		}
	}

	created, err := m.target.CreateGroup(ctx, authentik.Group{
		Name:       group.Name,
		Attributes: attributesToAny(group.Attributes),
	})
	if err != nil {
		return "", fmt.Errorf("could not create group: %w", err)
	}

	m.logger.Infof("Created group %s -> %s", group.Name, created.PK)

	return created.PK, nil
}

// MigrateUsers migrates the users, mapping their group memberships through
// groupMapping. A nil mapping migrates users without groups.
func (m *Migrator) MigrateUsers(ctx context.Context, groupMapping map[string]string) ([]UserResult, error) {
	m.logger.Infof("Migrating users")

	users, err := m.source.ExportUsersMinimal(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not export source users: %w", err)
	}

	results := make([]UserResult, 0, len(users))
	for _, user := range users {
		result := m.migrateUser(ctx, user, groupMapping)
		if result.Status == StatusFailed {
			m.report.UsersFailed++
			m.report.Errors = append(m.report.Errors, MigrationError{
				Type: "user", Name: user.Username, Error: result.Error,
			})
		} else {
			m.report.UsersMigrated++
		}
		results = append(results, result)
	}

	m.logger.Infof("User migration complete: %d succeeded, %d failed",
		m.report.UsersMigrated, m.report.UsersFailed)

	return results, nil
}

func (m *Migrator) migrateUser(ctx context.Context, user MigrationUser, groupMapping map[string]string) UserResult {
	name := strings.TrimSpace(fmt.Sprintf("%s %s", user.FirstName, user.LastName))
	if name == "" {
		name = user.Username
	}

	groups := []string{}
	for _, groupName := range user.Groups {
		if id, ok := groupMapping[groupName]; ok {
			groups = append(groups, id)
		}
	}

	if m.dryRun {
		m.logger.Infof("[dry run] Would create user %s (%s) with groups %v", user.Username, name, groups)
		return UserResult{Username: user.Username, Status: StatusDryRun}
	}

	existing, err := m.target.ListUsers(ctx, user.Username)
	if err != nil {
		return UserResult{Username: user.Username, Status: StatusFailed, Error: err.Error()}
	}
	for _, u := range existing {
		if u.Username == user.Username {
			m.logger.Infof("User %s already exists", user.Username)
			return UserResult{Username: user.Username, Status: StatusExists, AuthentikID: u.PK}
		}
	}

	created, err := m.target.CreateUser(ctx, authentik.User{
		Username:   user.Username,
		Name:       name,
		Email:      user.Email,
		IsActive:   user.Enabled,
		Groups:     groups,
		Attributes: attributesToAny(user.Attributes),
	})
	if err != nil {
		return UserResult{Username: user.Username, Status: StatusFailed, Error: err.Error()}
	}

	m.logger.Infof("Created user %s -> %d", user.Username, created.PK)

	if m.defaultPassword != "" {
		if err := m.target.SetUserPassword(ctx, created.PK, m.defaultPassword); err != nil {
			m.logger.Warningf("Could not set password for %s: %s", user.Username, err)
		}
	}

	return UserResult{Username: user.Username, Status: StatusCreated, AuthentikID: created.PK}
}

// MigrateAll migrates groups first and then users with their group
// memberships, returning the full report.
func (m *Migrator) MigrateAll(ctx context.Context) (*Report, error) {
	m.logger.Infof("Starting full migration")

	mapping, err := m.MigrateGroups(ctx)
	if err != nil {
		return nil, err
	}

	results, err := m.MigrateUsers(ctx, mapping)
	if err != nil {
		return nil, err
	}

	report := m.report
	report.GroupMapping = mapping
	report.UserResults = results

	m.logger.Infof("Migration summary: %d/%d groups, %d/%d users, %d errors",
		report.GroupsMigrated, report.GroupsMigrated+report.GroupsFailed,
		report.UsersMigrated, report.UsersMigrated+report.UsersFailed,
		len(report.Errors))

	return &report, nil
}

func attributesToAny(attrs map[string][]string) map[string]any {
	if len(attrs) == 0 {
		return nil
	}

	result := make(map[string]any, len(attrs))
	for k, v := range attrs {
		result[k] = v
	}
	return result
}
