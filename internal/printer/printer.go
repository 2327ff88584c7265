package printer

import (
	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/keycloak"
	"github.com/adsysio/adsys/internal/model"
)

// Printer knows how to print command results and resource listings in
// different formats.
type Printer interface {
	PrintExecResult(result model.ExecResult) error
	PrintExecutionList(executions []model.Execution) error
	PrintContainerList(containers []model.Container) error
	PrintInstanceList(instances []model.Instance) error
	PrintUserList(users []authentik.User) error
	PrintGroupList(groups []authentik.Group) error
	PrintOAuthResults(results []authentik.OAuthResult) error
	PrintMigrationReport(report keycloak.Report) error
	PrintMessage(msg string) error
}
