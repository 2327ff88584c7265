package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/keycloak"
	"github.com/adsysio/adsys/internal/model"
)

// JSONPrinter prints information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// execResultOutput represents a command execution result.
type execResultOutput struct {
	Command  string `json:"command"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
	Duration string `json:"duration"`
}

// PrintExecResult prints a command execution result in JSON format.
func (j *JSONPrinter) PrintExecResult(result model.ExecResult) error {
	return j.encode(execResultOutput{
		Command:  result.Command,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
		ExitCode: result.ExitCode,
		Duration: result.Duration.String(),
	})
}

// executionItem represents one execution history record.
type executionItem struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	ExitCode   int       `json:"exit_code"`
	WorkingDir string    `json:"working_dir,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// PrintExecutionList prints execution history in JSON format.
func (j *JSONPrinter) PrintExecutionList(executions []model.Execution) error {
	items := make([]executionItem, len(executions))
	for i, e := range executions {
		items[i] = executionItem{
			ID:         e.ID,
			Command:    e.Command,
			ExitCode:   e.ExitCode,
			WorkingDir: e.WorkingDir,
			DurationMS: e.Duration.Milliseconds(),
			CreatedAt:  e.CreatedAt.UTC(),
		}
	}
	return j.encode(items)
}

// containerItem represents one container.
type containerItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image"`
	Status string `json:"status"`
}

// PrintContainerList prints containers in JSON format.
func (j *JSONPrinter) PrintContainerList(containers []model.Container) error {
	items := make([]containerItem, len(containers))
	for i, c := range containers {
		items[i] = containerItem{ID: c.ID, Name: c.Name, Image: c.Image, Status: c.Status}
	}
	return j.encode(items)
}

// instanceItem represents one cloud instance.
type instanceItem struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	State     string `json:"state"`
	Type      string `json:"type,omitempty"`
	Region    string `json:"region,omitempty"`
	PublicIP  string `json:"public_ip,omitempty"`
	PrivateIP string `json:"private_ip,omitempty"`
}

// PrintInstanceList prints cloud instances in JSON format.
func (j *JSONPrinter) PrintInstanceList(instances []model.Instance) error {
	items := make([]instanceItem, len(instances))
	for i, inst := range instances {
		items[i] = instanceItem{
			ID:        inst.ID,
			Name:      inst.Name,
			State:     inst.State,
			Type:      inst.Type,
			Region:    inst.Region,
			PublicIP:  inst.PublicIP,
			PrivateIP: inst.PrivateIP,
		}
	}
	return j.encode(items)
}

// PrintUserList prints identity provider users in JSON format.
func (j *JSONPrinter) PrintUserList(users []authentik.User) error {
	return j.encode(users)
}

// PrintGroupList prints identity provider groups in JSON format.
func (j *JSONPrinter) PrintGroupList(groups []authentik.Group) error {
	return j.encode(groups)
}

// oauthResultItem represents one OAuth provisioning result.
type oauthResultItem struct {
	AppName      string `json:"app_name"`
	AppSlug      string `json:"app_slug"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret,omitempty"`
	Error        string `json:"error,omitempty"`
}

// PrintOAuthResults prints OAuth provisioning results in JSON format.
func (j *JSONPrinter) PrintOAuthResults(results []authentik.OAuthResult) error {
	items := make([]oauthResultItem, len(results))
	for i, r := range results {
		items[i] = oauthResultItem{
			AppName:      r.App.AppName,
			AppSlug:      r.App.AppSlug,
			ClientID:     r.App.ClientID,
			ClientSecret: r.ClientSecret,
		}
		if r.Err != nil {
			items[i].Error = r.Err.Error()
		}
	}
	return j.encode(items)
}

// PrintMigrationReport prints a migration report in JSON format.
func (j *JSONPrinter) PrintMigrationReport(report keycloak.Report) error {
	return j.encode(report)
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}
