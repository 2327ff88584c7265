package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/adsysio/adsys/internal/authentik"
	"github.com/adsysio/adsys/internal/keycloak"
	"github.com/adsysio/adsys/internal/model"
)

// TablePrinter prints information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintExecResult prints the output of a command execution.
func (t *TablePrinter) PrintExecResult(result model.ExecResult) error {
	if result.Stdout != "" {
		fmt.Fprintln(t.writer, result.Stdout)
	}
	if result.Stderr != "" {
		fmt.Fprintln(t.writer, result.Stderr)
	}
	if !result.OK() {
		fmt.Fprintf(t.writer, "exit code: %d\n", result.ExitCode)
	}

	return nil
}

// PrintExecutionList prints execution history in a table format.
func (t *TablePrinter) PrintExecutionList(executions []model.Execution) error {
	if len(executions) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tCOMMAND\tEXIT\tDURATION\tWHEN")

	for _, e := range executions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			e.ID, e.Command, e.ExitCode, e.Duration, TimeAgo(e.CreatedAt))
	}

	return nil
}

// PrintContainerList prints containers in a table format.
func (t *TablePrinter) PrintContainerList(containers []model.Container) error {
	if len(containers) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tIMAGE\tSTATUS")

	for _, c := range containers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Image, c.Status)
	}

	return nil
}

// PrintInstanceList prints cloud instances in a table format.
func (t *TablePrinter) PrintInstanceList(instances []model.Instance) error {
	if len(instances) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tSTATE\tTYPE\tPUBLIC IP\tPRIVATE IP")

	for _, i := range instances {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			i.ID, i.Name, i.State, i.Type, i.PublicIP, i.PrivateIP)
	}

	return nil
}

// PrintUserList prints identity provider users in a table format.
func (t *TablePrinter) PrintUserList(users []authentik.User) error {
	if len(users) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tEMAIL\tACTIVE")

	for _, u := range users {
		active := "no"
		if u.IsActive {
			active = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.PK, u.Username, u.Name, u.Email, active)
	}

	return nil
}

// PrintGroupList prints identity provider groups in a table format.
func (t *TablePrinter) PrintGroupList(groups []authentik.Group) error {
	if len(groups) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tSUPERUSER")

	for _, g := range groups {
		superuser := "no"
		if g.IsSuperuser {
			superuser = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", g.PK, g.Name, superuser)
	}

	return nil
}

// PrintOAuthResults prints OAuth provisioning results in a table format.
func (t *TablePrinter) PrintOAuthResults(results []authentik.OAuthResult) error {
	if len(results) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "APP\tCLIENT ID\tSTATUS")

	for _, r := range results {
		status := "created"
		if r.Err != nil {
			status = fmt.Sprintf("failed: %s", r.Err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.App.AppName, r.App.ClientID, status)
	}

	return nil
}

// PrintMigrationReport prints a migration summary.
func (t *TablePrinter) PrintMigrationReport(report keycloak.Report) error {
	fmt.Fprintf(t.writer, "Groups migrated:  %d\n", report.GroupsMigrated)
	fmt.Fprintf(t.writer, "Groups failed:    %d\n", report.GroupsFailed)
	fmt.Fprintf(t.writer, "Users migrated:   %d\n", report.UsersMigrated)
	fmt.Fprintf(t.writer, "Users failed:     %d\n", report.UsersFailed)

	if len(report.Errors) > 0 {
		fmt.Fprintln(t.writer, "\nErrors:")
		for _, e := range report.Errors {
			fmt.Fprintf(t.writer, "  %s %s: %s\n", e.Type, e.Name, e.Error)
		}
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
