// Package ui renders scan progress and compliance reports to the terminal.
package ui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/pterm/pterm"

	"github.com/kawagoe/orgaudit/internal/domain"
)

// Supported output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatTable = "table"
)

// ValidFormat reports whether format names a supported output format.
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatTable:
		return true
	}
	return false
}

// PrintFetching announces the repository listing for an organization.
func PrintFetching(org string) {
	pterm.Info.Printf("Fetching repositories for organization: %s...\n", org)
}

// PrintFound announces the repository count before the checks start.
func PrintFound(total int, streaming bool) {
	pterm.Info.Printf("Found %d repositories. Checking compliance for each repository...\n", total)
	if streaming {
		pterm.Println()
		pterm.Println("Repositories not meeting requirements:")
	}
}

// PrintRepoIssues prints the issue block for a non-compliant repository as
// soon as its result is known.
func PrintRepoIssues(org string, result *domain.RepoResult) {
	pterm.Println()
	pterm.Printf("%s/%s:\n", org, result.Name)
	for _, issue := range result.Issues {
		pterm.Printf("  - %s\n", pterm.Red(issue))
	}
}

// PrintSummary prints the final compliance summary line.
func PrintSummary(report *domain.Report) {
	pterm.Println()
	if report.NonCompliant == 0 {
		pterm.Println("All repositories meet the requirements.")
		return
	}
	pterm.Printf("Total: %d non-compliant repositories out of %d\n", report.NonCompliant, report.TotalRepos)
}

// RenderJSON writes the full report as indented JSON.
func RenderJSON(w io.Writer, report *domain.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// RenderTable writes a per-repository status table in listing order.
func RenderTable(w io.Writer, report *domain.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Repository", "Branch", "Status"})
	for _, result := range report.Results {
		status := "OK"
		if !result.Compliant() {
			status = result.Issues[0]
		}
		table.Append([]string{result.Name, result.Branch, status})
	}
	table.Render()
}
