// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/kawagoe/orgaudit/internal/config"
	"github.com/kawagoe/orgaudit/internal/domain"
	"github.com/kawagoe/orgaudit/internal/gateway"
	"github.com/kawagoe/orgaudit/internal/ui"
	"github.com/kawagoe/orgaudit/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "orgaudit <organization>",
	Short: "Audit branch protection compliance across a GitHub organization",
	Long: `orgaudit checks every repository in a GitHub organization for two
compliance requirements: the primary branch (main, or master if main does
not exist) must have branch protection enabled, and the protected branch
must require signed commits. Non-compliant repositories are reported with
their issues as they are found, followed by a summary.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Int("limit", 1000, "Maximum number of repositories to scan")
	rootCmd.Flags().Int("concurrency", 4, "Number of repositories checked in parallel (1 = sequential)")
	rootCmd.Flags().String("format", ui.FormatText, "Output format: text, json, or table")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

func runScan(cmd *cobra.Command, args []string) error {
	// Arguments are validated by now; usage output would only add noise to
	// runtime failures such as a bad token or an unreachable API.
	cmd.SilenceUsage = true

	ctx := context.Background()
	org := args[0]

	// Set up the debug logger: discarded by default, stderr when verbose.
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	format, _ := cmd.Flags().GetString("format")
	if !ui.ValidFormat(format) {
		return fmt.Errorf("unsupported format %q (expected text, json, or table)", format)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	// Issue blocks stream only in text mode; json and table render once the
	// full report is assembled. JSON keeps stdout clean for piping, so all
	// terminal chrome is skipped for it.
	streaming := format == ui.FormatText
	chrome := format != ui.FormatJSON

	if chrome {
		ui.PrintFetching(org)
	}

	var progress *pterm.ProgressbarPrinter
	opts := usecase.Options{
		Limit:       limit,
		Concurrency: concurrency,
	}
	if chrome {
		opts.OnBegin = func(total int) {
			ui.PrintFound(total, streaming)
			progress, _ = pterm.DefaultProgressbar.WithTotal(total).WithTitle("Checking repositories").Start()
		}
		opts.OnProgress = func(done, total int, repo string) {
			if progress != nil {
				progress.UpdateTitle(repo)
				progress.Increment()
			}
		}
	}
	if streaming {
		opts.OnIssue = func(result *domain.RepoResult) {
			ui.PrintRepoIssues(org, result)
		}
	}

	scanner := usecase.NewScanner(githubGateway, logger, opts)
	report, err := scanner.Scan(ctx, org)
	if progress != nil {
		progress.Stop()
	}
	if err != nil {
		return err
	}

	switch format {
	case ui.FormatJSON:
		return ui.RenderJSON(os.Stdout, report)
	case ui.FormatTable:
		ui.RenderTable(os.Stdout, report)
	}
	ui.PrintSummary(report)
	return nil
}
