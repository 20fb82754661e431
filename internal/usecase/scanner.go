// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/kawagoe/orgaudit/internal/domain"
	"github.com/kawagoe/orgaudit/internal/gateway"
)

// primaryBranches are probed in order; the first existing branch wins.
var primaryBranches = []string{"main", "master"}

const (
	defaultConcurrency = 4
	defaultLimit       = 1000
)

// BeginFunc is invoked once after the repository listing succeeds.
type BeginFunc func(total int)

// IssueFunc is invoked as soon as a repository is found non-compliant.
type IssueFunc func(result *domain.RepoResult)

// ProgressFunc is invoked after each repository finishes, with the running totals.
type ProgressFunc func(done, total int, repo string)

// Options configures a Scanner.
type Options struct {
	// Concurrency bounds how many repositories are checked in parallel.
	// 1 makes the scan strictly sequential.
	Concurrency int
	// Limit caps the repository listing.
	Limit int

	OnBegin    BeginFunc
	OnIssue    IssueFunc
	OnProgress ProgressFunc
}

// Scanner evaluates every repository in an organization against the
// branch-protection and commit-signing requirements.
type Scanner struct {
	auditor gateway.Auditor
	logger  *log.Logger
	opts    Options
}

// NewScanner creates a new Scanner instance.
func NewScanner(auditor gateway.Auditor, logger *log.Logger, opts Options) *Scanner {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Limit < 1 {
		opts.Limit = defaultLimit
	}
	return &Scanner{
		auditor: auditor,
		logger:  logger,
		opts:    opts,
	}
}

// Scan lists the organization's repositories and evaluates each one.
// Repositories are checked through a bounded worker group; results are
// stored by listing index so the report order matches the listing order
// regardless of completion order. Issue callbacks fire in completion order.
func (s *Scanner) Scan(ctx context.Context, org string) (*domain.Report, error) {
	repos, err := s.auditor.ListRepositories(ctx, org, s.opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("no repositories found or error accessing the organization: %w", err)
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories found or error accessing the organization")
	}

	if s.opts.OnBegin != nil {
		s.opts.OnBegin(len(repos))
	}

	results := make([]*domain.RepoResult, len(repos))
	durations := make([]float64, 0, len(repos))

	var mu sync.Mutex
	done := 0

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.opts.Concurrency)

	for i, name := range repos {
		i, name := i, name
		eg.Go(func() error {
			start := time.Now()
			result := s.evaluate(egCtx, org, name)
			results[i] = result

			mu.Lock()
			defer mu.Unlock()
			done++
			durations = append(durations, time.Since(start).Seconds())
			if !result.Compliant() && s.opts.OnIssue != nil {
				s.opts.OnIssue(result)
			}
			if s.opts.OnProgress != nil {
				s.opts.OnProgress(done, len(repos), name)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &domain.Report{
		Organization: org,
		Results:      results,
		TotalRepos:   len(repos),
	}
	for _, result := range results {
		if !result.Compliant() {
			report.NonCompliant++
		}
	}

	s.logTimings(durations)
	return report, nil
}

// evaluate runs the ordered compliance checks for a single repository.
// The check priority is fixed: missing branch, then missing protection,
// then missing signature enforcement. Evaluation stops at the first
// failing check, so a repository carries at most one issue.
func (s *Scanner) evaluate(ctx context.Context, org, repo string) *domain.RepoResult {
	result := &domain.RepoResult{Name: repo}

	branch, ok := s.resolvePrimaryBranch(ctx, org, repo)
	if !ok {
		result.Outcome = domain.OutcomeNoBranch
		result.Issues = append(result.Issues, domain.IssueNoPrimaryBranch)
		return result
	}
	result.Branch = branch

	if !s.auditor.BranchProtected(ctx, org, repo, branch) {
		result.Outcome = domain.OutcomeUnprotected
		result.Issues = append(result.Issues, domain.IssueUnprotected(branch))
		return result
	}

	if !s.auditor.SignaturesRequired(ctx, org, repo, branch) {
		result.Outcome = domain.OutcomeNoSignatures
		result.Issues = append(result.Issues, domain.IssueUnsignedCommits(branch))
		return result
	}

	result.Outcome = domain.OutcomeCompliant
	return result
}

// resolvePrimaryBranch probes "main" then "master" and returns the first
// branch that exists.
func (s *Scanner) resolvePrimaryBranch(ctx context.Context, org, repo string) (string, bool) {
	for _, branch := range primaryBranches {
		if s.auditor.BranchExists(ctx, org, repo, branch) {
			return branch, true
		}
	}
	return "", false
}

// logTimings writes a latency summary of the per-repository checks to the
// debug logger.
func (s *Scanner) logTimings(durations []float64) {
	if len(durations) == 0 {
		return
	}
	mean, err := stats.Mean(durations)
	if err != nil {
		return
	}
	median, _ := stats.Median(durations)
	p95, _ := stats.Percentile(durations, 95)
	s.logger.Printf("Checked %d repositories (latency mean %.2fs, median %.2fs, p95 %.2fs)", len(durations), mean, median, p95)
}
