// Package domain contains the core data structures and domain logic for the application.
package domain

import "fmt"

// Outcome classifies the compliance state of a repository's primary branch.
type Outcome int

const (
	// OutcomeCompliant means the primary branch is protected and requires signed commits.
	OutcomeCompliant Outcome = iota
	// OutcomeNoBranch means neither "main" nor "master" exists.
	OutcomeNoBranch
	// OutcomeUnprotected means the primary branch carries no protection rules.
	OutcomeUnprotected
	// OutcomeNoSignatures means the branch is protected but signed commits are not required.
	OutcomeNoSignatures
)

// IssueNoPrimaryBranch is reported when a repository has neither a "main" nor a "master" branch.
const IssueNoPrimaryBranch = "No main or master branch found"

// IssueUnprotected is reported when the primary branch has no protection rules.
func IssueUnprotected(branch string) string {
	return fmt.Sprintf("'%s' branch is not protected", branch)
}

// IssueUnsignedCommits is reported when a protected branch does not require signed commits.
func IssueUnsignedCommits(branch string) string {
	return fmt.Sprintf("Commit signing not required for '%s' branch", branch)
}

// RepoResult holds the compliance evaluation of a single repository.
// Evaluation short-circuits at the first failing check, so Issues holds
// at most one entry per run.
type RepoResult struct {
	Name    string   `json:"name"`
	Branch  string   `json:"branch,omitempty"`
	Outcome Outcome  `json:"-"`
	Issues  []string `json:"issues,omitempty"`
}

// Compliant reports whether the repository passed every check.
func (r *RepoResult) Compliant() bool {
	return len(r.Issues) == 0
}

// Report is the ordered result of scanning an organization. Results follow
// the repository listing order, not check completion order.
type Report struct {
	Organization string        `json:"organization"`
	Results      []*RepoResult `json:"repositories"`
	TotalRepos   int           `json:"total_repositories"`
	NonCompliant int           `json:"non_compliant"`
}
