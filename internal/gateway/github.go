// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/kawagoe/orgaudit/internal/config"
)

// Auditor defines the GitHub operations required by the compliance scanner.
//
// The three probe methods deliberately return a plain bool: a failed or
// malformed lookup is indistinguishable from "feature not enabled". The
// scan treats any doubt as non-compliant rather than surfacing transport
// errors per repository. Swallowed errors go to the debug logger.
type Auditor interface {
	ListRepositories(ctx context.Context, org string, limit int) ([]string, error)
	BranchExists(ctx context.Context, org, repo, branch string) bool
	BranchProtected(ctx context.Context, org, repo, branch string) bool
	SignaturesRequired(ctx context.Context, org, repo, branch string) bool
}

// GitHubGateway is the concrete implementation of the Auditor interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// repositoriesQuery pages through an organization's repositories.
type repositoriesQuery struct {
	Organization struct {
		Repositories struct {
			Nodes []struct {
				Name githubv4.String
			}
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
		} `graphql:"repositories(first: 100, after: $cursor)"`
	} `graphql:"organization(login: $org)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
// The HTTP transport chain is: rate limit waiter, then auth (oauth2 token or
// GitHub App installation), shared by the REST and GraphQL clients.
func NewGitHubGateway(cfg *config.Config, logger *log.Logger) (Auditor, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var httpClient *http.Client
	if cfg.UseApp() {
		itr, err := ghinstallation.NewKeyFromFile(rateLimitWaiter, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub App transport: %w", err)
		}
		if cfg.BaseURL != "" {
			itr.BaseURL = cfg.BaseURL
		}
		httpClient = &http.Client{Transport: itr}
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = &http.Client{
			Transport: &oauth2.Transport{
				Base:   rateLimitWaiter,
				Source: ts,
			},
		}
	}

	restClient := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise REST endpoint: %w", err)
		}
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if cfg.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(cfg.GraphQLURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// ListRepositories returns the names of the organization's repositories in
// listing order, truncated at limit.
func (g *GitHubGateway) ListRepositories(ctx context.Context, org string, limit int) ([]string, error) {
	variables := map[string]interface{}{
		"org":    githubv4.String(org),
		"cursor": (*githubv4.String)(nil),
	}

	var names []string
	for {
		var q repositoriesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to list repositories for organization %q: %w", org, err)
		}

		for _, node := range q.Organization.Repositories.Nodes {
			names = append(names, string(node.Name))
			if len(names) == limit {
				g.logger.Printf("Repository listing truncated at limit %d", limit)
				return names, nil
			}
		}

		if !q.Organization.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Organization.Repositories.PageInfo.EndCursor)
		g.logger.Println("  Fetching next page of repositories...")
	}
	return names, nil
}

// BranchExists probes for a branch. Any error, including transport failure,
// counts as "does not exist".
func (g *GitHubGateway) BranchExists(ctx context.Context, org, repo, branch string) bool {
	_, _, err := g.restClient.Repositories.GetBranch(ctx, org, repo, branch, 0)
	if err != nil {
		g.logger.Printf("  branch probe %s/%s@%s: %v", org, repo, branch, err)
		return false
	}
	return true
}

// BranchProtected reports whether the branch has a protection configuration.
// GitHub answers 404 for unprotected branches; that and every other error
// map to false.
func (g *GitHubGateway) BranchProtected(ctx context.Context, org, repo, branch string) bool {
	protection, _, err := g.restClient.Repositories.GetBranchProtection(ctx, org, repo, branch)
	if err != nil {
		g.logger.Printf("  protection probe %s/%s@%s: %v", org, repo, branch, err)
		return false
	}
	return protection != nil
}

// SignaturesRequired reports whether the protected branch requires signed
// commits. A missing endpoint, malformed body, or disabled flag all read as false.
func (g *GitHubGateway) SignaturesRequired(ctx context.Context, org, repo, branch string) bool {
	signatures, _, err := g.restClient.Repositories.GetSignaturesProtectedBranch(ctx, org, repo, branch)
	if err != nil {
		g.logger.Printf("  signatures probe %s/%s@%s: %v", org, repo, branch, err)
		return false
	}
	return signatures.GetEnabled()
}
