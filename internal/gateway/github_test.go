package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	// Point the REST client at the mock server.
	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// Use NewEnterpriseClient to point the GraphQL client at the mock server.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())
	logger := log.New(io.Discard, "", 0)

	gw := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}

	return gw, server
}

func TestGitHubGateway_ListRepositories(t *testing.T) {
	testCases := []struct {
		name           string
		limit          int
		responseBody   string
		expectedNames  []string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:          "happy path - returns repositories in listing order",
			limit:         1000,
			responseBody:  `{"data":{"organization":{"repositories":{"nodes":[{"name":"repo-a"},{"name":"repo-b"}]}}}}`,
			expectedNames: []string{"repo-a", "repo-b"},
		},
		{
			name:          "limit truncates the listing mid-page",
			limit:         2,
			responseBody:  `{"data":{"organization":{"repositories":{"nodes":[{"name":"repo-a"},{"name":"repo-b"},{"name":"repo-c"}],"pageInfo":{"hasNextPage":true,"endCursor":"abc"}}}}}`,
			expectedNames: []string{"repo-a", "repo-b"},
		},
		{
			name:           "error case - GraphQL error response",
			limit:          1000,
			responseBody:   `{"errors":[{"message":"Could not resolve to an Organization"}]}`,
			expectError:    true,
			expectedErrMsg: "failed to list repositories",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "repositories(first: 100")

				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gw, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			names, err := gw.ListRepositories(context.Background(), "acme", tc.limit)

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedNames, names)
			}
		})
	}
}

func TestGitHubGateway_BranchExists(t *testing.T) {
	testCases := []struct {
		name        string
		statusCode  int
		body        string
		expected    bool
	}{
		{
			name:       "branch exists",
			statusCode: http.StatusOK,
			body:       `{"name":"main","commit":{"sha":"abc123"}}`,
			expected:   true,
		},
		{
			name:       "branch missing",
			statusCode: http.StatusNotFound,
			body:       `{"message":"Branch not found"}`,
			expected:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/widget/branches/main", r.URL.Path)
				w.WriteHeader(tc.statusCode)
				fmt.Fprint(w, tc.body)
			}
			gw, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			assert.Equal(t, tc.expected, gw.BranchExists(context.Background(), "acme", "widget", "main"))
		})
	}
}

// TestGitHubGateway_BranchProtected covers the deliberate conflation: an
// unprotected branch (404) and an API failure (500) both read as unprotected.
func TestGitHubGateway_BranchProtected(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
		expected   bool
	}{
		{
			name:       "protection configured",
			statusCode: http.StatusOK,
			body:       `{"url":"https://example.test/protection","enforce_admins":{"enabled":true}}`,
			expected:   true,
		},
		{
			name:       "branch not protected",
			statusCode: http.StatusNotFound,
			body:       `{"message":"Branch not protected"}`,
			expected:   false,
		},
		{
			name:       "server error reads as unprotected",
			statusCode: http.StatusInternalServerError,
			body:       `{"message":"Internal Server Error"}`,
			expected:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/widget/branches/main/protection", r.URL.Path)
				w.WriteHeader(tc.statusCode)
				fmt.Fprint(w, tc.body)
			}
			gw, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			assert.Equal(t, tc.expected, gw.BranchProtected(context.Background(), "acme", "widget", "main"))
		})
	}
}

func TestGitHubGateway_SignaturesRequired(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
		expected   bool
	}{
		{
			name:       "signatures enabled",
			statusCode: http.StatusOK,
			body:       `{"url":"https://example.test/required_signatures","enabled":true}`,
			expected:   true,
		},
		{
			name:       "signatures disabled",
			statusCode: http.StatusOK,
			body:       `{"url":"https://example.test/required_signatures","enabled":false}`,
			expected:   false,
		},
		{
			name:       "malformed response reads as disabled",
			statusCode: http.StatusOK,
			body:       `not-json`,
			expected:   false,
		},
		{
			name:       "endpoint missing reads as disabled",
			statusCode: http.StatusNotFound,
			body:       `{"message":"Not Found"}`,
			expected:   false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/acme/widget/branches/main/protection/required_signatures", r.URL.Path)
				w.WriteHeader(tc.statusCode)
				fmt.Fprint(w, tc.body)
			}
			gw, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			assert.Equal(t, tc.expected, gw.SignaturesRequired(context.Background(), "acme", "widget", "main"))
		})
	}
}
