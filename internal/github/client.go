// Package github fetches knowledge-base documents from a GitHub repository.
package github

import (
	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate-limit handling.
type Client struct {
	*github.Client
}

// NewClient creates a GitHub client. The rate limiter waits out both primary
// and secondary (abuse detection) limits automatically. An empty token means
// unauthenticated access, which is enough for public repositories at 60
// requests per hour.
func NewClient(token string) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}
