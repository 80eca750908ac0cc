package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"path"
	"strings"

	"github.com/google/go-github/v81/github"
)

// Document is a text file fetched from a repository.
type Document struct {
	Path    string // Relative path within the base directory
	Content string // Decoded file content
	SHA     string // File's Git blob SHA
}

// ingestible reports whether a repository file can be ingested as text.
// Binary formats need an extraction step this service does not provide.
func ingestible(name string) bool {
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".txt")
}

// Fetcher lists and fetches ingestible documents from one repository
// directory.
type Fetcher struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

func NewFetcher(client *Client, owner, repo, basePath string) *Fetcher {
	return &Fetcher{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ListDocs recursively lists all .md and .txt files under the base path.
func (f *Fetcher) ListDocs(ctx context.Context) ([]string, error) {
	return f.listRecursive(ctx, f.basePath, "")
}

func (f *Fetcher) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var found []string

	_, dirContents, _, err := f.client.Repositories.GetContents(
		ctx, f.owner, f.repo, fullPath, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}
		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if ingestible(*item.Name) {
				found = append(found, itemRelPath)
			}
		case "dir":
			sub, err := f.listRecursive(ctx, path.Join(fullPath, *item.Name), itemRelPath)
			if err != nil {
				return nil, err
			}
			found = append(found, sub...)
		}
	}

	return found, nil
}

// FetchDoc fetches and decodes one file.
func (f *Fetcher) FetchDoc(ctx context.Context, relativePath string) (*Document, error) {
	fullPath := path.Join(f.basePath, relativePath)

	fileContent, _, _, err := f.client.Repositories.GetContents(
		ctx, f.owner, f.repo, fullPath, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get content of %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", fullPath, err)
	}

	return &Document{
		Path:    relativePath,
		Content: string(content),
		SHA:     fileContent.GetSHA(),
	}, nil
}

// LatestCommitSHA returns the SHA of the most recent commit touching the
// base path, recorded with each sync for auditing.
func (f *Fetcher) LatestCommitSHA(ctx context.Context) (string, error) {
	commits, _, err := f.client.Repositories.ListCommits(
		ctx, f.owner, f.repo,
		&github.CommitsListOptions{
			Path:        f.basePath,
			ListOptions: github.ListOptions{PerPage: 1},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to get latest commit: %w", err)
	}
	if len(commits) == 0 {
		return "", fmt.Errorf("no commits found for path %s", f.basePath)
	}
	if commits[0].SHA == nil {
		return "", fmt.Errorf("commit SHA is nil")
	}
	return *commits[0].SHA, nil
}
