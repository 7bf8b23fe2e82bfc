// Package testdoubles provides test doubles (spies, stubs, dummies) for
// domain interfaces. These are hand-crafted implementations, no mock
// frameworks.
package testdoubles

import (
	"context"
	"fmt"

	"github.com/rios0rios0/mirrorkeep/domain"
)

// ---------------------------------------------------------------------------
// SpyForgeClient
// ---------------------------------------------------------------------------

// SpyForgeClient implements domain.ForgeClient as a configurable spy.
// Configure the response fields for the methods your test exercises, then
// inspect the call-tracking fields to verify behavior.
type SpyForgeClient struct {
	// --- CurrentUser ---
	Login    string
	LoginErr error

	// --- Organizations ---
	Orgs    []string
	OrgsErr error

	// --- ListRepositories ---
	RepositoriesByOwner map[string][]domain.Repository
	ListErrByOwner      map[string]error
	// spy: owners that were listed
	ListedOwners []string

	// --- FileExists / ReadFile ---
	Files       map[string]*domain.FileContent // "repo path" -> content
	ReadFileErr error
	// ExistingFiles marks paths as present without content, so tests can
	// drive the create path of a conditional write.
	ExistingFiles map[string]bool // "repo path" -> exists

	// --- WriteFile ---
	WriteErr error
	// spy: writes received
	Writes []FileWrite

	// --- SetSecret ---
	SecretErr error
	// spy: secrets received, in call order
	Secrets []SecretWrite

	// --- DefaultBranch ---
	DefaultBranches  map[string]string // repo -> branch
	DefaultBranchErr error
}

// FileWrite records one WriteFile invocation.
type FileWrite struct {
	Repo    string
	Path    string
	Message string
	Content string
	SHA     string
}

// SecretWrite records one SetSecret invocation.
type SecretWrite struct {
	Repo  string
	Name  string
	Value string
}

var _ domain.ForgeClient = (*SpyForgeClient)(nil)

func (c *SpyForgeClient) CurrentUser(_ context.Context) (string, error) {
	return c.Login, c.LoginErr
}

func (c *SpyForgeClient) Organizations(_ context.Context) ([]string, error) {
	return c.Orgs, c.OrgsErr
}

func (c *SpyForgeClient) ListRepositories(_ context.Context, owner string) ([]domain.Repository, error) {
	c.ListedOwners = append(c.ListedOwners, owner)
	if err, ok := c.ListErrByOwner[owner]; ok && err != nil {
		return nil, err
	}
	return c.RepositoriesByOwner[owner], nil
}

func (c *SpyForgeClient) FileExists(ctx context.Context, repo, path string) bool {
	if c.ExistingFiles[fileKey(repo, path)] {
		return true
	}
	content, err := c.ReadFile(ctx, repo, path)
	return err == nil && content != nil
}

func (c *SpyForgeClient) ReadFile(_ context.Context, repo, path string) (*domain.FileContent, error) {
	if c.ReadFileErr != nil {
		return nil, c.ReadFileErr
	}
	return c.Files[fileKey(repo, path)], nil
}

func (c *SpyForgeClient) WriteFile(_ context.Context, repo, path, message, content, sha string) error {
	c.Writes = append(c.Writes, FileWrite{
		Repo:    repo,
		Path:    path,
		Message: message,
		Content: content,
		SHA:     sha,
	})
	return c.WriteErr
}

func (c *SpyForgeClient) SetSecret(_ context.Context, repo, name, value string) error {
	c.Secrets = append(c.Secrets, SecretWrite{Repo: repo, Name: name, Value: value})
	return c.SecretErr
}

func (c *SpyForgeClient) DefaultBranch(_ context.Context, repo string) (string, error) {
	if c.DefaultBranchErr != nil {
		return "", c.DefaultBranchErr
	}
	if branch, ok := c.DefaultBranches[repo]; ok {
		return branch, nil
	}
	return "main", nil
}

// AddFile registers a file so FileExists and ReadFile find it.
func (c *SpyForgeClient) AddFile(repo, path string, content *domain.FileContent) {
	if c.Files == nil {
		c.Files = make(map[string]*domain.FileContent)
	}
	c.Files[fileKey(repo, path)] = content
}

func fileKey(repo, path string) string {
	return fmt.Sprintf("%s %s", repo, path)
}

// ---------------------------------------------------------------------------
// StubWorkflowRenderer
// ---------------------------------------------------------------------------

// StubWorkflowRenderer implements application.WorkflowRenderer with a canned
// document, recording the inputs it was called with.
type StubWorkflowRenderer struct {
	Document  string
	RenderErr error

	// spy: inputs received
	Upstreams []string
	Schedules []string
	Branches  []string
}

func (r *StubWorkflowRenderer) Render(upstreamURL, schedule, branch string) (string, error) {
	r.Upstreams = append(r.Upstreams, upstreamURL)
	r.Schedules = append(r.Schedules, schedule)
	r.Branches = append(r.Branches, branch)
	if r.RenderErr != nil {
		return "", r.RenderErr
	}
	if r.Document == "" {
		return "name: Mirror Sync\n", nil
	}
	return r.Document, nil
}
