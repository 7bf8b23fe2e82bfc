package domain

import (
	"context"
	"errors"
)

// ErrConcurrentModification is returned by ForgeClient.WriteFile when the
// supplied concurrency token no longer matches the remote file, meaning the
// file was changed externally between read and write.
var ErrConcurrentModification = errors.New("file was modified concurrently")

// ForgeClient abstracts the Git hosting service the mirrors live on.
// Every call is synchronous and blocking; there is no fan-out anywhere in
// the core, so one bad call can only ever delay, never corrupt, the rest.
type ForgeClient interface {
	// CurrentUser returns the login of the authenticated user.
	CurrentUser(ctx context.Context) (string, error)

	// Organizations lists the organizations the authenticated user belongs to.
	Organizations(ctx context.Context) ([]string, error)

	// ListRepositories lists the repositories of an owner (user or org).
	// A single page of results is acceptable; archived repositories are
	// included and filtered by the caller.
	ListRepositories(ctx context.Context, owner string) ([]Repository, error)

	// FileExists reports whether a file exists at path on the repository's
	// default branch. This is a pure existence probe, not a content fetch.
	FileExists(ctx context.Context, repo, path string) bool

	// ReadFile fetches a file's content and concurrency token.
	// It returns (nil, nil) when the file does not exist.
	ReadFile(ctx context.Context, repo, path string) (*FileContent, error)

	// WriteFile creates or updates a file. A non-empty sha makes the write
	// conditional (update-if-unchanged); an empty sha is the create path.
	// A token mismatch returns ErrConcurrentModification.
	WriteFile(ctx context.Context, repo, path, message, content, sha string) error

	// SetSecret sets a repository Actions secret. Always a full overwrite;
	// secrets cannot be read back to compare.
	SetSecret(ctx context.Context, repo, name, value string) error

	// DefaultBranch returns the default branch of a repository.
	DefaultBranch(ctx context.Context, repo string) (string, error)
}
