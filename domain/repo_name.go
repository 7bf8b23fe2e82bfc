package domain

import (
	"errors"
	"fmt"
	"strings"
)

var errInvalidRepoURL = errors.New("cannot derive owner/repo from URL")

// RepoNameFromURL derives an "owner/repo" reference from a repository URL.
// The owner is the second-to-last path segment and the repo the last one,
// with any ".git" suffix stripped. Both HTTPS and SSH forms are accepted.
func RepoNameFromURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errInvalidRepoURL
	}

	trimmed := strings.TrimSuffix(rawURL, "/")
	// Normalize SSH form (git@host:owner/repo) to path segments.
	trimmed = strings.ReplaceAll(trimmed, ":", "/")

	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return "", errInvalidRepoURL
	}

	owner := segments[len(segments)-2]
	repo := strings.TrimSuffix(segments[len(segments)-1], ".git")
	if owner == "" || repo == "" {
		return "", fmt.Errorf("%w: %q", errInvalidRepoURL, rawURL)
	}

	return owner + "/" + repo, nil
}
