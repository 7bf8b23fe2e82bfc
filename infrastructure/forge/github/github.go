package github

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v66/github"
	"golang.org/x/crypto/nacl/box"
	"golang.org/x/oauth2"

	"github.com/rios0rios0/mirrorkeep/domain"
)

const (
	forgeName = "github"
	perPage   = 100
)

var errInvalidRepoRef = errors.New("repository reference must be owner/repo")

// Client implements domain.ForgeClient for GitHub.
type Client struct {
	client *gh.Client
	token  string
	login  string // cached after the first CurrentUser call
}

// New creates a new GitHub forge client with the given token.
func New(token string) domain.ForgeClient {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return &Client{
		client: gh.NewClient(tc),
		token:  token,
	}
}

// Name returns the forge identifier.
func (c *Client) Name() string { return forgeName }

func (c *Client) CurrentUser(ctx context.Context) (string, error) {
	if c.login != "" {
		return c.login, nil
	}
	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("cannot resolve current user: %w", err)
	}
	c.login = user.GetLogin()
	return c.login, nil
}

func (c *Client) Organizations(ctx context.Context) ([]string, error) {
	orgs, _, err := c.client.Organizations.List(ctx, "", &gh.ListOptions{PerPage: perPage})
	if err != nil {
		return nil, fmt.Errorf("cannot list organizations: %w", err)
	}

	names := make([]string, 0, len(orgs))
	for _, org := range orgs {
		names = append(names, org.GetLogin())
	}
	return names, nil
}

// ListRepositories lists an owner's repositories. The authenticated user's
// own namespace goes through /user/repos so private mirrors show up;
// anything else is tried as an organization first, then as a plain user.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]domain.Repository, error) {
	login, err := c.CurrentUser(ctx)
	if err == nil && owner == login {
		repos, _, listErr := c.client.Repositories.ListByAuthenticatedUser(ctx,
			&gh.RepositoryListByAuthenticatedUserOptions{
				Affiliation: "owner",
				ListOptions: gh.ListOptions{PerPage: perPage},
			})
		if listErr != nil {
			return nil, fmt.Errorf("cannot list repositories for %q: %w", owner, listErr)
		}
		return convertRepositories(repos), nil
	}

	repos, _, orgErr := c.client.Repositories.ListByOrg(ctx, owner,
		&gh.RepositoryListByOrgOptions{ListOptions: gh.ListOptions{PerPage: perPage}})
	if orgErr == nil {
		return convertRepositories(repos), nil
	}

	repos, _, userErr := c.client.Repositories.ListByUser(ctx, owner,
		&gh.RepositoryListByUserOptions{ListOptions: gh.ListOptions{PerPage: perPage}})
	if userErr != nil {
		return nil, fmt.Errorf("cannot list repositories for %q: %w", owner, userErr)
	}
	return convertRepositories(repos), nil
}

func (c *Client) FileExists(ctx context.Context, repo, path string) bool {
	content, err := c.ReadFile(ctx, repo, path)
	return err == nil && content != nil
}

func (c *Client) ReadFile(ctx context.Context, repo, path string) (*domain.FileContent, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	file, _, resp, err := c.client.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read %s in %q: %w", path, repo, err)
	}
	if file == nil {
		// path resolved to a directory
		return nil, nil
	}

	decoded, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s in %q: %w", path, repo, err)
	}
	return &domain.FileContent{Content: decoded, SHA: file.GetSHA()}, nil
}

func (c *Client) WriteFile(ctx context.Context, repo, path, message, content, sha string) error {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return err
	}

	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(message),
		Content: []byte(content),
	}

	if sha == "" {
		_, resp, createErr := c.client.Repositories.CreateFile(ctx, owner, name, path, opts)
		return classifyWriteError(repo, path, resp, createErr)
	}

	opts.SHA = gh.String(sha)
	_, resp, updateErr := c.client.Repositories.UpdateFile(ctx, owner, name, path, opts)
	return classifyWriteError(repo, path, resp, updateErr)
}

func (c *Client) SetSecret(ctx context.Context, repo, name, value string) error {
	owner, repoName, err := splitRepo(repo)
	if err != nil {
		return err
	}

	pubKey, _, err := c.client.Actions.GetRepoPublicKey(ctx, owner, repoName)
	if err != nil {
		return fmt.Errorf("cannot fetch public key for %q: %w", repo, err)
	}

	encrypted, err := sealSecret(pubKey.GetKey(), value)
	if err != nil {
		return fmt.Errorf("cannot encrypt secret %q: %w", name, err)
	}

	_, err = c.client.Actions.CreateOrUpdateRepoSecret(ctx, owner, repoName, &gh.EncryptedSecret{
		Name:           name,
		KeyID:          pubKey.GetKeyID(),
		EncryptedValue: encrypted,
	})
	if err != nil {
		return fmt.Errorf("cannot set secret %q on %q: %w", name, repo, err)
	}
	return nil
}

func (c *Client) DefaultBranch(ctx context.Context, repo string) (string, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return "", err
	}

	repository, _, err := c.client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("cannot fetch repository %q: %w", repo, err)
	}
	return repository.GetDefaultBranch(), nil
}

// classifyWriteError maps a conditional-write conflict to the domain
// sentinel so the reconciler can report it without retrying.
func classifyWriteError(repo, path string, resp *gh.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && (resp.StatusCode == http.StatusConflict ||
		resp.StatusCode == http.StatusUnprocessableEntity) {
		return fmt.Errorf("%w: %s in %q", domain.ErrConcurrentModification, path, repo)
	}
	return fmt.Errorf("cannot write %s in %q: %w", path, repo, err)
}

// sealSecret encrypts a secret value with the repository's public key using
// a libsodium sealed box, as required by the Actions secrets API.
func sealSecret(publicKey, value string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil {
		return "", fmt.Errorf("malformed repository public key: %w", err)
	}
	if len(decoded) != 32 {
		return "", fmt.Errorf("repository public key has %d bytes, want 32", len(decoded))
	}

	var key [32]byte
	copy(key[:], decoded)

	sealed, err := box.SealAnonymous(nil, []byte(value), &key, rand.Reader)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func splitRepo(repo string) (string, string, error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q", errInvalidRepoRef, repo)
	}
	return owner, name, nil
}

func convertRepositories(repos []*gh.Repository) []domain.Repository {
	converted := make([]domain.Repository, 0, len(repos))
	for _, repo := range repos {
		entry := domain.Repository{
			FullName:    repo.GetFullName(),
			Description: repo.GetDescription(),
			HTMLURL:     repo.GetHTMLURL(),
			Archived:    repo.GetArchived(),
			Private:     repo.GetPrivate(),
		}
		if updated := repo.GetUpdatedAt(); !updated.IsZero() {
			t := updated.Time
			entry.UpdatedAt = &t
		}
		converted = append(converted, entry)
	}
	return converted
}
