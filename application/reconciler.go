package application

import (
	"context"
	"errors"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/mirrorkeep/domain"
)

// Secret names pushed to every mirror. Secret writes are always full
// overwrites: there is no way to read a secret back to compare.
const (
	secretUpstreamURL    = "UPSTREAM_URL"
	secretUpstreamBranch = "UPSTREAM_DEFAULT_BRANCH"
	secretToken          = "GH_TOKEN"
	secretSlackWebhook   = "SLACK_WEBHOOK_URL"
)

const commitMessage = "Update mirror sync workflow"

// WorkflowRenderer produces the workflow document for a mirror. It is a
// pure function from the reconciler's point of view.
type WorkflowRenderer interface {
	Render(upstreamURL, schedule, branch string) (string, error)
}

// MirrorReconciler brings one mirror's secrets and workflow file up to date
// with the current configuration. Every failure is converted to a per-mirror
// outcome so a batch can inspect and continue rather than unwind.
type MirrorReconciler struct {
	forge      domain.ForgeClient
	renderer   WorkflowRenderer
	markerPath string
	schedule   string
}

// NewMirrorReconciler creates a reconciler writing workflows to markerPath
// with the given cron schedule.
func NewMirrorReconciler(forge domain.ForgeClient, renderer WorkflowRenderer, markerPath, schedule string) *MirrorReconciler {
	return &MirrorReconciler{
		forge:      forge,
		renderer:   renderer,
		markerPath: markerPath,
		schedule:   schedule,
	}
}

// Reconcile updates a single mirror. It never returns an error: anything
// that goes wrong is captured in the outcome at mirror granularity.
func (r *MirrorReconciler) Reconcile(ctx context.Context, mirror domain.MirrorRecord, secrets domain.Secrets) domain.UpdateOutcome {
	repo, err := mirror.RepoName()
	if err != nil {
		return domain.UpdateOutcome{
			Repo:   mirror.MirrorURL,
			Status: domain.StatusFailed,
			Reason: "invalid repository reference",
		}
	}

	// A repository without the marker is not actually a mirror and must not
	// be modified in any way.
	if !r.forge.FileExists(ctx, repo, r.markerPath) {
		return domain.UpdateOutcome{
			Repo:   repo,
			Status: domain.StatusSkipped,
			Reason: "no mirror workflow present",
		}
	}

	branch, err := r.updateUpstreamSecrets(ctx, repo, mirror.UpstreamURL)
	if err != nil {
		return failed(repo, err)
	}

	if secrets.Token != "" {
		if err := r.forge.SetSecret(ctx, repo, secretToken, secrets.Token); err != nil {
			return failed(repo, err)
		}
	}
	if secrets.SlackWebhookURL != "" {
		if err := r.forge.SetSecret(ctx, repo, secretSlackWebhook, secrets.SlackWebhookURL); err != nil {
			return failed(repo, err)
		}
	}

	if err := r.writeWorkflow(ctx, repo, mirror.UpstreamURL, branch); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return domain.UpdateOutcome{
				Repo:   repo,
				Status: domain.StatusFailed,
				Reason: "concurrent modification",
			}
		}
		return failed(repo, err)
	}

	return domain.UpdateOutcome{Repo: repo, Status: domain.StatusSuccess}
}

// updateUpstreamSecrets refreshes UPSTREAM_URL and UPSTREAM_DEFAULT_BRANCH
// when the upstream is known, and returns the resolved branch. An unknown
// upstream leaves both secrets untouched, preserving whatever configuration
// already exists on the remote mirror.
func (r *MirrorReconciler) updateUpstreamSecrets(ctx context.Context, repo, upstreamURL string) (string, error) {
	if upstreamURL == "" {
		logger.Debugf("No upstream known for %q, preserving existing configuration", repo)
		return "", nil
	}

	upstreamRepo, err := domain.RepoNameFromURL(upstreamURL)
	if err != nil {
		return "", fmt.Errorf("invalid upstream URL %q: %w", upstreamURL, err)
	}

	branch, err := r.forge.DefaultBranch(ctx, upstreamRepo)
	if err != nil {
		return "", err
	}

	if err := r.forge.SetSecret(ctx, repo, secretUpstreamURL, upstreamURL); err != nil {
		return "", err
	}
	if err := r.forge.SetSecret(ctx, repo, secretUpstreamBranch, branch); err != nil {
		return "", err
	}
	return branch, nil
}

// writeWorkflow regenerates the workflow document and writes it with
// optimistic concurrency: the current content identifier is included when
// the file exists (update-if-unchanged) and omitted when it does not
// (create path). A mismatch is never retried.
func (r *MirrorReconciler) writeWorkflow(ctx context.Context, repo, upstreamURL, branch string) error {
	content, err := r.renderer.Render(upstreamURL, r.schedule, branch)
	if err != nil {
		return err
	}

	current, err := r.forge.ReadFile(ctx, repo, r.markerPath)
	if err != nil {
		return err
	}

	sha := ""
	if current != nil {
		sha = current.SHA
	}
	return r.forge.WriteFile(ctx, repo, r.markerPath, commitMessage, content, sha)
}

func failed(repo string, err error) domain.UpdateOutcome {
	return domain.UpdateOutcome{
		Repo:   repo,
		Status: domain.StatusFailed,
		Reason: err.Error(),
	}
}
