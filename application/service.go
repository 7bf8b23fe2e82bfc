package application

import (
	"context"
	"fmt"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/cache"
)

// MirrorService orchestrates the full update flow:
// find mirrors (cache or scan) -> select -> reconcile each -> summarize.
type MirrorService struct {
	forge      domain.ForgeClient
	store      *cache.Store
	scanner    *MirrorScanner
	reconciler *MirrorReconciler
}

// NewMirrorService creates a new service with the given collaborators.
func NewMirrorService(
	forge domain.ForgeClient,
	store *cache.Store,
	scanner *MirrorScanner,
	reconciler *MirrorReconciler,
) *MirrorService {
	return &MirrorService{
		forge:      forge,
		store:      store,
		scanner:    scanner,
		reconciler: reconciler,
	}
}

// FindOptions controls how FindMirrors resolves its candidate list.
type FindOptions struct {
	Repo       string // explicit owner/repo; bypasses cache and scan
	Org        string // organization searched in addition to the user
	Prefix     string // repository-name prefix filter
	MarkerPath string
	ForceScan  bool // skip the cache probe
}

// FindMirrors resolves the candidate mirror list: an explicit repo wins,
// then the cache fallback chain, then a live scan with write-back. Only the
// identity resolution can fail; everything past it degrades per owner.
func (s *MirrorService) FindMirrors(ctx context.Context, opts FindOptions) ([]domain.MirrorRecord, error) {
	if opts.Repo != "" {
		// A user-supplied repository is trusted as a candidate; the
		// reconciler still skips it when it turns out not to be a mirror.
		return []domain.MirrorRecord{{
			FullName:  opts.Repo,
			MirrorURL: "https://github.com/" + opts.Repo,
		}}, nil
	}

	filterKey := filterKeyFor(opts.Prefix)
	if !opts.ForceScan {
		if cached := s.store.BestMirrors(filterKey); len(cached) > 0 {
			logger.Debug("Using cached mirror data")
			return cached, nil
		}
	}

	user, err := s.forge.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve current identity: %w", err)
	}

	owners := []string{user}
	if opts.Org != "" {
		owners = append(owners, opts.Org)
	}

	logger.Infof("Scanning %d owner(s) for mirror repositories...", len(owners))
	result := s.scanner.Scan(ctx, owners, opts.MarkerPath, opts.Prefix)

	if err := s.store.SaveScannedMirrors(result.Mirrors, filterKey); err != nil {
		logger.Warnf("Failed to write scan cache: %v", err)
	}
	if err := s.saveCompletionCache(result); err != nil {
		logger.Warnf("Failed to write completion cache: %v", err)
	}

	return result.Mirrors, nil
}

// VerifyOrgMembership checks that the configured organization is one the
// authenticated user actually belongs to, so a typo in the settings surfaces
// before any mirror is touched. An empty org always passes.
func (s *MirrorService) VerifyOrgMembership(ctx context.Context, org string) error {
	if org == "" {
		return nil
	}

	orgs, err := s.forge.Organizations(ctx)
	if err != nil {
		return fmt.Errorf("cannot list organizations: %w", err)
	}
	for _, name := range orgs {
		if strings.EqualFold(name, org) {
			return nil
		}
	}
	return fmt.Errorf("not a member of organization %q", org)
}

// Run reconciles each mirror strictly sequentially and computes the
// summary. A Skipped outcome counts toward neither success nor failure but
// is still reported as a diagnostic, distinct from silently dropped.
func (s *MirrorService) Run(ctx context.Context, mirrors []domain.MirrorRecord, secrets domain.Secrets) domain.BatchResult {
	result := domain.BatchResult{TotalCount: len(mirrors)}

	for _, mirror := range mirrors {
		outcome := s.reconciler.Reconcile(ctx, mirror, secrets)

		switch outcome.Status {
		case domain.StatusSuccess:
			result.SuccessCount++
			logger.Infof("Updated %s", outcome.Repo)
			s.recordRecent(mirror, outcome.Repo)
		case domain.StatusSkipped:
			logger.Warnf("Skipped %s: %s", outcome.Repo, outcome.Reason)
		case domain.StatusFailed:
			result.Failed = append(result.Failed, outcome.Repo)
			logger.Errorf("Failed to update %s: %s", outcome.Repo, outcome.Reason)
		}
	}

	logger.Infof("Update complete: %d/%d mirrors updated successfully",
		result.SuccessCount, result.TotalCount)
	return result
}

func (s *MirrorService) recordRecent(mirror domain.MirrorRecord, repo string) {
	record := mirror
	record.FullName = repo
	if err := s.store.AddRecentMirror(record); err != nil {
		logger.Debugf("Failed to update recent-mirror log: %v", err)
	}
}

func (s *MirrorService) saveCompletionCache(result ScanResult) error {
	mirrorNames := make(map[string]bool, len(result.Mirrors))
	for _, mirror := range result.Mirrors {
		mirrorNames[mirror.FullName] = true
	}
	return s.store.SaveRepoCompletion(result.Repositories, mirrorNames)
}

func filterKeyFor(prefix string) *string {
	if prefix == "" {
		return nil
	}
	return &prefix
}
