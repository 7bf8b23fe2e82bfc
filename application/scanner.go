package application

import (
	"context"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/mirrorkeep/domain"
	"github.com/rios0rios0/mirrorkeep/infrastructure/workflow"
)

// ScanResult carries the classified mirrors plus the raw listings that
// produced them, so callers can feed secondary caches.
type ScanResult struct {
	Mirrors      []domain.MirrorRecord
	Repositories []domain.Repository
}

// MirrorScanner enumerates candidate repositories per owner and classifies
// each as mirror or non-mirror by probing for the marker workflow.
type MirrorScanner struct {
	forge domain.ForgeClient
}

// NewMirrorScanner creates a scanner on the given forge client.
func NewMirrorScanner(forge domain.ForgeClient) *MirrorScanner {
	return &MirrorScanner{forge: forge}
}

// Scan walks each owner independently. A listing failure skips that owner
// with a diagnostic and scanning continues; the scan as a whole never
// aborts because of a single owner. Archived repositories are always
// excluded, and a non-empty namePrefix drops repositories whose bare name
// does not start with it.
func (s *MirrorScanner) Scan(ctx context.Context, owners []string, markerPath, namePrefix string) ScanResult {
	var result ScanResult

	for _, owner := range owners {
		repos, err := s.forge.ListRepositories(ctx, owner)
		if err != nil {
			logger.Errorf("Failed to list repositories for %q, skipping owner: %v", owner, err)
			continue
		}

		logger.Debugf("Found %d repositories for %q", len(repos), owner)

		for _, repo := range repos {
			if repo.Archived {
				continue
			}
			if namePrefix != "" && !strings.HasPrefix(repo.Name(), namePrefix) {
				continue
			}

			result.Repositories = append(result.Repositories, repo)

			if !s.forge.FileExists(ctx, repo.FullName, markerPath) {
				continue
			}

			record := domain.MirrorRecord{
				FullName:    repo.FullName,
				MirrorURL:   repo.HTMLURL,
				Description: repo.Description,
				Private:     repo.Private,
				UpdatedAt:   repo.UpdatedAt,
			}
			record.UpstreamURL = s.recoverUpstream(ctx, repo.FullName, markerPath)
			result.Mirrors = append(result.Mirrors, record)
		}
	}

	return result
}

// recoverUpstream reads the marker content and scans it for the upstream
// annotation. Failure is non-fatal: the upstream usually lives only in a
// write-only secret, so an empty result is the expected case for older
// mirrors.
func (s *MirrorScanner) recoverUpstream(ctx context.Context, repo, markerPath string) string {
	content, err := s.forge.ReadFile(ctx, repo, markerPath)
	if err != nil || content == nil {
		return ""
	}
	return workflow.ExtractUpstream(content.Content)
}
