// Package cache persists scan results between invocations. Each cache is a
// single keyed slot file, read and written wholesale: corruption or staleness
// is a miss, never an error, and concurrent writers race last-writer-wins.
package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rios0rios0/mirrorkeep/domain"
)

const (
	scannedMirrorsFile = "scanned_mirrors.json"
	recentMirrorsFile  = "recent_mirrors.json"
	repoCompletionFile = "repo_completion.json"

	// RecentMirrorCap bounds the recent-mirror log; insertion is prepend
	// plus truncate, newest first.
	RecentMirrorCap = 10

	// DefaultScannedMaxAge is the staleness limit for the scanned-mirror slot.
	DefaultScannedMaxAge = 30 * time.Minute
	// DefaultCompletionMaxAge is the staleness limit for the completion slot.
	DefaultCompletionMaxAge = 10 * time.Minute

	filePerm = 0o600
)

// envelope is the persisted layout of a TTL- and filter-keyed slot.
type envelope struct {
	Timestamp int64                 `json:"timestamp"`
	FilterKey *string               `json:"filterKey"`
	Mirrors   []domain.MirrorRecord `json:"mirrors"`
}

// completionEntry is a raw repository entry in the completion slot; only
// entries flagged as mirrors are surfaced as MirrorRecords.
type completionEntry struct {
	NameWithOwner string `json:"nameWithOwner"`
	Description   string `json:"description,omitempty"`
	IsMirror      bool   `json:"is_mirror,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
}

// completionSlot is the persisted layout of the completion cache file.
type completionSlot struct {
	Timestamp    int64             `json:"timestamp"`
	Repositories []completionEntry `json:"repositories"`
}

// Store is a slot-per-file cache rooted at an injected directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store writing its slot files under dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// SaveScannedMirrors overwrites the scanned-mirror slot. The filter key
// records which name filter produced the payload; a later read with a
// different filter misses.
func (s *Store) SaveScannedMirrors(mirrors []domain.MirrorRecord, filterKey *string) error {
	return s.write(scannedMirrorsFile, envelope{
		Timestamp: s.now().Unix(),
		FilterKey: filterKey,
		Mirrors:   mirrors,
	})
}

// ScannedMirrors returns the cached scan result when it is younger than
// maxAge and was produced with the same filter key; nil on any miss.
func (s *Store) ScannedMirrors(maxAge time.Duration, filterKey *string) []domain.MirrorRecord {
	var env envelope
	if !s.read(scannedMirrorsFile, &env) {
		return nil
	}
	if s.now().Unix()-env.Timestamp > int64(maxAge.Seconds()) {
		return nil
	}
	if !filterKeysEqual(env.FilterKey, filterKey) {
		return nil
	}
	return env.Mirrors
}

// AddRecentMirror prepends a record to the recent-mirror log, truncating it
// to RecentMirrorCap entries. The log has no staleness limit.
func (s *Store) AddRecentMirror(record domain.MirrorRecord) error {
	mirrors := append([]domain.MirrorRecord{record}, s.RecentMirrors()...)
	if len(mirrors) > RecentMirrorCap {
		mirrors = mirrors[:RecentMirrorCap]
	}
	return s.write(recentMirrorsFile, mirrors)
}

// RecentMirrors returns the recent-mirror log, newest first.
func (s *Store) RecentMirrors() []domain.MirrorRecord {
	var mirrors []domain.MirrorRecord
	if !s.read(recentMirrorsFile, &mirrors) {
		return nil
	}
	return mirrors
}

// SaveRepoCompletion overwrites the generic repository completion slot.
func (s *Store) SaveRepoCompletion(entries []domain.Repository, mirrorNames map[string]bool) error {
	converted := make([]completionEntry, 0, len(entries))
	for _, repo := range entries {
		entry := completionEntry{
			NameWithOwner: repo.FullName,
			Description:   repo.Description,
			IsMirror:      mirrorNames[repo.FullName],
		}
		if repo.UpdatedAt != nil {
			entry.UpdatedAt = repo.UpdatedAt.Format(time.RFC3339)
		}
		converted = append(converted, entry)
	}
	return s.write(repoCompletionFile, completionSlot{
		Timestamp:    s.now().Unix(),
		Repositories: converted,
	})
}

// CompletionMirrors returns the mirror-flagged entries of the completion
// slot, normalized to MirrorRecords; nil on any miss.
func (s *Store) CompletionMirrors(maxAge time.Duration) []domain.MirrorRecord {
	var slot completionSlot
	if !s.read(repoCompletionFile, &slot) {
		return nil
	}
	if s.now().Unix()-slot.Timestamp > int64(maxAge.Seconds()) {
		return nil
	}

	var mirrors []domain.MirrorRecord
	for _, entry := range slot.Repositories {
		if !entry.IsMirror || entry.NameWithOwner == "" {
			continue
		}
		record := domain.MirrorRecord{
			FullName:    entry.NameWithOwner,
			Description: entry.Description,
		}
		if entry.UpdatedAt != "" {
			if parsed, err := time.Parse(time.RFC3339, entry.UpdatedAt); err == nil {
				record.UpdatedAt = &parsed
			}
		}
		mirrors = append(mirrors, record)
	}
	return mirrors
}

// BestMirrors walks the fallback chain scanned -> completion -> recent and
// returns the first tier that yields data, normalized to MirrorRecords.
func (s *Store) BestMirrors(filterKey *string) []domain.MirrorRecord {
	if mirrors := s.ScannedMirrors(DefaultScannedMaxAge, filterKey); len(mirrors) > 0 {
		return mirrors
	}
	if mirrors := s.CompletionMirrors(DefaultCompletionMaxAge); len(mirrors) > 0 {
		return mirrors
	}
	return s.RecentMirrors()
}

// Invalidate removes every slot file, ignoring removal errors.
func (s *Store) Invalidate() {
	for _, name := range []string{scannedMirrorsFile, recentMirrorsFile, repoCompletionFile} {
		_ = os.Remove(filepath.Join(s.dir, name))
	}
}

func filterKeysEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *Store) read(name string, out any) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func (s *Store) write(name string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), data, filePerm)
}
