package domain

import "time"

// MirrorRecord represents one discovered or user-specified mirror repository.
// Records are immutable: each scan or cache write replaces them wholesale.
type MirrorRecord struct {
	FullName    string     `json:"name"`               // owner/repo; unique key within a scan
	MirrorURL   string     `json:"mirror,omitempty"`   // HTTPS URL of the mirror itself
	UpstreamURL string     `json:"upstream,omitempty"` // empty when unknown (lives in a write-only secret)
	Description string     `json:"description,omitempty"`
	Private     bool       `json:"is_private,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// RepoName resolves the canonical "owner/repo" reference for the record.
// FullName wins when set; otherwise the name is derived from MirrorURL.
// A record resolvable by neither is invalid and must be rejected before use.
func (m MirrorRecord) RepoName() (string, error) {
	if m.FullName != "" {
		return m.FullName, nil
	}
	return RepoNameFromURL(m.MirrorURL)
}

// Repository is a raw repository entry as returned by a forge listing.
type Repository struct {
	FullName    string
	Description string
	HTMLURL     string
	Archived    bool
	Private     bool
	UpdatedAt   *time.Time
}

// Name returns the bare repository name without the owner prefix.
func (r Repository) Name() string {
	for i := len(r.FullName) - 1; i >= 0; i-- {
		if r.FullName[i] == '/' {
			return r.FullName[i+1:]
		}
	}
	return r.FullName
}

// FileContent is a file read back from a forge, together with the opaque
// concurrency token (content SHA) needed for a conditional write.
type FileContent struct {
	Content string
	SHA     string
}

// Secrets holds the values pushed to every reconciled mirror. Empty fields
// are simply not pushed.
type Secrets struct {
	Token           string // GH_TOKEN
	SlackWebhookURL string // SLACK_WEBHOOK_URL
}

// OutcomeStatus classifies the result of reconciling a single mirror.
type OutcomeStatus int

const (
	// StatusSuccess means every applicable step completed.
	StatusSuccess OutcomeStatus = iota
	// StatusSkipped means the repository was left untouched because it is
	// not actually a mirror (an expected, benign condition).
	StatusSkipped
	// StatusFailed means at least one step failed; earlier steps may have
	// been applied (partial completion is the normal failure mode).
	StatusFailed
)

// UpdateOutcome is the per-mirror result of a reconcile. Exactly one outcome
// exists per mirror submitted to a batch.
type UpdateOutcome struct {
	Repo   string
	Status OutcomeStatus
	Reason string // set for Skipped and Failed
}

// BatchResult summarizes a batch run. Skipped mirrors count toward neither
// SuccessCount nor Failed, so SuccessCount+len(Failed) <= TotalCount.
type BatchResult struct {
	TotalCount   int
	SuccessCount int
	Failed       []string
}
