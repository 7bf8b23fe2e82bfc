// Package workflow renders the scheduled sync workflow that marks a
// repository as a mirror, and recovers metadata from rendered documents.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// MarkerPath is the fixed workflow path used both to detect mirrors and to
// carry the sync logic.
const MarkerPath = ".github/workflows/mirror-sync.yml"

// PlaceholderUpstream is the sentinel some older mirrors carry instead of a
// real upstream URL. Render treats it the same as an unknown upstream.
const PlaceholderUpstream = "https://github.com/PLACEHOLDER/PLACEHOLDER"

const upstreamAnnotation = "# Upstream:"

// The GitHub expression syntax ${{ }} collides with default template delims.
var syncTemplate = template.Must(template.New("mirror-sync").Delims("[[", "]]").Parse(`# Generated by mirrorkeep. Do not edit manually.
[[if .Upstream]]# Upstream: [[.Upstream]]
[[end]]name: Mirror Sync
'on':
  schedule:
    - cron: '[[.Schedule]]'
  workflow_dispatch:

jobs:
  sync:
    runs-on: ubuntu-latest
    outputs:
      has_conflicts: ${{ steps.sync.outputs.has_conflicts }}

    steps:
      - name: Checkout mirror repository
        uses: actions/checkout@v4
        with:
          fetch-depth: 0
          token: ${{ secrets.GITHUB_TOKEN }}

      - name: Configure git
        run: |
          git config user.name "Mirror Bot"
          git config user.email "mirror-bot@users.noreply.github.com"

      - name: Sync with rebase
        id: sync
        env:
          UPSTREAM_URL: ${{ secrets.UPSTREAM_URL }}
          UPSTREAM_DEFAULT_BRANCH: ${{ secrets.UPSTREAM_DEFAULT_BRANCH }}
          GH_TOKEN: ${{ secrets.GITHUB_TOKEN }}
        run: |
          BRANCH="${UPSTREAM_DEFAULT_BRANCH:-[[.Branch]]}"
          git remote add upstream "$UPSTREAM_URL" || git remote set-url upstream "$UPSTREAM_URL"
          git fetch upstream
          if git rebase "upstream/$BRANCH"; then
            git push origin "$BRANCH" --force-with-lease
            echo "has_conflicts=false" >> "$GITHUB_OUTPUT"
          else
            echo "has_conflicts=true" >> "$GITHUB_OUTPUT"
            git rebase --abort
          fi

      - name: Sync tags
        if: steps.sync.outputs.has_conflicts == 'false'
        run: |
          git fetch upstream --tags
          git push origin --tags

  notify-slack:
    needs: sync
    if: needs.sync.outputs.has_conflicts == 'true'
    runs-on: ubuntu-latest

    steps:
      - name: Send Slack notification
        uses: slackapi/slack-github-action@v2.0.0
        with:
          webhook: ${{ secrets.SLACK_WEBHOOK_URL }}
          webhook-type: incoming-webhook
          payload: |
            {"text": "Mirror sync conflict detected - manual intervention required"}
`))

// Renderer produces sync workflow documents. It is a pure function holder;
// the reconciler treats it as an external collaborator.
type Renderer struct{}

// NewRenderer creates a workflow renderer.
func NewRenderer() *Renderer { return &Renderer{} }

// Render produces the workflow document for the given upstream, cron
// schedule, and branch. An empty or placeholder upstream omits the upstream
// annotation, leaving the workflow to rely on the UPSTREAM_URL secret at run
// time. The output is validated as YAML before return.
func (r *Renderer) Render(upstreamURL, schedule, branch string) (string, error) {
	if schedule == "" {
		return "", errors.New("schedule is required")
	}
	if branch == "" {
		branch = "main"
	}

	data := struct {
		Upstream string
		Schedule string
		Branch   string
	}{
		Upstream: upstreamURL,
		Schedule: schedule,
		Branch:   branch,
	}
	if upstreamURL == PlaceholderUpstream {
		data.Upstream = ""
	}

	var buf strings.Builder
	if err := syncTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("cannot render workflow: %w", err)
	}

	rendered := buf.String()
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(rendered), &doc); err != nil {
		return "", fmt.Errorf("rendered workflow is not valid YAML: %w", err)
	}
	return rendered, nil
}

// ExtractUpstream recovers the upstream URL annotation from a rendered
// workflow document. It returns the empty string when no annotation is
// present; older documents carry the upstream only in a write-only secret,
// so an empty result is common.
func ExtractUpstream(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, upstreamAnnotation) {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, upstreamAnnotation))
		}
	}
	return ""
}
