package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rios0rios0/mirrorkeep/domain"
)

// selectMirrors is the thin I/O shell around the pure selection parser: it
// displays the candidates, reads one expression, and maps the parsed
// indices back onto the list. Cancellation is a distinct, clean result.
func selectMirrors(in io.Reader, out io.Writer, mirrors []domain.MirrorRecord) ([]domain.MirrorRecord, bool, error) {
	fmt.Fprintln(out, "Available mirrors:")
	for i, mirror := range mirrors {
		upstream := ""
		if mirror.UpstreamURL != "" {
			upstream = fmt.Sprintf(" (mirror of %s)", mirror.UpstreamURL)
		}
		fmt.Fprintf(out, "  [%d] %s%s\n", i+1, mirror.FullName, upstream)
	}
	fmt.Fprint(out, "Select mirrors to update (e.g. 1-3,5 / all / none): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" && !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("cannot read selection: %w", err)
	}

	selection, parseErr := domain.ParseSelection(strings.TrimSpace(line), len(mirrors))
	if parseErr != nil {
		return nil, false, parseErr
	}
	if selection.Cancelled {
		return nil, true, nil
	}

	for _, idx := range selection.OutOfRange {
		fmt.Fprintf(out, "Ignoring invalid index %d\n", idx)
	}

	subset := make([]domain.MirrorRecord, 0, len(selection.Indices))
	for _, idx := range selection.Indices {
		subset = append(subset, mirrors[idx-1])
	}
	return subset, false, nil
}
