package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Selection is the parsed form of an interactive selection expression.
// Indices are 1-based positions into the displayed candidate list, sorted
// ascending with duplicates collapsed.
type Selection struct {
	Indices    []int
	Cancelled  bool  // user asked to leave without selecting anything
	OutOfRange []int // indices dropped for falling outside [1, candidateCount]
}

// SelectionError marks a selection expression as unusable for the whole
// input: either it could not be parsed, or nothing remained after dropping
// out-of-range indices.
type SelectionError struct {
	Input  string
	Reason string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid selection %q: %s", e.Input, e.Reason)
}

// cancellation keywords, matched case-insensitively.
var cancelWords = map[string]bool{
	"none": true,
	"q":    true,
	"quit": true,
	"exit": true,
}

// ParseSelection turns a selection expression into a concrete subset of the
// candidate list. The grammar is comma-separated tokens, each a single
// integer or an inclusive range "a-b". An empty input or "all" selects
// everything; cancellation keywords yield Cancelled rather than an error.
// Out-of-range indices are dropped individually and reported via OutOfRange,
// unless dropping them leaves nothing selected.
func ParseSelection(input string, candidateCount int) (Selection, error) {
	trimmed := strings.TrimSpace(input)
	lowered := strings.ToLower(trimmed)

	if cancelWords[lowered] {
		return Selection{Cancelled: true}, nil
	}

	if trimmed == "" || lowered == "all" {
		all := make([]int, 0, candidateCount)
		for i := 1; i <= candidateCount; i++ {
			all = append(all, i)
		}
		return Selection{Indices: all}, nil
	}

	seen := make(map[int]bool)
	var outOfRange []int

	record := func(idx int) {
		if idx < 1 || idx > candidateCount {
			if !seen[idx] {
				outOfRange = append(outOfRange, idx)
			}
			seen[idx] = true
			return
		}
		seen[idx] = true
	}

	for _, token := range strings.Split(trimmed, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return Selection{}, &SelectionError{Input: input, Reason: "empty token"}
		}

		if start, end, ok := strings.Cut(token, "-"); ok {
			lo, err := strconv.Atoi(strings.TrimSpace(start))
			if err != nil {
				return Selection{}, &SelectionError{Input: input, Reason: fmt.Sprintf("malformed range %q", token)}
			}
			hi, err := strconv.Atoi(strings.TrimSpace(end))
			if err != nil {
				return Selection{}, &SelectionError{Input: input, Reason: fmt.Sprintf("malformed range %q", token)}
			}
			if lo > hi {
				return Selection{}, &SelectionError{Input: input, Reason: fmt.Sprintf("descending range %q", token)}
			}
			for i := lo; i <= hi; i++ {
				record(i)
			}
			continue
		}

		idx, err := strconv.Atoi(token)
		if err != nil {
			return Selection{}, &SelectionError{Input: input, Reason: fmt.Sprintf("not a number: %q", token)}
		}
		record(idx)
	}

	var indices []int
	for idx := range seen {
		if idx >= 1 && idx <= candidateCount {
			indices = append(indices, idx)
		}
	}
	if len(indices) == 0 {
		return Selection{}, &SelectionError{Input: input, Reason: "no valid indices selected"}
	}

	sort.Ints(indices)
	sort.Ints(outOfRange)
	return Selection{Indices: indices, OutOfRange: outOfRange}, nil
}
