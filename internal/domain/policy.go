package domain

import (
	"fmt"
	"strings"
)

// HistoryPolicy decides what a failed match-history request does to a player's row.
type HistoryPolicy string

const (
	// HistoryPartial drops failed lookups and keeps whatever history was gathered.
	HistoryPartial HistoryPolicy = "partial"
	// HistoryAbort empties the history on the first failure; standing is kept.
	HistoryAbort HistoryPolicy = "abort"
	// HistoryError turns the whole row into an error record on the first failure.
	HistoryError HistoryPolicy = "error"
)

func ParseHistoryPolicy(s string) (HistoryPolicy, error) {
	switch p := HistoryPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case HistoryPartial, HistoryAbort, HistoryError:
		return p, nil
	case "":
		return HistoryPartial, nil
	default:
		return "", fmt.Errorf("invalid history failure policy %q (want partial, abort or error)", s)
	}
}
