package ledger

import (
	"fmt"
	"sort"

	"github.com/spec-kit/helpdesk-bot/internal/domain"
)

// Entry is one leaderboard row.
type Entry struct {
	HelperID string `json:"helper_id"`
	Points   int    `json:"points"`
}

// Weight returns the point weight for a category, defaulting to 1 when unset.
func Weight(doc *domain.Document, category domain.Category) int {
	if w, ok := doc.CategoryPoints[category]; ok && w > 0 {
		return w
	}
	return 1
}

// Award credits every helper in helpers with points, defaulting absent
// ledger entries to zero first. Returns the total awarded.
func Award(doc *domain.Document, helpers []string, points int) int {
	for _, helperID := range helpers {
		doc.HelperPoints[helperID] += points
	}
	return points * len(helpers)
}

// Reset clears every ledger entry.
func Reset(doc *domain.Document) {
	doc.HelperPoints = map[string]int{}
}

// Leaderboard returns all entries ordered by points, non-increasing. Ties
// sort by helper identity so equal scores stay adjacent and the order is
// deterministic.
func Leaderboard(doc *domain.Document) []Entry {
	entries := make([]Entry, 0, len(doc.HelperPoints))
	for helperID, points := range doc.HelperPoints {
		entries = append(entries, Entry{HelperID: helperID, Points: points})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].HelperID < entries[j].HelperID
	})
	return entries
}

// Top returns the first n leaderboard entries.
func Top(doc *domain.Document, n int) []Entry {
	entries := Leaderboard(doc)
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// FormatPoints renders a point count with singular-safe grammar.
func FormatPoints(points int) string {
	if points == 1 {
		return "1 point"
	}
	return fmt.Sprintf("%d points", points)
}
