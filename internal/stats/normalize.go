package stats

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/alfawal/LoA/internal/roster"
)

var now = time.Now

// Normalize maps every raw row through the roster and reconciles the result.
// No dataset is returned when any row fails to map.
func Normalize(raw RawRows, r roster.Roster) (Dataset, Report, error) {
	if raw == nil {
		return Dataset{}, Report{}, &MalformedResponseError{Detail: "no response"}
	}
	provider := raw.Provider()
	rows := make([]Record, 0, raw.Len())
	for i := range raw.Len() {
		rec, err := raw.MapRow(i, r)
		if err != nil {
			return Dataset{}, Report{}, fmt.Errorf("map %s row %d: %w", provider, i, err)
		}
		rows = append(rows, rec)
	}
	return Reconcile(provider, rows, r)
}

// Reconcile drops duplicate champions (first row wins), adds a zeroed
// placeholder for every roster champion the rows do not mention, and sorts
// the result by win rate, highest first. rows is not modified.
func Reconcile(provider string, rows []Record, r roster.Roster) (Dataset, Report, error) {
	report := Report{Mapped: len(rows)}

	seenIDs := make(map[int]struct{}, len(r))
	records := make([]Record, 0, max(len(rows), len(r)))
	for _, rec := range rows {
		if _, dup := seenIDs[rec.ChampionID]; dup {
			report.Duplicates++
			continue
		}
		seenIDs[rec.ChampionID] = struct{}{}
		records = append(records, rec)
	}

	for _, id := range r.IDs() {
		name := r[id]
		if _, ok := seenIDs[id]; ok {
			continue
		}
		records = append(records, placeholder(provider, id, name))
		report.Placeholders = append(report.Placeholders, name)
	}

	slices.SortStableFunc(records, func(a, b Record) int {
		switch {
		case a.WinRate > b.WinRate:
			return -1
		case a.WinRate < b.WinRate:
			return 1
		default:
			return 0
		}
	})

	return Dataset{Provider: provider, Records: records, GeneratedAt: now()}, report, nil
}

// JoinNames renders names as "a, b and c".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
