package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alfawal/LoA/internal/roster"
)

// NoRole marks a row whose provider does not break statistics down by role.
const NoRole = "-"

// WinRate is a percentage rounded to two decimals.
type WinRate float64

func ComputeWinRate(games, wins int) WinRate {
	if games <= 0 {
		return 0
	}
	return WinRate(math.Round(float64(wins)/float64(games)*100*100) / 100)
}

func (w WinRate) String() string {
	return fmt.Sprintf("%.2f%%", float64(w))
}

// Record is one champion row of a dataset.
type Record struct {
	ChampionID   int     `json:"champion_id"`
	ChampionName string  `json:"champion_name"`
	Role         string  `json:"role"`
	TotalGames   int     `json:"total_games"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      WinRate `json:"win_rate"`
	Provider     string  `json:"provider"`
	Synthesized  bool    `json:"synthesized"`
}

// Dataset is the normalized, roster-complete output of one run. It is not
// modified once returned by Normalize or Reconcile.
type Dataset struct {
	Provider    string
	Records     []Record
	GeneratedAt time.Time
}

// Report carries the non-fatal findings of a normalization run.
type Report struct {
	Mapped       int
	Duplicates   int
	Placeholders []string
}

// RawRows is a provider response that can be mapped row by row. The response
// shape stays private to the provider package.
type RawRows interface {
	Provider() string
	Len() int
	MapRow(i int, r roster.Roster) (Record, error)
}

// NewRecord builds a validated record for champion id. It is the single
// mapping path shared by every provider.
func NewRecord(provider string, id int, role string, games, wins int, r roster.Roster) (Record, error) {
	name, ok := r.Name(id)
	if !ok {
		return Record{}, &UnknownChampionError{Provider: provider, ChampionID: id}
	}
	if games < 0 {
		return Record{}, &MalformedResponseError{Provider: provider, Detail: fmt.Sprintf("champion %d has negative games %d", id, games)}
	}
	if wins < 0 || wins > games {
		return Record{}, &MalformedResponseError{Provider: provider, Detail: fmt.Sprintf("champion %d has %d wins out of %d games", id, wins, games)}
	}
	return Record{
		ChampionID:   id,
		ChampionName: name,
		Role:         NormalizeRole(role),
		TotalGames:   games,
		Wins:         wins,
		Losses:       games - wins,
		WinRate:      ComputeWinRate(games, wins),
		Provider:     provider,
	}, nil
}

func placeholder(provider string, id int, name string) Record {
	return Record{
		ChampionID:   id,
		ChampionName: name,
		Role:         NoRole,
		Provider:     provider,
		Synthesized:  true,
	}
}

// NormalizeRole title-cases a provider role label. Labels naming the attack
// damage carry stay fully upper case; empty labels become NoRole.
func NormalizeRole(role string) string {
	role = strings.TrimSpace(role)
	if role == "" || role == NoRole {
		return NoRole
	}
	if strings.Contains(strings.ToLower(role), "adc") {
		return "ADC"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(role, "_", " "))
}
