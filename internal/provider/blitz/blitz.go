package blitz

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/alfawal/LoA/internal/roster"
	"github.com/alfawal/LoA/internal/stats"
	"github.com/alfawal/LoA/internal/webapi"
)

const (
	Name = "BLITZ.GG"

	DefaultURL    = "https://league-champion-aggregate.iesdev.com/graphql"
	DefaultQueue  = "RANKED_SOLO_5X5"
	DefaultRegion = "WORLD"
	DefaultTier   = "PLATINUM_PLUS"
)

// tierListQuery asks for the most popular role of every champion only.
const tierListQuery = `query TierList($region:Region,$queue:Queue,$tier:Tier){allChampionStats(region:$region,queue:$queue,tier:$tier,mostPopular:true){championId role patch wins games tierListTier{tierRank previousTierRank status}}}`

type Settings struct {
	URL    string `toml:"url"`
	Queue  string `toml:"queue"`
	Region string `toml:"region"`
	Tier   string `toml:"tier"`
}

type Client struct {
	api      *webapi.Client
	settings Settings
}

func New(api *webapi.Client, settings Settings) *Client {
	settings.URL = strings.TrimSpace(settings.URL)
	if settings.URL == "" {
		settings.URL = DefaultURL
	}
	if strings.TrimSpace(settings.Queue) == "" {
		settings.Queue = DefaultQueue
	}
	if strings.TrimSpace(settings.Region) == "" {
		settings.Region = DefaultRegion
	}
	if strings.TrimSpace(settings.Tier) == "" {
		settings.Tier = DefaultTier
	}
	return &Client{api: api, settings: settings}
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) FetchRaw(ctx context.Context) (stats.RawRows, error) {
	variables, err := json.Marshal(map[string]string{
		"queue":  c.settings.Queue,
		"region": c.settings.Region,
		"tier":   c.settings.Tier,
	})
	if err != nil {
		return nil, fmt.Errorf("encode variables: %w", err)
	}
	query := url.Values{
		"query":     {tierListQuery},
		"variables": {string(variables)},
	}
	body, err := c.api.GetRaw(ctx, Name, c.settings.URL, query)
	if err != nil {
		return nil, err
	}
	rows, err := decode(body)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type response struct {
	Data *struct {
		AllChampionStats *[]row `json:"allChampionStats"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type row struct {
	ChampionID *int    `json:"championId"`
	Role       *string `json:"role"`
	Patch      string  `json:"patch"`
	Wins       *int    `json:"wins"`
	Games      *int    `json:"games"`
}

// Rows is the decoded Blitz.gg tier list. Rows come one per champion and role,
// most popular role first.
type Rows struct {
	rows []row
}

func decode(body []byte) (*Rows, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &stats.MalformedResponseError{Provider: Name, Detail: "decode body", Err: err}
	}
	if len(resp.Errors) > 0 {
		msgs := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &stats.MalformedResponseError{Provider: Name, Detail: "graphql errors: " + strings.Join(msgs, "; ")}
	}
	if resp.Data == nil || resp.Data.AllChampionStats == nil {
		return nil, &stats.MalformedResponseError{Provider: Name, Detail: `missing "data.allChampionStats"`}
	}
	return &Rows{rows: *resp.Data.AllChampionStats}, nil
}

func (r *Rows) Provider() string {
	return Name
}

func (r *Rows) Len() int {
	return len(r.rows)
}

func (r *Rows) MapRow(i int, champions roster.Roster) (stats.Record, error) {
	row := r.rows[i]
	switch {
	case row.ChampionID == nil:
		return stats.Record{}, missing(i, "championId")
	case row.Games == nil:
		return stats.Record{}, missing(i, "games")
	case row.Wins == nil:
		return stats.Record{}, missing(i, "wins")
	}
	role := ""
	if row.Role != nil {
		role = *row.Role
	}
	return stats.NewRecord(Name, *row.ChampionID, role, *row.Games, *row.Wins, champions)
}

func missing(i int, field string) error {
	return &stats.MalformedResponseError{Provider: Name, Detail: fmt.Sprintf("row %d is missing %q", i, field)}
}
