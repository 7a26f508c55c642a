package opgg

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
	Name = "OP.GG"

	DefaultURL    = "https://www.op.gg/api/statistics/global/champions/ranked"
	DefaultPeriod = "month"
	DefaultTier   = "platinum_plus"
)

// Settings are the request parameters sent to OP.GG. Empty fields use the
// package defaults; Position is sent empty to get every lane combined.
type Settings struct {
	URL      string `toml:"url"`
	Period   string `toml:"period"`
	Tier     string `toml:"tier"`
	Position string `toml:"position"`
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
	if strings.TrimSpace(settings.Period) == "" {
		settings.Period = DefaultPeriod
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
	query := url.Values{
		"period":   {c.settings.Period},
		"tier":     {c.settings.Tier},
		"position": {c.settings.Position},
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
	Data *[]row `json:"data"`
}

type row struct {
	ChampionID *int `json:"champion_id"`
	Play       *int `json:"play"`
	Win        *int `json:"win"`
}

// Rows is the decoded OP.GG response. OP.GG has no per-role breakdown, so every
// row maps to stats.NoRole.
type Rows struct {
	rows []row
}

func decode(body []byte) (*Rows, error) {
	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &stats.MalformedResponseError{Provider: Name, Detail: "decode body", Err: err}
	}
	if resp.Data == nil {
		return nil, &stats.MalformedResponseError{Provider: Name, Detail: `missing "data"`}
	}
	return &Rows{rows: *resp.Data}, nil
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
		return stats.Record{}, missing(i, "champion_id")
	case row.Play == nil:
		return stats.Record{}, missing(i, "play")
	case row.Win == nil:
		return stats.Record{}, missing(i, "win")
	}
	return stats.NewRecord(Name, *row.ChampionID, stats.NoRole, *row.Play, *row.Win, champions)
}

func missing(i int, field string) error {
	return &stats.MalformedResponseError{Provider: Name, Detail: fmt.Sprintf("row %d is missing %q", i, field)}
}
