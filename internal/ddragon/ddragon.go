package ddragon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/alfawal/LoA/internal/webapi"
)

const (
	BaseURL            = "https://ddragon.leagueoflegends.com/cdn"
	DefaultVersionsURL = "https://ddragon.leagueoflegends.com/api/versions.json"
	DefaultLocale      = "en_US"

	source = "ddragon"
)

type ChampionList struct {
	Type    string              `json:"type"`
	Format  string              `json:"format"`
	Version string              `json:"version"`
	Data    map[string]Champion `json:"data"`
}

type Champion struct {
	Version string          `json:"version"`
	ID      string          `json:"id"`
	Key     string          `json:"key"`
	Name    string          `json:"name"`
	Title   string          `json:"title"`
	Blurb   string          `json:"blurb"`
	Info    json.RawMessage `json:"info"`
	Image   json.RawMessage `json:"image"`
	Tags    []string        `json:"tags"`
	Partype string          `json:"partype"`
	Stats   json.RawMessage `json:"stats"`
}

type Client struct {
	api         *webapi.Client
	cdn         string
	versionsURL string
	locale      string
}

type Options struct {
	CDN         string
	VersionsURL string
	Locale      string
}

func NewClient(api *webapi.Client, opts Options) *Client {
	c := &Client{
		api:         api,
		cdn:         strings.TrimRight(strings.TrimSpace(opts.CDN), "/"),
		versionsURL: strings.TrimSpace(opts.VersionsURL),
		locale:      strings.TrimSpace(opts.Locale),
	}
	if c.cdn == "" {
		c.cdn = BaseURL
	}
	if c.versionsURL == "" {
		c.versionsURL = DefaultVersionsURL
	}
	if c.locale == "" {
		c.locale = DefaultLocale
	}
	return c
}

// FetchVersions returns the published patches, newest first.
func (c *Client) FetchVersions(ctx context.Context) ([]string, error) {
	v, err := webapi.GetJSON[[]string](ctx, c.api, source, c.versionsURL, nil)
	if err == nil && len(v) == 0 {
		return nil, fmt.Errorf("no versions found")
	}
	return v, err
}

// FetchChampionsRaw returns the champion.json body for ver untouched, so it can
// be cached exactly as served.
func (c *Client) FetchChampionsRaw(ctx context.Context, ver string) (json.RawMessage, error) {
	if ver = strings.TrimSpace(ver); ver == "" {
		return nil, fmt.Errorf("version is required")
	}
	return c.api.GetRaw(ctx, source, championURL(c.cdn, ver, c.locale), url.Values{})
}

func championURL(cdn, ver, loc string) string {
	return fmt.Sprintf("%s/%s/data/%s/champion.json", cdn, url.PathEscape(ver), loc)
}
