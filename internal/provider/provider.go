package provider

import (
	"context"
	"slices"
	"strings"

	"github.com/alfawal/LoA/internal/provider/blitz"
	"github.com/alfawal/LoA/internal/provider/opgg"
	"github.com/alfawal/LoA/internal/stats"
	"github.com/alfawal/LoA/internal/webapi"
)

// Provider is one ranking website. FetchRaw performs exactly one request.
type Provider interface {
	Name() string
	FetchRaw(ctx context.Context) (stats.RawRows, error)
}

type Settings struct {
	OPGG  opgg.Settings  `toml:"opgg"`
	Blitz blitz.Settings `toml:"blitz"`
}

var constructors = map[string]func(*webapi.Client, Settings) Provider{
	"op.gg":    func(c *webapi.Client, s Settings) Provider { return opgg.New(c, s.OPGG) },
	"blitz.gg": func(c *webapi.Client, s Settings) Provider { return blitz.New(c, s.Blitz) },
}

// Names lists the accepted provider selectors in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Normalize returns the canonical selector for name, or "" when unknown.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := constructors[name]; ok {
		return name
	}
	return ""
}

func New(name string, client *webapi.Client, settings Settings) (Provider, error) {
	key := Normalize(name)
	if key == "" {
		return nil, &stats.InvalidFormatError{Kind: "provider", Value: name, Valid: Names()}
	}
	return constructors[key](client, settings), nil
}
