package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/alfawal/LoA/internal/export"
	"github.com/alfawal/LoA/internal/provider"
)

type fileConfig struct {
	HTTP struct {
		Timeout   string `toml:"timeout"`
		UserAgent string `toml:"user_agent"`
		Requests  int    `toml:"requests"`
		Window    string `toml:"window"`
		Burst     int    `toml:"burst"`
	} `toml:"http"`
	Roster struct {
		Dir         string `toml:"dir"`
		Patch       string `toml:"patch"`
		VersionsURL string `toml:"versions_url"`
		CDN         string `toml:"cdn"`
		Locale      string `toml:"locale"`
	} `toml:"roster"`
	Providers provider.Settings `toml:"providers"`
	Output    struct {
		Dir     string   `toml:"dir"`
		Formats []string `toml:"formats"`
		Plot    *bool    `toml:"plot"`
	} `toml:"output"`
	Preview struct {
		Addr string `toml:"addr"`
	} `toml:"preview"`
	Notify struct {
		WebhookURL string `toml:"webhook_url"`
		Top        int    `toml:"top"`
	} `toml:"notify"`
}

// loadFile merges the TOML file at path into cfg. A missing file is only an
// error when its path was given explicitly.
func loadFile(path string, explicit bool, cfg *Config) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return false, nil
		}
		return false, fmt.Errorf("read config %q: %w", path, err)
	}

	var fc fileConfig
	meta, err := toml.Decode(string(data), &fc)
	if err != nil {
		return false, fmt.Errorf("parse config %q: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		slices.Sort(keys)
		return false, fmt.Errorf("parse config %q: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := fc.apply(cfg); err != nil {
		return false, fmt.Errorf("config %q: %w", path, err)
	}
	return true, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	timeout, err := parseDuration(fc.HTTP.Timeout, "http.timeout")
	if err != nil {
		return err
	}
	window, err := parseDuration(fc.HTTP.Window, "http.window")
	if err != nil {
		return err
	}
	if fc.HTTP.Requests < 0 || fc.HTTP.Burst < 0 {
		return fmt.Errorf("http.requests and http.burst must not be negative")
	}
	cfg.HTTP = HTTPConfig{
		Timeout:   timeout,
		UserAgent: strings.TrimSpace(fc.HTTP.UserAgent),
		Requests:  fc.HTTP.Requests,
		Window:    window,
		Burst:     fc.HTTP.Burst,
	}

	setString(&cfg.Roster.Dir, fc.Roster.Dir)
	setString(&cfg.Roster.Patch, fc.Roster.Patch)
	setString(&cfg.Roster.VersionsURL, fc.Roster.VersionsURL)
	setString(&cfg.Roster.CDN, fc.Roster.CDN)
	setString(&cfg.Roster.Locale, fc.Roster.Locale)
	cfg.Providers = fc.Providers

	setString(&cfg.OutDir, fc.Output.Dir)
	for _, tag := range fc.Output.Formats {
		f, err := export.ParseFormat(tag)
		if err != nil {
			return fmt.Errorf("output.formats: %w", err)
		}
		if !slices.Contains(cfg.Formats, f) {
			cfg.Formats = append(cfg.Formats, f)
		}
	}
	if fc.Output.Plot != nil {
		cfg.Plot = *fc.Output.Plot
	}

	setString(&cfg.Addr, fc.Preview.Addr)
	setString(&cfg.DiscordWebhook, fc.Notify.WebhookURL)
	if fc.Notify.Top > 0 {
		cfg.NotifyTop = fc.Notify.Top
	}
	return nil
}

func parseDuration(v, key string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: parse duration %q: %w", key, v, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration %q is negative", key, v)
	}
	return d, nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
