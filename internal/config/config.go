package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/alfawal/LoA/internal/export"
	"github.com/alfawal/LoA/internal/provider"
	"github.com/alfawal/LoA/internal/roster"
)

const (
	defaultConfigFile = "config.toml"
	defaultOutDir     = "."
	defaultAddr       = "127.0.0.1:8000"
	defaultNotifyTop  = 10
)

// UsageError is a problem with how the command was invoked.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

var ErrNothingToDo = &UsageError{Msg: "please specify an export type, plot or serve flag"}

type HTTPConfig struct {
	Timeout   time.Duration
	UserAgent string
	Requests  int
	Window    time.Duration
	Burst     int
}

type RosterConfig struct {
	Dir         string
	Patch       string
	Refresh     bool
	VersionsURL string
	CDN         string
	Locale      string
}

type Config struct {
	Provider  string
	Formats   []export.Format
	Plot      bool
	Serve     bool
	Addr      string
	OutDir    string
	HTTP      HTTPConfig
	Roster    RosterConfig
	Providers provider.Settings

	DatabaseURL    string
	DiscordWebhook string
	NotifyTop      int
	LogLevel       slog.Level
	ConfigPath     string
}

type flagValues struct {
	formats    formatList
	plot       bool
	serve      bool
	addr       string
	out        string
	assets     string
	patch      string
	refresh    bool
	configPath string
	logLevel   string
	webhook    string
}

// Parse builds the run configuration from, in increasing priority: defaults,
// the TOML config file, the environment (and .env) and args.
func Parse(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var fl flagValues
	fs := newFlagSet(&fl, io.Discard)

	providerName, rest := splitProvider(args)
	if err := parseFlags(fs, rest); err != nil {
		return Config{}, err
	}
	extra := fs.Args()
	if providerName == "" && len(extra) > 0 {
		// Flags may follow the provider too.
		providerName = extra[0]
		if err := parseFlags(fs, extra[1:]); err != nil {
			return Config{}, err
		}
		extra = fs.Args()
	}
	if len(extra) > 0 {
		return Config{}, &UsageError{Msg: fmt.Sprintf("unexpected arguments: %s", strings.Join(extra, " "))}
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg := defaults()

	path, explicit := defaultConfigFile, false
	if env := strings.TrimSpace(os.Getenv("LOA_CONFIG")); env != "" {
		path, explicit = env, true
	}
	if set["config"] {
		path, explicit = strings.TrimSpace(fl.configPath), true
	}
	loaded, err := loadFile(path, explicit, &cfg)
	if err != nil {
		return Config{}, err
	}
	if loaded {
		cfg.ConfigPath = path
	}

	applyEnv(&cfg)
	if err := applyFlags(&cfg, fl, set); err != nil {
		return Config{}, err
	}

	cfg.Provider = providerName
	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Usage writes the command help to w.
func Usage(w io.Writer) {
	var fl flagValues
	fs := newFlagSet(&fl, w)
	fmt.Fprintf(w, "Usage: loa <%s> [flags]\n\nFlags:\n", strings.Join(provider.Names(), "|"))
	fs.PrintDefaults()
}

func newFlagSet(fl *flagValues, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("loa", flag.ContinueOnError)
	fs.SetOutput(out)

	formatsHelp := "export `formats`, comma separated (" + strings.Join(formatNames(), ", ") + ")"
	fs.Var(&fl.formats, "t", formatsHelp)
	fs.Var(&fl.formats, "type", formatsHelp)
	fs.Var(&switchFlag{target: &fl.plot, value: true}, "plot", "render a win rate bar chart")
	fs.Var(&switchFlag{target: &fl.plot, value: false}, "no-plot", "do not render a bar chart")
	fs.BoolVar(&fl.serve, "serve", false, "serve the dataset over HTTP until interrupted")
	fs.StringVar(&fl.addr, "addr", "", "preview server `address` (default "+defaultAddr+")")
	fs.StringVar(&fl.out, "out", "", "output `dir` for data/ and plots/")
	fs.StringVar(&fl.assets, "assets", "", "roster cache `dir` (default "+roster.DefaultDir+")")
	fs.StringVar(&fl.patch, "patch", "", "game `patch` for the roster, newest when empty")
	fs.BoolVar(&fl.refresh, "refresh-roster", false, "download the roster even when cached")
	fs.StringVar(&fl.configPath, "config", "", "TOML config `file` (default "+defaultConfigFile+")")
	fs.StringVar(&fl.logLevel, "log-level", "", "log `level`: debug, info, warn or error")
	fs.StringVar(&fl.webhook, "discord-webhook", "", "Discord webhook `url` for a summary post")
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return &UsageError{Msg: "invalid arguments", Err: err}
	}
	return nil
}

func splitProvider(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}

func defaults() Config {
	return Config{
		Addr:      defaultAddr,
		OutDir:    defaultOutDir,
		NotifyTop: defaultNotifyTop,
		LogLevel:  slog.LevelInfo,
		Roster:    RosterConfig{Dir: roster.DefaultDir},
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL")); v != "" {
		cfg.DiscordWebhook = v
	}
	env := strings.TrimSpace(os.Getenv("LOA_ENV"))
	if env == "" {
		env = strings.TrimSpace(os.Getenv("APP_ENV"))
	}
	if env != "" {
		cfg.LogLevel = inferLogLevel(strings.ToLower(env))
	}
}

func applyFlags(cfg *Config, fl flagValues, set map[string]bool) error {
	if len(fl.formats) > 0 {
		cfg.Formats = nil
		for _, tag := range fl.formats {
			f, err := export.ParseFormat(tag)
			if err != nil {
				return &UsageError{Msg: "invalid export type", Err: err}
			}
			if !slices.Contains(cfg.Formats, f) {
				cfg.Formats = append(cfg.Formats, f)
			}
		}
	}
	if set["plot"] || set["no-plot"] {
		cfg.Plot = fl.plot
	}
	if set["serve"] {
		cfg.Serve = fl.serve
	}
	if set["addr"] {
		cfg.Addr = strings.TrimSpace(fl.addr)
	}
	if set["out"] {
		cfg.OutDir = strings.TrimSpace(fl.out)
	}
	if set["assets"] {
		cfg.Roster.Dir = strings.TrimSpace(fl.assets)
	}
	if set["patch"] {
		cfg.Roster.Patch = strings.TrimSpace(fl.patch)
	}
	if set["refresh-roster"] {
		cfg.Roster.Refresh = fl.refresh
	}
	if set["discord-webhook"] {
		cfg.DiscordWebhook = strings.TrimSpace(fl.webhook)
	}
	if set["log-level"] {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.TrimSpace(fl.logLevel))); err != nil {
			return &UsageError{Msg: "invalid log level", Err: err}
		}
		cfg.LogLevel = lvl
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Provider == "" {
		return &UsageError{Msg: fmt.Sprintf("a provider is required (%s)", strings.Join(provider.Names(), ", "))}
	}
	if _, err := provider.New(cfg.Provider, nil, provider.Settings{}); err != nil {
		return &UsageError{Msg: "invalid provider", Err: err}
	}
	if len(cfg.Formats) == 0 && !cfg.Plot && !cfg.Serve {
		return ErrNothingToDo
	}
	if cfg.OutDir == "" {
		cfg.OutDir = defaultOutDir
	}
	if cfg.Roster.Dir == "" {
		cfg.Roster.Dir = roster.DefaultDir
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	return nil
}

func inferLogLevel(appEnv string) slog.Level {
	if appEnv == "debug" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func formatNames() []string {
	names := make([]string, 0, 4)
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return names
}

// formatList collects -t values; both "-t csv,json" and "-t csv -t json" work.
type formatList []string

func (l *formatList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *formatList) Set(v string) error {
	for part := range strings.SplitSeq(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

// switchFlag is a boolean flag that stores a fixed value, so that -plot and
// -no-plot share one target and the last one given wins.
type switchFlag struct {
	target *bool
	value  bool
}

func (f *switchFlag) String() string {
	if f == nil || f.target == nil {
		return "false"
	}
	return fmt.Sprint(*f.target == f.value)
}

func (f *switchFlag) Set(s string) error {
	on, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*f.target = on == f.value
	return nil
}

func (f *switchFlag) IsBoolFlag() bool {
	return true
}
