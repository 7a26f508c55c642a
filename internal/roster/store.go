package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alfawal/LoA/internal/ddragon"
)

const (
	MetadataFile = "champions.json"
	NamesFile    = "champions_names_by_id.json"

	DefaultDir = "assets"
)

// Policy decides when Load goes back to Data Dragon.
type Policy int

const (
	// RefreshMissing refreshes only when the cache is absent or pinned to a
	// different patch than requested.
	RefreshMissing Policy = iota
	// RefreshAlways refreshes on the first Load of the store.
	RefreshAlways
)

// Source is the remote side of the roster: *ddragon.Client in production.
type Source interface {
	FetchVersions(ctx context.Context) ([]string, error)
	FetchChampionsRaw(ctx context.Context, ver string) (json.RawMessage, error)
}

type Options struct {
	Dir    string
	Patch  string
	Policy Policy
}

// Store is the on-disk roster cache. It is not safe for use by concurrent
// processes sharing the same directory.
type Store struct {
	dir       string
	patch     string
	policy    Policy
	source    Source
	refreshed bool
}

func NewStore(source Source, opts Options) *Store {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{
		dir:    dir,
		patch:  strings.TrimSpace(opts.Patch),
		policy: opts.Policy,
		source: source,
	}
}

func (s *Store) Dir() string {
	return s.dir
}

// Load returns the cached roster, refreshing it first when the policy asks for
// it. A warm cache is served without any network I/O.
func (s *Store) Load(ctx context.Context) (Roster, error) {
	if s.policy == RefreshAlways && !s.refreshed {
		return s.Refresh(ctx, s.patch)
	}

	if s.patch != "" {
		cached, err := s.Patch()
		if err == nil && cached != s.patch {
			slog.Info("Cached roster is for another patch", "cached", cached, "wanted", s.patch)
			return s.Refresh(ctx, s.patch)
		}
	}

	r, err := s.readNames()
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("Roster cache missing, refreshing", "dir", s.dir)
		return s.Refresh(ctx, s.patch)
	}
	return r, err
}

// Refresh downloads champion metadata for patch (the newest one when empty),
// validates it and replaces both cache files.
func (s *Store) Refresh(ctx context.Context, patch string) (Roster, error) {
	if s.source == nil {
		return nil, fmt.Errorf("roster source is not configured")
	}
	patch = strings.TrimSpace(patch)
	if patch == "" {
		versions, err := s.source.FetchVersions(ctx)
		if err != nil {
			return nil, &PatchResolutionError{Err: err}
		}
		if len(versions) == 0 || strings.TrimSpace(versions[0]) == "" {
			return nil, &PatchResolutionError{Err: errors.New("versions endpoint returned no patch")}
		}
		patch = strings.TrimSpace(versions[0])
	}

	raw, err := s.source.FetchChampionsRaw(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("fetch champion metadata for patch %s: %w", patch, err)
	}

	r, err := namesFromMetadata(patch, raw)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create roster dir: %w", err)
	}
	names, err := json.MarshalIndent(r.encode(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	// Names go first. If the metadata write then fails the names are removed,
	// so the next Load refreshes instead of pairing them with old metadata.
	namesPath := filepath.Join(s.dir, NamesFile)
	if err := writeFile(namesPath, names); err != nil {
		return nil, err
	}
	if err := writeFile(filepath.Join(s.dir, MetadataFile), raw); err != nil {
		_ = os.Remove(namesPath)
		return nil, err
	}

	s.refreshed = true
	slog.Info("Roster refreshed", "patch", patch, "champions", len(r))
	return r, nil
}

// Patch returns the patch version recorded in the cached metadata.
func (s *Store) Patch() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return "", err
	}
	var meta struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("decode %s: %w", MetadataFile, err)
	}
	return meta.Version, nil
}

func (s *Store) readNames() (Roster, error) {
	path := filepath.Join(s.dir, NamesFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &AssetIntegrityError{Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	r := make(Roster, len(raw))
	for key, name := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			return nil, &AssetIntegrityError{Err: fmt.Errorf("%s: champion key %q is not an integer", path, key)}
		}
		r[id] = name
	}
	return r, nil
}

func namesFromMetadata(patch string, raw []byte) (Roster, error) {
	var list ddragon.ChampionList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, &AssetIntegrityError{Patch: patch, Err: fmt.Errorf("decode %s: %w", MetadataFile, err)}
	}
	if len(list.Data) == 0 {
		return nil, &AssetIntegrityError{Patch: patch, Err: errors.New("no champions listed")}
	}

	r := make(Roster, len(list.Data))
	for slug, champ := range list.Data {
		id, err := strconv.Atoi(strings.TrimSpace(champ.Key))
		if err != nil {
			return nil, &AssetIntegrityError{Patch: patch, Err: fmt.Errorf("champion %q has key %q", slug, champ.Key)}
		}
		r[id] = champ.Name
	}
	if len(r) != len(list.Data) {
		return nil, &AssetIntegrityError{Patch: patch, Entries: len(list.Data), IDs: len(r)}
	}
	return r, nil
}

func (r Roster) encode() map[string]string {
	out := make(map[string]string, len(r))
	for id, name := range r {
		out[strconv.Itoa(id)] = name
	}
	return out
}

var writeFile = writeFileAtomic

func writeFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
