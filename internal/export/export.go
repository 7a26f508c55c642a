package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/alfawal/LoA/internal/stats"
)

type Format string

const (
	XLSX Format = "xlsx"
	CSV  Format = "csv"
	JSON Format = "json"
	TXT  Format = "txt"

	DataDir         = "data"
	TimestampLayout = "2006-01-02_15-04-05"
)

var aliases = map[string]Format{
	"xlsx":             XLSX,
	"spreadsheet":      XLSX,
	"csv":              CSV,
	"delimited-text":   CSV,
	"json":             JSON,
	"json-document":    JSON,
	"txt":              TXT,
	"plain-text-table": TXT,
}

// Formats lists the supported formats in the order they are documented.
func Formats() []Format {
	return []Format{XLSX, CSV, JSON, TXT}
}

func ParseFormat(tag string) (Format, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return f, nil
	}
	return "", invalid(tag)
}

func (f Format) Ext() string {
	return string(f)
}

// Columns is the header shared by every tabular output.
var Columns = []string{"ChampionId", "ChampionName", "Role", "TotalGames", "Wins", "Losses", "Winrate", "Provider"}

// Row renders rec in Columns order.
func Row(rec stats.Record) []string {
	return []string{
		strconv.Itoa(rec.ChampionID),
		rec.ChampionName,
		rec.Role,
		strconv.Itoa(rec.TotalGames),
		strconv.Itoa(rec.Wins),
		strconv.Itoa(rec.Losses),
		rec.WinRate.String(),
		rec.Provider,
	}
}

// FileName is results_<provider>_<timestamp>.<ext>, with the provider tag
// reduced to lower-case letters and digits.
func FileName(provider string, ts time.Time, ext string) string {
	slug := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, provider)
	if slug == "" {
		return fmt.Sprintf("results_%s.%s", ts.Format(TimestampLayout), ext)
	}
	return fmt.Sprintf("results_%s_%s.%s", slug, ts.Format(TimestampLayout), ext)
}

// Write encodes ds as format into <dir>/data and returns the written path.
// Nothing is written for an unsupported format.
func Write(ds stats.Dataset, format Format, dir string, ts time.Time) (string, error) {
	write, ok := writers[format]
	if !ok {
		return "", invalid(string(format))
	}
	outDir := filepath.Join(dir, DataDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(outDir, FileName(ds.Provider, ts, format.Ext()))
	if err := write(ds, path); err != nil {
		return "", fmt.Errorf("write %s: %w", format, err)
	}
	return path, nil
}

var writers = map[Format]func(stats.Dataset, string) error{
	XLSX: writeXLSX,
	CSV:  writeCSV,
	JSON: writeJSON,
	TXT:  writeTXT,
}

func invalid(tag string) error {
	valid := make([]string, 0, len(aliases))
	for _, f := range Formats() {
		valid = append(valid, string(f))
	}
	return &stats.InvalidFormatError{Kind: "format", Value: tag, Valid: valid}
}

func createFile(path string, encode func(*os.File) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return encode(f)
}
