package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/alfawal/LoA/internal/stats"
)

var stamp = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func sampleDataset() stats.Dataset {
	return stats.Dataset{
		Provider:    "OP.GG",
		GeneratedAt: stamp,
		Records: []stats.Record{
			{ChampionID: 1, ChampionName: "Annie", Role: "-", TotalGames: 100, Wins: 60, Losses: 40, WinRate: 60, Provider: "OP.GG"},
			{ChampionID: 3, ChampionName: "Ashe", Role: "-", Provider: "OP.GG", Synthesized: true},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"xlsx":             XLSX,
		"Spreadsheet":      XLSX,
		"csv":              CSV,
		"delimited-text":   CSV,
		" JSON ":           JSON,
		"json-document":    JSON,
		"txt":              TXT,
		"plain-text-table": TXT,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
}

func TestUnsupportedFormatWritesNothing(t *testing.T) {
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("ParseFormat(%q) error = nil, want error", "xml")
	}

	dir := t.TempDir()
	_, err := Write(sampleDataset(), Format("xml"), dir, stamp)
	invalid, ok := errors.AsType[*stats.InvalidFormatError](err)
	if !ok {
		t.Fatalf("Write(xml) error = %v, want *stats.InvalidFormatError", err)
	}
	if invalid.Kind != "format" || invalid.Value != "xml" {
		t.Fatalf("error = %+v", invalid)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("Write(xml) created %d entries, want none", len(entries))
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"OP.GG", "results_opgg_2024-01-02_03-04-05.csv"},
		{"BLITZ.GG", "results_blitzgg_2024-01-02_03-04-05.csv"},
		{"", "results_2024-01-02_03-04-05.csv"},
	}
	for _, tc := range tests {
		if got := FileName(tc.provider, stamp, "csv"); got != tc.want {
			t.Fatalf("FileName(%q) = %q, want %q", tc.provider, got, tc.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	path, err := Write(sampleDataset(), CSV, t.TempDir(), stamp)
	if err != nil {
		t.Fatalf("Write(csv) error = %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != DataDir {
		t.Fatalf("path = %q, want it under %q", path, DataDir)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(Columns, ",") {
		t.Fatalf("header = %v", rows[0])
	}
	if rows[1][6] != "60.00%" || rows[2][6] != "0.00%" {
		t.Fatalf("win rates = %q, %q", rows[1][6], rows[2][6])
	}
}

func TestWriteJSON(t *testing.T) {
	path, err := Write(sampleDataset(), JSON, t.TempDir(), stamp)
	if err != nil {
		t.Fatalf("Write(json) error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Provider  string           `json:"provider"`
		Champions []map[string]any `json:"champions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode json export: %v", err)
	}
	if doc.Provider != "OP.GG" || len(doc.Champions) != 2 {
		t.Fatalf("doc = %+v", doc)
	}
	if rate, ok := doc.Champions[0]["win_rate"].(float64); !ok || rate != 60 {
		t.Fatalf("win_rate = %#v, want numeric 60", doc.Champions[0]["win_rate"])
	}
}

func TestWriteTXT(t *testing.T) {
	path, err := Write(sampleDataset(), TXT, t.TempDir(), stamp)
	if err != nil {
		t.Fatalf("Write(txt) error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"ChampionName", "Annie", "60.00%", "Ashe"} {
		if !strings.Contains(text, want) {
			t.Fatalf("txt export missing %q:\n%s", want, text)
		}
	}
}

func TestWriteXLSX(t *testing.T) {
	path, err := Write(sampleDataset(), XLSX, t.TempDir(), stamp)
	if err != nil {
		t.Fatalf("Write(xlsx) error = %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 || rows[0][0] != "ChampionId" || rows[1][1] != "Annie" || rows[1][6] != "60.00%" {
		t.Fatalf("rows = %v", rows)
	}
}
