package plot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alfawal/LoA/internal/stats"
)

func TestRender_WritesPNG(t *testing.T) {
	ds := stats.Dataset{
		Provider: "BLITZ.GG",
		Records: []stats.Record{
			{ChampionID: 22, ChampionName: "Ashe", WinRate: 52},
			{ChampionID: 1, ChampionName: "Annie", WinRate: 50},
			{ChampionID: 2, ChampionName: "Olaf", Synthesized: true},
		},
	}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	path, err := Render(ds, t.TempDir(), ts)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if filepath.Base(filepath.Dir(path)) != Dir {
		t.Fatalf("path = %q, want it under %q", path, Dir)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("Render() output is not a PNG")
	}
	if ds.Records[0].ChampionName != "Ashe" {
		t.Fatalf("Render() reordered the dataset")
	}
}

func TestRender_EmptyDataset(t *testing.T) {
	if _, err := Render(stats.Dataset{}, t.TempDir(), time.Now()); err == nil {
		t.Fatalf("Render(empty) error = nil, want error")
	}
}
