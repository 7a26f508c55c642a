package plot

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"time"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/alfawal/LoA/internal/export"
	"github.com/alfawal/LoA/internal/stats"
)

const (
	Dir = "plots"

	width     = 10 * vg.Inch
	barHeight = 8
	rowHeight = 12
	minHeight = 4 * vg.Inch
)

var barColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

// Render draws a horizontal bar chart of win rate per champion, highest on
// top, into <dir>/plots and returns the image path.
func Render(ds stats.Dataset, dir string, ts time.Time) (string, error) {
	if len(ds.Records) == 0 {
		return "", errors.New("nothing to plot: dataset is empty")
	}

	// The first bar is drawn at the bottom, so feed the records reversed.
	records := slices.Clone(ds.Records)
	slices.Reverse(records)

	values := make(plotter.Values, len(records))
	names := make([]string, len(records))
	for i, rec := range records {
		values[i] = float64(rec.WinRate)
		names[i] = rec.ChampionName
	}

	p := gplot.New()
	p.Title.Text = fmt.Sprintf("Champion win rates (%s)", ds.Provider)
	p.X.Label.Text = "Win rate (%)"
	p.X.Min = 0

	bars, err := plotter.NewBarChart(values, vg.Points(barHeight))
	if err != nil {
		return "", fmt.Errorf("build bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars, plotter.NewGrid())
	p.NominalY(names...)

	outDir := filepath.Join(dir, Dir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create plot dir: %w", err)
	}
	path := filepath.Join(outDir, export.FileName(ds.Provider, ts, "png"))
	height := max(vg.Points(float64(rowHeight*len(records))), minHeight)
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("save plot: %w", err)
	}
	return path, nil
}
