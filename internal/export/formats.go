package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/xuri/excelize/v2"

	"github.com/alfawal/LoA/internal/stats"
)

const sheetName = "Sheet1"

func writeXLSX(ds stats.Dataset, path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	header := make([]any, 0, len(Columns))
	for _, c := range Columns {
		header = append(header, c)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, rec := range ds.Records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			rec.ChampionID,
			rec.ChampionName,
			rec.Role,
			rec.TotalGames,
			rec.Wins,
			rec.Losses,
			rec.WinRate.String(),
			rec.Provider,
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func writeCSV(ds stats.Dataset, path string) error {
	return createFile(path, func(file *os.File) error {
		w := csv.NewWriter(file)
		if err := w.Write(Columns); err != nil {
			return err
		}
		for _, rec := range ds.Records {
			if err := w.Write(Row(rec)); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	})
}

// Document is the JSON export shape. Win rates stay numeric.
type Document struct {
	Provider    string         `json:"provider"`
	GeneratedAt time.Time      `json:"generated_at"`
	Champions   []stats.Record `json:"champions"`
}

func NewDocument(ds stats.Dataset) Document {
	champions := ds.Records
	if champions == nil {
		champions = []stats.Record{}
	}
	return Document{Provider: ds.Provider, GeneratedAt: ds.GeneratedAt, Champions: champions}
}

func writeJSON(ds stats.Dataset, path string) error {
	return createFile(path, func(file *os.File) error {
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(ds))
	})
}

func writeTXT(ds stats.Dataset, path string) error {
	return createFile(path, func(file *os.File) error {
		rows := make([][]string, 0, len(ds.Records))
		for _, rec := range ds.Records {
			rows = append(rows, Row(rec))
		}
		table := tablewriter.NewWriter(file)
		table.SetAutoFormatHeaders(false)
		table.SetHeader(Columns)
		table.AppendBulk(rows)
		table.Render()
		_, err := fmt.Fprintf(file, "\n%d champions from %s\n", len(ds.Records), ds.Provider)
		return err
	})
}
