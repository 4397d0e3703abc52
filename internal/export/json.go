package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Currency   string     `json:"currency"`
	Fields     []Field    `json:"fields"`
	Count      int        `json:"count"`
	Weeks      []jsonWeek `json:"weeks"`
}

type jsonWeek struct {
	Label        string              `json:"label"`
	Start        string              `json:"start"`
	End          string              `json:"end"`
	TotalMinutes int64               `json:"total_minutes"`
	Total        string              `json:"total"`
	Entries      []map[string]string `json:"entries"`
}

func buildJSON(t Table, p Projector) jsonExport {
	doc := jsonExport{
		ExportedAt: p.Now.UTC().Format(time.RFC3339),
		Currency:   p.Profile.Currency,
		Fields:     t.Fields,
	}
	for _, w := range t.Weeks {
		jw := jsonWeek{
			Label:        w.Label,
			Start:        w.Start.Format(time.RFC3339),
			End:          w.End.Format(time.RFC3339Nano),
			TotalMinutes: w.Minutes,
			Total:        formatMinutes(w.Minutes),
		}
		for _, pairs := range w.Rows {
			row := make(map[string]string, len(pairs))
			for _, pair := range pairs {
				row[string(pair.Field)] = pair.Value
			}
			jw.Entries = append(jw.Entries, row)
		}
		doc.Count += len(w.Rows)
		doc.Weeks = append(doc.Weeks, jw)
	}
	return doc
}

func WriteJSON(out io.Writer, t Table, p Projector) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildJSON(t, p)); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

func ToJSON(t Table, p Projector, path string) error {
	data, err := json.MarshalIndent(buildJSON(t, p), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
