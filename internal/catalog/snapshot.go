package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Entry is one catalog line as fetched from the management API.
// Type is only written for lab catalogs.
type Entry struct {
	Name       string
	Technology string
	UUID       string
	Type       string
}

// Write renders entries in the column layout of kind.
func Write(w io.Writer, kind Kind, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(kind.Header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Name, e.Technology, e.UUID}
		if len(kind.Header) > 3 {
			row = append(row, e.Type)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteFile(path string, kind Kind, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("catalog: create %s: %w", path, err)
	}
	if err := Write(f, kind, entries); err != nil {
		f.Close()
		return fmt.Errorf("catalog: write %s: %w", path, err)
	}
	return f.Close()
}
