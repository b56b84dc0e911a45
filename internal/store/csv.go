package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// CSV columns of the persisted table, kept compatible with the legacy
// availability sheet.
var csvHeader = []string{"Data", "Lekarz", "Status", "Przyczyna"}

const dateLayout = "2006-01-02"

// CSVStore keeps the preference table in a single CSV file. Saves replace
// the file atomically via a temp file and rename.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store backed by the file at path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Load reads the whole table. A missing file is an empty table, not an
// error.
func (s *CSVStore) Load(_ context.Context) ([]model.Preference, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrStoreUnavailable, s.path, err)
	}

	var records []model.Preference
	for i, row := range rows {
		if i == 0 && len(row) > 0 && row[0] == csvHeader[0] {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrStoreUnavailable, i+1, len(row))
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrStoreUnavailable, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save overwrites the whole table. No partial writes are observable: the
// new content lands in a temp file first and replaces the target with a
// single rename.
func (s *CSVStore) Save(_ context.Context, records []model.Preference) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrStoreUnavailable, err)
	}
	tmpPath := tmp.Name()

	writer := csv.NewWriter(tmp)
	rows := [][]string{csvHeader}
	for _, r := range records {
		rows = append(rows, formatRow(r))
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace %s: %v", ErrStoreUnavailable, s.path, err)
	}
	return nil
}

func parseRow(row []string) (model.Preference, error) {
	date, err := time.Parse(dateLayout, row[0])
	if err != nil {
		return model.Preference{}, fmt.Errorf("bad date %q", row[0])
	}
	status, err := model.ParseWireStatus(row[2])
	if err != nil {
		return model.Preference{}, err
	}
	reason := model.ReasonNone
	if len(row) > 3 && row[3] != "" {
		reason, err = model.ParseReason(row[3])
		if err != nil {
			return model.Preference{}, err
		}
	}
	return model.Preference{
		Date:   calendar.Normalize(date),
		Doctor: row[1],
		Status: status,
		Reason: reason,
	}, nil
}

func formatRow(r model.Preference) []string {
	return []string{
		r.Date.Format(dateLayout),
		r.Doctor,
		r.Status.WireStatus(),
		string(r.Reason),
	}
}
