// Package store persists the preference table. The contract both backends
// honor is the one the engines rely on: atomic read of the whole table,
// atomic overwrite of the whole table, last writer wins.
package store

import (
	"context"
	"errors"

	"github.com/pzawadzki/grafik/internal/model"
)

// ErrStoreUnavailable wraps any backend failure surfaced to callers.
var ErrStoreUnavailable = errors.New("preference store unavailable")

// PreferenceStore loads and saves the whole preference table.
type PreferenceStore interface {
	Load(ctx context.Context) ([]model.Preference, error)
	Save(ctx context.Context, records []model.Preference) error
}
