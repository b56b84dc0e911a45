package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// PreferenceRow is the persisted form of one preference record.
type PreferenceRow struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"default:now()"`

	PrefDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_pref_date_doctor"`
	Doctor   string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_pref_date_doctor"`
	Status   string    `gorm:"type:varchar(50);not null"`
	Reason   string    `gorm:"type:varchar(10)"`
}

func (PreferenceRow) TableName() string {
	return "preferences"
}

// ScheduleRun records one accepted generator run for later inspection.
type ScheduleRun struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"default:now()" json:"created_at"`

	Year       int   `gorm:"not null" json:"year"`
	StartMonth int   `gorm:"not null" json:"start_month"`
	Trials     int   `gorm:"not null" json:"trials"`
	Seed       int64 `gorm:"not null" json:"seed"`
	Score      int   `gorm:"not null" json:"score"`

	UnfilledDates pq.StringArray `gorm:"type:text[]" json:"unfilled_dates"`
	Roster        datatypes.JSON `json:"roster"`
	Stats         datatypes.JSON `json:"stats"`
	DeniedFixed   datatypes.JSON `json:"denied_fixed"`
}

func (ScheduleRun) TableName() string {
	return "schedule_runs"
}

// PostgresStore keeps the preference table and run history in Postgres.
// Saves replace the whole table inside one transaction, so readers observe
// either the old or the new table, never a mix.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore connects to dsn and migrates the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrStoreUnavailable, err)
	}
	if err := db.AutoMigrate(&PreferenceRow{}, &ScheduleRun{}); err != nil {
		return nil, fmt.Errorf("%w: migrate: %v", ErrStoreUnavailable, err)
	}
	return &PostgresStore{db: db}, nil
}

// Load reads the whole preference table.
func (s *PostgresStore) Load(ctx context.Context) ([]model.Preference, error) {
	var rows []PreferenceRow
	if err := s.db.WithContext(ctx).Order("pref_date, doctor").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrStoreUnavailable, err)
	}

	records := make([]model.Preference, 0, len(rows))
	for _, row := range rows {
		status, err := model.ParseWireStatus(row.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: row %s: %v", ErrStoreUnavailable, row.ID, err)
		}
		reason, err := model.ParseReason(row.Reason)
		if err != nil {
			return nil, fmt.Errorf("%w: row %s: %v", ErrStoreUnavailable, row.ID, err)
		}
		records = append(records, model.Preference{
			Date:   calendar.Normalize(row.PrefDate),
			Doctor: row.Doctor,
			Status: status,
			Reason: reason,
		})
	}
	return records, nil
}

// Save replaces the whole preference table in one transaction.
func (s *PostgresStore) Save(ctx context.Context, records []model.Preference) error {
	rows := make([]PreferenceRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, PreferenceRow{
			ID:       uuid.New(),
			PrefDate: calendar.Normalize(r.Date),
			Doctor:   r.Doctor,
			Status:   r.Status.WireStatus(),
			Reason:   string(r.Reason),
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&PreferenceRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 500).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate (date, doctor) record: %v", ErrStoreUnavailable, err)
		}
		return fmt.Errorf("%w: save: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// SaveRun persists one schedule run.
func (s *PostgresStore) SaveRun(ctx context.Context, run *ScheduleRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("%w: save run: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// isUniqueViolation detects a Postgres unique-constraint error (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
